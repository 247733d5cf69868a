package ull

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLinkOrdersEndpoints(t *testing.T) {
	l := NewLink(3, "dog", 1, "the")
	if l.LeftPos != 1 || l.LeftWord != "the" || l.RightPos != 3 || l.RightWord != "dog" {
		t.Fatalf("NewLink did not order endpoints: %+v", l)
	}
	if l.String() != "1 the 3 dog" {
		t.Errorf("String() = %q", l.String())
	}
}

func TestSortLinksIsLexicographic(t *testing.T) {
	links := []Link{
		NewLink(2, "b", 10, "j"),
		NewLink(1, "a", 2, "b"),
		NewLink(10, "j", 11, "k"),
	}
	SortLinks(links)
	want := []string{"1 a 2 b", "10 j 11 k", "2 b 10 j"}
	for i, l := range links {
		if l.String() != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, l.String(), want[i])
		}
	}
	if !IsSorted(links) {
		t.Error("IsSorted returned false after SortLinks")
	}
}

func TestReadWrite(t *testing.T) {
	input := "a b .\n1 a 2 b\n\nthe dog ran .\n1 the 2 dog\n2 dog 3 ran\n\nalone .\n\n"
	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[1].Sentence != "the dog ran ." || len(records[1].Links) != 2 {
		t.Errorf("record 1 = %+v", records[1])
	}
	if len(records[2].Links) != 0 {
		t.Errorf("record 2 should have no links, got %v", records[2].Links)
	}
	if got := records[1].Words(); len(got) != 4 {
		t.Errorf("Words() = %v", got)
	}

	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != input {
		t.Errorf("Write output mismatch:\n%q\nwant\n%q", buf.String(), input)
	}
}

func TestReadWithoutTrailingBlank(t *testing.T) {
	records, err := Read(strings.NewReader("x y\n1 x 2 y"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 1 || len(records[0].Links) != 1 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestReadBadLink(t *testing.T) {
	_, err := Read(strings.NewReader("x y\n1 x two y\n"))
	if err == nil {
		t.Fatal("Expected error for non-numeric position")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
}
