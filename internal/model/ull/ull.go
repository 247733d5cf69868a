// Package ull reads and writes ULL parse records: a sentence line followed by
// one "leftPos leftWord rightPos rightWord" line per link and a blank line.
package ull

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Link is one undirected dependency edge with 1-based positions, LeftPos < RightPos
type Link struct {
	LeftPos   int
	LeftWord  string
	RightPos  int
	RightWord string
}

// NewLink orders the two endpoints so the lower position comes first
func NewLink(aPos int, aWord string, bPos int, bWord string) Link {
	if bPos < aPos {
		aPos, aWord, bPos, bWord = bPos, bWord, aPos, aWord
	}
	return Link{LeftPos: aPos, LeftWord: aWord, RightPos: bPos, RightWord: bWord}
}

func (l Link) String() string {
	return fmt.Sprintf("%d %s %d %s", l.LeftPos, l.LeftWord, l.RightPos, l.RightWord)
}

// ParseLink parses a single link line
func ParseLink(line string) (Link, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Link{}, fmt.Errorf("link line %q: expected 4 fields, got %d", line, len(fields))
	}
	left, err := strconv.Atoi(fields[0])
	if err != nil {
		return Link{}, fmt.Errorf("link line %q: bad left position: %w", line, err)
	}
	right, err := strconv.Atoi(fields[2])
	if err != nil {
		return Link{}, fmt.Errorf("link line %q: bad right position: %w", line, err)
	}
	return Link{LeftPos: left, LeftWord: fields[1], RightPos: right, RightWord: fields[3]}, nil
}

// SortLinks orders links lexicographically on their rendered line
func SortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool {
		return links[i].String() < links[j].String()
	})
}

// IsSorted reports whether links are in lexicographic order
func IsSorted(links []Link) bool {
	return sort.SliceIsSorted(links, func(i, j int) bool {
		return links[i].String() < links[j].String()
	})
}

// Record is one parsed sentence
type Record struct {
	Sentence string
	Links    []Link
}

// Words splits the sentence into tokens
func (r Record) Words() []string {
	return strings.Fields(r.Sentence)
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Sentence)
	b.WriteByte('\n')
	for _, l := range r.Links {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteRecord writes a record and its terminating blank line
func WriteRecord(w io.Writer, r Record) error {
	_, err := io.WriteString(w, r.String()+"\n")
	return err
}

// Write writes every record in order
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if err := WriteRecord(bw, r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses ULL records. Blank lines separate records; a record may have no links.
func Read(r io.Reader) ([]Record, error) {
	var (
		records []Record
		current *Record
		lineNo  int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if current != nil {
				records = append(records, *current)
				current = nil
			}
			continue
		}
		if current == nil {
			current = &Record{Sentence: line}
			continue
		}
		link, err := ParseLink(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		current.Links = append(current.Links, link)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		records = append(records, *current)
	}
	return records, nil
}
