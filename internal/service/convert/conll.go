// Package convert turns CoNLL treebanks into ULL and CRFAE parse files and
// CRFAE files back into ULL, so reference parses can be scored against
// generated ones.
package convert

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	fieldSeparator = "\t"
	minFields      = 8
)

// Row is one word line of a CoNLL or CoNLL-U file
type Row struct {
	ID      int
	Form    string
	Lemma   string
	UPosTag string
	XPosTag string
	Head    int
	DepRel  string
}

// Sentence is the rows of one CoNLL block in file order
type Sentence struct {
	Rows     []Row
	Comments []string
}

func parseInt(value string) (int, error) {
	if value == "_" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseString(value string) string {
	if value == "_" {
		return ""
	}
	return value
}

// ParseRow parses the tab separated fields of a word line
func ParseRow(fields []string) (Row, error) {
	var row Row
	if len(fields) < minFields {
		return row, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}
	id, err := parseInt(fields[0])
	if err != nil {
		return row, fmt.Errorf("bad ID field (%s): %w", fields[0], err)
	}
	row.ID = id
	// punctuation and symbols keep their form even when it is "_"
	row.UPosTag = parseString(fields[3])
	if row.UPosTag == "PUNCT" || row.UPosTag == "SYM" {
		row.Form = fields[1]
	} else {
		row.Form = parseString(fields[1])
	}
	row.Lemma = parseString(fields[2])
	row.XPosTag = parseString(fields[4])
	head, err := parseInt(fields[6])
	if err != nil {
		return row, fmt.Errorf("bad HEAD field (%s): %w", fields[6], err)
	}
	row.Head = head
	row.DepRel = parseString(fields[7])
	return row, nil
}

// isSpecialID matches multiword token ranges ("1-2") and empty nodes ("1.1")
func isSpecialID(id string) bool {
	return strings.ContainsAny(id, "-.")
}

// ReadConll reads every sentence of a CoNLL or CoNLL-U stream. Comment lines
// are kept on the sentence; multiword and empty-node lines are skipped.
func ReadConll(r io.Reader) ([]*Sentence, error) {
	var (
		sentences []*Sentence
		current   = &Sentence{}
		lineNo    int
	)
	flush := func() {
		if len(current.Rows) > 0 {
			sentences = append(sentences, current)
		}
		current = &Sentence{}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case strings.HasPrefix(line, "#"):
			current.Comments = append(current.Comments, line)
		default:
			fields := strings.Split(line, fieldSeparator)
			if isSpecialID(fields[0]) {
				continue
			}
			row, err := ParseRow(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if row.ID != len(current.Rows)+1 {
				return nil, fmt.Errorf("line %d: word id %d out of sequence", lineNo, row.ID)
			}
			current.Rows = append(current.Rows, row)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CoNLL input: %w", err)
	}
	flush()

	for i, s := range sentences {
		for _, row := range s.Rows {
			if row.Head < 0 || row.Head > len(s.Rows) {
				return nil, fmt.Errorf("sentence %d: word %d has head %d outside the sentence", i+1, row.ID, row.Head)
			}
		}
	}
	return sentences, nil
}
