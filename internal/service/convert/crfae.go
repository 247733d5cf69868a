package convert

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteCRFAE writes records as words, POS, POS and heads lines followed by a blank line
func WriteCRFAE(w io.Writer, records []CRFAERecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		heads := make([]string, len(r.Heads))
		for i, h := range r.Heads {
			heads[i] = strconv.Itoa(h)
		}
		pos := strings.Join(r.POS, fieldSeparator)
		for _, line := range []string{strings.Join(r.Words, fieldSeparator), pos, pos, strings.Join(heads, fieldSeparator), ""} {
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadCRFAE parses records written by WriteCRFAE
func ReadCRFAE(r io.Reader) ([]CRFAERecord, error) {
	var (
		records []CRFAERecord
		block   []string
		lineNo  int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		defer func() { block = nil }()
		if len(block) != 4 {
			return fmt.Errorf("line %d: CRFAE record has %d lines, want 4", lineNo, len(block))
		}
		words := strings.Split(block[0], fieldSeparator)
		pos := strings.Split(block[1], fieldSeparator)
		heads := strings.Split(block[3], fieldSeparator)
		if len(pos) != len(words) || len(heads) != len(words) {
			return fmt.Errorf("line %d: CRFAE record has %d words, %d tags and %d heads", lineNo, len(words), len(pos), len(heads))
		}
		rec := CRFAERecord{Words: words, POS: pos, Heads: make([]int, len(heads))}
		for i, h := range heads {
			v, err := strconv.Atoi(strings.TrimSpace(h))
			if err != nil {
				return fmt.Errorf("line %d: bad head %q: %w", lineNo, h, err)
			}
			if v < 0 || v > len(words) {
				return fmt.Errorf("line %d: head %d outside the sentence", lineNo, v)
			}
			rec.Heads[i] = v
		}
		records = append(records, rec)
		return nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CRFAE input: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return records, nil
}
