package grammar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	vocabularyTerminator = ":"
	ruleTerminator       = ";"
	disjunctionToken     = "or"
	conjunctionToken     = "&"
)

// ParseFile reads and parses a grammar file
func ParseFile(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grammar %s: %w", path, err)
	}
	defer f.Close()

	g, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar %s: %w", path, err)
	}
	return g, nil
}

// ParseString parses a grammar held in memory
func ParseString(s string) (*Grammar, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads a grammar description. Each class is a vocabulary line ending
// in ':' followed by a rule line ending in ';'. Lines starting with '%' or
// '<' are comments; parentheses are ignored.
func Parse(r io.Reader) (*Grammar, error) {
	var (
		classes []*Class
		pending []string
		vocabAt int
		lineNo  int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		line := cleanLine(sc.Text())
		if line == "" {
			continue
		}

		// "words: rule;" on a single line
		if strings.HasSuffix(line, ruleTerminator) {
			if idx := strings.Index(line, vocabularyTerminator); idx >= 0 {
				if pending != nil {
					return nil, &FormatError{Line: lineNo, Reason: "vocabulary given twice for one class"}
				}
				words, err := parseVocabulary(line[:idx+1])
				if err != nil {
					return nil, &FormatError{Line: lineNo, Reason: "invalid vocabulary", Err: err}
				}
				pending, vocabAt = words, lineNo
				line = strings.TrimSpace(line[idx+1:])
			}
		}

		switch {
		case strings.HasSuffix(line, vocabularyTerminator):
			if pending != nil {
				return nil, &FormatError{Line: lineNo, Reason: fmt.Sprintf("vocabulary from line %d has no rule", vocabAt)}
			}
			words, err := parseVocabulary(line)
			if err != nil {
				return nil, &FormatError{Line: lineNo, Reason: "invalid vocabulary", Err: err}
			}
			pending, vocabAt = words, lineNo

		case strings.HasSuffix(line, ruleTerminator):
			if pending == nil {
				return nil, &FormatError{Line: lineNo, Reason: "rule without a preceding vocabulary"}
			}
			disjuncts, err := parseRule(line)
			if err != nil {
				return nil, &FormatError{Line: lineNo, Reason: "invalid rule", Err: err}
			}
			classes = append(classes, &Class{
				ID:        ClassID(len(classes)),
				Words:     pending,
				Disjuncts: disjuncts,
			})
			pending = nil

		default:
			return nil, &FormatError{Line: lineNo, Reason: fmt.Sprintf("line must end with %q or %q", vocabularyTerminator, ruleTerminator)}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	if pending != nil {
		return nil, &FormatError{Line: vocabAt, Reason: "vocabulary has no rule"}
	}

	return New(classes)
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "%") || strings.HasPrefix(line, "<") {
		return ""
	}
	line = strings.NewReplacer("(", " ", ")", " ").Replace(line)
	return strings.TrimSpace(line)
}

func parseVocabulary(line string) ([]string, error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), vocabularyTerminator)
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil, errors.New("empty vocabulary")
	}
	return words, nil
}

func parseRule(line string) ([]Disjunct, error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ruleTerminator)
	line = strings.ReplaceAll(line, conjunctionToken, " "+conjunctionToken+" ")

	var (
		disjuncts []Disjunct
		current   []Connector
		expectCon = true
	)
	flush := func() error {
		if len(current) == 0 || expectCon {
			return fmt.Errorf("empty disjunct %d", len(disjuncts))
		}
		disjuncts = append(disjuncts, NewDisjunct(current...))
		current = current[:0]
		return nil
	}

	for _, tok := range strings.Fields(line) {
		switch tok {
		case disjunctionToken:
			if err := flush(); err != nil {
				return nil, err
			}
			expectCon = true
		case conjunctionToken:
			if expectCon {
				return nil, fmt.Errorf("dangling %q", conjunctionToken)
			}
			expectCon = true
		default:
			if !expectCon {
				return nil, fmt.Errorf("connectors %s and %s must be joined with %q", current[len(current)-1], tok, conjunctionToken)
			}
			c, err := ParseConnector(tok)
			if err != nil {
				return nil, err
			}
			current = append(current, c)
			expectCon = false
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return disjuncts, nil
}
