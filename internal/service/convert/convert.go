package convert

import (
	"strings"

	"gramgen-go/internal/model/ull"

	"go.uber.org/zap"
)

const (
	// LeftWall is the word standing for the root position 0 in ULL links
	LeftWall   = "###LEFT-WALL###"
	NumberWord = "<NUM>"

	removed = -1
)

// Options control the clean-up applied while converting CoNLL sentences
type Options struct {
	// RemovePunctuation drops punctuation words and every link touching
	// them, and replaces numerals with NumberWord
	RemovePunctuation bool
	// MaxLength skips sentences longer than this after clean-up; 0 means no limit
	MaxLength int
	Lowercase bool
}

type Converter struct {
	opts   Options
	logger *zap.Logger
}

func NewConverter(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{opts: opts, logger: logger}
}

func (c *Converter) Options() Options {
	return c.opts
}

func isPunctuation(row Row) bool {
	for _, tag := range []string{row.UPosTag, row.DepRel} {
		switch tag {
		case "p", "PUNCT", "punct":
			return true
		}
	}
	return false
}

// cleaned is a sentence after clean-up. Index 0 of words and mapping is the root.
type cleaned struct {
	words   []string
	pos     []string
	heads   []int
	mapping []int
	length  int
}

func (c *Converter) clean(s *Sentence) cleaned {
	n := len(s.Rows) + 1
	cl := cleaned{
		words:   make([]string, n),
		pos:     make([]string, n),
		heads:   make([]int, n),
		mapping: make([]int, n),
	}
	cl.words[0], cl.pos[0] = LeftWall, "ROOT"

	next := 1
	for i, row := range s.Rows {
		idx := i + 1
		word := row.Form
		if c.opts.Lowercase {
			word = strings.ToLower(word)
		}
		cl.heads[idx] = row.Head
		cl.pos[idx] = row.UPosTag
		if c.opts.RemovePunctuation {
			if isPunctuation(row) {
				cl.words[idx] = word
				cl.mapping[idx] = removed
				continue
			}
			if row.UPosTag == "NUM" {
				word = NumberWord
			}
		}
		cl.words[idx] = word
		cl.mapping[idx] = next
		next++
	}
	cl.length = next - 1
	return cl
}

func (c *Converter) keep(length int) bool {
	return length > 0 && (c.opts.MaxLength <= 0 || length <= c.opts.MaxLength)
}

func (cl cleaned) sentence() []string {
	out := make([]string, 0, cl.length)
	for i := 1; i < len(cl.words); i++ {
		if cl.mapping[i] != removed {
			out = append(out, cl.words[i])
		}
	}
	return out
}

// ConllToULL converts one sentence. Links touching removed punctuation are
// dropped and the remaining positions renumbered; links to the root use
// LeftWall at position 0. ok is false when the sentence is filtered out by length.
func (c *Converter) ConllToULL(s *Sentence) (rec ull.Record, ok bool) {
	cl := c.clean(s)
	if !c.keep(cl.length) {
		return ull.Record{}, false
	}

	var links []ull.Link
	for i := 1; i < len(cl.words); i++ {
		h := cl.heads[i]
		if cl.mapping[i] == removed || cl.mapping[h] == removed {
			continue
		}
		links = append(links, ull.NewLink(cl.mapping[h], cl.words[h], cl.mapping[i], cl.words[i]))
	}
	ull.SortLinks(links)
	return ull.Record{Sentence: strings.Join(cl.sentence(), " "), Links: links}, true
}

// CRFAERecord is one sentence in the four line CRFAE layout
type CRFAERecord struct {
	Words []string
	POS   []string
	// Heads are 1-based head positions, 0 for the root
	Heads []int
}

// ConllToCRFAE converts one sentence. A word whose head was removed as
// punctuation is attached to the nearest kept ancestor.
func (c *Converter) ConllToCRFAE(s *Sentence) (rec CRFAERecord, ok bool) {
	cl := c.clean(s)
	if !c.keep(cl.length) {
		return CRFAERecord{}, false
	}

	for i := 1; i < len(cl.words); i++ {
		if cl.mapping[i] == removed {
			continue
		}
		h := cl.heads[i]
		for steps := 0; h != 0 && cl.mapping[h] == removed && steps < len(cl.words); steps++ {
			h = cl.heads[h]
		}
		if h != 0 && cl.mapping[h] == removed {
			h = 0
		}
		rec.Words = append(rec.Words, cl.words[i])
		rec.POS = append(rec.POS, cl.pos[i])
		rec.Heads = append(rec.Heads, cl.mapping[h])
	}
	return rec, true
}

// CRFAEToULL converts a CRFAE record into a ULL record. ok is false when the
// sentence is filtered out by length.
func (c *Converter) CRFAEToULL(rec CRFAERecord) (ull.Record, bool) {
	if !c.keep(len(rec.Words)) {
		return ull.Record{}, false
	}
	word := func(pos int) string {
		if pos == 0 {
			return LeftWall
		}
		return rec.Words[pos-1]
	}
	links := make([]ull.Link, 0, len(rec.Words))
	for i, h := range rec.Heads {
		links = append(links, ull.NewLink(h, word(h), i+1, rec.Words[i]))
	}
	ull.SortLinks(links)
	return ull.Record{Sentence: strings.Join(rec.Words, " "), Links: links}, true
}
