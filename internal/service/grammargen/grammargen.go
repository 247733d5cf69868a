// Package grammargen builds random scale-free grammars: word counts per class
// follow a Zipf law and classes are tied together by random relations.
package grammargen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"gramgen-go/internal/model/grammar"

	"go.uber.org/zap"
)

// Params controls the shape of a generated grammar
type Params struct {
	NumWords        int
	NumClasses      int
	NumRelations    int
	ConnectorsLimit int
}

// DefaultParams mirrors the sizes used for the toy corpora
var DefaultParams = Params{
	NumWords:        20,
	NumClasses:      4,
	NumRelations:    7,
	ConnectorsLimit: 2,
}

func (p Params) validate() error {
	if p.NumClasses < 1 {
		return fmt.Errorf("num classes must be positive, got %d", p.NumClasses)
	}
	if p.NumWords < p.NumClasses {
		return fmt.Errorf("num words (%d) must be at least num classes (%d)", p.NumWords, p.NumClasses)
	}
	if p.NumRelations < 0 {
		return fmt.Errorf("num relations must not be negative, got %d", p.NumRelations)
	}
	if p.ConnectorsLimit < 1 {
		return fmt.Errorf("connectors limit must be positive, got %d", p.ConnectorsLimit)
	}
	return nil
}

// relation ties class From (right-pointing end) to class To (left-pointing end)
type relation struct {
	From, To int
}

type Generator struct {
	rng    *rand.Rand
	logger *zap.Logger
}

func NewGenerator(rng *rand.Rand, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{rng: rng, logger: logger}
}

// Generate builds a grammar with the given parameters
func (g *Generator) Generate(p Params) (*grammar.Grammar, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	sizes := ZipfSizes(p.NumWords, p.NumClasses)
	relations := g.relations(p)
	width := len(fmt.Sprint(p.NumClasses - 1))

	perClass := make([][]grammar.Connector, p.NumClasses)
	for _, r := range relations {
		suffix := fmt.Sprintf("%0*d_%0*d", width, r.From, width, r.To)
		perClass[r.From] = append(perClass[r.From], grammar.Connector{Type: "C", Suffix: suffix, Dir: grammar.Right})
		perClass[r.To] = append(perClass[r.To], grammar.Connector{Type: "C", Suffix: suffix, Dir: grammar.Left})
	}

	classes := make([]*grammar.Class, p.NumClasses)
	next := 0
	for c := 0; c < p.NumClasses; c++ {
		words := make([]string, sizes[c])
		for i := range words {
			words[i] = fmt.Sprintf("W%d", next)
			next++
		}
		classes[c] = &grammar.Class{
			Words:     words,
			Disjuncts: g.disjuncts(perClass[c], p.ConnectorsLimit),
		}
	}

	gr, err := grammar.New(classes)
	if err != nil {
		return nil, fmt.Errorf("failed to build generated grammar: %w", err)
	}
	g.logger.Info("Generated random grammar",
		zap.Int("classes", p.NumClasses),
		zap.Int("words", next),
		zap.Int("relations", len(relations)))
	return gr, nil
}

// ZipfSizes splits numWords over numClasses proportionally to 1/rank.
// Every class gets at least one word.
func ZipfSizes(numWords, numClasses int) []int {
	harmonic := 0.0
	for k := 1; k <= numClasses; k++ {
		harmonic += 1 / float64(k)
	}
	sizes := make([]int, numClasses)
	for k := 1; k <= numClasses; k++ {
		n := int(math.Round(float64(numWords) / float64(k) / harmonic))
		sizes[k-1] = max(n, 1)
	}
	return sizes
}

// relations draws NumRelations class pairs, skipping self pairs and
// duplicates, then links every class left without a relation.
func (g *Generator) relations(p Params) []relation {
	var out []relation
	seen := make(map[relation]bool)
	add := func(r relation) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}

	if p.NumClasses == 1 {
		add(relation{0, 0})
		return out
	}

	for i := 0; i < p.NumRelations; i++ {
		a, b := g.rng.IntN(p.NumClasses), g.rng.IntN(p.NumClasses)
		if a != b {
			add(relation{a, b})
		}
	}

	connected := make([]bool, p.NumClasses)
	for _, r := range out {
		connected[r.From], connected[r.To] = true, true
	}
	for c, ok := range connected {
		if ok {
			continue
		}
		other := g.rng.IntN(p.NumClasses - 1)
		if other >= c {
			other++
		}
		if g.rng.IntN(2) == 0 {
			add(relation{c, other})
		} else {
			add(relation{other, c})
		}
		connected[other] = true
	}
	return out
}

// disjuncts creates one disjunct per connector: the connector itself plus a
// random selection of the class's other connectors, up to limit in total.
func (g *Generator) disjuncts(connectors []grammar.Connector, limit int) []grammar.Disjunct {
	maxConnectors := min(limit, len(connectors))
	seen := make(map[string]bool)
	var out []grammar.Disjunct
	for i, c := range connectors {
		n := 1 + g.rng.IntN(maxConnectors)
		others := make([]grammar.Connector, 0, len(connectors)-1)
		others = append(others, connectors[:i]...)
		others = append(others, connectors[i+1:]...)
		g.rng.Shuffle(len(others), func(a, b int) { others[a], others[b] = others[b], others[a] })

		d := grammar.NewDisjunct(slices.Concat([]grammar.Connector{c}, others[:n-1])...)
		key := d.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// Render returns the grammar file text with a header recording the parameters
func Render(gr *grammar.Grammar, p Params) string {
	var b strings.Builder
	b.WriteString("% RANDOM GRAMMAR with parameters:\n")
	fmt.Fprintf(&b, "%% num_words = %d\n", p.NumWords)
	fmt.Fprintf(&b, "%% num_classes = %d\n", p.NumClasses)
	fmt.Fprintf(&b, "%% num_relations = %d\n", p.NumRelations)
	fmt.Fprintf(&b, "%% connectors_limit = %d\n", p.ConnectorsLimit)
	b.WriteString(strings.Repeat("%", 48))
	b.WriteString("\n\n")
	b.WriteString(gr.String())
	return b.String()
}

// WriteFile renders the grammar to path
func WriteFile(path string, gr *grammar.Grammar, p Params) error {
	if err := os.WriteFile(path, []byte(Render(gr, p)), 0o644); err != nil {
		return fmt.Errorf("failed to write grammar file %s: %w", path, err)
	}
	return nil
}
