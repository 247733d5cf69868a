package grammargen

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/service/sampler"

	"go.uber.org/zap"
)

func TestZipfSizes(t *testing.T) {
	got := ZipfSizes(20, 4)
	want := []int{10, 5, 3, 2}
	if !slices.Equal(got, want) {
		t.Fatalf("ZipfSizes(20, 4) = %v, want %v", got, want)
	}

	for _, n := range ZipfSizes(12, 12) {
		if n < 1 {
			t.Fatalf("class without words in %v", ZipfSizes(12, 12))
		}
	}
}

func TestGenerateParsesBack(t *testing.T) {
	for seed := uint64(0); seed < 30; seed++ {
		gen := NewGenerator(sampler.NewRand(seed), zap.NewNop())
		p := Params{NumWords: 40, NumClasses: 12, NumRelations: 15, ConnectorsLimit: 3}
		g, err := gen.Generate(p)
		if err != nil {
			t.Fatalf("seed %d: Generate: %v", seed, err)
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("seed %d: generated grammar has unmatched connectors: %v", seed, err)
		}

		text := Render(g, p)
		if !strings.HasPrefix(text, "% RANDOM GRAMMAR") {
			t.Fatalf("missing header:\n%s", text)
		}
		parsed, err := grammar.ParseString(text)
		if err != nil {
			t.Fatalf("seed %d: generated grammar does not parse: %v\n%s", seed, err, text)
		}
		if parsed.NumClasses() != p.NumClasses {
			t.Fatalf("seed %d: %d classes, want %d", seed, parsed.NumClasses(), p.NumClasses)
		}
		if parsed.String() != g.String() {
			t.Fatalf("seed %d: round trip differs", seed)
		}

		for _, cl := range parsed.Classes() {
			if len(cl.Words) == 0 {
				t.Fatalf("seed %d: class %d has no words", seed, cl.ID)
			}
			seen := make(map[string]bool)
			for _, d := range cl.Disjuncts {
				if d.Len() > p.ConnectorsLimit {
					t.Fatalf("seed %d: disjunct %q exceeds the connector limit", seed, d)
				}
				if seen[d.String()] {
					t.Fatalf("seed %d: duplicate disjunct %q in class %d", seed, d, cl.ID)
				}
				seen[d.String()] = true
				labels := make(map[string]bool)
				for _, c := range d.Connectors() {
					if labels[c.String()] {
						t.Fatalf("seed %d: connector %s repeated in %q", seed, c, d)
					}
					labels[c.String()] = true
				}
			}
		}
	}
}

func TestGeneratedLabelsDoNotOverlap(t *testing.T) {
	gen := NewGenerator(sampler.NewRand(5), zap.NewNop())
	g, err := gen.Generate(Params{NumWords: 30, NumClasses: 15, NumRelations: 40, ConnectorsLimit: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// every relation label must reach exactly the class holding its other end
	for _, cl := range g.Classes() {
		for _, d := range cl.Disjuncts {
			for _, c := range d.Connectors() {
				if got := g.CandidateClasses(c); len(got) != 1 {
					t.Fatalf("connector %s of class %d matches classes %v", c, cl.ID, got)
				}
			}
		}
	}
}

func TestSingleClassGrammar(t *testing.T) {
	gen := NewGenerator(sampler.NewRand(1), zap.NewNop())
	g, err := gen.Generate(Params{NumWords: 3, NumClasses: 1, NumRelations: 2, ConnectorsLimit: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := g.String(); !strings.Contains(got, "(C0_0+) or (C0_0-)") {
		t.Fatalf("unexpected single class grammar:\n%s", got)
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	gen := NewGenerator(sampler.NewRand(1), nil)
	bad := []Params{
		{NumWords: 3, NumClasses: 0, NumRelations: 1, ConnectorsLimit: 1},
		{NumWords: 2, NumClasses: 4, NumRelations: 1, ConnectorsLimit: 1},
		{NumWords: 8, NumClasses: 4, NumRelations: -1, ConnectorsLimit: 1},
		{NumWords: 8, NumClasses: 4, NumRelations: 3, ConnectorsLimit: 0},
	}
	for _, p := range bad {
		if _, err := gen.Generate(p); err == nil {
			t.Errorf("Generate(%+v) expected error", p)
		}
	}
}

func TestWriteFile(t *testing.T) {
	gen := NewGenerator(sampler.NewRand(9), zap.NewNop())
	g, err := gen.Generate(DefaultParams)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rand_grammar.txt")
	if err := WriteFile(path, g, DefaultParams); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("grammar file missing: %v", err)
	}
	if _, err := grammar.ParseFile(path); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
}
