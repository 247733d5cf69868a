package sampler

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/model/ull"

	"go.uber.org/zap"
)

const englishLikeGrammar = `
% toy english
the a:
D+;

cat dog bird:
(A- & D- & S+) or (D- & S+) or (D- & O-) or (A- & D- & O-);

big small red:
A+;

chased saw likes:
(S- & O+) or (S-) or (S- & O+ & MV+);

quickly today:
MV-;
`

func mustGrammar(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	g, err := grammar.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return g
}

func TestTwoClassScenario(t *testing.T) {
	g := mustGrammar(t, "a:\nX+;\nb:\nX-;\n")

	for seed := uint64(0); seed < 50; seed++ {
		s := New(g, NewRand(seed), Config{}, zap.NewNop())
		p, err := s.Generate(context.Background())
		if err != nil {
			t.Fatalf("seed %d: Generate: %v", seed, err)
		}
		if p.Sentence != "a b ." {
			t.Fatalf("seed %d: sentence = %q, want %q", seed, p.Sentence, "a b .")
		}
		if len(p.Links) != 1 || p.Links[0].String() != "1 a 2 b" {
			t.Fatalf("seed %d: links = %v, want [1 a 2 b]", seed, p.Links)
		}
		if p.ULL() != "a b .\n1 a 2 b\n" {
			t.Fatalf("seed %d: ULL = %q", seed, p.ULL())
		}
	}
}

func TestDeadEndScenario(t *testing.T) {
	g := mustGrammar(t, "a:\nX+ & Y+;\nb:\nX-;\n")
	s := New(g, NewRand(7), Config{MaxRetries: 5}, zap.NewNop())

	_, err := s.Generate(context.Background())
	if err == nil {
		t.Fatal("Expected dead end error")
	}
	if !errors.Is(err, ErrGenerationDeadEnd) {
		t.Fatalf("Expected ErrGenerationDeadEnd, got %v", err)
	}
	var de *DeadEndError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DeadEndError, got %T", err)
	}
	if de.Connector.String() != "Y+" {
		t.Errorf("dead end connector = %s, want Y+", de.Connector)
	}
	if !strings.Contains(err.Error(), "6 attempts") {
		t.Errorf("error should report the attempt count: %v", err)
	}
}

func TestOverflowOnRecursiveGrammar(t *testing.T) {
	g := mustGrammar(t, "a:\nX+;\nb:\nX- & X+;\n")
	s := New(g, NewRand(1), Config{MaxNodes: 20, MaxRetries: 2}, zap.NewNop())

	_, err := s.Generate(context.Background())
	if !errors.Is(err, ErrGenerationOverflow) {
		t.Fatalf("Expected ErrGenerationOverflow, got %v", err)
	}

	s = New(g, NewRand(1), Config{MaxNodes: 10000, MaxDepth: 15, MaxRetries: -1}, zap.NewNop())
	_, err = s.Generate(context.Background())
	var oe *OverflowError
	if !errors.As(err, &oe) || oe.Limit != "depth" {
		t.Fatalf("Expected depth overflow, got %v", err)
	}
}

func TestGenerateHonoursContext(t *testing.T) {
	g := mustGrammar(t, englishLikeGrammar)
	s := New(g, NewRand(1), Config{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Generate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestGenerateFromValidatesStart(t *testing.T) {
	g := mustGrammar(t, englishLikeGrammar)
	s := New(g, NewRand(1), Config{}, zap.NewNop())
	ctx := context.Background()

	if _, err := s.GenerateFrom(ctx, Start{Class: 9, Disjunct: -1}); err == nil {
		t.Error("Expected error for out-of-range class")
	}
	if _, err := s.GenerateFrom(ctx, Start{Class: -1, Disjunct: 0}); err == nil {
		t.Error("Expected error for disjunct without class")
	}
	if _, err := s.GenerateFrom(ctx, Start{Class: 0, Disjunct: 3}); err == nil {
		t.Error("Expected error for out-of-range disjunct")
	}

	p, err := s.GenerateFrom(ctx, Start{Class: 3, Disjunct: 1})
	if err != nil {
		t.Fatalf("GenerateFrom: %v", err)
	}
	root := p.Root()
	if root.Class != 3 {
		t.Errorf("root class = %d, want 3", root.Class)
	}
	// "(S-)" gives the verb a single subject to its left
	if root.Position == 1 {
		t.Errorf("verb root should not be first: %q", p.Sentence)
	}
}

func TestDeterminismUnderFixedSeed(t *testing.T) {
	g := mustGrammar(t, englishLikeGrammar)
	a := New(g, NewRand(42), Config{}, zap.NewNop())
	b := New(g, NewRand(42), Config{}, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		pa, err := a.Generate(ctx)
		if err != nil {
			t.Fatalf("Generate a: %v", err)
		}
		pb, err := b.Generate(ctx)
		if err != nil {
			t.Fatalf("Generate b: %v", err)
		}
		if pa.ULL() != pb.ULL() {
			t.Fatalf("iteration %d differs:\n%s\nvs\n%s", i, pa.ULL(), pb.ULL())
		}
	}
}

func TestParseProperties(t *testing.T) {
	g := mustGrammar(t, englishLikeGrammar)
	ctx := context.Background()

	for seed := uint64(0); seed < 200; seed++ {
		s := New(g, NewRand(seed), Config{}, zap.NewNop())
		p, err := s.Generate(ctx)
		if err != nil {
			t.Fatalf("seed %d: Generate: %v", seed, err)
		}
		checkParse(t, g, p)
	}
}

func TestGeneralizedLabelsLink(t *testing.T) {
	g := mustGrammar(t, "he:\nS+;\nruns walks:\nSs-;\n")
	s := New(g, NewRand(3), Config{EndMarker: "-"}, zap.NewNop())
	for i := 0; i < 10; i++ {
		p, err := s.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(p.Words) != 2 || p.Words[0] != "he" {
			t.Fatalf("unexpected parse %q", p.Sentence)
		}
		if strings.HasSuffix(p.Sentence, ".") {
			t.Fatalf("end marker should be disabled: %q", p.Sentence)
		}
		checkParse(t, g, p)
	}
}

func TestWordInstanceLabels(t *testing.T) {
	inst := WordInstance{Word: "new_york", Class: 12, ID: 7}
	if inst.Label() != "new_york_12_7" {
		t.Fatalf("Label() = %q", inst.Label())
	}
	got, err := ParseWordInstance(inst.Label())
	if err != nil {
		t.Fatalf("ParseWordInstance: %v", err)
	}
	if got != inst {
		t.Errorf("ParseWordInstance = %+v, want %+v", got, inst)
	}
	for _, bad := range []string{"word", "word_3", "word_x_1", "word_1_y"} {
		if _, err := ParseWordInstance(bad); err == nil {
			t.Errorf("ParseWordInstance(%q) expected error", bad)
		}
	}
}

func TestResolvePosition(t *testing.T) {
	g := mustGrammar(t, englishLikeGrammar)
	s := New(g, NewRand(11), Config{}, zap.NewNop())
	p, err := s.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, n := range p.Nodes {
		label := WordInstance{Word: n.Word, Class: n.Class, ID: n.ID}.Label()
		word, pos, err := p.ResolvePosition(label)
		if err != nil {
			t.Fatalf("ResolvePosition(%q): %v", label, err)
		}
		if word != n.Word || pos != n.Position {
			t.Errorf("ResolvePosition(%q) = %s@%d, want %s@%d", label, word, pos, n.Word, n.Position)
		}
	}
	if _, _, err := p.ResolvePosition("ghost_0_999"); err == nil {
		t.Error("Expected error for unknown instance")
	}
}

// checkParse asserts the structural invariants every generated parse must hold
func checkParse(t *testing.T, g *grammar.Grammar, p *GeneratedParse) {
	t.Helper()
	n := len(p.Nodes)
	if n < 2 {
		t.Fatalf("parse too short: %q", p.Sentence)
	}

	// position bijection
	for i, node := range p.Nodes {
		if node.Position != i+1 {
			t.Fatalf("node %d has position %d", i, node.Position)
		}
		if p.Words[i] != node.Word {
			t.Fatalf("word %d = %q, node says %q", i, p.Words[i], node.Word)
		}
		if !slices.Contains(g.Class(node.Class).Words, node.Word) {
			t.Fatalf("word %q not in vocabulary of class %d", node.Word, node.Class)
		}
	}
	ids := make(map[int]bool)
	for _, node := range p.Nodes {
		if ids[node.ID] {
			t.Fatalf("duplicate generation id %d", node.ID)
		}
		ids[node.ID] = true
	}

	// exactly one root, every other node has one head
	roots := 0
	for _, node := range p.Nodes {
		if node.Head == 0 {
			roots++
			continue
		}
		if node.Head < 1 || node.Head > n || node.Head == node.Position {
			t.Fatalf("node %d has invalid head %d", node.Position, node.Head)
		}
		// connector consumption
		if !grammar.IsCompatible(node.Via, node.Back) {
			t.Fatalf("node %d linked through incompatible %s / %s", node.Position, node.Via, node.Back)
		}
		if node.Via.Dir == grammar.Right && node.Position < node.Head {
			t.Fatalf("right connector %s attached node %d left of head %d", node.Via, node.Position, node.Head)
		}
		if node.Via.Dir == grammar.Left && node.Position > node.Head {
			t.Fatalf("left connector %s attached node %d right of head %d", node.Via, node.Position, node.Head)
		}
	}
	if roots != 1 {
		t.Fatalf("expected exactly one root, got %d in %q", roots, p.Sentence)
	}
	if len(p.Links) != n-1 {
		t.Fatalf("expected %d links, got %d", n-1, len(p.Links))
	}

	// links mirror heads
	want := make([]string, 0, n-1)
	for _, node := range p.Nodes {
		if node.Head != 0 {
			head := p.Nodes[node.Head-1]
			want = append(want, ull.NewLink(head.Position, head.Word, node.Position, node.Word).String())
		}
	}
	slices.Sort(want)
	got := make([]string, len(p.Links))
	for i, l := range p.Links {
		got[i] = l.String()
		if l.LeftPos >= l.RightPos {
			t.Fatalf("link %q not ordered", l)
		}
	}
	if !slices.Equal(got, want) {
		t.Fatalf("links %v do not match heads %v", got, want)
	}
	if !ull.IsSorted(p.Links) {
		t.Fatalf("links not sorted: %v", got)
	}

	// projectivity
	for i, a := range p.Links {
		for _, b := range p.Links[i+1:] {
			if (a.LeftPos < b.LeftPos && b.LeftPos < a.RightPos && a.RightPos < b.RightPos) ||
				(b.LeftPos < a.LeftPos && a.LeftPos < b.RightPos && b.RightPos < a.RightPos) {
				t.Fatalf("links %q and %q cross in %q", a, b, p.Sentence)
			}
		}
	}

	if want := strings.Join(p.Words, " "); !strings.HasPrefix(p.Sentence, want) {
		t.Fatalf("sentence %q does not start with words %q", p.Sentence, want)
	}
}
