package treebank

import (
	"context"
	"testing"

	"gramgen-go/internal/config"
	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/service/sampler"

	"go.uber.org/zap"
)

const toyGrammar = `
the a:
D+;
cat dog:
(D- & S+) or (D- & O-);
chased saw:
(S- & O+) or (S-);
`

func newTestTreebank(t *testing.T) *Treebank {
	t.Helper()
	db, err := NewKuzuDatabase(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create Kuzu database: %v", err)
	}
	tb := NewTreebank(db, zap.NewNop())
	t.Cleanup(func() { tb.Close(context.Background()) })
	return tb
}

func generate(t *testing.T, seed uint64) *sampler.GeneratedParse {
	t.Helper()
	g, err := grammar.ParseString(toyGrammar)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	p, err := sampler.New(g, sampler.NewRand(seed), sampler.Config{}, zap.NewNop()).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return p
}

func TestKuzuDatabase_BasicFunctionality(t *testing.T) {
	db, err := NewKuzuDatabase(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create Kuzu database: %v", err)
	}
	defer db.Close(context.Background())
	ctx := context.Background()

	if err := db.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("Failed to verify connectivity: %v", err)
	}

	record, err := db.ExecuteReadSingle(ctx, "RETURN 'hello' as greeting, 42 as number", nil)
	if err != nil {
		t.Fatalf("Failed to execute single read: %v", err)
	}
	if record["greeting"] != "hello" {
		t.Fatalf("Expected greeting='hello', got %v", record["greeting"])
	}
	if record["number"] != int64(42) {
		t.Fatalf("Expected number=42, got %v", record["number"])
	}

	if _, err := db.ExecuteReadSingle(ctx, "MATCH (s:Sentence) RETURN s.id AS id", nil); err == nil {
		t.Fatal("Expected error for query with no results, got nil")
	}
}

func TestSaveAndLoadParse(t *testing.T) {
	tb := newTestTreebank(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := generate(t, uint64(i))
		if err := tb.SaveParse(ctx, "run-a", i, p); err != nil {
			t.Fatalf("SaveParse %d: %v", i, err)
		}

		got, err := tb.LoadParse(ctx, "run-a", i)
		if err != nil {
			t.Fatalf("LoadParse %d: %v", i, err)
		}
		if got.ULL() != p.ULL() {
			t.Fatalf("parse %d differs after storage:\n%s\nvs\n%s", i, got.ULL(), p.ULL())
		}
		if len(got.Nodes) != len(p.Nodes) {
			t.Fatalf("parse %d: %d nodes, want %d", i, len(got.Nodes), len(p.Nodes))
		}
		for j := range p.Nodes {
			if got.Nodes[j] != p.Nodes[j] {
				t.Fatalf("parse %d node %d = %+v, want %+v", i, j, got.Nodes[j], p.Nodes[j])
			}
		}
	}

	if err := tb.SaveParse(ctx, "run-b", 0, generate(t, 99)); err != nil {
		t.Fatalf("SaveParse: %v", err)
	}

	total, err := tb.CountSentences(ctx, "")
	if err != nil {
		t.Fatalf("CountSentences: %v", err)
	}
	if total != 6 {
		t.Fatalf("Expected 6 sentences, got %d", total)
	}
	runA, err := tb.CountSentences(ctx, "run-a")
	if err != nil {
		t.Fatalf("CountSentences: %v", err)
	}
	if runA != 5 {
		t.Fatalf("Expected 5 sentences in run-a, got %d", runA)
	}

	if _, err := tb.LoadParse(ctx, "run-c", 0); err == nil {
		t.Fatal("Expected error loading a missing parse")
	}
}

func TestRecordToNodeErrors(t *testing.T) {
	good := map[string]any{
		"position": int64(2), "classId": int64(1), "genId": int64(3), "head": int64(1),
		"form": "cat", "via": "S+", "back": "S-",
	}
	n, err := recordToNode(good)
	if err != nil {
		t.Fatalf("recordToNode: %v", err)
	}
	if n.Via.String() != "S+" || n.Back.String() != "S-" || n.Word != "cat" || n.Head != 1 {
		t.Fatalf("unexpected node %+v", n)
	}

	badType := map[string]any{"position": "two", "classId": int64(1), "genId": int64(3), "head": int64(1)}
	if _, err := recordToNode(badType); err == nil {
		t.Fatal("Expected error for non numeric position")
	}
	badConn := map[string]any{"position": int64(2), "classId": int64(1), "genId": int64(3), "head": int64(1), "via": "s"}
	if _, err := recordToNode(badConn); err == nil {
		t.Fatal("Expected error for malformed connector")
	}
}

func TestNewTreebankFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Generation.Store = "kuzu"
	tb, err := NewTreebankFromConfig(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTreebankFromConfig: %v", err)
	}
	defer tb.Close(context.Background())

	cfg.Generation.Store = "redis"
	if _, err := NewTreebankFromConfig(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("Expected error for unknown store")
	}
}
