package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKuzuConfig_Parsing(t *testing.T) {
	kuzu := KuzuConfig{
		Path: "/path/to/treebank.db",
	}

	if kuzu.Path != "/path/to/treebank.db" {
		t.Fatalf("Expected path '/path/to/treebank.db', got '%s'", kuzu.Path)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Kuzu.Path != ":memory:" {
		t.Fatalf("Expected Kuzu path ':memory:', got '%s'", cfg.Kuzu.Path)
	}
	if cfg.Generation.CorpusSize != 10 {
		t.Fatalf("Expected corpus size 10, got %d", cfg.Generation.CorpusSize)
	}
	if cfg.GrammarGen.NumClasses != 4 || cfg.GrammarGen.NumWords != 20 {
		t.Fatalf("Unexpected grammar generator defaults: %+v", cfg.GrammarGen)
	}
	if cfg.Mcp.GetAddress() != "localhost:8081" {
		t.Fatalf("Expected MCP address 'localhost:8081', got '%s'", cfg.Mcp.GetAddress())
	}
	if cfg.App.GetAddress() != ":8080" {
		t.Fatalf("Expected app address ':8080', got '%s'", cfg.App.GetAddress())
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	content := `
app:
  port: 9090
  log_level: debug
generation:
  grammar_file: grammars/toy.dict
  corpus_size: 500
  seed: 42
  workers: 4
  unique: true
  max_nodes: 64
  store: kuzu
kuzu:
  path: /tmp/treebank
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.App.Port != 9090 || cfg.App.LogLevel != "debug" {
		t.Fatalf("Unexpected app config: %+v", cfg.App)
	}
	g := cfg.Generation
	if g.GrammarFile != "grammars/toy.dict" || g.CorpusSize != 500 || g.Seed != 42 || g.Workers != 4 || !g.Unique || g.MaxNodes != 64 {
		t.Fatalf("Unexpected generation config: %+v", g)
	}
	if cfg.Kuzu.Path != "/tmp/treebank" {
		t.Fatalf("Expected Kuzu path '/tmp/treebank', got '%s'", cfg.Kuzu.Path)
	}
	if cfg.GrammarGen.ConnectorsLimit != 2 {
		t.Fatalf("Expected default connectors limit 2, got %d", cfg.GrammarGen.ConnectorsLimit)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad store":     "generation:\n  store: redis\n",
		"neo4j no uri":  "generation:\n  store: neo4j\n",
		"few words":     "grammar_gen:\n  num_words: 2\n  num_classes: 5\n",
		"negative size": "generation:\n  corpus_size: -3\n",
		"not yaml":      "app: [unterminated\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestComponentSettings(t *testing.T) {
	cfg := Default()
	cfg.Generation.MaxRetries = -1
	cfg.Generation.EndMarker = "-"
	cfg.Convert.RemovePunctuation = true

	sc := cfg.Generation.SamplerConfig()
	if sc.MaxRetries != -1 || sc.EndMarker != "-" {
		t.Fatalf("unexpected sampler config %+v", sc)
	}
	p := cfg.GrammarGen.Params()
	if p.NumWords != 20 || p.NumClasses != 4 || p.NumRelations != 7 || p.ConnectorsLimit != 2 {
		t.Fatalf("unexpected grammar params %+v", p)
	}
	opts := cfg.Convert.Options()
	if !opts.RemovePunctuation || opts.MaxLength != 100 || opts.Lowercase {
		t.Fatalf("unexpected convert options %+v", opts)
	}
}
