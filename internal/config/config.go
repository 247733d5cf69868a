package config

import (
	"fmt"
	"os"

	"gramgen-go/internal/service/convert"
	"gramgen-go/internal/service/grammargen"
	"gramgen-go/internal/service/sampler"

	"gopkg.in/yaml.v2"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Generation GenerationConfig `yaml:"generation"`
	GrammarGen GrammarGenConfig `yaml:"grammar_gen"`
	Convert    ConvertConfig    `yaml:"convert"`
	Kuzu       KuzuConfig       `yaml:"kuzu"`
	Neo4j      Neo4jConfig      `yaml:"neo4j"`
	Mcp        McpConfig        `yaml:"mcp"`
}

type AppConfig struct {
	WorkDir     string   `yaml:"workdir"`
	Port        int      `yaml:"port"`
	LogLevel    string   `yaml:"log_level"`
	LogOutputs  []string `yaml:"log_outputs"`
	CorsOrigins []string `yaml:"cors_origins"`
}

type GenerationConfig struct {
	GrammarFile string `yaml:"grammar_file"`
	CorpusSize  int    `yaml:"corpus_size"`
	Seed        uint64 `yaml:"seed"`
	Workers     int    `yaml:"workers"`
	Unique      bool   `yaml:"unique"`
	MaxNodes    int    `yaml:"max_nodes"`
	MaxDepth    int    `yaml:"max_depth"`
	MaxRetries  int    `yaml:"max_retries"`
	EndMarker   string `yaml:"end_marker"`
	OutputFile  string `yaml:"output_file"`
	// Store selects where parses are persisted besides the output files: "", "kuzu" or "neo4j"
	Store string `yaml:"store"`
}

type GrammarGenConfig struct {
	NumWords        int    `yaml:"num_words"`
	NumClasses      int    `yaml:"num_classes"`
	NumRelations    int    `yaml:"num_relations"`
	ConnectorsLimit int    `yaml:"connectors_limit"`
	Seed            uint64 `yaml:"seed"`
	OutputFile      string `yaml:"output_file"`
}

type ConvertConfig struct {
	RemovePunctuation bool `yaml:"remove_punctuation"`
	MaxLength         int  `yaml:"max_length"`
	Lowercase         bool `yaml:"lowercase"`
}

type KuzuConfig struct {
	Path string `yaml:"path"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type McpConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetAddress returns the listen address of the MCP server
func (m McpConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// GetAddress returns the listen address of the HTTP API
func (a AppConfig) GetAddress() string {
	return fmt.Sprintf(":%d", a.Port)
}

func (g GenerationConfig) SamplerConfig() sampler.Config {
	return sampler.Config{
		MaxNodes:   g.MaxNodes,
		MaxDepth:   g.MaxDepth,
		MaxRetries: g.MaxRetries,
		EndMarker:  g.EndMarker,
	}
}

func (g GrammarGenConfig) Params() grammargen.Params {
	return grammargen.Params{
		NumWords:        g.NumWords,
		NumClasses:      g.NumClasses,
		NumRelations:    g.NumRelations,
		ConnectorsLimit: g.ConnectorsLimit,
	}
}

func (c ConvertConfig) Options() convert.Options {
	return convert.Options{
		RemovePunctuation: c.RemovePunctuation,
		MaxLength:         c.MaxLength,
		Lowercase:         c.Lowercase,
	}
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML configuration file and fills in defaults.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if len(c.App.LogOutputs) == 0 {
		c.App.LogOutputs = []string{"stderr"}
	}
	if c.Generation.CorpusSize == 0 {
		c.Generation.CorpusSize = 10
	}
	if c.Generation.Workers == 0 {
		c.Generation.Workers = 1
	}
	if c.GrammarGen.NumWords == 0 {
		c.GrammarGen.NumWords = 20
	}
	if c.GrammarGen.NumClasses == 0 {
		c.GrammarGen.NumClasses = 4
	}
	if c.GrammarGen.NumRelations == 0 {
		c.GrammarGen.NumRelations = 7
	}
	if c.GrammarGen.ConnectorsLimit == 0 {
		c.GrammarGen.ConnectorsLimit = 2
	}
	if c.GrammarGen.OutputFile == "" {
		c.GrammarGen.OutputFile = "rand_grammar.txt"
	}
	if c.Convert.MaxLength == 0 {
		c.Convert.MaxLength = 100
	}
	if c.Kuzu.Path == "" {
		c.Kuzu.Path = ":memory:"
	}
	if c.Mcp.Host == "" {
		c.Mcp.Host = "localhost"
	}
	if c.Mcp.Port == 0 {
		c.Mcp.Port = 8081
	}
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	if c.Generation.CorpusSize < 0 {
		return fmt.Errorf("generation.corpus_size must not be negative, got %d", c.Generation.CorpusSize)
	}
	if c.Generation.Workers < 0 {
		return fmt.Errorf("generation.workers must not be negative, got %d", c.Generation.Workers)
	}
	switch c.Generation.Store {
	case "", "kuzu", "neo4j":
	default:
		return fmt.Errorf("generation.store must be kuzu or neo4j, got %q", c.Generation.Store)
	}
	if c.Generation.Store == "neo4j" && c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri is required when generation.store is neo4j")
	}
	if c.GrammarGen.NumClasses < 1 {
		return fmt.Errorf("grammar_gen.num_classes must be positive, got %d", c.GrammarGen.NumClasses)
	}
	if c.GrammarGen.NumWords < c.GrammarGen.NumClasses {
		return fmt.Errorf("grammar_gen.num_words (%d) must be at least num_classes (%d)", c.GrammarGen.NumWords, c.GrammarGen.NumClasses)
	}
	if c.GrammarGen.ConnectorsLimit < 1 {
		return fmt.Errorf("grammar_gen.connectors_limit must be positive, got %d", c.GrammarGen.ConnectorsLimit)
	}
	return nil
}
