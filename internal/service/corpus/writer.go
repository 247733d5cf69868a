package corpus

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"gramgen-go/internal/model/ull"
	"gramgen-go/internal/util"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Manifest is written next to every corpus
type Manifest struct {
	RunID           string         `yaml:"run_id"`
	CreatedAt       string         `yaml:"created_at"`
	Seed            uint64         `yaml:"seed"`
	GrammarFile     string         `yaml:"grammar_file,omitempty"`
	GrammarRevision *util.Revision `yaml:"grammar_revision,omitempty"`
	CorpusFile      string         `yaml:"corpus_file"`
	ParsesFile      string         `yaml:"parses_file"`
	Stats           CorpusStats    `yaml:"stats"`
}

// Paths returns the corpus, ULL and manifest file names for out
func Paths(out string) (sentences, parses, manifest string) {
	return out, out + ".ull", out + ".manifest.yaml"
}

// WriteCorpus writes the sentences to out, the parses to out.ull and the run
// manifest to out.manifest.yaml.
func (cs *CorpusService) WriteCorpus(out string, c *Corpus) error {
	sentencesPath, parsesPath, manifestPath := Paths(out)

	if err := writeSentences(sentencesPath, c); err != nil {
		return err
	}

	records := make([]ull.Record, len(c.Parses))
	for i, p := range c.Parses {
		records[i] = p.Record()
	}
	f, err := os.Create(parsesPath)
	if err != nil {
		return fmt.Errorf("failed to create parses file %s: %w", parsesPath, err)
	}
	if err := ull.Write(f, records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write parses file %s: %w", parsesPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close parses file %s: %w", parsesPath, err)
	}

	manifest := Manifest{
		RunID:       c.RunID,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		Seed:        c.Seed,
		GrammarFile: c.GrammarPath,
		CorpusFile:  sentencesPath,
		ParsesFile:  parsesPath,
		Stats:       c.Stats,
	}
	if c.GrammarPath != "" {
		rev, err := util.FileRevision(c.GrammarPath)
		if err != nil {
			cs.logger.Warn("Failed to read grammar revision", zap.String("path", c.GrammarPath), zap.Error(err))
		} else if rev.Tracked {
			manifest.GrammarRevision = rev
		}
	}
	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", manifestPath, err)
	}

	cs.logger.Info("Wrote corpus",
		zap.String("corpus", sentencesPath),
		zap.String("parses", parsesPath),
		zap.Int("sentences", len(c.Parses)))
	return nil
}

func writeSentences(path string, c *Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range c.Parses {
		if _, err := w.WriteString(p.Sentence + "\n\n"); err != nil {
			return fmt.Errorf("failed to write corpus file %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write corpus file %s: %w", path, err)
	}
	return f.Close()
}

// ReadManifest loads a manifest written by WriteCorpus
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
