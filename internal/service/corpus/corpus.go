// Package corpus drives the sampler to produce whole corpora: many parses
// from one grammar, de-duplicated by sentence, with per-run statistics.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/service/sampler"
	"gramgen-go/internal/util"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseSink receives every parse kept in a corpus
type ParseSink interface {
	SaveParse(ctx context.Context, runID string, index int, p *sampler.GeneratedParse) error
}

// CorpusRequest describes one corpus run
type CorpusRequest struct {
	Size    int
	Seed    uint64
	Workers int
	// Unique drops parses whose sentence was already produced in this run
	Unique bool
	// Start fixes the root of every parse; nil picks it at random
	Start   *sampler.Start
	Sampler sampler.Config
}

// Corpus is the result of a run, parses in generation order
type Corpus struct {
	RunID       string
	Seed        uint64
	GrammarPath string
	CreatedAt   time.Time
	Parses      []*sampler.GeneratedParse
	Stats       CorpusStats
}

// CorpusStats summarizes a run
type CorpusStats struct {
	Requested  int           `yaml:"requested" json:"requested"`
	Generated  int           `yaml:"generated" json:"generated"`
	Kept       int           `yaml:"kept" json:"kept"`
	Duplicates int           `yaml:"duplicates" json:"duplicates"`
	Failures   int           `yaml:"failures" json:"failures"`
	DeadEnds   int           `yaml:"dead_ends" json:"dead_ends"`
	Overflows  int           `yaml:"overflows" json:"overflows"`
	Links      int           `yaml:"links" json:"links"`
	Length     LengthStats   `yaml:"length" json:"length"`
	Duration   time.Duration `yaml:"duration" json:"duration"`
}

// LengthStats describes sentence lengths in words, end marker excluded
type LengthStats struct {
	Mean   float64 `yaml:"mean" json:"mean"`
	StdDev float64 `yaml:"std_dev" json:"std_dev"`
	Min    int     `yaml:"min" json:"min"`
	Max    int     `yaml:"max" json:"max"`
}

type CorpusService struct {
	grammar     *grammar.Grammar
	grammarPath string
	sink        ParseSink
	logger      *zap.Logger
}

// NewCorpusService creates a service over g. grammarPath is informational and
// may be empty; sink may be nil.
func NewCorpusService(g *grammar.Grammar, grammarPath string, sink ParseSink, logger *zap.Logger) *CorpusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorpusService{
		grammar:     g,
		grammarPath: grammarPath,
		sink:        sink,
		logger:      logger,
	}
}

func (cs *CorpusService) Grammar() *grammar.Grammar {
	return cs.grammar
}

// SentenceSeed derives the seed of the i-th parse of a run so that the
// corpus does not depend on how the work is split between workers.
func SentenceSeed(runSeed uint64, i int) uint64 {
	z := runSeed + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

type outcome struct {
	parse *sampler.GeneratedParse
	err   error
}

// Generate runs the sampler Size times. Failed parses are counted and
// skipped; the run fails only when no parse succeeds.
func (cs *CorpusService) Generate(ctx context.Context, req CorpusRequest) (*Corpus, error) {
	if req.Size < 0 {
		return nil, fmt.Errorf("corpus size must not be negative, got %d", req.Size)
	}
	start := sampler.RandomStart
	if req.Start != nil {
		start = *req.Start
	}

	began := time.Now()
	results := make([]outcome, req.Size)
	pool := util.NewExecutorPool(req.Workers, req.Workers*2, func(task any) {
		i := task.(int)
		if err := ctx.Err(); err != nil {
			results[i].err = err
			return
		}
		s := sampler.New(cs.grammar, sampler.NewRand(SentenceSeed(req.Seed, i)), req.Sampler, cs.logger)
		results[i].parse, results[i].err = s.GenerateFrom(ctx, start)
	})
	for i := 0; i < req.Size; i++ {
		pool.Submit(i)
	}
	pool.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	corpus := &Corpus{
		RunID:       uuid.New().String(),
		Seed:        req.Seed,
		GrammarPath: cs.grammarPath,
		CreatedAt:   began,
	}
	stats := &corpus.Stats
	stats.Requested = req.Size

	filter := bloom.NewWithEstimates(uint(max(req.Size, 1)), 0.001)
	seen := make(map[string]struct{})
	var firstErr error
	for i, r := range results {
		if r.err != nil {
			if !errors.Is(r.err, sampler.ErrGenerationDeadEnd) && !errors.Is(r.err, sampler.ErrGenerationOverflow) {
				return nil, fmt.Errorf("failed to generate parse %d: %w", i, r.err)
			}
			stats.Failures++
			if errors.Is(r.err, sampler.ErrGenerationDeadEnd) {
				stats.DeadEnds++
			} else {
				stats.Overflows++
			}
			if firstErr == nil {
				firstErr = r.err
			}
			cs.logger.Warn("Failed to generate parse", zap.Int("index", i), zap.Error(r.err))
			continue
		}
		stats.Generated++

		if req.Unique {
			// bloom misses are definitive; hits are confirmed against the exact set
			if filter.TestString(r.parse.Sentence) {
				if _, dup := seen[r.parse.Sentence]; dup {
					stats.Duplicates++
					continue
				}
			}
			filter.AddString(r.parse.Sentence)
			seen[r.parse.Sentence] = struct{}{}
		}
		corpus.Parses = append(corpus.Parses, r.parse)
	}

	if req.Size > 0 && stats.Generated == 0 {
		return nil, fmt.Errorf("all %d parses failed: %w", req.Size, firstErr)
	}

	if cs.sink != nil {
		for i, p := range corpus.Parses {
			if err := cs.sink.SaveParse(ctx, corpus.RunID, i, p); err != nil {
				return nil, fmt.Errorf("failed to store parse %d of run %s: %w", i, corpus.RunID, err)
			}
		}
	}

	stats.Kept = len(corpus.Parses)
	lengths := make([]int, len(corpus.Parses))
	for i, p := range corpus.Parses {
		lengths[i] = len(p.Words)
		stats.Links += len(p.Links)
	}
	stats.Length = calculateLengthStatistics(lengths)
	stats.Duration = time.Since(began)

	cs.logger.Info("Generated corpus",
		zap.String("run_id", corpus.RunID),
		zap.Int("requested", stats.Requested),
		zap.Int("kept", stats.Kept),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("failures", stats.Failures),
		zap.Duration("duration", stats.Duration))
	return corpus, nil
}

func calculateLengthStatistics(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sum := 0
	minLen, maxLen := lengths[0], lengths[0]
	for _, l := range lengths {
		sum += l
		minLen = min(minLen, l)
		maxLen = max(maxLen, l)
	}
	mean := float64(sum) / float64(len(lengths))

	varianceSum := 0.0
	for _, l := range lengths {
		diff := float64(l) - mean
		varianceSum += diff * diff
	}

	return LengthStats{
		Mean:   mean,
		StdDev: math.Sqrt(varianceSum / float64(len(lengths))),
		Min:    minLen,
		Max:    maxLen,
	}
}
