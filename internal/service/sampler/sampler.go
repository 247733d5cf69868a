// Package sampler generates random projective parses from a grammar model.
//
// Each call to Generate builds a dependency tree by expanding connectors
// recursively from a random root, then linearizes it into a sentence and a
// sorted ULL link list. A Sampler owns its random source and is not safe for
// concurrent use; the grammar it reads is.
package sampler

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gramgen-go/internal/model/grammar"

	"go.uber.org/zap"
)

const (
	DefaultMaxNodes   = 256
	DefaultMaxDepth   = 256
	DefaultMaxRetries = 50
	DefaultEndMarker  = "."
)

// Config bounds a single generation call
type Config struct {
	MaxNodes   int
	MaxDepth   int
	MaxRetries int
	// EndMarker is appended to every sentence; "-" disables it
	EndMarker string
}

func (c Config) withDefaults() Config {
	if c.MaxNodes <= 0 {
		c.MaxNodes = DefaultMaxNodes
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	switch c.EndMarker {
	case "":
		c.EndMarker = DefaultEndMarker
	case "-":
		c.EndMarker = ""
	}
	return c
}

// Start optionally fixes the root class and its disjunct; negative values mean random
type Start struct {
	Class    grammar.ClassID
	Disjunct int
}

// RandomStart picks both the root class and its disjunct at random
var RandomStart = Start{Class: -1, Disjunct: -1}

// Sampler produces random parses from a grammar
type Sampler struct {
	grammar *grammar.Grammar
	rng     *rand.Rand
	cfg     Config
	logger  *zap.Logger
}

// NewRand returns a deterministic random source for seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New creates a sampler. A nil rng is seeded randomly; a nil logger disables logging.
func New(g *grammar.Grammar, rng *rand.Rand, cfg Config, logger *zap.Logger) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		grammar: g,
		rng:     rng,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

func (s *Sampler) Grammar() *grammar.Grammar {
	return s.grammar
}

func (s *Sampler) Config() Config {
	return s.cfg
}

// Generate produces one parse from a random root
func (s *Sampler) Generate(ctx context.Context) (*GeneratedParse, error) {
	return s.GenerateFrom(ctx, RandomStart)
}

// GenerateFrom produces one parse, fixing the root as requested. Dead ends
// and overflows discard the attempt and start over with fresh draws, up to
// MaxRetries times.
func (s *Sampler) GenerateFrom(ctx context.Context, start Start) (*GeneratedParse, error) {
	if int(start.Class) >= s.grammar.NumClasses() {
		return nil, fmt.Errorf("root class %d out of range [0, %d)", start.Class, s.grammar.NumClasses())
	}
	if start.Disjunct >= 0 {
		if start.Class < 0 {
			return nil, fmt.Errorf("root disjunct %d given without a root class", start.Disjunct)
		}
		if n := len(s.grammar.Class(start.Class).Disjuncts); start.Disjunct >= n {
			return nil, fmt.Errorf("root disjunct %d out of range [0, %d) for class %d", start.Disjunct, n, start.Class)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parse, err := s.attempt(start)
		if err == nil {
			return parse, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("Discarding generation attempt",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, fmt.Errorf("no parse after %d attempts: %w", s.cfg.MaxRetries+1, lastErr)
}

func (s *Sampler) attempt(start Start) (*GeneratedParse, error) {
	gc := newGenContext(s.grammar, s.rng, s.cfg.MaxNodes)

	class := start.Class
	if class < 0 {
		class = grammar.ClassID(s.rng.IntN(s.grammar.NumClasses()))
	}
	disjuncts := s.grammar.Class(class).Disjuncts
	idx := start.Disjunct
	if idx < 0 {
		idx = s.rng.IntN(len(disjuncts))
	}
	rule := disjuncts[idx]

	root := gc.seed(class)
	if _, err := s.expand(gc, root, 0, &rule, nil, 1); err != nil {
		return nil, err
	}
	return gc.assemble(s.cfg.EndMarker)
}

// expand attaches every connector of the node's rule except the one linking
// back to its parent, inserting each child next to the span already owned by
// the node on that side. Children nearer the node come first in the rule.
// It returns the number of nodes added below node.
func (s *Sampler) expand(gc *genContext, node TreeNode, pos int, rule *grammar.Disjunct, parent *grammar.Connector, depth int) (int, error) {
	if depth > s.cfg.MaxDepth {
		return 0, &OverflowError{Limit: "depth", Max: s.cfg.MaxDepth}
	}

	if rule == nil {
		accepting := s.grammar.Class(node.Class).AcceptingDisjuncts(*parent)
		if len(accepting) == 0 {
			return 0, &DeadEndError{Class: node.Class, Connector: *parent, NoDisjunct: true}
		}
		chosen := accepting[s.rng.IntN(len(accepting))]
		rule = &chosen
	}

	sizeLeft, sizeRight := 0, 0
	consumed := parent == nil
	for i := 0; i < rule.Len(); i++ {
		conn := rule.At(i)
		if !consumed && grammar.IsCompatible(*parent, conn) {
			consumed = true
			gc.back[node.ID] = conn
			continue
		}

		candidates := s.grammar.CandidateClasses(conn)
		if len(candidates) == 0 {
			return 0, &DeadEndError{Class: node.Class, Connector: conn}
		}
		child, err := gc.newNode(candidates[s.rng.IntN(len(candidates))])
		if err != nil {
			return 0, err
		}
		gc.link(node, child, conn)

		at := pos + 1 + sizeRight
		if conn.Dir == grammar.Left {
			at = pos - sizeLeft
			pos++
		}
		gc.insert(at, child)

		size, err := s.expand(gc, child, at, nil, &conn, depth+1)
		if err != nil {
			return 0, err
		}
		if conn.Dir == grammar.Left {
			sizeLeft += 1 + size
			pos += size
		} else {
			sizeRight += 1 + size
		}
	}
	return sizeLeft + sizeRight, nil
}
