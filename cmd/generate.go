package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"

	"gramgen-go/internal/config"
	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/model/ull"
	"gramgen-go/internal/service/corpus"
	"gramgen-go/internal/service/sampler"
	"gramgen-go/internal/service/treebank"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
)

var (
	grammarFile string
	corpusSize  int
	seed        uint64
	workers     int
	unique      bool
	outFile     string
	store       string
	rootClass   int
)

func GenerateCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runGenerate,
		UsageLine: "generate [options]",
		Short:     "generate a corpus of random sentences with their parses",
		Long: `
generate a corpus of random sentences with their parses

	$ gramgen generate -grammar <grammar file> -n 100 -seed 7 -out corpus.txt

Without -out the parses are printed to stdout in ULL format. With -out the
sentences go to <out>, the parses to <out>.ull and a run manifest to
<out>.manifest.yaml.
`,
		Flag: *flag.NewFlagSet("generate", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&grammarFile, "grammar", "", "Grammar file")
	cmd.Flag.IntVar(&corpusSize, "n", 0, "Number of sentences to generate")
	cmd.Flag.Uint64Var(&seed, "seed", 0, "Random seed; 0 in both flag and config picks one at random")
	cmd.Flag.IntVar(&workers, "workers", 0, "Number of generation workers")
	cmd.Flag.BoolVar(&unique, "unique", false, "Drop repeated sentences")
	cmd.Flag.StringVar(&outFile, "out", "", "Output corpus file")
	cmd.Flag.StringVar(&store, "store", "", "Also store parses in a graph database: kuzu or neo4j")
	cmd.Flag.IntVar(&rootClass, "root", -1, "Grammar class used as the root of every parse; -1 for random")
	return cmd
}

func applyGenerateFlags(cmd *commander.Command, cfg *config.Config) {
	gen := &cfg.Generation
	if flagSet(cmd, "grammar") {
		gen.GrammarFile = grammarFile
	}
	if flagSet(cmd, "n") {
		gen.CorpusSize = corpusSize
	}
	if flagSet(cmd, "seed") {
		gen.Seed = seed
	}
	if flagSet(cmd, "workers") {
		gen.Workers = workers
	}
	if flagSet(cmd, "unique") {
		gen.Unique = unique
	}
	if flagSet(cmd, "out") {
		gen.OutputFile = outFile
	}
	if flagSet(cmd, "store") {
		gen.Store = store
	}
}

// loadGrammar parses the configured grammar file and logs connectors that can never match
func loadGrammar(cfg *config.Config, logger *zap.Logger) (*grammar.Grammar, error) {
	path := cfg.Generation.GrammarFile
	if path == "" {
		return nil, fmt.Errorf("no grammar file given, use -grammar or generation.grammar_file")
	}
	g, err := grammar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range g.Unmatched() {
		logger.Warn("Grammar connector has no partner", zap.String("connector", w))
	}
	logger.Info("Loaded grammar",
		zap.String("path", path),
		zap.Int("classes", g.NumClasses()))
	return g, nil
}

// openSink opens the treebank store when one is configured
func openSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*treebank.Treebank, error) {
	if cfg.Generation.Store == "" {
		return nil, nil
	}
	tb, err := treebank.NewTreebankFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open treebank store: %w", err)
	}
	return tb, nil
}

func runGenerate(cmd *commander.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	applyGenerateFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	g, err := loadGrammar(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tb, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	var sink corpus.ParseSink
	if tb != nil {
		defer tb.Close(context.Background())
		sink = tb
	}

	req := corpus.CorpusRequest{
		Size:    cfg.Generation.CorpusSize,
		Seed:    cfg.Generation.Seed,
		Workers: cfg.Generation.Workers,
		Unique:  cfg.Generation.Unique,
		Sampler: cfg.Generation.SamplerConfig(),
	}
	if req.Seed == 0 {
		req.Seed = rand.Uint64()
		logger.Info("Picked random seed", zap.Uint64("seed", req.Seed))
	}
	if rootClass >= 0 {
		if rootClass >= g.NumClasses() {
			return fmt.Errorf("root class %d out of range, grammar has %d classes", rootClass, g.NumClasses())
		}
		req.Start = &sampler.Start{Class: grammar.ClassID(rootClass), Disjunct: -1}
	}

	cs := corpus.NewCorpusService(g, cfg.Generation.GrammarFile, sink, logger)
	c, err := cs.Generate(ctx, req)
	if err != nil {
		return err
	}

	if cfg.Generation.OutputFile != "" {
		return cs.WriteCorpus(cfg.Generation.OutputFile, c)
	}
	records := make([]ull.Record, len(c.Parses))
	for i, p := range c.Parses {
		records[i] = p.Record()
	}
	return ull.Write(os.Stdout, records)
}
