package main

import (
	"fmt"
	"math/rand/v2"

	"gramgen-go/internal/config"
	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/service/corpus"
	"gramgen-go/internal/service/grammargen"
	"gramgen-go/internal/service/sampler"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
)

var (
	numWords        int
	numClasses      int
	numRelations    int
	connectorsLimit int
	grammarSeed     uint64
	grammarOut      string
)

func GrammarCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runGrammar,
		UsageLine: "grammar [options]",
		Short:     "generate a random scale-free grammar",
		Long: `
generate a random scale-free grammar

	$ gramgen grammar -words 20 -classes 4 -relations 7 -limit 2 -out rand_grammar.txt

`,
		Flag: *flag.NewFlagSet("grammar", flag.ExitOnError),
	}
	cmd.Flag.IntVar(&numWords, "words", 0, "Number of words")
	cmd.Flag.IntVar(&numClasses, "classes", 0, "Number of word classes")
	cmd.Flag.IntVar(&numRelations, "relations", 0, "Number of random class relations")
	cmd.Flag.IntVar(&connectorsLimit, "limit", 0, "Maximum connectors per disjunct")
	cmd.Flag.Uint64Var(&grammarSeed, "seed", 0, "Random seed; 0 in both flag and config picks one at random")
	cmd.Flag.StringVar(&grammarOut, "out", "", "Output grammar file")
	return cmd
}

func applyGrammarFlags(cmd *commander.Command, cfg *config.Config) {
	gg := &cfg.GrammarGen
	if flagSet(cmd, "words") {
		gg.NumWords = numWords
	}
	if flagSet(cmd, "classes") {
		gg.NumClasses = numClasses
	}
	if flagSet(cmd, "relations") {
		gg.NumRelations = numRelations
	}
	if flagSet(cmd, "limit") {
		gg.ConnectorsLimit = connectorsLimit
	}
	if flagSet(cmd, "seed") {
		gg.Seed = grammarSeed
	}
	if flagSet(cmd, "out") {
		gg.OutputFile = grammarOut
	}
}

func runGrammar(cmd *commander.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	applyGrammarFlags(cmd, cfg)
	s := cfg.GrammarGen.Seed
	if s == 0 {
		s = rand.Uint64()
		logger.Info("Picked random seed", zap.Uint64("seed", s))
	}

	params := cfg.GrammarGen.Params()
	g, err := grammargen.NewGenerator(sampler.NewRand(s), logger).Generate(params)
	if err != nil {
		return err
	}
	if err := grammargen.WriteFile(cfg.GrammarGen.OutputFile, g, params); err != nil {
		return err
	}
	logger.Info("Wrote grammar", zap.String("path", cfg.GrammarGen.OutputFile))
	return nil
}

func DescribeCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runDescribe,
		UsageLine: "describe [options] [grammar file]",
		Short:     "print the classes of a grammar and its unmatched connectors",
		Flag:      *flag.NewFlagSet("describe", flag.ExitOnError),
	}
	return cmd
}

func runDescribe(cmd *commander.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(args) > 0 {
		cfg.Generation.GrammarFile = args[0]
	}
	path := cfg.Generation.GrammarFile
	if path == "" {
		return fmt.Errorf("no grammar file given")
	}
	g, err := grammar.ParseFile(path)
	if err != nil {
		return err
	}
	fmt.Print(corpus.NewCorpusService(g, path, nil, logger).DescribeGrammar().Text())
	return nil
}
