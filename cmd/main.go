package main

import (
	"fmt"
	"log"
	"os"

	"gramgen-go/internal/config"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var configPath string

func main() {
	cmd := &commander.Command{
		UsageLine: os.Args[0] + " <command> [options]",
		Short:     "generate random sentences and dependency parses from a link grammar",
		Subcommands: []*commander.Command{
			GenerateCmd(),
			GrammarCmd(),
			DescribeCmd(),
			ConvertCmd(),
			ServeCmd(),
		},
		Flag: *flag.NewFlagSet("gramgen", flag.ExitOnError),
	}
	for _, sub := range cmd.Subcommands {
		sub.Flag.StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	}

	if err := cmd.Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration named by -config and builds the logger it describes
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	level, err := zapcore.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.App.LogLevel, err)
	}
	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(level)
	cfgZap.OutputPaths = cfg.App.LogOutputs
	logger, err := cfgZap.Build()
	if err != nil {
		log.Println("Failed to initialize logger:", err)
		return nil, nil, err
	}
	return cfg, logger, nil
}

// flagSet reports whether the named flag was given on the command line
func flagSet(cmd *commander.Command, name string) bool {
	found := false
	cmd.Flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
