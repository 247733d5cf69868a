package main

import (
	"fmt"

	"gramgen-go/internal/config"
	"gramgen-go/internal/service/convert"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
)

var (
	convertFormat     string
	removePunctuation bool
	maxLength         int
	lowercase         bool
)

func ConvertCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runConvert,
		UsageLine: "convert [options] <dir> [<dir> ...]",
		Short:     "convert treebank directories between CoNLL, ULL and CRFAE formats",
		Long: `
convert treebank directories between CoNLL, ULL and CRFAE formats

	$ gramgen convert -format ull -no-punct -max-length 25 treebanks/en
	$ gramgen convert -format crfae-ull treebanks/en_crfae

CoNLL input is read from *.conll and *.conllu files; output is written next to
each input directory with GS/ and corpus/ subdirectories.
`,
		Flag: *flag.NewFlagSet("convert", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&convertFormat, "format", "ull", "Conversion: ull, crfae or crfae-ull")
	cmd.Flag.BoolVar(&removePunctuation, "no-punct", false, "Remove punctuation tokens")
	cmd.Flag.IntVar(&maxLength, "max-length", 0, "Skip sentences longer than this many words")
	cmd.Flag.BoolVar(&lowercase, "lowercase", false, "Lowercase all words")
	return cmd
}

func applyConvertFlags(cmd *commander.Command, cfg *config.Config) {
	if flagSet(cmd, "no-punct") {
		cfg.Convert.RemovePunctuation = removePunctuation
	}
	if flagSet(cmd, "max-length") {
		cfg.Convert.MaxLength = maxLength
	}
	if flagSet(cmd, "lowercase") {
		cfg.Convert.Lowercase = lowercase
	}
}

func runConvert(cmd *commander.Command, args []string) error {
	if len(args) == 0 {
		cmd.Usage()
		return fmt.Errorf("no input directory given")
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	applyConvertFlags(cmd, cfg)
	converter := convert.NewConverter(cfg.Convert.Options(), logger)

	for _, dir := range args {
		var res *convert.DirResult
		switch convertFormat {
		case "ull":
			res, err = converter.ConvertConllDir(dir, convert.FormatULL)
		case "crfae":
			res, err = converter.ConvertConllDir(dir, convert.FormatCRFAE)
		case "crfae-ull":
			res, err = converter.ConvertCRFAEDir(dir)
		default:
			return fmt.Errorf("unknown format %q", convertFormat)
		}
		if err != nil {
			return err
		}
		logger.Info("Converted directory",
			zap.String("input", dir),
			zap.String("output", res.OutputDir),
			zap.Int("files", res.Files),
			zap.Int("parses", res.Parses),
			zap.Int("skipped", res.Skipped))
	}
	return nil
}
