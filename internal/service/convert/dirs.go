package convert

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gramgen-go/internal/model/ull"
	"gramgen-go/internal/util"

	"go.uber.org/zap"
)

// Format names a target parse format of a directory conversion
type Format string

const (
	FormatULL   Format = "ull"
	FormatCRFAE Format = "crfae"
)

// DirResult summarizes a directory conversion
type DirResult struct {
	OutputDir string `json:"output_dir"`
	Files     int    `json:"files"`
	Parses    int    `json:"parses"`
	Skipped   int    `json:"skipped"`
}

// OutputDir names the tree a CoNLL directory is converted into, encoding the options
func (c *Converter) OutputDir(dir string, format Format) string {
	var punct, lower string
	if c.opts.RemovePunctuation {
		punct = "noPunct"
	}
	if c.opts.Lowercase {
		lower = "lower"
	}
	return strings.Join([]string{filepath.Clean(dir), string(format), punct, strconv.Itoa(c.opts.MaxLength), lower}, "_")
}

// ConvertConllDir converts every .conll and .conllu file in dir. Parses go to
// <out>/GS/<name>.txt.<format> and plain sentences to <out>/corpus/<name>.txt.
func (c *Converter) ConvertConllDir(dir string, format Format) (*DirResult, error) {
	if format != FormatULL && format != FormatCRFAE {
		return nil, fmt.Errorf("unsupported target format %q", format)
	}
	out := c.OutputDir(dir, format)
	return c.convertDir(dir, out, []string{".conll", ".conllu"}, func(src, name string, res *DirResult) error {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", src, err)
		}
		sentences, err := ReadConll(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", src, err)
		}

		var plain []string
		gs := filepath.Join(out, "GS", name+".txt."+string(format))
		switch format {
		case FormatULL:
			var records []ull.Record
			for _, s := range sentences {
				rec, ok := c.ConllToULL(s)
				if !ok {
					res.Skipped++
					continue
				}
				records = append(records, rec)
				plain = append(plain, rec.Sentence)
			}
			if err := writeWith(gs, func(w *os.File) error { return ull.Write(w, records) }); err != nil {
				return err
			}
		case FormatCRFAE:
			var records []CRFAERecord
			for _, s := range sentences {
				rec, ok := c.ConllToCRFAE(s)
				if !ok {
					res.Skipped++
					continue
				}
				records = append(records, rec)
				plain = append(plain, strings.Join(rec.Words, " "))
			}
			if err := writeWith(gs, func(w *os.File) error { return WriteCRFAE(w, records) }); err != nil {
				return err
			}
		}
		res.Parses += len(plain)
		return writeSentences(filepath.Join(out, "corpus", name+".txt"), plain)
	})
}

// ConvertCRFAEDir converts every .crfae file in dir into ULL
func (c *Converter) ConvertCRFAEDir(dir string) (*DirResult, error) {
	out := filepath.Clean(dir) + "_ull_" + strconv.Itoa(c.opts.MaxLength)
	return c.convertDir(dir, out, []string{".crfae"}, func(src, name string, res *DirResult) error {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", src, err)
		}
		in, err := ReadCRFAE(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", src, err)
		}

		var records []ull.Record
		var plain []string
		for _, r := range in {
			rec, ok := c.CRFAEToULL(r)
			if !ok {
				res.Skipped++
				continue
			}
			records = append(records, rec)
			plain = append(plain, rec.Sentence)
		}
		if err := writeWith(filepath.Join(out, "GS", name+".txt.ull"), func(w *os.File) error { return ull.Write(w, records) }); err != nil {
			return err
		}
		res.Parses += len(records)
		return writeSentences(filepath.Join(out, "corpus", name+".txt"), plain)
	})
}

func (c *Converter) convertDir(dir, out string, exts []string, convert func(src, name string, res *DirResult) error) (*DirResult, error) {
	files, err := util.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	for _, sub := range []string{"GS", "corpus"} {
		if err := util.EnsureDir(filepath.Join(out, sub)); err != nil {
			return nil, err
		}
	}

	res := &DirResult{OutputDir: out}
	for _, src := range files {
		ext := filepath.Ext(src)
		if !slices.Contains(exts, ext) {
			continue
		}
		name := filepath.Base(src)
		if err := convert(src, name, res); err != nil {
			return nil, err
		}
		res.Files++
		c.logger.Debug("Converted file", zap.String("path", util.ToRelativePath(dir, src)))
	}

	c.logger.Info("Converted directory",
		zap.String("input", dir),
		zap.String("output", out),
		zap.Int("files", res.Files),
		zap.Int("parses", res.Parses),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func writeWith(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func writeSentences(path string, sentences []string) error {
	return writeWith(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		for _, s := range sentences {
			if _, err := w.WriteString(s + "\n\n"); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}
