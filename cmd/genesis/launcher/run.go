package launcher

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-quorum-genesis/quorum"
	"github.com/rony4d/go-quorum-genesis/quorum/builder"
	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
)

// inputs are the decoded files of one build.
type inputs struct {
	config   *genesis.Config
	template *genesis.Document
	prefund  genesis.Alloc
}

// loadInputs reads and decodes every input file named by cfg.
func loadInputs(cfg InputConfig, p quorum.Profile) (*inputs, error) {
	data, err := ioutil.ReadFile(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	netCfg, err := genesis.ParseConfig(data, p)
	if err != nil {
		return nil, err
	}

	template := genesis.DefaultTemplate()
	if cfg.TemplateFile != "" {
		data, err := ioutil.ReadFile(cfg.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		if template, err = genesis.DecodeDocument(data); err != nil {
			return nil, fmt.Errorf("template %s: %w", cfg.TemplateFile, err)
		}
	}

	var prefund genesis.Alloc
	if cfg.PrefundFile != "" {
		data, err := ioutil.ReadFile(cfg.PrefundFile)
		if err != nil {
			return nil, fmt.Errorf("read prefund list: %w", err)
		}
		if prefund, err = genesis.DecodePrefund(data, p); err != nil {
			return nil, err
		}
	}
	return &inputs{config: netCfg, template: template, prefund: prefund}, nil
}

// build runs one complete genesis build and writes the result. Nothing is
// written when any step fails.
func build(cfg Config, log logrus.FieldLogger) (*builder.Report, error) {
	in, err := loadInputs(cfg.Input, cfg.Profile)
	if err != nil {
		return nil, err
	}
	log.WithField("config", in.config.String()).Debug("Loaded network configuration")

	asm, err := builder.New(cfg.Profile, log)
	if err != nil {
		return nil, err
	}
	doc, report, err := asm.Build(in.config, in.template, in.prefund)
	if err != nil {
		return nil, err
	}

	out, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode genesis: %w", err)
	}
	if err := writeFileAtomic(cfg.Output.Path, out, 0644); err != nil {
		return nil, err
	}
	return report, nil
}

// writeFileAtomic writes data to a temporary file in the directory of path
// and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := ioutil.TempFile(dir, "."+base+".tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op once renamed

	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp, perm)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
