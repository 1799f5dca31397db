package synth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"steward/internal/scoring"
)

type optionsFile struct {
	Options []scoring.Option `yaml:"options"`
}

// LoadOptionsFile reads option records from a YAML file. The file must
// contain an `options:` list or a top-level list of options.
func LoadOptionsFile(path string) ([]scoring.Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options file: %w", err)
	}

	var file optionsFile
	if err := yaml.Unmarshal(data, &file); err == nil && file.Options != nil {
		return validateOptions(file.Options, path)
	}

	var list []scoring.Option
	if err := yaml.Unmarshal(data, &list); err == nil && list != nil {
		return validateOptions(list, path)
	}

	return nil, fmt.Errorf("%s: options file must contain an `options:` list or a top-level list", path)
}

func validateOptions(options []scoring.Option, path string) ([]scoring.Option, error) {
	out := make([]scoring.Option, 0, len(options))
	for i, opt := range options {
		if opt.Name == "" {
			return nil, fmt.Errorf("%s: option %d is missing a name", path, i)
		}
		if len(opt.Scores) == 0 {
			return nil, fmt.Errorf("%s: option %q has no scores", path, opt.Name)
		}
		out = append(out, opt)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no options found", path)
	}
	return out, nil
}
