package registry

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type documentFile struct {
	Widgets map[string]WidgetConfig `json:"widgets" yaml:"widgets"`
}

// LoadFS walks fsys and parses every JSON/YAML file into widget configs. Each
// file declares a "widgets" map keyed by field name. Field names must be unique
// across files. The result is sorted by field name so stores built from it are
// deterministic.
func LoadFS(fsys fs.FS) ([]WidgetConfig, error) {
	if fsys == nil {
		return nil, nil
	}

	seen := make(map[string]string)
	var out []WidgetConfig

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isConfigFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("registry: read %s: %w", path, err)
		}

		configs, err := Parse(data, path)
		if err != nil {
			return err
		}
		for _, cfg := range configs {
			if prev, exists := seen[cfg.Field]; exists {
				return fmt.Errorf("%w %q (files %s and %s)", ErrDuplicateField, cfg.Field, prev, path)
			}
			seen[cfg.Field] = path
			out = append(out, cfg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

// Parse decodes a single JSON or YAML document. source is only used in error
// messages.
func Parse(data []byte, source string) ([]WidgetConfig, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("registry: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("registry: parse %s: invalid JSON or YAML", source)
		}
	}

	names := make([]string, 0, len(doc.Widgets))
	for name := range doc.Widgets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]WidgetConfig, 0, len(names))
	for _, name := range names {
		cfg := doc.Widgets[name]
		key := strings.TrimSpace(name)
		if key == "" {
			return nil, fmt.Errorf("registry: file %s defines a widget with an empty field name", source)
		}
		if cfg.Field != "" && strings.TrimSpace(cfg.Field) != key {
			return nil, fmt.Errorf("registry: file %s widget %q declares mismatched field %q", source, key, cfg.Field)
		}
		cfg.Field = key
		out = append(out, cfg)
	}
	return out, nil
}

func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
