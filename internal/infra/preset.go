package infra

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/go-wildprompt-cli/internal/presets"
)

// PresetConfig is a named example template
type PresetConfig struct {
	Name        string `yaml:"-"` // Set during loading
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// PresetMap holds presets keyed by lower-case name
type PresetMap map[string]PresetConfig

// LoadBuiltinPresets converts the embedded presets
func LoadBuiltinPresets() (PresetMap, error) {
	embedded, err := presets.LoadBuiltinPresets()
	if err != nil {
		return nil, err
	}
	result := make(PresetMap, len(embedded))
	for name, p := range embedded {
		result[strings.ToLower(name)] = PresetConfig{
			Name:        p.Name,
			Category:    p.Category,
			Description: p.Description,
			Template:    p.Template,
		}
	}
	return result, nil
}

// LoadPresetsFromPath loads presets from a YAML file or every YAML file below a directory
func LoadPresetsFromPath(path string) (PresetMap, error) {
	result := make(PresetMap)

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to access path %s", path)
	}

	if !info.IsDir() {
		if err := loadPresetFile(path, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	err = filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fileInfo.IsDir() {
			return nil
		}
		lower := strings.ToLower(fileInfo.Name())
		if !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") {
			return nil
		}
		return loadPresetFile(filePath, result)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load presets from %s", path)
	}
	return result, nil
}

func loadPresetFile(filePath string, result PresetMap) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read preset file %s", filePath)
	}

	var filePresets map[string]PresetConfig
	if err := yaml.Unmarshal(data, &filePresets); err != nil {
		return errors.Wrapf(err, "failed to parse preset file %s", filePath)
	}

	for name, p := range filePresets {
		p.Name = name
		result[strings.ToLower(name)] = p
	}
	return nil
}

// LoadPresets loads built-ins, then lets each additional path override them
func LoadPresets(additionalPaths ...string) (PresetMap, error) {
	result, err := LoadBuiltinPresets()
	if err != nil {
		return nil, err
	}

	for _, path := range additionalPaths {
		if path == "" {
			continue
		}
		extra, err := LoadPresetsFromPath(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load additional presets from %s", path)
		}
		for name, p := range extra {
			result[name] = p
		}
	}
	return result, nil
}

// Get looks a preset up case-insensitively
func (m PresetMap) Get(name string) (PresetConfig, bool) {
	p, ok := m[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Sorted returns the presets ordered by category, then name
func (m PresetMap) Sorted() []PresetConfig {
	list := make([]PresetConfig, 0, len(m))
	for _, p := range m {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Category != list[j].Category {
			return list[i].Category < list[j].Category
		}
		return list[i].Name < list[j].Name
	})
	return list
}
