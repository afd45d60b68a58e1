package presets

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var embeddedFiles embed.FS

// PresetConfig is one built-in example template (duplicate of infra.PresetConfig to avoid an import cycle)
type PresetConfig struct {
	Name        string `yaml:"-"` // Set during loading
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// PresetConfigMap holds presets keyed by name
type PresetConfigMap map[string]PresetConfig

// LoadBuiltinPresets loads built-in presets from embedded files
func LoadBuiltinPresets() (PresetConfigMap, error) {
	presets := make(PresetConfigMap)

	entries, err := embeddedFiles.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded presets: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isYAMLFile(name) {
			continue
		}

		data, err := embeddedFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded preset file %s: %w", name, err)
		}

		var filePresets map[string]PresetConfig
		if err := yaml.Unmarshal(data, &filePresets); err != nil {
			return nil, fmt.Errorf("failed to parse embedded preset file %s: %w", name, err)
		}

		for presetName, preset := range filePresets {
			preset.Name = presetName
			presets[presetName] = preset
		}
	}

	return presets, nil
}

func isYAMLFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
