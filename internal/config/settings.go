package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pkgLogger "github.com/fpt/go-wildprompt-cli/pkg/logger"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

// SettingsDir is the per-project and per-user configuration directory name
const SettingsDir = ".wildprompt"

// DefaultSeed is used when fixed seeding is enabled without an explicit seed
const DefaultSeed uint64 = 42

var ErrInvalidSampler = errors.New("invalid default sampler")

// Settings represents the main application settings
type Settings struct {
	Wildcards WildcardSettings `json:"wildcards"`
	Sampler   SamplerSettings  `json:"sampler"`
	Output    OutputSettings   `json:"output"`
	Library   LibrarySettings  `json:"library"`
	Presets   PresetSettings   `json:"presets"`
	LogLevel  string           `json:"log_level"`

	path string // file the settings were read from or created at
}

// WildcardSettings configures the wildcard source directory
type WildcardSettings struct {
	Path          string `json:"path"`           // last used wildcard directory
	CommentPrefix string `json:"comment_prefix"` // lines starting with this are ignored
}

// SamplerSettings configures selection behaviour
type SamplerSettings struct {
	Default   string `json:"default"`    // "random", "cyclical" or "combinatorial"
	FixedSeed bool   `json:"fixed_seed"` // reseed with Seed before every run
	Seed      uint64 `json:"seed"`
}

// OutputSettings configures how expansions are printed
type OutputSettings struct {
	Collapse  bool   `json:"collapse"`  // fold all whitespace runs into single spaces
	Separator string `json:"separator"` // printed between batch results
}

// LibrarySettings locates the saved-prompt library
type LibrarySettings struct {
	Path string `json:"path"`
}

// PresetSettings lists extra preset files or directories
type PresetSettings struct {
	Paths []string `json:"paths,omitempty"`
}

// Path returns the file these settings belong to, if any
func (s *Settings) Path() string { return s.path }

// DefaultSamplerKind parses Sampler.Default
func (s *Settings) DefaultSamplerKind() (domain.SamplerKind, error) {
	kind, err := domain.ParseSamplerKind(s.Sampler.Default)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSampler, err)
	}
	return kind, nil
}

// LoadSettings loads application settings from a JSON file
func LoadSettings(configPath string) (*Settings, error) {
	// If config path is empty, search in order of preference
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			return createDefaultSettingsFile()
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createSettingsFileAtPath(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	settings.path = configPath

	applyDefaults(&settings)

	return &settings, nil
}

// SaveSettings saves application settings to a JSON file. An empty
// configPath saves back to the file the settings came from.
func SaveSettings(configPath string, settings *Settings) error {
	if configPath == "" {
		configPath = settings.path
	}
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			configPath = filepath.Join(SettingsDir, "settings.json")
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	settings.path = configPath

	return nil
}

// SaveWildcardsPath records dir as the last used wildcard directory in the
// settings file at configPath. The file is re-read so that in-memory
// overrides are never written back.
func SaveWildcardsPath(configPath, dir string) error {
	if configPath == "" {
		return fmt.Errorf("no settings file to update")
	}
	stored, err := LoadSettings(configPath)
	if err != nil {
		return err
	}
	stored.Wildcards.Path = dir
	return SaveSettings(configPath, stored)
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		Wildcards: WildcardSettings{
			CommentPrefix: "#",
		},
		Sampler: SamplerSettings{
			Default: string(domain.SamplerRandom),
			Seed:    DefaultSeed,
		},
		Output: OutputSettings{
			Separator: "----",
		},
		LogLevel: "info",
	}
}

// applyDefaults fills in missing fields with default values
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.Wildcards.CommentPrefix == "" {
		settings.Wildcards.CommentPrefix = defaults.Wildcards.CommentPrefix
	}
	if settings.Sampler.Default == "" {
		settings.Sampler.Default = defaults.Sampler.Default
	}
	if settings.Sampler.FixedSeed && settings.Sampler.Seed == 0 {
		settings.Sampler.Seed = defaults.Sampler.Seed
	}
	if settings.Output.Separator == "" {
		settings.Output.Separator = defaults.Output.Separator
	}
	if settings.Library.Path == "" {
		settings.Library.Path = defaultLibraryPath(settings.path)
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
}

// defaultLibraryPath places prompts.yaml next to the settings file
func defaultLibraryPath(settingsPath string) string {
	if settingsPath == "" {
		return filepath.Join(SettingsDir, "prompts.yaml")
	}
	return filepath.Join(filepath.Dir(settingsPath), "prompts.yaml")
}

// ValidateSettings validates the settings configuration
func ValidateSettings(settings *Settings) error {
	if _, err := settings.DefaultSamplerKind(); err != nil {
		return err
	}

	switch pkgLogger.LogLevel(settings.LogLevel) {
	case pkgLogger.LogLevelDebug, pkgLogger.LogLevelInfo, pkgLogger.LogLevelWarn, pkgLogger.LogLevelError:
	default:
		return fmt.Errorf("unsupported log level: %s (must be 'debug', 'info', 'warn', or 'error')", settings.LogLevel)
	}

	if settings.Output.Separator == "" {
		return fmt.Errorf("output separator must not be empty")
	}

	return nil
}

// findSettingsFile searches for settings.json in order of preference:
// 1. .wildprompt/settings.json in current directory
// 2. $HOME/.wildprompt/settings.json
// Returns empty string if none found
func findSettingsFile() string {
	currentDirPath := filepath.Join(SettingsDir, "settings.json")
	if _, err := os.Stat(currentDirPath); err == nil {
		return currentDirPath
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		homeDirPath := filepath.Join(homeDir, SettingsDir, "settings.json")
		if _, err := os.Stat(homeDirPath); err == nil {
			return homeDirPath
		}
	}

	return ""
}

// createDefaultSettingsFile creates a default settings.json file in ~/.wildprompt/
func createDefaultSettingsFile() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		settings := GetDefaultSettings()
		applyDefaults(settings)
		return settings, nil // Fall back to defaults without file creation
	}

	return createSettingsFileAtPath(filepath.Join(homeDir, SettingsDir, "settings.json"))
}

// createSettingsFileAtPath creates a default settings file at the specified path
func createSettingsFileAtPath(settingsPath string) (*Settings, error) {
	settings := GetDefaultSettings()
	settings.path = settingsPath
	applyDefaults(settings)

	if err := os.MkdirAll(filepath.Dir(settingsPath), 0755); err != nil {
		return settings, nil // Return defaults if directory creation fails
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return settings, nil
	}

	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return settings, nil
	}

	pkgLogger.NewComponentLogger("settings").InfoWithIntention(pkgLogger.IntentionConfig, "Created default settings file", "path", settingsPath)
	pkgLogger.NewComponentLogger("settings").InfoWithIntention(pkgLogger.IntentionStatus, "You can edit this file to customize your configuration")

	return settings, nil
}
