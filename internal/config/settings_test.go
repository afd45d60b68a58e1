package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

func TestLoadSettings_CreatesDefaultsAtPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.json")

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default settings file to be created: %v", err)
	}
	if settings.Path() != path {
		t.Errorf("Path() = %q, want %q", settings.Path(), path)
	}
	if settings.Sampler.Default != "random" || settings.Sampler.Seed != DefaultSeed {
		t.Errorf("unexpected sampler defaults: %+v", settings.Sampler)
	}
	if settings.Library.Path != filepath.Join(filepath.Dir(path), "prompts.yaml") {
		t.Errorf("library should default next to settings, got %q", settings.Library.Path)
	}
}

func TestLoadSettings_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"sampler":{"default":"cyclical","fixed_seed":true}}`), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	kind, err := settings.DefaultSamplerKind()
	if err != nil || kind != domain.SamplerCyclical {
		t.Errorf("DefaultSamplerKind() = %q, %v", kind, err)
	}
	if settings.Sampler.Seed != DefaultSeed {
		t.Errorf("fixed seed without a value should default to %d, got %d", DefaultSeed, settings.Sampler.Seed)
	}
	if settings.Output.Separator != "----" || settings.LogLevel != "info" || settings.Wildcards.CommentPrefix != "#" {
		t.Errorf("defaults not applied: %+v", settings)
	}
}

func TestLoadSettings_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	wildcards := t.TempDir()
	settings.Wildcards.Path = wildcards
	settings.Output.Collapse = true
	if err := SaveSettings("", settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	reloaded, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Wildcards.Path != wildcards || !reloaded.Output.Collapse {
		t.Errorf("saved values not persisted: %+v", reloaded)
	}
}

func TestValidateSettings(t *testing.T) {
	valid := GetDefaultSettings()
	if err := ValidateSettings(valid); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	badSampler := GetDefaultSettings()
	badSampler.Sampler.Default = "weighted"
	if err := ValidateSettings(badSampler); !errors.Is(err, ErrInvalidSampler) {
		t.Errorf("expected ErrInvalidSampler, got %v", err)
	}

	badLevel := GetDefaultSettings()
	badLevel.LogLevel = "trace"
	if err := ValidateSettings(badLevel); err == nil {
		t.Error("expected error for unsupported log level")
	}

	noSeparator := GetDefaultSettings()
	noSeparator.Output.Separator = ""
	if err := ValidateSettings(noSeparator); err == nil {
		t.Error("expected error for empty separator")
	}
}

func TestSaveWildcardsPath_KeepsOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"sampler":{"default":"random"},"output":{"separator":"===="}}`), 0644); err != nil {
		t.Fatal(err)
	}

	// in-memory overrides on a loaded copy must not reach the file
	inMemory, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	inMemory.Sampler.FixedSeed = true
	inMemory.Sampler.Seed = 7
	inMemory.Sampler.Default = "cyclical"
	inMemory.Presets.Paths = append(inMemory.Presets.Paths, "extra.yaml")

	if err := SaveWildcardsPath(path, "/tmp/wildcards"); err != nil {
		t.Fatalf("SaveWildcardsPath: %v", err)
	}

	stored, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Wildcards.Path != "/tmp/wildcards" {
		t.Errorf("wildcards path = %q", stored.Wildcards.Path)
	}
	if stored.Sampler.FixedSeed || stored.Sampler.Default != "random" || len(stored.Presets.Paths) != 0 {
		t.Errorf("overrides leaked to disk: %+v", stored)
	}
	if stored.Output.Separator != "====" {
		t.Errorf("separator = %q", stored.Output.Separator)
	}

	if err := SaveWildcardsPath("", "/tmp/wildcards"); err == nil {
		t.Error("expected error without a settings file")
	}
}
