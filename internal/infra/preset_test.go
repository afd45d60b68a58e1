package infra

import (
	"path/filepath"
	"testing"
)

func TestLoadBuiltinPresets(t *testing.T) {
	presets, err := LoadBuiltinPresets()
	if err != nil {
		t.Fatalf("Failed to load built-in presets: %v", err)
	}

	for _, expected := range []string{"simple", "nested", "cycle"} {
		if _, exists := presets.Get(expected); !exists {
			t.Errorf("Expected preset %s not found", expected)
		}
	}
}

func TestLoadPresetsWithOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mine.yaml"), "Simple:\n  category: custom\n  template: \"{a|b}\"\nportrait:\n  category: custom\n  template: \"__person__ in {oil|ink}\"\n")
	writeFile(t, filepath.Join(dir, "readme.txt"), "not yaml")

	presets, err := LoadPresets(dir)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}

	simple, ok := presets.Get("simple")
	if !ok || simple.Template != "{a|b}" {
		t.Errorf("user preset should override built-in, got %+v", simple)
	}
	if simple.Name != "Simple" {
		t.Errorf("display name should keep its case, got %q", simple.Name)
	}
	if _, ok := presets.Get("PORTRAIT"); !ok {
		t.Error("lookups should ignore case")
	}
	if _, ok := presets.Get("nested"); !ok {
		t.Error("built-ins without override must remain")
	}
}

func TestLoadPresetsFromMissingPath(t *testing.T) {
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for a missing preset path")
	}
}

func TestPresetMapSorted(t *testing.T) {
	m := PresetMap{
		"b": {Name: "b", Category: "x"},
		"a": {Name: "a", Category: "y"},
		"c": {Name: "c", Category: "x"},
	}
	sorted := m.Sorted()
	got := sorted[0].Name + sorted[1].Name + sorted[2].Name
	if got != "bca" {
		t.Errorf("expected category then name order, got %q", got)
	}
}
