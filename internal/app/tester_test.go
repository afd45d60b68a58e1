package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpt/go-wildprompt-cli/internal/config"
	"github.com/fpt/go-wildprompt-cli/internal/infra"
	"github.com/fpt/go-wildprompt-cli/internal/repository"
	pkgLogger "github.com/fpt/go-wildprompt-cli/pkg/logger"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// newTestTester builds a tester with settings stored in a temp dir and a
// wildcard directory holding colors.txt.
func newTestTester(t *testing.T, mutate func(*config.Settings)) (*PromptTester, *config.Settings) {
	t.Helper()
	dir := t.TempDir()

	wildcards := filepath.Join(dir, "wildcards")
	writeFile(t, filepath.Join(wildcards, "colors.txt"), "red\ngreen\nblue\n")

	settings, err := config.LoadSettings(filepath.Join(dir, "settings.json"))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	settings.Wildcards.Path = wildcards
	if mutate != nil {
		mutate(settings)
	}

	tester, err := NewPromptTesterFromSettings(settings, pkgLogger.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewPromptTesterFromSettings: %v", err)
	}
	return tester, settings
}

func TestProcess_CyclicalAdvancesAcrossRuns(t *testing.T) {
	tester, _ := newTestTester(t, func(s *config.Settings) { s.Sampler.Default = "cyclical" })

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, tester.Process("__colors__").Output)
	}
	want := []string{"red", "green", "blue", "red"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("run outputs = %v, want %v", got, want)
		}
	}
}

func TestProcess_FixedSeedIsReproducible(t *testing.T) {
	tester, _ := newTestTester(t, func(s *config.Settings) {
		s.Sampler.FixedSeed = true
		s.Sampler.Seed = 7
	})

	const template = "{2$$a|b|c|d|e}, {x|y|z}, __colors__"
	first := tester.Process(template)
	second := tester.Process(template)

	if first.Output != second.Output {
		t.Errorf("fixed seed should repeat output: %q vs %q", first.Output, second.Output)
	}
	if first.Seed != 7 || second.Seed != 7 {
		t.Errorf("expected seed 7, got %d and %d", first.Seed, second.Seed)
	}
}

func TestProcess_PreparesAndCollapses(t *testing.T) {
	tester, _ := newTestTester(t, func(s *config.Settings) { s.Output.Collapse = true })

	result := tester.Process("# comment\n  a   {b}\n\n\nc  ")
	if result.Input != "  a   {b}\n\nc" {
		t.Errorf("Input = %q", result.Input)
	}
	if result.Output != "a b c" {
		t.Errorf("Output = %q", result.Output)
	}
	if result.Stats.Words != 3 {
		t.Errorf("Stats = %+v", result.Stats)
	}
}

func TestGenerate_CombinatorialWalksOptions(t *testing.T) {
	tester, _ := newTestTester(t, func(s *config.Settings) { s.Sampler.Default = "combinatorial" })

	results := tester.Generate("{a|b|c}", 4)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	var outputs []string
	for _, r := range results {
		outputs = append(outputs, r.Output)
	}
	// the fourth run falls back to the first option once exhausted
	if strings.Join(outputs, ",") != "a,b,c,a" {
		t.Errorf("outputs = %v", outputs)
	}
	if results[0].Seed != results[3].Seed {
		t.Error("a batch should run under one seed")
	}
}

func TestDiffLast(t *testing.T) {
	tester, _ := newTestTester(t, func(s *config.Settings) { s.Sampler.Default = "cyclical" })

	if _, ok := tester.DiffLast(); ok {
		t.Fatal("DiffLast should report false before two outputs exist")
	}
	tester.Process("{first|second}")
	tester.Process("{first|second}")

	out, ok := tester.DiffLast()
	if !ok {
		t.Fatal("expected a diff after two outputs")
	}
	for _, want := range []string{"--- previous", "+++ latest", "-first", "+second"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}
}

func TestSetSamplerAndSeedPolicy(t *testing.T) {
	tester, settings := newTestTester(t, nil)

	if tester.Sampler() != domain.SamplerRandom {
		t.Errorf("default sampler = %q", tester.Sampler())
	}
	if err := tester.SetSampler(domain.SamplerCyclical); err != nil {
		t.Fatal(err)
	}
	if tester.Sampler() != domain.SamplerCyclical || settings.Sampler.Default != "cyclical" {
		t.Errorf("sampler not switched: %q / %q", tester.Sampler(), settings.Sampler.Default)
	}
	if err := tester.SetSampler("weighted"); err == nil {
		t.Error("expected error for unknown sampler")
	}

	tester.SetFixedSeed(99)
	if fixed, seed := tester.SeedPolicy(); !fixed || seed != 99 {
		t.Errorf("SeedPolicy() = %v, %d", fixed, seed)
	}
	tester.SetRandomSeed()
	if fixed, _ := tester.SeedPolicy(); fixed {
		t.Error("expected random seeding")
	}

	if !tester.ToggleCollapse() || tester.ToggleCollapse() {
		t.Error("ToggleCollapse should flip the setting")
	}
}

func TestSetWildcardsPath_PersistsSetting(t *testing.T) {
	tester, settings := newTestTester(t, nil)

	other := t.TempDir()
	writeFile(t, filepath.Join(other, "animals", "pets.txt"), "cat\n")

	if err := tester.SetWildcardsPath(other); err != nil {
		t.Fatalf("SetWildcardsPath: %v", err)
	}
	if names := tester.Wildcards(); len(names) != 1 || names[0] != "animals/pets" {
		t.Errorf("Wildcards() = %v", names)
	}
	if got := tester.Process("__animals/pets__").Output; got != "cat" {
		t.Errorf("Output = %q", got)
	}

	reloaded, err := config.LoadSettings(settings.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Wildcards.Path != other {
		t.Errorf("persisted path = %q, want %q", reloaded.Wildcards.Path, other)
	}

	if err := tester.SetWildcardsPath(filepath.Join(other, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	if tester.WildcardsPath() != other {
		t.Errorf("failed switch should keep %q, got %q", other, tester.WildcardsPath())
	}
}

func TestSetWildcardsPath_DoesNotPersistOverrides(t *testing.T) {
	tester, settings := newTestTester(t, nil)

	// what the CLI does with --seed, --sampler, --collapse and --presets
	settings.Sampler.FixedSeed = true
	settings.Sampler.Seed = 7
	settings.Sampler.Default = "cyclical"
	settings.Output.Collapse = true
	settings.Presets.Paths = append(settings.Presets.Paths, "extra.yaml")
	tester.SetFixedSeed(9)
	tester.ToggleCollapse()

	other := t.TempDir()
	if err := tester.SetWildcardsPath(other); err != nil {
		t.Fatal(err)
	}

	stored, err := config.LoadSettings(settings.Path())
	if err != nil {
		t.Fatal(err)
	}
	if stored.Wildcards.Path != other {
		t.Errorf("wildcards path = %q, want %q", stored.Wildcards.Path, other)
	}
	if stored.Sampler.FixedSeed || stored.Sampler.Default != "random" || stored.Output.Collapse || len(stored.Presets.Paths) != 0 {
		t.Errorf("session overrides written to settings file: %+v", stored)
	}
}

func TestReloadWildcards(t *testing.T) {
	tester, settings := newTestTester(t, nil)

	writeFile(t, filepath.Join(settings.Wildcards.Path, "colors.txt"), "violet\n")
	if got := tester.Process("__colors__").Output; got == "violet" {
		t.Fatal("cached options should survive until reload")
	}
	if err := tester.ReloadWildcards(); err != nil {
		t.Fatal(err)
	}
	if got := tester.Process("__colors__").Output; got != "violet" {
		t.Errorf("Output after reload = %q", got)
	}
}

func TestPromptLibraryActions(t *testing.T) {
	tester, settings := newTestTester(t, nil)

	saved, err := tester.SavePrompt("portraits/day", "a {sunny|cloudy} day")
	if err != nil {
		t.Fatalf("SavePrompt: %v", err)
	}
	if saved != "portraits/day" {
		t.Errorf("saved path = %q", saved)
	}
	again, err := tester.SavePrompt("portraits/day", "other")
	if err != nil || again != "portraits/day (1)" {
		t.Errorf("duplicate save = %q, %v", again, err)
	}

	content, err := tester.LoadPrompt("portraits/day")
	if err != nil || content != "a {sunny|cloudy} day" {
		t.Errorf("LoadPrompt = %q, %v", content, err)
	}
	if _, err := tester.LoadPrompt("portraits"); !errors.Is(err, repository.ErrNotAPrompt) {
		t.Errorf("loading a folder should fail with ErrNotAPrompt, got %v", err)
	}

	entries, err := tester.ListPrompts("portraits")
	if err != nil || len(entries) != 2 {
		t.Errorf("ListPrompts = %v, %v", entries, err)
	}
	found, err := tester.SearchPrompts("SUNNY")
	if err != nil || len(found) != 1 || found[0].Path != "portraits/day" {
		t.Errorf("SearchPrompts = %v, %v", found, err)
	}

	// saved to disk: a fresh library sees the entries
	fresh := infra.NewYAMLPromptLibrary(settings.Library.Path, pkgLogger.NewDiscardLogger())
	if err := fresh.Load(); err != nil {
		t.Fatal(err)
	}
	if _, err := fresh.Get("portraits/day (1)"); err != nil {
		t.Errorf("persisted library missing entry: %v", err)
	}
}

func TestPresets(t *testing.T) {
	tester, _ := newTestTester(t, nil)

	if len(tester.Presets()) == 0 {
		t.Fatal("expected built-in presets")
	}
	preset, ok := tester.Preset("NESTED")
	if !ok || preset.Template == "" {
		t.Errorf("Preset(NESTED) = %+v, %v", preset, ok)
	}
}
