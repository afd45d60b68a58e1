package app

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	diff "github.com/hexops/gotextdiff"
	myers "github.com/hexops/gotextdiff/myers"
	"github.com/pkg/errors"

	"github.com/fpt/go-wildprompt-cli/internal/config"
	"github.com/fpt/go-wildprompt-cli/internal/infra"
	"github.com/fpt/go-wildprompt-cli/internal/repository"
	pkgLogger "github.com/fpt/go-wildprompt-cli/pkg/logger"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/engine"
)

// Result is one expansion as shown to the user
type Result struct {
	Input  string // prepared template
	Output string
	Seed   uint64 // seed the random source ran with
	Stats  Stats
}

// PromptTester drives the expansion engine for the CLI: it prepares input,
// applies the seeding policy, keeps the last outputs for diffing and owns
// the wildcard source, the prompt library and the presets.
type PromptTester struct {
	mu        sync.Mutex
	processor *engine.Processor
	wildcards repository.WildcardRepository
	library   repository.PromptLibrary
	presets   infra.PresetMap
	settings  *config.Settings
	logger    *pkgLogger.Logger

	previous, latest string
	outputs          int
}

// NewPromptTester wires a tester around already constructed repositories.
// library may be nil, in which case library actions fail.
func NewPromptTester(settings *config.Settings, wildcards repository.WildcardRepository, library repository.PromptLibrary, presets infra.PresetMap, logger *pkgLogger.Logger, opts ...engine.Option) (*PromptTester, error) {
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("tester")
	}
	kind, err := settings.DefaultSamplerKind()
	if err != nil {
		return nil, err
	}
	if presets == nil {
		presets = infra.PresetMap{}
	}

	opts = append([]engine.Option{
		engine.WithDefaultSampler(kind),
		engine.WithLogger(logger),
	}, opts...)

	return &PromptTester{
		processor: engine.NewProcessor(wildcards, opts...),
		wildcards: wildcards,
		library:   library,
		presets:   presets,
		settings:  settings,
		logger:    logger,
	}, nil
}

// NewPromptTesterFromSettings builds the file-backed wildcard repository,
// the YAML prompt library and the preset set described by settings.
// Missing optional sources are logged and skipped.
func NewPromptTesterFromSettings(settings *config.Settings, logger *pkgLogger.Logger) (*PromptTester, error) {
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("tester")
	}

	sourceConfig := infra.DefaultWildcardSourceConfig()
	sourceConfig.CommentPrefix = settings.Wildcards.CommentPrefix
	wildcards := infra.NewFileWildcardRepository(sourceConfig, logger.WithComponent("wildcards"))
	if settings.Wildcards.Path != "" {
		if err := wildcards.SetPath(settings.Wildcards.Path); err != nil {
			logger.WarnWithIntention(pkgLogger.IntentionWildcard, "Failed to load wildcard directory", "path", settings.Wildcards.Path, "error", err.Error())
		}
	}

	var library repository.PromptLibrary
	if settings.Library.Path != "" {
		yamlLibrary := infra.NewYAMLPromptLibrary(settings.Library.Path, logger.WithComponent("library"))
		if err := yamlLibrary.Load(); err != nil {
			logger.WarnWithIntention(pkgLogger.IntentionLibrary, "Failed to load prompt library", "path", settings.Library.Path, "error", err.Error())
		}
		library = yamlLibrary
	}

	presets, err := infra.LoadPresets(settings.Presets.Paths...)
	if err != nil {
		logger.WarnWithIntention(pkgLogger.IntentionConfig, "Failed to load presets", "paths", settings.Presets.Paths, "error", err.Error())
		presets = infra.PresetMap{}
	}

	return NewPromptTester(settings, wildcards, library, presets, logger)
}

// Process expands text once under the current seeding policy.
func (t *PromptTester) Process(text string) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	input := PrepareInput(text)
	seed := t.applySeed()
	return t.run(input, seed)
}

// Generate expands text n times under a single seeding decision, so
// cyclical and combinatorial samplers advance across the batch.
func (t *PromptTester) Generate(text string, n int) []Result {
	if n < 1 {
		n = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	input := PrepareInput(text)
	seed := t.applySeed()
	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, t.run(input, seed))
	}
	return results
}

func (t *PromptTester) applySeed() uint64 {
	if t.settings.Sampler.FixedSeed {
		t.processor.Seed(t.settings.Sampler.Seed)
		return t.settings.Sampler.Seed
	}
	return t.processor.Reseed()
}

func (t *PromptTester) run(input string, seed uint64) Result {
	output := t.processor.Expand(input)
	if t.settings.Output.Collapse {
		output = CollapseOutput(output)
	}
	t.previous, t.latest = t.latest, output
	t.outputs++

	t.logger.DebugWithIntention(pkgLogger.IntentionExpand, "Expanded template", "seed", seed, "chars", len(output))
	return Result{Input: input, Output: output, Seed: seed, Stats: ComputeStats(output)}
}

// DiffLast returns a unified diff between the previous and the latest
// output. ok is false until two outputs exist.
func (t *PromptTester) DiffLast() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.outputs < 2 {
		return "", false
	}
	before, after := withTrailingNewline(t.previous), withTrailingNewline(t.latest)
	edits := myers.ComputeEdits("", before, after)
	return fmt.Sprint(diff.ToUnified("previous", "latest", before, edits)), true
}

func withTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Sampler returns the sampler used for unprefixed groups and tokens.
func (t *PromptTester) Sampler() domain.SamplerKind {
	return t.processor.DefaultSampler()
}

// SetSampler changes the default sampler for the rest of the session.
func (t *PromptTester) SetSampler(kind domain.SamplerKind) error {
	if err := t.processor.SetDefaultSampler(kind); err != nil {
		return err
	}
	t.mu.Lock()
	t.settings.Sampler.Default = string(kind)
	t.mu.Unlock()
	return nil
}

// SetFixedSeed enables reproducible runs with seed.
func (t *PromptTester) SetFixedSeed(seed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings.Sampler.FixedSeed = true
	t.settings.Sampler.Seed = seed
}

// SetRandomSeed switches back to a fresh seed per run.
func (t *PromptTester) SetRandomSeed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings.Sampler.FixedSeed = false
}

// SeedPolicy reports whether runs are reseeded with a fixed value.
func (t *PromptTester) SeedPolicy() (fixed bool, seed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings.Sampler.FixedSeed, t.settings.Sampler.Seed
}

// ToggleCollapse flips whitespace collapsing and returns the new state.
func (t *PromptTester) ToggleCollapse() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings.Output.Collapse = !t.settings.Output.Collapse
	return t.settings.Output.Collapse
}

// Separator is printed between batch results.
func (t *PromptTester) Separator() string {
	return t.settings.Output.Separator
}

// WildcardsPath returns the current wildcard directory.
func (t *PromptTester) WildcardsPath() string {
	return t.wildcards.Path()
}

// SetWildcardsPath switches the wildcard directory and remembers it in the
// settings file the session was started with. Only the path is written;
// flag overrides and session toggles stay in memory.
func (t *PromptTester) SetWildcardsPath(dir string) error {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if err := t.wildcards.SetPath(dir); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings.Wildcards.Path = dir
	if t.settings.Path() == "" {
		return nil
	}
	if err := config.SaveWildcardsPath(t.settings.Path(), dir); err != nil {
		t.logger.WarnWithIntention(pkgLogger.IntentionConfig, "Failed to persist wildcard path", "error", err.Error())
	}
	return nil
}

// ReloadWildcards re-reads every wildcard source from disk.
func (t *PromptTester) ReloadWildcards() error {
	return t.wildcards.Reload()
}

// Wildcards returns the known wildcard names, sorted.
func (t *PromptTester) Wildcards() []string {
	return t.wildcards.Names()
}

// CombinationsLeft reports how many options of a wildcard the
// combinatorial sampler still has to hand out this session.
func (t *PromptTester) CombinationsLeft(name string) (int, bool) {
	return t.processor.WildcardRemaining(name)
}

// Presets returns the example templates, ordered by category and name.
func (t *PromptTester) Presets() []infra.PresetConfig {
	return t.presets.Sorted()
}

// Preset looks up an example template by name, ignoring case.
func (t *PromptTester) Preset(name string) (infra.PresetConfig, bool) {
	return t.presets.Get(name)
}

var errNoLibrary = errors.New("no prompt library configured")

// SavePrompt stores content at "folder/name" and writes the library file.
// It returns the final path, which may carry a " (n)" suffix.
func (t *PromptTester) SavePrompt(libraryPath, content string) (string, error) {
	if t.library == nil {
		return "", errNoLibrary
	}
	libraryPath = strings.Trim(libraryPath, "/")
	if libraryPath == "" {
		return "", repository.ErrInvalidPath
	}
	folder, name := path.Split(libraryPath)

	saved, err := t.library.Add(strings.TrimSuffix(folder, "/"), name, content)
	if err != nil {
		return "", errors.Wrapf(err, "failed to add prompt %s", libraryPath)
	}
	if err := t.library.Save(); err != nil {
		return "", errors.Wrap(err, "failed to save prompt library")
	}
	t.logger.InfoWithIntention(pkgLogger.IntentionLibrary, "Saved prompt", "path", saved)
	return saved, nil
}

// UpdatePrompt replaces the template stored at libraryPath.
func (t *PromptTester) UpdatePrompt(libraryPath, content string) error {
	if t.library == nil {
		return errNoLibrary
	}
	if err := t.library.Update(libraryPath, content); err != nil {
		return errors.Wrapf(err, "failed to update prompt %s", libraryPath)
	}
	return t.saveLibrary("Updated prompt", "path", libraryPath)
}

// RemovePrompt deletes a template or a whole folder from the library.
func (t *PromptTester) RemovePrompt(libraryPath string) error {
	if t.library == nil {
		return errNoLibrary
	}
	if err := t.library.Remove(libraryPath); err != nil {
		return errors.Wrapf(err, "failed to remove %s", libraryPath)
	}
	return t.saveLibrary("Removed library entry", "path", libraryPath)
}

// RenamePrompt gives the entry at libraryPath a new name within its folder
// and returns the resulting path.
func (t *PromptTester) RenamePrompt(libraryPath, newName string) (string, error) {
	if t.library == nil {
		return "", errNoLibrary
	}
	renamed, err := t.library.Rename(libraryPath, newName)
	if err != nil {
		return "", errors.Wrapf(err, "failed to rename %s", libraryPath)
	}
	return renamed, t.saveLibrary("Renamed library entry", "from", libraryPath, "to", renamed)
}

// AddFolder creates a library folder, including missing parents.
func (t *PromptTester) AddFolder(libraryPath string) (string, error) {
	if t.library == nil {
		return "", errNoLibrary
	}
	libraryPath = strings.Trim(libraryPath, "/")
	if libraryPath == "" {
		return "", repository.ErrInvalidPath
	}
	folder, name := path.Split(libraryPath)

	created, err := t.library.AddFolder(strings.TrimSuffix(folder, "/"), name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create folder %s", libraryPath)
	}
	return created, t.saveLibrary("Created folder", "path", created)
}

func (t *PromptTester) saveLibrary(msg string, args ...any) error {
	if err := t.library.Save(); err != nil {
		return errors.Wrap(err, "failed to save prompt library")
	}
	t.logger.InfoWithIntention(pkgLogger.IntentionLibrary, msg, args...)
	return nil
}

// LoadPrompt returns the template stored at libraryPath.
func (t *PromptTester) LoadPrompt(libraryPath string) (string, error) {
	if t.library == nil {
		return "", errNoLibrary
	}
	entry, err := t.library.Get(libraryPath)
	if err != nil {
		return "", err
	}
	if entry.Type != repository.EntryPrompt {
		return "", errors.Wrapf(repository.ErrNotAPrompt, "%s", libraryPath)
	}
	return entry.Content, nil
}

// ListPrompts returns the children of a library folder; "" is the root.
func (t *PromptTester) ListPrompts(folder string) ([]repository.LibraryEntry, error) {
	if t.library == nil {
		return nil, errNoLibrary
	}
	return t.library.List(folder)
}

// SearchPrompts finds saved prompts by name or content.
func (t *PromptTester) SearchPrompts(term string) ([]repository.LibraryEntry, error) {
	if t.library == nil {
		return nil, errNoLibrary
	}
	return t.library.Search(term), nil
}
