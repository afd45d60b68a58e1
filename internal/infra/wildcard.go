package infra

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/fpt/go-wildprompt-cli/internal/repository"
	pkgLogger "github.com/fpt/go-wildprompt-cli/pkg/logger"
)

// DefaultWildcardSourceConfig returns the source layout used by the CLI
func DefaultWildcardSourceConfig() repository.WildcardSourceConfig {
	return repository.WildcardSourceConfig{
		TextExtensions: []string{".txt"},
		YAMLExtensions: []string{".yaml", ".yml"},
		CommentPrefix:  "#",
	}
}

// wildcardSource locates the options of one wildcard name.
type wildcardSource struct {
	file    string
	keyPath []string // nil for text files and top-level YAML lists
}

// wildcardIndex is an immutable-once-published snapshot of a wildcard
// directory. Only entries grows after publication, under the repository lock.
type wildcardIndex struct {
	root    string
	sources map[string]wildcardSource
	entries map[string][]string
}

// FileWildcardRepository resolves wildcards from files below a directory.
//
//	root/season.txt          -> __season__
//	root/colors/warm.txt     -> __colors/warm__
//	root/styles.yaml {a: [...]} -> __styles/a__
type FileWildcardRepository struct {
	mu     sync.RWMutex
	index  *wildcardIndex
	config repository.WildcardSourceConfig
	logger *pkgLogger.Logger
}

// NewFileWildcardRepository creates a repository with no source directory.
func NewFileWildcardRepository(config repository.WildcardSourceConfig, logger *pkgLogger.Logger) *FileWildcardRepository {
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("wildcards")
	}
	return &FileWildcardRepository{
		index:  &wildcardIndex{sources: map[string]wildcardSource{}, entries: map[string][]string{}},
		config: config,
		logger: logger,
	}
}

func (r *FileWildcardRepository) Path() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.root
}

// SetPath indexes dir and makes it the current source. An empty dir clears
// the repository. On error the previous index stays in place.
func (r *FileWildcardRepository) SetPath(dir string) error {
	if dir == "" {
		r.swap(&wildcardIndex{sources: map[string]wildcardSource{}, entries: map[string][]string{}})
		return nil
	}

	root := filepath.Clean(dir)
	info, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "failed to access wildcard directory %s", root)
	}
	if !info.IsDir() {
		return errors.Errorf("wildcard path %s is not a directory", root)
	}

	idx, err := r.build(root)
	if err != nil {
		return err
	}
	r.swap(idx)
	r.logger.InfoWithIntention(pkgLogger.IntentionWildcard, "Loaded wildcards", "path", root, "count", len(idx.sources))
	return nil
}

// Reload rebuilds the whole cache from the current directory and publishes
// it in one step; readers see either the old or the new cache, never a mix.
func (r *FileWildcardRepository) Reload() error {
	root := r.Path()
	if root == "" {
		return nil
	}
	idx, err := r.build(root)
	if err != nil {
		return err
	}
	r.swap(idx)
	r.logger.InfoWithIntention(pkgLogger.IntentionWildcard, "Reloaded wildcards", "path", root, "count", len(idx.sources))
	return nil
}

func (r *FileWildcardRepository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.index.sources))
	for name := range r.index.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the options for name. Names that were not indexed are
// looked up lazily as text files, so files added after the last reload
// still resolve. Read failures are logged and reported as not found.
func (r *FileWildcardRepository) Resolve(name string) ([]string, bool) {
	r.mu.RLock()
	idx := r.index
	options, cached := idx.entries[name]
	src, indexed := idx.sources[name]
	r.mu.RUnlock()

	if cached {
		return slices.Clone(options), true
	}
	if idx.root == "" || !validWildcardName(name) {
		return nil, false
	}

	if !indexed {
		var found bool
		src, found = r.lookupTextFile(idx.root, name)
		if !found {
			return nil, false
		}
	}

	options, err := r.load(src)
	if err != nil {
		r.logger.WarnWithIntention(pkgLogger.IntentionWildcard, "Failed to read wildcard", "name", name, "file", src.file, "error", err.Error())
		return nil, false
	}
	if len(options) == 0 {
		return nil, false
	}

	r.mu.Lock()
	// A reload may have published a new index meanwhile; never write into it.
	if r.index == idx {
		idx.entries[name] = options
		idx.sources[name] = src
	}
	r.mu.Unlock()

	return slices.Clone(options), true
}

func (r *FileWildcardRepository) swap(idx *wildcardIndex) {
	r.mu.Lock()
	r.index = idx
	r.mu.Unlock()
}

// build indexes and eagerly loads every source below root, off-lock. Text
// files are read concurrently.
func (r *FileWildcardRepository) build(root string) (*wildcardIndex, error) {
	idx := &wildcardIndex{
		root:    root,
		sources: map[string]wildcardSource{},
		entries: map[string][]string{},
	}

	var textNames []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			r.logger.WarnWithIntention(pkgLogger.IntentionWildcard, "Skipping unreadable path", "path", path, "error", err.Error())
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		base := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))

		switch {
		case slices.Contains(r.config.TextExtensions, ext):
			idx.sources[base] = wildcardSource{file: path}
			textNames = append(textNames, base)
		case slices.Contains(r.config.YAMLExtensions, ext):
			r.indexYAML(idx, base, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to index wildcard directory %s", root)
	}

	loaded := make([][]string, len(textNames))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range textNames {
		g.Go(func() error {
			src := idx.sources[name]
			options, err := r.load(src)
			if err != nil {
				r.logger.WarnWithIntention(pkgLogger.IntentionWildcard, "Failed to read wildcard", "name", name, "file", src.file, "error", err.Error())
				return nil
			}
			loaded[i] = options
			return nil
		})
	}
	_ = g.Wait() // workers log and swallow their errors

	for i, name := range textNames {
		if len(loaded[i]) > 0 {
			idx.entries[name] = loaded[i]
		}
	}
	return idx, nil
}

func (r *FileWildcardRepository) indexYAML(idx *wildcardIndex, base, path string) {
	doc, err := readYAML(path)
	if err != nil {
		r.logger.WarnWithIntention(pkgLogger.IntentionWildcard, "Failed to parse wildcard file", "file", path, "error", err.Error())
		return
	}
	walkYAML(doc, nil, func(keyPath []string, options []string) {
		name := strings.Join(append([]string{base}, keyPath...), "/")
		idx.sources[name] = wildcardSource{file: path, keyPath: slices.Clone(keyPath)}
		if filtered := r.filter(options); len(filtered) > 0 {
			idx.entries[name] = filtered
		}
	})
}

func (r *FileWildcardRepository) lookupTextFile(root, name string) (wildcardSource, bool) {
	for _, ext := range r.config.TextExtensions {
		path := filepath.Join(root, filepath.FromSlash(name)+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return wildcardSource{file: path}, true
		}
	}
	return wildcardSource{}, false
}

func (r *FileWildcardRepository) load(src wildcardSource) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(src.file))
	if !slices.Contains(r.config.YAMLExtensions, ext) {
		data, err := os.ReadFile(src.file)
		if err != nil {
			return nil, errors.Wrap(err, "read wildcard file")
		}
		return r.filter(strings.Split(string(data), "\n")), nil
	}

	doc, err := readYAML(src.file)
	if err != nil {
		return nil, err
	}
	var options []string
	walkYAML(doc, nil, func(keyPath []string, leaf []string) {
		if slices.Equal(keyPath, src.keyPath) {
			options = leaf
		}
	})
	return r.filter(options), nil
}

// filter trims options and drops blanks and comments.
func (r *FileWildcardRepository) filter(lines []string) []string {
	options := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r.config.CommentPrefix != "" && strings.HasPrefix(line, r.config.CommentPrefix) {
			continue
		}
		options = append(options, line)
	}
	return options
}

func readYAML(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read wildcard file")
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse wildcard yaml")
	}
	return doc, nil
}

// walkYAML calls fn for every list (or scalar) leaf with the mapping keys leading to it.
func walkYAML(node any, keyPath []string, fn func(keyPath []string, options []string)) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkYAML(v[k], append(slices.Clone(keyPath), k), fn)
		}
	case map[any]any:
		converted := make(map[string]any, len(v))
		for k, val := range v {
			converted[fmt.Sprint(k)] = val
		}
		walkYAML(converted, keyPath, fn)
	case []any:
		options := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			options = append(options, fmt.Sprint(item))
		}
		fn(keyPath, options)
	case nil:
	default:
		fn(keyPath, []string{fmt.Sprint(v)})
	}
}

func validWildcardName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." || part == "." {
			return false
		}
	}
	return !strings.ContainsRune(name, '\\')
}
