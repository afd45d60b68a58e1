package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/go-wildprompt-cli/internal/repository"
	pkgLogger "github.com/fpt/go-wildprompt-cli/pkg/logger"
)

// libraryNode is the on-disk form of a library entry.
type libraryNode struct {
	Name     string               `yaml:"name"`
	Type     repository.EntryType `yaml:"type"`
	Content  string               `yaml:"content,omitempty"`
	Children []*libraryNode       `yaml:"children,omitempty"`
}

type libraryFile struct {
	Items []*libraryNode `yaml:"items"`
}

// YAMLPromptLibrary keeps the saved-prompt tree in memory and persists it to
// a single YAML file on Save.
type YAMLPromptLibrary struct {
	mu     sync.Mutex
	path   string
	root   *libraryNode
	dirty  bool
	logger *pkgLogger.Logger
}

// NewYAMLPromptLibrary creates an empty library bound to path. Call Load to
// read existing entries.
func NewYAMLPromptLibrary(path string, logger *pkgLogger.Logger) *YAMLPromptLibrary {
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("library")
	}
	return &YAMLPromptLibrary{
		path:   path,
		root:   &libraryNode{Type: repository.EntryFolder},
		logger: logger,
	}
}

// Load replaces the in-memory tree with the file contents. A missing file
// yields an empty library.
func (l *YAMLPromptLibrary) Load() error {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		l.mu.Lock()
		l.root = &libraryNode{Type: repository.EntryFolder}
		l.dirty = false
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read prompt library %s", l.path)
	}

	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrapf(err, "failed to parse prompt library %s", l.path)
	}

	root := &libraryNode{Type: repository.EntryFolder, Children: file.Items}
	normalizeTree(root)

	l.mu.Lock()
	l.root = root
	l.dirty = false
	l.mu.Unlock()

	l.logger.DebugWithIntention(pkgLogger.IntentionLibrary, "Loaded prompt library", "path", l.path, "entries", len(file.Items))
	return nil
}

// Save writes the tree to disk.
func (l *YAMLPromptLibrary) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := yaml.Marshal(libraryFile{Items: l.root.Children})
	if err != nil {
		return errors.Wrap(err, "failed to marshal prompt library")
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create library directory")
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write prompt library %s", l.path)
	}
	l.dirty = false
	return nil
}

func (l *YAMLPromptLibrary) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

func (l *YAMLPromptLibrary) Add(folder, name, content string) (string, error) {
	return l.add(folder, name, repository.EntryPrompt, content)
}

func (l *YAMLPromptLibrary) AddFolder(folder, name string) (string, error) {
	return l.add(folder, name, repository.EntryFolder, "")
}

func (l *YAMLPromptLibrary) add(folder, name string, typ repository.EntryType, content string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "/") {
		return "", errors.Wrapf(repository.ErrInvalidPath, "bad name %q", name)
	}
	parts, err := splitLibraryPath(folder, true)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	parent, err := l.mkdirAll(parts)
	if err != nil {
		return "", err
	}
	node := &libraryNode{Name: uniqueName(parent, name, nil), Type: typ, Content: content}
	parent.Children = append(parent.Children, node)
	sortChildren(parent)
	l.dirty = true

	return joinLibraryPath(parts, node.Name), nil
}

func (l *YAMLPromptLibrary) Get(path string) (repository.LibraryEntry, error) {
	parts, err := splitLibraryPath(path, false)
	if err != nil {
		return repository.LibraryEntry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	node, _, err := l.find(parts)
	if err != nil {
		return repository.LibraryEntry{}, err
	}
	return toEntry(node, strings.Join(parts, "/")), nil
}

func (l *YAMLPromptLibrary) Update(path, content string) error {
	parts, err := splitLibraryPath(path, false)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	node, _, err := l.find(parts)
	if err != nil {
		return err
	}
	if node.Type != repository.EntryPrompt {
		return errors.Wrap(repository.ErrNotAPrompt, path)
	}
	if node.Content != content {
		node.Content = content
		l.dirty = true
	}
	return nil
}

func (l *YAMLPromptLibrary) Remove(path string) error {
	parts, err := splitLibraryPath(path, false)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	node, parent, err := l.find(parts)
	if err != nil {
		return err
	}
	for i, child := range parent.Children {
		if child == node {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	l.dirty = true
	return nil
}

func (l *YAMLPromptLibrary) Rename(path, newName string) (string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" || strings.Contains(newName, "/") {
		return "", errors.Wrapf(repository.ErrInvalidPath, "bad name %q", newName)
	}
	parts, err := splitLibraryPath(path, false)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	node, parent, err := l.find(parts)
	if err != nil {
		return "", err
	}
	node.Name = uniqueName(parent, newName, node)
	sortChildren(parent)
	l.dirty = true

	return joinLibraryPath(parts[:len(parts)-1], node.Name), nil
}

func (l *YAMLPromptLibrary) List(folder string) ([]repository.LibraryEntry, error) {
	parts, err := splitLibraryPath(folder, true)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	node := l.root
	if len(parts) > 0 {
		if node, _, err = l.find(parts); err != nil {
			return nil, err
		}
	}
	if node.Type != repository.EntryFolder {
		return nil, errors.Wrap(repository.ErrNotAFolder, folder)
	}

	entries := make([]repository.LibraryEntry, 0, len(node.Children))
	for _, child := range node.Children {
		entries = append(entries, toEntry(child, joinLibraryPath(parts, child.Name)))
	}
	return entries, nil
}

func (l *YAMLPromptLibrary) Search(term string) []repository.LibraryEntry {
	term = strings.ToLower(strings.TrimSpace(term))

	l.mu.Lock()
	defer l.mu.Unlock()

	var found []repository.LibraryEntry
	var walk func(node *libraryNode, parts []string)
	walk = func(node *libraryNode, parts []string) {
		for _, child := range node.Children {
			childParts := append(append([]string(nil), parts...), child.Name)
			if child.Type == repository.EntryFolder {
				walk(child, childParts)
				continue
			}
			if term == "" ||
				strings.Contains(strings.ToLower(child.Name), term) ||
				strings.Contains(strings.ToLower(child.Content), term) {
				found = append(found, toEntry(child, strings.Join(childParts, "/")))
			}
		}
	}
	walk(l.root, nil)
	return found
}

// find returns the node at parts and its parent. Callers hold l.mu.
func (l *YAMLPromptLibrary) find(parts []string) (node, parent *libraryNode, err error) {
	node = l.root
	for _, part := range parts {
		if node.Type != repository.EntryFolder {
			return nil, nil, errors.Wrap(repository.ErrNotAFolder, node.Name)
		}
		parent = node
		node = childNamed(node, part)
		if node == nil {
			return nil, nil, errors.Wrap(repository.ErrPromptNotFound, strings.Join(parts, "/"))
		}
	}
	return node, parent, nil
}

// mkdirAll walks parts from the root, creating missing folders. Callers hold l.mu.
func (l *YAMLPromptLibrary) mkdirAll(parts []string) (*libraryNode, error) {
	node := l.root
	for _, part := range parts {
		child := childNamed(node, part)
		if child == nil {
			child = &libraryNode{Name: part, Type: repository.EntryFolder}
			node.Children = append(node.Children, child)
			sortChildren(node)
			l.dirty = true
		}
		if child.Type != repository.EntryFolder {
			return nil, errors.Wrap(repository.ErrNotAFolder, part)
		}
		node = child
	}
	return node, nil
}

func childNamed(node *libraryNode, name string) *libraryNode {
	for _, child := range node.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// uniqueName returns base, or "base (n)" with the smallest free n, ignoring self.
func uniqueName(parent *libraryNode, base string, self *libraryNode) string {
	taken := make(map[string]bool, len(parent.Children))
	for _, child := range parent.Children {
		if child != self {
			taken[child.Name] = true
		}
	}
	if !taken[base] {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// sortChildren orders folders before prompts, each case-insensitively by name.
func sortChildren(node *libraryNode) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if (a.Type == repository.EntryFolder) != (b.Type == repository.EntryFolder) {
			return a.Type == repository.EntryFolder
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// normalizeTree fixes up hand-edited files: empty entries, missing types and
// unsorted children.
func normalizeTree(node *libraryNode) {
	kept := node.Children[:0]
	for _, child := range node.Children {
		if child != nil {
			kept = append(kept, child)
		}
	}
	node.Children = kept
	for _, child := range node.Children {
		if child.Type == "" {
			if len(child.Children) > 0 {
				child.Type = repository.EntryFolder
			} else {
				child.Type = repository.EntryPrompt
			}
		}
		if child.Type == repository.EntryFolder {
			normalizeTree(child)
		}
	}
	sortChildren(node)
}

func toEntry(node *libraryNode, path string) repository.LibraryEntry {
	return repository.LibraryEntry{
		Name:    node.Name,
		Path:    path,
		Type:    node.Type,
		Content: node.Content,
	}
}

// splitLibraryPath turns "a/b/c" into its parts. The root ("") is only
// accepted when allowRoot is set.
func splitLibraryPath(path string, allowRoot bool) ([]string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		if allowRoot {
			return nil, nil
		}
		return nil, errors.Wrap(repository.ErrInvalidPath, "empty path")
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
		if parts[i] == "" {
			return nil, errors.Wrapf(repository.ErrInvalidPath, "empty segment in %q", path)
		}
	}
	return parts, nil
}

func joinLibraryPath(parts []string, name string) string {
	if len(parts) == 0 {
		return name
	}
	return strings.Join(parts, "/") + "/" + name
}
