package repository

import "errors"

var (
	ErrPromptNotFound = errors.New("prompt library entry not found")
	ErrNotAFolder     = errors.New("prompt library entry is not a folder")
	ErrNotAPrompt     = errors.New("prompt library entry is not a prompt")
	ErrInvalidPath    = errors.New("invalid prompt library path")
)

// EntryType distinguishes folders from saved prompts.
type EntryType string

const (
	EntryFolder EntryType = "folder"
	EntryPrompt EntryType = "item"
)

// LibraryEntry is one node of the saved-prompt tree. Paths are "/"-joined names.
type LibraryEntry struct {
	Name    string
	Path    string
	Type    EntryType
	Content string // prompts only
}

// PromptLibrary stores prompt templates in a tree of folders.
type PromptLibrary interface {
	Load() error
	Save() error

	// Add stores content under folder/name, creating missing folders. The
	// name gets a " (n)" suffix when a sibling already uses it; the final
	// path is returned.
	Add(folder, name, content string) (string, error)
	// AddFolder creates folder/name and returns its final path.
	AddFolder(folder, name string) (string, error)
	Get(path string) (LibraryEntry, error)
	Update(path, content string) error
	Remove(path string) error
	Rename(path, newName string) (string, error)
	// List returns the children of folder: folders first, then prompts, each
	// ordered case-insensitively by name.
	List(folder string) ([]LibraryEntry, error)
	// Search returns every prompt whose name or content contains term,
	// ignoring case.
	Search(term string) []LibraryEntry
	// Dirty reports unsaved changes.
	Dirty() bool
}
