package repository

import "github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"

// WildcardSourceConfig controls how wildcard source files are read.
type WildcardSourceConfig struct {
	TextExtensions []string `json:"text_extensions"` // one option per line
	YAMLExtensions []string `json:"yaml_extensions"` // lists, or mappings of lists
	CommentPrefix  string   `json:"comment_prefix"`  // lines starting with this are skipped
}

// WildcardRepository is a reloadable, cached WildcardResolver backed by a
// named storage location.
type WildcardRepository interface {
	domain.WildcardResolver

	// Path returns the current source location, empty when none is set.
	Path() string
	// SetPath switches to a new source location and indexes it.
	SetPath(path string) error
	// Names returns every known wildcard name, sorted.
	Names() []string
	// Reload drops every cached entry and re-indexes the current location.
	Reload() error
}
