// Package loader reads task entries from configuration files.
//
// Three formats are supported, selected by file extension:
//
//   - ".toml": [[task]] tables, parsed with go-toml
//   - ".json": a "tasks" array, parsed with gjson
//   - anything else: the line format "id:action:order:pipe-id:command"
//
// Loaders only split a file into raw entries. Field validation and the pipe
// relation are checked when entries are registered, so a loader never rejects
// a whole file because of one bad entry. Only an unreadable or unparseable file
// is an error.
package loader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one task entry as written in a configuration file.
type Entry struct {
	// Line is the line number (line format) or 1-based index (structured formats).
	Line int
	// ID is the task id field.
	ID string
	// Action is the restart policy keyword.
	Action string
	// Order is the start order field, possibly empty.
	Order string
	// PipeID is the pipe partner field, possibly empty.
	PipeID string
	// Command is the command line.
	Command string
	// Err is set when the entry could not be split into fields.
	Err error
}

// Loader is the interface for task configuration loaders.
type Loader interface {
	// LoadFrom reads the entries of the file at path.
	LoadFrom(path string) ([]Entry, error)
	// LoadFromReader reads entries from a reader.
	LoadFromReader(r io.Reader) ([]Entry, error)
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// ForPath returns the loader matching the extension of path.
func ForPath(fsys FileSystem, path string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoaderWithFS(fsys)
	case ".json":
		return NewJSONLoaderWithFS(fsys)
	default:
		return NewLineLoaderWithFS(fsys)
	}
}

// Load reads the entries of the file at path from the OS file system.
func Load(path string) ([]Entry, error) {
	return ForPath(DefaultFS(), path).LoadFrom(path)
}

// readFile reads path through fsys, wrapping the error with the path.
func readFile(fsys FileSystem, path string) ([]byte, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return data, nil
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
