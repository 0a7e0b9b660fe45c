package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

// TOMLLoader loads task entries from TOML files:
//
//	[[task]]
//	id = "web"
//	action = "respawn"
//	order = 10
//	command = "/usr/sbin/httpd -f"
type TOMLLoader struct {
	fs FileSystem
}

type tomlFile struct {
	Tasks []tomlTask `toml:"task"`
}

type tomlTask struct {
	ID      string `toml:"id"`
	Action  string `toml:"action"`
	Order   any    `toml:"order"`
	Pipe    string `toml:"pipe"`
	Command string `toml:"command"`
}

// NewTOMLLoader creates a TOML loader on the OS file system.
func NewTOMLLoader() *TOMLLoader {
	return &TOMLLoader{fs: DefaultFS()}
}

// NewTOMLLoaderWithFS creates a TOML loader with a custom file system.
func NewTOMLLoaderWithFS(fs FileSystem) *TOMLLoader {
	return &TOMLLoader{fs: fs}
}

// LoadFrom reads entries from the file at path.
func (l *TOMLLoader) LoadFrom(path string) ([]Entry, error) {
	data, err := readFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	return l.parse(path, data)
}

// LoadFromReader reads entries from r.
func (l *TOMLLoader) LoadFromReader(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return l.parse("<reader>", data)
}

func (l *TOMLLoader) parse(source string, data []byte) ([]Entry, error) {
	var file tomlFile
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return nil, pe
	}

	entries := make([]Entry, 0, len(file.Tasks))
	for i, t := range file.Tasks {
		entries = append(entries, Entry{
			Line:    i + 1,
			ID:      t.ID,
			Action:  t.Action,
			Order:   orderString(t.Order),
			PipeID:  t.Pipe,
			Command: t.Command,
		})
	}
	return entries, nil
}

// orderString renders a decoded order value for task.ParseOrder.
func orderString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
