package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON indicates a JSON document that does not parse.
var ErrInvalidJSON = errors.New("invalid JSON")

// JSONLoader loads task entries from JSON files:
//
//	{"tasks": [{"id": "web", "action": "respawn", "order": 10, "command": "httpd"}]}
type JSONLoader struct {
	fs FileSystem
}

// NewJSONLoader creates a JSON loader on the OS file system.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{fs: DefaultFS()}
}

// NewJSONLoaderWithFS creates a JSON loader with a custom file system.
func NewJSONLoaderWithFS(fs FileSystem) *JSONLoader {
	return &JSONLoader{fs: fs}
}

// LoadFrom reads entries from the file at path.
func (l *JSONLoader) LoadFrom(path string) ([]Entry, error) {
	data, err := readFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	return l.parse(path, data)
}

// LoadFromReader reads entries from r.
func (l *JSONLoader) LoadFromReader(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return l.parse("<reader>", data)
}

func (l *JSONLoader) parse(source string, data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: source, Message: ErrInvalidJSON.Error(), Err: ErrInvalidJSON}
	}

	tasks := gjson.GetBytes(data, "tasks")
	if tasks.Exists() && !tasks.IsArray() {
		return nil, &ParseError{Path: source, Message: `"tasks" must be an array`, Err: ErrInvalidJSON}
	}

	var entries []Entry
	index := 0
	tasks.ForEach(func(_, value gjson.Result) bool {
		index++
		e := Entry{Line: index}
		if !value.IsObject() {
			e.Err = fmt.Errorf("%w: task entry must be an object", ErrMalformedLine)
			entries = append(entries, e)
			return true
		}
		e.ID = value.Get("id").String()
		e.Action = value.Get("action").String()
		e.Order = value.Get("order").String()
		e.PipeID = value.Get("pipe").String()
		e.Command = value.Get("command").String()
		entries = append(entries, e)
		return true
	})

	return entries, nil
}
