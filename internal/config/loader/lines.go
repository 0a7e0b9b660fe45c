package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Line format errors.
var (
	// ErrMalformedLine indicates a line without the expected fields.
	ErrMalformedLine = errors.New("invalid format")

	// ErrLineTooLong indicates a line longer than MaxLineLen.
	ErrLineTooLong = errors.New("line too long")
)

// MaxLineLen bounds a single configuration line. It leaves room for the
// longest valid entry plus generous whitespace.
const MaxLineLen = 4096

// lineFields names the colon-separated fields before the command.
var lineFields = [...]string{"id", "action", "order", "pipe-id"}

// LineLoader loads the line format:
//
//	# comment
//	id:action:order:pipe-id:command
//
// Fields are trimmed of surrounding whitespace. The command is everything after
// the fourth colon and may itself contain colons.
type LineLoader struct {
	fs FileSystem
}

// NewLineLoader creates a line format loader on the OS file system.
func NewLineLoader() *LineLoader {
	return &LineLoader{fs: DefaultFS()}
}

// NewLineLoaderWithFS creates a line format loader with a custom file system.
func NewLineLoaderWithFS(fs FileSystem) *LineLoader {
	return &LineLoader{fs: fs}
}

// LoadFrom reads entries from the file at path.
func (l *LineLoader) LoadFrom(path string) ([]Entry, error) {
	data, err := readFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	return l.parse(path, bytes.NewReader(data))
}

// LoadFromReader reads entries from r.
func (l *LineLoader) LoadFromReader(r io.Reader) ([]Entry, error) {
	return l.parse("<reader>", r)
}

func (l *LineLoader) parse(source string, r io.Reader) ([]Entry, error) {
	var entries []Entry

	br := bufio.NewReader(r)
	lineNr := 0
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: source, Line: lineNr + 1, Message: err.Error(), Err: err}
		}
		if raw == "" && err != nil {
			break
		}
		lineNr++

		line := strings.TrimSpace(raw)
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
		case len(line) > MaxLineLen:
			entries = append(entries, Entry{
				Line: lineNr,
				Err:  fmt.Errorf("%w: %d bytes, at most %d allowed", ErrLineTooLong, len(line), MaxLineLen),
			})
		default:
			entries = append(entries, parseLine(lineNr, line))
		}

		if err != nil {
			break
		}
	}

	return entries, nil
}

func parseLine(lineNr int, line string) Entry {
	e := Entry{Line: lineNr}

	parts := strings.SplitN(line, ":", len(lineFields)+1)
	if len(parts) <= len(lineFields) {
		e.Err = fmt.Errorf("%w: no separator after %s field", ErrMalformedLine, lineFields[len(parts)-1])
		if len(parts) > 1 {
			e.ID = strings.TrimSpace(parts[0])
		}
		return e
	}

	e.ID = strings.TrimSpace(parts[0])
	e.Action = strings.TrimSpace(parts[1])
	e.Order = strings.TrimSpace(parts[2])
	e.PipeID = strings.TrimSpace(parts[3])
	e.Command = strings.TrimSpace(parts[4])
	return e
}
