package task

import (
	"fmt"
	"strings"
)

// SplitCommand splits a command line into an argument vector.
//
// The line is split at every single space. There is no quoting, so arguments
// cannot contain spaces, and consecutive spaces produce empty arguments. Leading
// and trailing whitespace is trimmed first.
func SplitCommand(command string) ([]string, error) {
	command = strings.TrimSpace(command)
	argv := strings.Split(command, " ")
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoProgram, command)
	}
	return argv, nil
}
