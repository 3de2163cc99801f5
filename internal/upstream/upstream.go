// Package upstream runs an external formatter that reads Markdown on stdin
// and writes the formatted document to stdout.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrMissingCommand is returned when running a Command without an executable.
var ErrMissingCommand = errors.New("upstream formatter command is missing")

const (
	runErrorFormat     = "upstream formatter %q failed: %w, stderr: %s"
	timeoutErrorFormat = "upstream formatter %q timed out: %w"
)

// Command is an upstream formatter invocation.
type Command struct {
	Executable string
	Arguments  []string
	Timeout    time.Duration
}

// Parse builds a Command. Arguments are split on separator, or on whitespace
// when separator is empty. Without an explicit command the first argument is
// the executable. The boolean result is false when no formatter is configured.
func Parse(command string, arguments string, separator string) (Command, bool) {
	var words []string
	if separator == "" {
		words = strings.Fields(arguments)
	} else {
		for _, word := range strings.Split(arguments, separator) {
			if word != "" {
				words = append(words, word)
			}
		}
	}
	executable := strings.TrimSpace(command)
	if executable == "" {
		if len(words) == 0 {
			return Command{}, false
		}
		executable, words = words[0], words[1:]
	}
	return Command{Executable: executable, Arguments: words}, true
}

// String renders the command line for logs.
func (command Command) String() string {
	return strings.TrimSpace(command.Executable + " " + strings.Join(command.Arguments, " "))
}

// Run feeds input to the formatter in workingDirectory and returns its stdout.
func (command Command) Run(ctx context.Context, workingDirectory string, input string) (string, error) {
	if command.Executable == "" {
		return "", ErrMissingCommand
	}
	runContext := ctx
	if command.Timeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(ctx, command.Timeout)
		defer cancel()
	}

	process := exec.CommandContext(runContext, command.Executable, command.Arguments...)
	process.Dir = workingDirectory
	process.Stdin = strings.NewReader(input)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	process.Stdout = &stdout
	process.Stderr = &stderr

	runError := process.Run()
	if errors.Is(runContext.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf(timeoutErrorFormat, command.String(), runContext.Err())
	}
	if runError != nil {
		return "", fmt.Errorf(runErrorFormat, command.String(), runError, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
