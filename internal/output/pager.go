package output

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/temirov/slw/internal/upstream"
)

// Pager pipes everything written to it through an external program.
type Pager struct {
	command *exec.Cmd
	input   io.WriteCloser
}

// StartPager launches commandLine with its output attached to stdout and stderr.
// An empty commandLine yields a nil Pager and no error.
func StartPager(ctx context.Context, commandLine string, stdout io.Writer, stderr io.Writer) (*Pager, error) {
	parsed, configured := upstream.Parse("", commandLine, "")
	if !configured {
		return nil, nil
	}
	// #nosec G204
	command := exec.CommandContext(ctx, parsed.Executable, parsed.Arguments...)
	command.Stdout = stdout
	command.Stderr = stderr
	input, pipeErr := command.StdinPipe()
	if pipeErr != nil {
		return nil, fmt.Errorf("open pager input: %w", pipeErr)
	}
	if startErr := command.Start(); startErr != nil {
		return nil, fmt.Errorf("start pager %q: %w", parsed.String(), startErr)
	}
	return &Pager{command: command, input: input}, nil
}

func (pager *Pager) Write(data []byte) (int, error) {
	return pager.input.Write(data)
}

// Close ends the input and waits for the pager to exit.
func (pager *Pager) Close() error {
	closeErr := pager.input.Close()
	waitErr := pager.command.Wait()
	if waitErr != nil {
		return fmt.Errorf("pager: %w", waitErr)
	}
	return closeErr
}
