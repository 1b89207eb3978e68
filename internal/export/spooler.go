package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Spooler accepts finished PDF bytes for printing.
type Spooler interface {
	Spool(ctx context.Context, name string, data []byte) error
}

// TitlePlaceholder in a print command argument is replaced with the artifact name.
const TitlePlaceholder = "{title}"

// DefaultPrintCommand submits to the default CUPS queue, reading the PDF from stdin.
const DefaultPrintCommand = "lp -t {title}"

// CommandSpooler pipes the PDF into an external print command.
type CommandSpooler struct {
	path    string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandSpooler parses command (whitespace separated, first field is the
// binary) and resolves the binary on PATH.
func NewCommandSpooler(command string, timeout time.Duration, logger *slog.Logger) (*CommandSpooler, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("export: empty print command")
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("export: print command %q: %w", fields[0], err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandSpooler{path: path, args: fields[1:], timeout: timeout, logger: logger}, nil
}

// Spool runs the command with data on stdin.
func (s *CommandSpooler) Spool(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := make([]string, len(s.args))
	for i, a := range s.args {
		args[i] = strings.ReplaceAll(a, TitlePlaceholder, name)
	}

	cmd := exec.CommandContext(ctx, s.path, args...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("export: print %s timed out after %v", name, s.timeout)
		}
		return fmt.Errorf("export: print %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	s.logger.Info("document spooled",
		slog.String("file", name),
		slog.String("command", filepath.Base(s.path)),
		slog.String("output", strings.TrimSpace(stdout.String())))
	return nil
}

// DirSpooler drops PDFs into a directory watched by some other process.
type DirSpooler struct {
	Dir string
}

// Spool writes data to Dir/name.
func (s DirSpooler) Spool(_ context.Context, name string, data []byte) error {
	if _, err := writeFile(s.Dir, name, data); err != nil {
		return fmt.Errorf("export: spool %s: %w", name, err)
	}
	return nil
}

// writeFile creates dir if needed and writes data to dir/name through a
// temporary file so readers never see a partial PDF.
func writeFile(dir, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}
