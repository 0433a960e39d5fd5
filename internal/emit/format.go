package emit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Formatter normalizes a written artifact in place.
type Formatter interface {
	Format(ctx context.Context, path string) error
}

// Tidy is the built-in formatter: tabs become four spaces, trailing
// whitespace is removed, runs of blank lines collapse to one and the file
// ends with exactly one newline.
type Tidy struct{}

func (Tidy) Format(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, TidyText(data), 0644)
}

// TidyText applies the Tidy rules to src.
func TidyText(src []byte) []byte {
	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	var out bytes.Buffer
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(strings.ReplaceAll(line, "\t", indent), " ")
		if line == "" {
			blank++
			continue
		}
		if blank > 0 && out.Len() > 0 {
			out.WriteByte('\n')
		}
		blank = 0
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// CommandFormatter runs an external command with the artifact path as
// its last argument.
type CommandFormatter struct {
	Argv []string
}

func (c CommandFormatter) Format(ctx context.Context, path string) error {
	if len(c.Argv) == 0 {
		return fmt.Errorf("empty format command")
	}
	args := append(append([]string(nil), c.Argv[1:]...), path)
	cmd := exec.CommandContext(ctx, c.Argv[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("running %s: %w", c.Argv[0], err)
		}
		return fmt.Errorf("running %s: %w: %s", c.Argv[0], err, msg)
	}
	return nil
}

// Chain runs formatters in order, stopping at the first error.
type Chain []Formatter

func (c Chain) Format(ctx context.Context, path string) error {
	for _, f := range c {
		if err := f.Format(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// FormatterFor returns the formatter configured for a module: Tidy,
// followed by the external command when one is set.
func FormatterFor(command []string) Formatter {
	if len(command) == 0 {
		return Tidy{}
	}
	return Chain{Tidy{}, CommandFormatter{Argv: command}}
}

// WriteArtifact writes text to path, creating parent directories.
func WriteArtifact(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}
