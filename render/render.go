// Package render turns resume text into a document by shelling out to an
// external converter. Rendering is out of process and never retried; a
// failure is escalated so the caller decides what to do with the already
// synthesized text.
package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Renderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
}

// Placeholders substituted into CommandRenderer arguments.
const (
	InputPlaceholder  = "{input}"
	OutputPlaceholder = "{output}"
)

// CommandRenderer writes the text to a temp file, runs Program with Args
// (after placeholder substitution) and reads the produced output file back.
type CommandRenderer struct {
	Program string
	Args    []string
}

var _ Renderer = (*CommandRenderer)(nil)

// NewCommandRenderer builds a renderer for a converter invoked as
// "program <input> -o <output>" when args is empty.
func NewCommandRenderer(program string, args ...string) *CommandRenderer {
	if len(args) == 0 {
		args = []string{InputPlaceholder, "-o", OutputPlaceholder}
	}
	return &CommandRenderer{Program: program, Args: args}
}

func (r *CommandRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "cv-render-*")
	if err != nil {
		return nil, fmt.Errorf("render: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "resume.md")
	output := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(input, []byte(text), 0o600); err != nil {
		return nil, fmt.Errorf("render: write input: %w", err)
	}

	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		a = strings.ReplaceAll(a, InputPlaceholder, input)
		a = strings.ReplaceAll(a, OutputPlaceholder, output)
		args[i] = a
	}

	cmd := exec.CommandContext(ctx, r.Program, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("render: %s failed: %w: %s", r.Program, err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("render: read output: %w", err)
	}
	return data, nil
}
