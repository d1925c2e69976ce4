// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs document converters that live outside the
// process: host tools such as pdftotext, and converter images such as
// markitdown under docker or podman.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrNoRuntime is returned by DetectRuntime when no engine is usable.
var ErrNoRuntime = errors.New("no container runtime: neither docker nor podman is usable")

// Executor runs external commands. Converters take one so tests can
// script the host.
type Executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// OSExecutor runs commands on the host through os/exec.
type OSExecutor struct{}

func (OSExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OSExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// RunPiped streams stdin through the command into stdout. The first line
// of the command's stderr is attached to a failure.
func (OSExecutor) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := firstLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Tool is a converter binary found on the host.
type Tool struct {
	bin  string
	exec Executor
}

// FindTool resolves bin on PATH.
func FindTool(exec Executor, bin string) (*Tool, error) {
	if exec == nil {
		exec = OSExecutor{}
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%s not found: %w", bin, err)
	}
	return &Tool{bin: bin, exec: exec}, nil
}

// Name returns the binary name.
func (t *Tool) Name() string { return t.bin }

// Pipe runs the tool with args, feeding stdin and collecting stdout.
func (t *Tool) Pipe(args []string, stdin io.Reader, stdout io.Writer) error {
	if err := t.exec.RunPiped(t.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("running %s: %w", t.bin, err)
	}
	return nil
}

// Runtime runs converter images that read a document on stdin and print
// text on stdout.
type Runtime interface {
	Name() string

	// ImageExists returns nil when image is present locally. Converter
	// images are never pulled implicitly.
	ImageExists(image string) error

	// Run starts image without network access and streams stdin through it.
	Run(image string, stdin io.Reader, stdout io.Writer) error
}

// engine is a container CLI and the subcommand that checks for a local image.
type engine struct {
	bin        string
	imageCheck []string
}

// engines in order of preference.
var engines = []engine{
	{bin: "docker", imageCheck: []string{"image", "inspect"}},
	{bin: "podman", imageCheck: []string{"image", "exists"}},
}

type engineRuntime struct {
	engine
	exec Executor
}

func (r engineRuntime) Name() string { return r.bin }

// usable reports whether the engine is installed and its daemon or
// service answers.
func (r engineRuntime) usable() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r engineRuntime) ImageExists(image string) error {
	args := append(append([]string{}, r.imageCheck...), image)
	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r engineRuntime) Run(image string, stdin io.Reader, stdout io.Writer) error {
	args := []string{"run", "--rm", "-i", "--network", "none", image}
	if err := r.exec.RunPiped(r.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("%s run %s: %w", r.bin, image, err)
	}
	return nil
}

// DetectRuntime returns the first usable engine, docker before podman.
func DetectRuntime(exec Executor) (Runtime, error) {
	if exec == nil {
		exec = OSExecutor{}
	}
	for _, e := range engines {
		r := engineRuntime{engine: e, exec: exec}
		if r.usable() {
			return r, nil
		}
	}
	return nil, ErrNoRuntime
}
