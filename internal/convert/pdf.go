// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"

	"github.com/pdiddy/deadline-tracker/internal/container"
)

const defaultPdftotextBin = "pdftotext"

// PdftotextConverter shells out to poppler's pdftotext, writing the text
// layer to stdout in reading order.
type PdftotextConverter struct {
	tool *container.Tool
}

// NewPdftotextConverter returns a converter for bin (default "pdftotext"),
// or an error when the binary is not on PATH.
func NewPdftotextConverter(bin string, exec container.Executor) (*PdftotextConverter, error) {
	if bin == "" {
		bin = defaultPdftotextBin
	}
	tool, err := container.FindTool(exec, bin)
	if err != nil {
		return nil, err
	}
	return &PdftotextConverter{tool: tool}, nil
}

// Convert runs pdftotext -layout path -.
func (p *PdftotextConverter) Convert(path string) (string, error) {
	var out bytes.Buffer
	if err := p.tool.Pipe([]string{"-layout", "-enc", "UTF-8", path, "-"}, nil, &out); err != nil {
		return "", fmt.Errorf("converting %s: %w", path, err)
	}
	return out.String(), nil
}
