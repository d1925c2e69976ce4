// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/deadline-tracker/internal/container"
)

// MarkitdownConverter converts documents by piping them through a
// markitdown container image.
type MarkitdownConverter struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run image. It verifies that the image exists locally before
// returning.
func NewMarkitdownConverter(rt container.Runtime, image string) (*MarkitdownConverter, error) {
	if image == "" {
		return nil, errors.New("markitdown image not configured")
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt, image: image}, nil
}

// Convert pipes the file at path through the container and returns the
// Markdown text it prints.
func (m *MarkitdownConverter) Convert(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(m.image, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", path, err)
	}

	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("markitdown produced empty output for %s", path)
	}

	return out.String(), nil
}
