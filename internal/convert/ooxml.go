// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// DocxText extracts paragraph text from a Word document. Each w:p becomes
// one line; tabs and breaks inside a paragraph are kept.
func DocxText(p string) (string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", p, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return partText(f, "p")
		}
	}
	return "", errors.New("word/document.xml not found")
}

// PptxText extracts the text of every slide in presentation order,
// separating slides with a blank line.
func PptxText(p string) (string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", p, err)
	}
	defer zr.Close()

	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{n: n, f: f})
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("no slides in %s", path.Base(p))
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	parts := make([]string, 0, len(slides))
	for _, s := range slides {
		text, err := partText(s.f, "p")
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.n, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// partText streams an OOXML part and collects character data from every
// text run (local name "t"), ending a line at each paraElem element.
func partText(f *zip.File, paraElem string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		b      strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", f.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case paraElem:
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
