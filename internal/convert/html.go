// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockElements = "p, div, li, br, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, table"

var (
	blankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	runSpaces  = regexp.MustCompile(`[ \t]+`)
)

// HTMLFile converts a saved HTML page to text.
func HTMLFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return selectionText(doc.Selection), nil
}

// HTMLText strips markup from an HTML fragment such as a Canvas
// announcement body, keeping one line per block element.
func HTMLText(fragment string) (string, error) {
	if !strings.ContainsRune(fragment, '<') {
		return strings.TrimSpace(fragment), nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	return selectionText(doc.Selection), nil
}

func selectionText(sel *goquery.Selection) string {
	sel.Find("head, script, style, noscript").Remove()
	sel.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(sel.Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(runSpaces.ReplaceAllString(line, " "))
	}
	text := strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
