package docloader

import (
	"fmt"
	"os"
	"strings"

	"impactscan/internal/core"
)

// pageBreak is the form-feed character conventionally used to mark a page
// boundary in plain-text exports.
const pageBreak = "\f"

// TextLoader splits a plain-text file on form-feed page separators, falling
// back to the whole file as a single page when no separator is present.
type TextLoader struct{}

// Load reads path and splits it into pages.
func (TextLoader) Load(path string) ([]core.DocumentPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text document %q: %w", path, err)
	}

	parts := strings.Split(string(data), pageBreak)

	pages := make([]core.DocumentPage, len(parts))
	for i, text := range parts {
		pages[i] = core.DocumentPage{Index: i, Text: text}
	}
	return pages, nil
}
