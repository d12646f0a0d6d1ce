// Package docloader extracts document pages from corporate documents,
// grounded on this repo's existing PDF extraction path.
package docloader

import (
	"strings"

	"impactscan/internal/core"
)

// Loader produces document pages from a file on disk.
type Loader interface {
	Load(path string) ([]core.DocumentPage, error)
}

// ForExtension returns the Loader appropriate for a file's extension
// (matched case-insensitively, including the leading dot, e.g. ".pdf").
func ForExtension(ext string) Loader {
	switch strings.ToLower(ext) {
	case ".pdf":
		return PDFLoader{}
	default:
		return TextLoader{}
	}
}
