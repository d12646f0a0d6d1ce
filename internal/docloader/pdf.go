package docloader

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"impactscan/internal/core"
)

// PDFLoader extracts one DocumentPage per PDF page, consistent with this
// repo's existing PDF extraction path.
type PDFLoader struct{}

// Load opens path and extracts the plain text of every page.
func (PDFLoader) Load(path string) ([]core.DocumentPage, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]core.DocumentPage, 0, total)

	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, core.DocumentPage{Index: i - 1, Text: ""})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from pdf %q page %d: %w", path, i, err)
		}

		pages = append(pages, core.DocumentPage{Index: i - 1, Text: text})
	}

	return pages, nil
}
