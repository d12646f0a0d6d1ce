// Package billstore loads the bill corpus from a directory of JSON files.
package billstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"impactscan/internal/core"
	"impactscan/internal/logger"
)

// billFile mirrors the on-disk JSON shape of a single bill file.
type billFile struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Stage    string `json:"stage"`
	Articles []struct {
		Number              int    `json:"number"`
		Kind                string `json:"kind"`
		Text                string `json:"text"`
		SemanticDescription string `json:"semantic_description"`
	} `json:"articles"`
}

// Store loads bills from a directory of *.json files.
type Store struct {
	dir string
}

// New constructs a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// ListBills reads every *.json file in the store's directory and decodes it
// into a core.Bill. A malformed file is skipped with a logged warning rather
// than aborting the whole load. Results are sorted by filename for a
// deterministic load order.
func (s *Store) ListBills() ([]core.Bill, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read bill directory %q: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var bills []core.Bill
	for _, name := range names {
		path := filepath.Join(s.dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable bill file", "path", path, "error", err)
			continue
		}

		var bf billFile
		if err := json.Unmarshal(data, &bf); err != nil {
			logger.Warn("skipping malformed bill file", "path", path, "error", err)
			continue
		}

		bill := core.Bill{ID: bf.ID, Title: bf.Title, Source: bf.Source, Stage: bf.Stage}
		for _, a := range bf.Articles {
			bill.Articles = append(bill.Articles, core.Article{
				Number:              a.Number,
				Kind:                a.Kind,
				Text:                a.Text,
				SemanticDescription: a.SemanticDescription,
			})
		}

		bills = append(bills, bill)
	}

	return bills, nil
}
