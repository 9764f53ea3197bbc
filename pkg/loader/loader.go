// Package loader supplies documents to the ingestion pipeline, either
// from a local directory or by crawling a documentation site.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/convosol/docchat/internal/models"
)

// DirSource reads documents from a flat directory. Plain text and
// markdown files are taken verbatim; HTML files are reduced to their
// visible text. Files are returned in name order so ingestion runs are
// reproducible.
type DirSource struct {
	Dir        string
	Extensions []string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{
		Dir:        dir,
		Extensions: []string{".txt", ".md", ".html"},
	}
}

func (s *DirSource) Documents(ctx context.Context) ([]models.Document, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	var docs []models.Document
	for _, entry := range entries {
		if entry.IsDir() || !s.allowed(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.Dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		text := string(data)
		if strings.EqualFold(filepath.Ext(entry.Name()), ".html") {
			text, err = htmlToText(text)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}

		docs = append(docs, models.Document{
			Filename: entry.Name(),
			Text:     text,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, nil
}

func (s *DirSource) allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func htmlToText(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	// prefer the main content area when the page declares one
	for _, selector := range []string{"main", "article", "#content", ".content"} {
		if selected := doc.Find(selector); selected.Length() > 0 {
			return squeeze(selected.Text()), nil
		}
	}
	return squeeze(doc.Find("body").Text()), nil
}

func squeeze(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
