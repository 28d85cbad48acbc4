// Package corpus loads source documents for ingestion. A corpus is either
// a YAML manifest, a directory of text files, or a single text file.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// TextExtensions lists the file types read when loading a directory.
var TextExtensions = []string{".txt", ".md", ".markdown", ".html", ".htm"}

// Manifest is the YAML corpus description.
//
//	documents:
//	  - id: gita-2
//	    title: Bhagavad Gita, Chapter 2
//	    source: Bhagavad Gita 2
//	    path: texts/gita-2.txt
type Manifest struct {
	Documents []Entry `yaml:"documents"`
}

// Entry describes one document. Exactly one of Path or Content is set.
// Relative paths resolve against the manifest's directory.
type Entry struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Source  string `yaml:"source"`
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// Load reads the corpus at path, choosing the format by what path is.
func Load(path string) ([]domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	switch {
	case info.IsDir():
		return LoadDir(path)
	case isManifest(path):
		return LoadManifest(path)
	default:
		doc, err := loadFile(path, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		return []domain.Document{doc}, nil
	}
}

// LoadManifest parses a YAML manifest and reads the files it references.
func LoadManifest(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corpus: parse %s: %w", path, err)
	}
	if len(m.Documents) == 0 {
		return nil, fmt.Errorf("corpus: %s lists no documents: %w", path, domain.ErrInvalidInput)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Documents))
	docs := make([]domain.Document, 0, len(m.Documents))
	for i, e := range m.Documents {
		doc, err := e.document(base)
		if err != nil {
			return nil, fmt.Errorf("corpus: entry %d: %w", i, err)
		}
		if seen[doc.ID] {
			return nil, fmt.Errorf("corpus: duplicate document id %q: %w", doc.ID, domain.ErrInvalidInput)
		}
		seen[doc.ID] = true
		docs = append(docs, doc)
	}
	return docs, nil
}

func (e Entry) document(base string) (domain.Document, error) {
	switch {
	case e.Path != "" && e.Content != "":
		return domain.Document{}, fmt.Errorf("set path or content, not both: %w", domain.ErrInvalidInput)
	case e.Path == "" && strings.TrimSpace(e.Content) == "":
		return domain.Document{}, fmt.Errorf("no path or content: %w", domain.ErrInvalidInput)
	}

	var doc domain.Document
	if e.Path != "" {
		p := e.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		var err error
		if doc, err = loadFile(p, e.Path); err != nil {
			return domain.Document{}, err
		}
	} else {
		if e.ID == "" {
			return domain.Document{}, fmt.Errorf("inline content needs an id: %w", domain.ErrInvalidInput)
		}
		doc = domain.Document{ID: e.ID, Title: e.ID, SourceLabel: e.ID, Content: e.Content}
	}

	if e.ID != "" {
		doc.ID = e.ID
	}
	if e.Title != "" {
		doc.Title = e.Title
	}
	if e.Source != "" {
		doc.SourceLabel = e.Source
	} else if e.Title != "" {
		doc.SourceLabel = e.Title
	}
	return doc, nil
}

// LoadDir reads every text file under dir. Hidden files and directories are
// skipped. Document IDs are slash-separated paths relative to dir, so they
// stay stable across machines.
func LoadDir(dir string) ([]domain.Document, error) {
	var docs []domain.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !slices.Contains(TextExtensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		doc, err := loadFile(path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("corpus: walk %s: %w", dir, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus: no text files in %s: %w", dir, domain.ErrNotFound)
	}
	return docs, nil
}

// loadFile reads and normalises one file. The title comes from the content
// when it names one, otherwise from the file name.
func loadFile(path, id string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Document{}, fmt.Errorf("corpus: %s: %w", path, domain.ErrNotFound)
		}
		return domain.Document{}, fmt.Errorf("corpus: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	content, title := normalise(ext, string(data))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return domain.Document{
		ID:          id,
		Title:       title,
		SourceLabel: title,
		Path:        path,
		Content:     content,
	}, nil
}

func isManifest(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
