package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is the plain text of one file from the corpus directory.
type Document struct {
	Source string
	Text   string
}

type Loader struct {
	Dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load reads every .txt, .md and .pdf file below Dir, in path order.
// Files with no extractable text are skipped.
func (l *Loader) Load(ctx context.Context) ([]Document, error) {
	info, err := os.Stat(l.Dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoDocuments, l.Dir)
	}

	var paths []string
	err = filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md", ".pdf":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.Dir, err)
	}
	sort.Strings(paths)

	var docs []Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		rel, relErr := filepath.Rel(l.Dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		docs = append(docs, Document{Source: filepath.ToSlash(rel), Text: text})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, l.Dir)
	}
	return docs, nil
}

func readFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	if buf.Len() == 0 {
		return "", errors.New("pdf has no text layer")
	}
	return buf.String(), nil
}
