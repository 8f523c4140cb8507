package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ai-act-intake-be/pkg/embedding"
)

const fileStoreVersion = 1

type persistedIndex struct {
	Version int       `json:"version"`
	BuiltAt time.Time `json:"built_at"`
	Chunks  []Chunk   `json:"chunks"`
}

// FileStore keeps the whole index in memory and persists it as one JSON
// document. Search is a linear cosine scan, fine for a single regulation corpus.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	chunks []Chunk
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "index.json")}
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrIndexNotFound
		}
		return fmt.Errorf("read index: %w", err)
	}

	var idx persistedIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if idx.Version != fileStoreVersion || len(idx.Chunks) == 0 {
		return fmt.Errorf("%w: version %d with %d chunks", ErrCorruptIndex, idx.Version, len(idx.Chunks))
	}

	s.mu.Lock()
	s.chunks = idx.Chunks
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Replace(ctx context.Context, chunks []Chunk) error {
	raw, err := json.Marshal(persistedIndex{
		Version: fileStoreVersion,
		BuiltAt: time.Now().UTC(),
		Chunks:  chunks,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	// write-then-rename so a crash never leaves a half written index
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	s.mu.Lock()
	s.chunks = chunks
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return nil, ErrIndexNotFound
	}

	scored := make([]ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		scored = append(scored, ScoredChunk{Chunk: c, Similarity: embedding.Cosine(vector, c.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *FileStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}
