package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-act-intake-be/internal/pkg/logger"
)

// Status is the public view of the index for the REST status endpoint.
type Status struct {
	Backend     string    `json:"backend"`
	Chunks      int       `json:"chunks"`
	Ready       bool      `json:"ready"`
	Rebuilding  bool      `json:"rebuilding"`
	LastBuiltAt time.Time `json:"last_built_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Index owns the vector store and serialises rebuilds against it.
type Index struct {
	store   VectorStore
	builder *Builder
	logger  logger.ILogger

	mu          sync.Mutex
	rebuilding  bool
	lastBuiltAt time.Time
	lastErr     error
}

func New(store VectorStore, builder *Builder, logger logger.ILogger) *Index {
	return &Index{store: store, builder: builder, logger: logger}
}

func (i *Index) Store() VectorStore { return i.store }

// Bootstrap loads the persisted index, building it from the corpus when it is
// missing or unreadable. Any error returned here should stop the process.
func (i *Index) Bootstrap(ctx context.Context) error {
	err := i.store.Load(ctx)
	if err == nil {
		n, _ := i.store.Count(ctx)
		i.logger.Info("INDEX", "Loaded persisted index", map[string]interface{}{
			"backend": i.store.Name(),
			"chunks":  n,
		})
		return nil
	}

	if !errors.Is(err, ErrIndexNotFound) && !errors.Is(err, ErrCorruptIndex) {
		return fmt.Errorf("load index: %w", err)
	}

	i.logger.Warn("INDEX", "Persisted index unusable, rebuilding", map[string]interface{}{
		"backend": i.store.Name(),
		"reason":  err.Error(),
	})
	return i.Rebuild(ctx)
}

// Rebuild re-reads the corpus and atomically replaces the stored chunks.
// The previous index keeps serving queries until the swap.
func (i *Index) Rebuild(ctx context.Context) error {
	i.mu.Lock()
	if i.rebuilding {
		i.mu.Unlock()
		return ErrRebuildBusy
	}
	i.rebuilding = true
	i.mu.Unlock()

	start := time.Now()
	err := i.rebuild(ctx)

	i.mu.Lock()
	i.rebuilding = false
	i.lastErr = err
	if err == nil {
		i.lastBuiltAt = time.Now()
	}
	i.mu.Unlock()

	if err != nil {
		i.logger.Error("INDEX", "Rebuild failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	i.logger.Info("INDEX", "Rebuild complete", map[string]interface{}{
		"backend":     i.store.Name(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (i *Index) rebuild(ctx context.Context) error {
	chunks, err := i.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := i.store.Replace(ctx, chunks); err != nil {
		return fmt.Errorf("store index: %w", err)
	}
	return nil
}

func (i *Index) Status(ctx context.Context) Status {
	n, err := i.store.Count(ctx)

	i.mu.Lock()
	defer i.mu.Unlock()

	st := Status{
		Backend:     i.store.Name(),
		Chunks:      n,
		Ready:       err == nil && n > 0,
		Rebuilding:  i.rebuilding,
		LastBuiltAt: i.lastBuiltAt,
	}
	if i.lastErr != nil {
		st.LastError = i.lastErr.Error()
	} else if err != nil {
		st.LastError = err.Error()
	}
	return st
}
