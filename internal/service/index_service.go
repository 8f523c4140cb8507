package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-act-intake-be/internal/dto"
	"ai-act-intake-be/pkg/rag/index"

	"github.com/google/uuid"
)

type IIndexService interface {
	Status(ctx context.Context) *dto.IndexStatusResponse
	RequestRebuild(ctx context.Context, req *dto.RebuildIndexRequest) (*dto.RebuildIndexResponse, error)
}

// IndexStatusReader is the part of *index.Index the service reads from.
type IndexStatusReader interface {
	Status(ctx context.Context) index.Status
}

type indexService struct {
	index            IndexStatusReader
	publisherService IPublisherService
}

func NewIndexService(ix IndexStatusReader, publisherService IPublisherService) IIndexService {
	return &indexService{
		index:            ix,
		publisherService: publisherService,
	}
}

func (s *indexService) Status(ctx context.Context) *dto.IndexStatusResponse {
	st := s.index.Status(ctx)
	res := &dto.IndexStatusResponse{
		Backend:    st.Backend,
		Chunks:     st.Chunks,
		Ready:      st.Ready,
		Rebuilding: st.Rebuilding,
		LastError:  st.LastError,
	}
	if !st.LastBuiltAt.IsZero() {
		builtAt := st.LastBuiltAt
		res.LastBuiltAt = &builtAt
	}
	return res
}

// RequestRebuild queues a rebuild; the consumer picks it up asynchronously.
func (s *indexService) RequestRebuild(ctx context.Context, req *dto.RebuildIndexRequest) (*dto.RebuildIndexResponse, error) {
	if st := s.index.Status(ctx); st.Rebuilding {
		return nil, index.ErrRebuildBusy
	}

	msg := dto.PublishRebuildIndexMessage{
		JobId:       uuid.New(),
		Reason:      req.Reason,
		RequestedAt: time.Now(),
	}
	msgJson, _ := json.Marshal(msg)
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	return &dto.RebuildIndexResponse{JobId: msg.JobId}, nil
}
