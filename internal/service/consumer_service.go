package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"ai-act-intake-be/internal/dto"
	"ai-act-intake-be/pkg/rag/index"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// Rebuilder is satisfied by *index.Index.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	index      Rebuilder
}

func NewConsumerService(subscriber message.Subscriber, topicName string, ix Rebuilder) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		index:      ix,
	}
}

// Consume handles rebuild jobs one at a time until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishRebuildIndexMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal rebuild message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Rebuilding index for job %s (reason: %q)", payload.JobId, payload.Reason)

	err := cs.index.Rebuild(ctx)
	switch {
	case err == nil:
		log.Printf("[SUCCESS] Index rebuilt for job %s", payload.JobId)
	case errors.Is(err, index.ErrRebuildBusy):
		log.Printf("[WARN] Job %s skipped, a rebuild is already running", payload.JobId)
	default:
		// The failure is kept in the index status; the previous index stays live.
		log.Printf("[ERROR] Index rebuild failed for job %s: %v", payload.JobId, err)
	}
	msg.Ack()
}
