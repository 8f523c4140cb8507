package service

import (
	"context"
	"errors"
	"testing"

	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/pkg/events"
	"ai-act-intake-be/pkg/intake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventPublisher struct {
	published []events.Event
	err       error
}

func (f *fakeEventPublisher) Publish(ctx context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return f.err
}

func TestLifecycleEventSink(t *testing.T) {
	pub := &fakeEventPublisher{}
	sink := NewLifecycleEventSink(pub, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Emit(ctx, intake.Event{Type: intake.EventEnded, SessionID: "s-1", Stage: intake.StageChatting})

	require.Len(t, pub.published, 1)
	assert.Equal(t, "INTAKE_ENDED", pub.published[0].EventType())
	assert.Equal(t, "s-1", pub.published[0].Payload()["session_id"])
}

func TestLifecycleEventSinkToleratesFailures(t *testing.T) {
	sink := NewLifecycleEventSink(&fakeEventPublisher{err: errors.New("nats down")}, logger.NewNopLogger())
	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), intake.Event{Type: intake.EventStarted})
	})

	noop := NewLifecycleEventSink(nil, logger.NewNopLogger())
	assert.NotPanics(t, func() {
		noop.Emit(context.Background(), intake.Event{Type: intake.EventStarted})
	})
}

func TestIntakeStatsServiceCounts(t *testing.T) {
	svc := NewIntakeStatsService(nil, logger.NewNopLogger())
	svc.Start(context.Background())

	received := []events.BaseEvent{
		{Type: "INTAKE_STARTED"},
		{Type: "INTAKE_STARTED"},
		{Type: "INTAKE_SUMMARY_FINALIZED", Data: map[string]interface{}{"used_brainstormer": true, "revisions": float64(1)}},
		{Type: "INTAKE_SUMMARY_FINALIZED", Data: map[string]interface{}{"used_brainstormer": false, "revisions": float64(0)}},
		{Type: "INTAKE_EVALUATED"},
		{Type: "INTAKE_ENDED"},
		{Type: "SOMETHING_ELSE"},
	}
	for _, evt := range received {
		require.NoError(t, svc.handleEvent(context.Background(), evt))
	}

	assert.Equal(t, int64(2), svc.Stats().Started)
	assert.Equal(t, int64(2), svc.Stats().SummaryFinalized)
	assert.Equal(t, int64(1), svc.Stats().Brainstormed)
	assert.Equal(t, int64(1), svc.Stats().Revisions)
	assert.Equal(t, int64(1), svc.Stats().Evaluated)
	assert.Equal(t, int64(1), svc.Stats().Ended)
}
