package service

import (
	"context"
	"errors"

	"ai-act-intake-be/internal/dto"
	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/internal/repository/memory"
	internalWS "ai-act-intake-be/internal/websocket"
	"ai-act-intake-be/pkg/intake"

	"github.com/gofiber/websocket/v2"
)

var ErrSessionNotFound = errors.New("session not found")

type IIntakeService interface {
	// Serve runs a whole session on conn and returns when it is over. A
	// failed session is logged here.
	Serve(conn *websocket.Conn)
	GetAll(ctx context.Context) *dto.GetAllIntakeSessionsResponse
	Get(ctx context.Context, id string) (*intake.Snapshot, error)
	Terminate(ctx context.Context, id string) *dto.TerminateIntakeSessionResponse
	Stats() dto.IntakeStatsResponse
}

type intakeService struct {
	flow     *intake.Flow
	sessions *memory.SessionRepository
	hub      *internalWS.Hub
	stats    *IntakeStatsService
	logger   logger.ILogger
}

func NewIntakeService(
	flow *intake.Flow,
	sessions *memory.SessionRepository,
	hub *internalWS.Hub,
	stats *IntakeStatsService,
	log logger.ILogger,
) IIntakeService {
	return &intakeService{
		flow:     flow,
		sessions: sessions,
		hub:      hub,
		stats:    stats,
		logger:   log,
	}
}

func (s *intakeService) Serve(conn *websocket.Conn) {
	session := intake.NewSession("")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.sessions.Save(session, cancel)
	defer s.sessions.Delete(session.ID)

	s.logger.Info("IntakeService", "Session started", map[string]interface{}{"session_id": session.ID})

	err := internalWS.ServeSession(s.hub, conn, session.ID, cancel,
		func() { s.sessions.Touch(session.ID) },
		func(ui *internalWS.Surface) error {
			if err := ui.Hello(ctx); err != nil {
				return err
			}
			return s.flow.Run(ctx, session, ui)
		},
	)

	if err != nil && !errors.Is(err, internalWS.ErrClosed) && !errors.Is(err, context.Canceled) {
		s.logger.Error("IntakeService", "Session failed", map[string]interface{}{
			"session_id": session.ID,
			"stage":      session.CurrentStage(),
			"error":      err.Error(),
		})
		return
	}

	s.logger.Info("IntakeService", "Session ended", map[string]interface{}{
		"session_id": session.ID,
		"stage":      session.CurrentStage(),
	})
}

func (s *intakeService) GetAll(ctx context.Context) *dto.GetAllIntakeSessionsResponse {
	list := s.sessions.List()
	return &dto.GetAllIntakeSessionsResponse{Sessions: list, Total: len(list)}
}

func (s *intakeService) Get(ctx context.Context, id string) (*intake.Snapshot, error) {
	entry, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	snap := entry.Session.Snapshot()
	return &snap, nil
}

// Terminate cancels a local session and discards its state. The hub also
// tells the other instances, so a session held elsewhere ends too.
func (s *intakeService) Terminate(ctx context.Context, id string) *dto.TerminateIntakeSessionResponse {
	_, local := s.sessions.Get(id)
	if local {
		s.sessions.Delete(id)
	}
	if s.hub.Terminate(ctx, id) {
		local = true
	}
	return &dto.TerminateIntakeSessionResponse{Id: id, Local: local}
}

func (s *intakeService) Stats() dto.IntakeStatsResponse {
	if s.stats == nil {
		return dto.IntakeStatsResponse{}
	}
	return s.stats.Stats()
}
