package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/pkg/intake/brainstorm"
	"ai-act-intake-be/pkg/intake/prompt"
	"ai-act-intake-be/pkg/llm"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("intake-flow")

var (
	// ErrModelUnavailable means a model call failed on every attempt. The
	// user has already been shown an error turn when it is returned.
	ErrModelUnavailable = errors.New("model unavailable")

	errEmptyReply = errors.New("model returned an empty reply")

	ErrSlotMissing = prompt.ErrSlotMissing
)

// Retriever answers a prompt from the regulation corpus.
type Retriever interface {
	Query(ctx context.Context, prompt string) (llm.Stream, error)
}

type Config struct {
	// RevisionLimit caps summary revisions. At 1 the confirmation is asked once.
	RevisionLimit int
	// RetryAttempts is the number of retries after a failed model call.
	RetryAttempts int
	RetryInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.RevisionLimit < 1 {
		c.RevisionLimit = 1
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 500 * time.Millisecond
	}
	return c
}

type Dependencies struct {
	LLM       llm.LLMProvider
	Retriever Retriever
	Catalog   *Catalog
	Logger    logger.ILogger
	// TrafficLogger receives every prompt and completion. Optional.
	TrafficLogger logger.ILogger
	// Events is optional.
	Events EventSink
}

// Flow drives one session through the guided intake and then the chat.
// A Flow holds no session state and can serve many sessions.
type Flow struct {
	llm       llm.LLMProvider
	retriever Retriever
	catalog   *Catalog
	cfg       Config
	logger    logger.ILogger
	traffic   logger.ILogger
	events    EventSink
}

func NewFlow(deps Dependencies, cfg Config) *Flow {
	catalog := deps.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	traffic := deps.TrafficLogger
	if traffic == nil {
		traffic = logger.NewNopLogger()
	}
	return &Flow{
		llm:       deps.LLM,
		retriever: deps.Retriever,
		catalog:   catalog,
		cfg:       cfg.withDefaults(),
		logger:    deps.Logger,
		traffic:   traffic,
		events:    deps.Events,
	}
}

func (f *Flow) Catalog() *Catalog { return f.catalog }

// Run executes the guided intake and then answers free-form messages until
// the surface reports io.EOF or ctx is cancelled.
func (f *Flow) Run(ctx context.Context, s *Session, ui Surface) error {
	f.emit(ctx, EventStarted, s)
	defer f.emit(context.WithoutCancel(ctx), EventEnded, s)

	if err := f.Guide(ctx, s, ui); err != nil {
		return err
	}

	for {
		text, err := ui.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := f.Chat(ctx, s, ui, text); err != nil {
			return err
		}
	}
}

// Guide runs the questionnaire, summary, translation and evaluation. When a
// model call keeps failing the guided part ends early and the session moves
// on to chatting; only surface or context errors are returned.
func (f *Flow) Guide(ctx context.Context, s *Session, ui Surface) error {
	err := f.guide(ctx, s, ui)
	if errors.Is(err, ErrModelUnavailable) {
		f.logger.Warn("INTAKE", "Guided flow ended early", map[string]interface{}{
			"session_id": s.ID,
			"stage":      s.CurrentStage(),
		})
		s.setStage(StageChatting)
		return nil
	}
	return err
}

func (f *Flow) guide(ctx context.Context, s *Session, ui Surface) error {
	if err := ui.Say(ctx, f.catalog.Messages.Welcome); err != nil {
		return err
	}
	if err := f.collect(ctx, s, ui); err != nil {
		return err
	}
	if err := f.summarize(ctx, s, ui); err != nil {
		return err
	}
	if err := f.translate(ctx, s, ui); err != nil {
		return err
	}
	if err := f.evaluate(ctx, s, ui); err != nil {
		return err
	}
	s.setStage(StageChatting)
	return nil
}

func (f *Flow) collect(ctx context.Context, s *Session, ui Surface) error {
	q := f.catalog.Questions
	s.setStage(StageCollecting)

	process, err := f.askText(ctx, ui, q.Process.Prompt)
	if err != nil {
		return err
	}
	s.update(func() { s.Slots.Process = process })

	decision, err := ui.AskChoice(ctx, q.AIUsageDecision.Prompt, q.AIUsageDecision.Actions)
	if err != nil {
		return err
	}

	var usage AIUsage
	if decision.Name == DecisionNo {
		s.update(func() { s.UsedBrainstormer = true })
		usage, err = f.brainstorm(ctx, s, ui)
		s.setStage(StageCollecting)
	} else {
		usage, err = f.askUsage(ctx, ui)
	}
	if err != nil {
		return err
	}
	s.update(func() { s.Slots.AIUsage = usage })

	role, err := ui.AskChoice(ctx, q.DeploymentRole.Prompt, q.DeploymentRole.Actions)
	if err != nil {
		return err
	}
	s.update(func() { s.Slots.DeploymentRole = DeploymentRole(role.Value) })

	horizon, err := f.askText(ctx, ui, q.TimeHorizon.Prompt)
	if err != nil {
		return err
	}
	s.update(func() { s.Slots.TimeHorizon = horizon })

	population, err := ui.AskChoice(ctx, q.AffectedPopulation.Prompt, q.AffectedPopulation.Actions)
	if err != nil {
		return err
	}
	s.update(func() { s.Slots.AffectedPopulation = AffectedPopulation(population.Value) })

	jurisdiction, err := ui.AskChoice(ctx, q.DataJurisdiction.Prompt, q.DataJurisdiction.Actions)
	if err != nil {
		return err
	}
	s.update(func() { s.Slots.DataJurisdiction = DataJurisdiction(jurisdiction.Value) })

	remarks, err := f.askText(ctx, ui, q.Remarks.Prompt)
	if err != nil {
		return err
	}
	s.update(func() { s.Slots.Remarks = remarks })

	return nil
}

// askText repeats a free-text question until the answer is not blank. The
// answer is kept verbatim.
func (f *Flow) askText(ctx context.Context, ui Surface, question string) (string, error) {
	for {
		answer, err := ui.AskText(ctx, question)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(answer) != "" {
			return answer, nil
		}
		if note := f.catalog.Messages.EmptyAnswer; note != "" {
			if err := ui.Say(ctx, note); err != nil {
				return "", err
			}
		}
	}
}

func (f *Flow) askUsage(ctx context.Context, ui Surface) (AIUsage, error) {
	text, err := f.askText(ctx, ui, f.catalog.Questions.AIUsage.Prompt)
	if err != nil {
		return AIUsage{}, err
	}
	return AIUsage{Source: SourceDirect, Text: text}, nil
}

// brainstorm asks the model for three ideas and lets the user pick one. A
// malformed answer gets one corrective re-prompt before falling back to the
// direct question.
func (f *Flow) brainstorm(ctx context.Context, s *Session, ui Surface) (AIUsage, error) {
	s.setStage(StageBrainstorming)
	if err := ui.Say(ctx, f.catalog.Messages.BrainstormIntro); err != nil {
		return AIUsage{}, err
	}

	p, err := prompt.Brainstorm(prompt.BaseSystemPrompt, s.Slots.Process)
	if err != nil {
		return AIUsage{}, err
	}

	answer, err := f.turn(ctx, s, ui, p, true)
	if err != nil {
		return AIUsage{}, err
	}
	ideas, parseErr := brainstorm.Parse(answer)

	if parseErr != nil {
		f.logger.Warn("INTAKE", "Malformed brainstorm answer, re-prompting", map[string]interface{}{
			"session_id": s.ID,
			"error":      parseErr.Error(),
		})
		answer, err = f.turn(ctx, s, ui, prompt.BrainstormCorrection(), true)
		if err != nil {
			return AIUsage{}, err
		}
		ideas, parseErr = brainstorm.Parse(answer)
	}

	if parseErr != nil {
		f.logger.Warn("INTAKE", "Brainstorm unusable, asking directly", map[string]interface{}{
			"session_id": s.ID,
			"error":      parseErr.Error(),
		})
		if err := ui.Say(ctx, f.catalog.Messages.BrainstormFallback); err != nil {
			return AIUsage{}, err
		}
		return f.askUsage(ctx, ui)
	}

	actions := make([]Action, 0, len(ideas)+len(f.catalog.Questions.IdeaChoice.Actions))
	for i, idea := range ideas {
		name := fmt.Sprintf("Idee %d", i+1)
		actions = append(actions, Action{Name: name, Value: idea, Label: name})
	}
	actions = append(actions, f.catalog.Questions.IdeaChoice.Actions...)

	choice, err := ui.AskChoice(ctx, f.catalog.Questions.IdeaChoice.Prompt, actions)
	if err != nil {
		return AIUsage{}, err
	}
	if choice.Name == IdeaCustom {
		return f.askUsage(ctx, ui)
	}
	return AIUsage{Source: SourceBrainstormed, Text: choice.Value}, nil
}

func (f *Flow) summarize(ctx context.Context, s *Session, ui Surface) error {
	q := f.catalog.Questions
	s.setStage(StageSummarizing)

	if err := ui.Say(ctx, f.catalog.Messages.SummaryIntro); err != nil {
		return err
	}

	p, err := prompt.Summary(prompt.BaseSystemPrompt, s.Slots.summaryInput())
	if err != nil {
		return err
	}
	summary, err := f.turn(ctx, s, ui, p, true)
	if err != nil {
		return err
	}
	s.update(func() { s.Summary = summary })

	for s.Revisions < f.cfg.RevisionLimit {
		confirm, err := ui.AskChoice(ctx, q.SummaryConfirm.Prompt, q.SummaryConfirm.Actions)
		if err != nil {
			return err
		}
		if confirm.Name != DecisionNo {
			break
		}

		s.update(func() {
			s.WantsRevision = true
			s.Stage = StageRevising
		})

		change, err := f.askText(ctx, ui, q.SummaryChange.Prompt)
		if err != nil {
			return err
		}

		p, err := prompt.Revision(prompt.BaseSystemPrompt, s.Summary, change)
		if err != nil {
			return err
		}
		revised, err := f.turn(ctx, s, ui, p, true)
		if err != nil {
			return err
		}
		s.update(func() {
			s.Summary = revised
			s.Revisions++
		})
	}

	f.emit(ctx, EventSummaryFinalized, s)
	return nil
}

// translate renders the final summary in English. The result is recorded
// only after the stream is fully drained and is not shown to the user.
func (f *Flow) translate(ctx context.Context, s *Session, ui Surface) error {
	s.setStage(StageTranslating)

	p, err := prompt.Translation(prompt.BaseSystemPrompt, s.Summary)
	if err != nil {
		return err
	}
	translated, err := f.turn(ctx, s, ui, p, false)
	if err != nil {
		return err
	}
	s.update(func() { s.Translated = translated })
	return nil
}

// evaluate queries the retriever with the translated summary. The exchange
// stays out of the transcript.
func (f *Flow) evaluate(ctx context.Context, s *Session, ui Surface) error {
	s.setStage(StageEvaluating)

	if err := ui.Say(ctx, f.catalog.Messages.EvaluationIntro); err != nil {
		return err
	}

	p, err := prompt.Evaluation(prompt.BaseSystemPrompt, s.Translated)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "intake.evaluating")
	defer span.End()

	f.traffic.Info("LLM", "Evaluation query", map[string]interface{}{
		"session_id": s.ID,
		"prompt":     p,
	})
	answer, err := f.relay(ctx, ui, true, func(ctx context.Context) (llm.Stream, error) {
		return f.retriever.Query(ctx, p)
	})
	if err != nil {
		return err
	}
	f.traffic.Info("LLM", "Evaluation answer", map[string]interface{}{
		"session_id": s.ID,
		"response":   answer,
	})

	s.update(func() { s.Evaluated = true })
	f.emit(ctx, EventEvaluated, s)
	return nil
}

// Chat answers one free-form message over the whole transcript. A failing
// model leaves the user turn recorded without a reply.
func (f *Flow) Chat(ctx context.Context, s *Session, ui Surface, message string) error {
	s.setStage(StageChatting)
	_, err := f.turn(ctx, s, ui, message, true)
	if errors.Is(err, ErrModelUnavailable) {
		return nil
	}
	return err
}

// turn appends content as a user message, streams a completion over the
// full transcript and appends the reply as the assistant message.
func (f *Flow) turn(ctx context.Context, s *Session, ui Surface, content string, visible bool) (string, error) {
	stage := s.CurrentStage()

	ctx, span := tracer.Start(ctx, "intake."+string(stage), trace.WithAttributes(
		attribute.String("intake.session_id", s.ID),
	))
	defer span.End()

	s.append(llm.RoleUser, content)
	history := s.Transcript.Messages()
	span.SetAttributes(attribute.Int("intake.transcript_length", len(history)))

	f.traffic.Info("LLM", "Prompt", map[string]interface{}{
		"session_id": s.ID,
		"stage":      stage,
		"prompt":     content,
	})

	reply, err := f.relay(ctx, ui, visible, func(ctx context.Context) (llm.Stream, error) {
		return f.llm.Stream(ctx, history)
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	f.traffic.Info("LLM", "Completion", map[string]interface{}{
		"session_id": s.ID,
		"stage":      stage,
		"response":   reply,
	})
	s.append(llm.RoleAssistant, reply)
	return reply, nil
}

// surfaceError marks failures of the user side, which end the session
// instead of being retried.
type surfaceError struct{ err error }

func (e *surfaceError) Error() string { return e.err.Error() }
func (e *surfaceError) Unwrap() error { return e.err }

// relay opens a stream, forwards its chunks to a visible message when asked
// and returns the joined text. A failed or blank attempt is retried with
// backoff; chunks already shown are reset first.
func (f *Flow) relay(ctx context.Context, ui Surface, visible bool, open func(context.Context) (llm.Stream, error)) (string, error) {
	var msg MessageWriter
	if visible {
		var err error
		if msg, err = ui.NewMessage(ctx); err != nil {
			return "", err
		}
	}

	sent := false
	attempt := 0
	operation := func() (string, error) {
		attempt++
		if sent {
			if err := msg.Reset(ctx); err != nil {
				return "", backoff.Permanent(&surfaceError{err})
			}
			sent = false
		}

		stream, err := open(ctx)
		if err != nil {
			return "", err
		}

		var b strings.Builder
		for chunk, err := range stream {
			if err != nil {
				return "", err
			}
			if chunk == "" {
				continue
			}
			b.WriteString(chunk)
			if msg != nil {
				if err := msg.StreamToken(ctx, chunk); err != nil {
					return "", backoff.Permanent(&surfaceError{err})
				}
				sent = true
			}
		}
		if strings.TrimSpace(b.String()) == "" {
			return "", errEmptyReply
		}
		return b.String(), nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.cfg.RetryInterval

	text, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(f.cfg.RetryAttempts+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			f.logger.Warn("INTAKE", "Model call failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
				"retry":   next.String(),
			})
		}),
	)
	if err == nil {
		if msg != nil {
			if err := msg.Done(ctx); err != nil {
				return "", err
			}
		}
		return text, nil
	}

	var se *surfaceError
	if errors.As(err, &se) {
		return "", se.err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	f.logger.Error("INTAKE", "Model call failed", map[string]interface{}{
		"attempts": attempt,
		"error":    err.Error(),
	})

	if msg != nil {
		if sent {
			if rerr := msg.Reset(ctx); rerr != nil {
				return "", rerr
			}
		}
		if derr := msg.Done(ctx); derr != nil {
			return "", derr
		}
	}
	if uerr := ui.Error(ctx, f.catalog.Messages.ModelError); uerr != nil {
		return "", uerr
	}
	return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
}

func (f *Flow) emit(ctx context.Context, t EventType, s *Session) {
	if f.events == nil {
		return
	}
	f.events.Emit(ctx, newEvent(t, s))
}
