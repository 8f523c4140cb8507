package intake

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/pkg/intake/prompt"
	"ai-act-intake-be/pkg/llm"
	"ai-act-intake-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	answerProcess  = "Bearbeitung von Wohngeldanträgen"
	answerUsage    = "KI prüft eingehende Anträge auf Vollständigkeit"
	answerHorizon  = "innerhalb von 9 Monaten"
	answerRemarks  = "Der Personalrat muss zustimmen"
	answerChange   = "Bitte den Zeitraum auf 12 Monate ändern"
	brainstormText = "Idee 1: Chatbot für Bürgeranfragen\nIdee 2: Automatische Dokumentenprüfung\nIdee 3: Intelligente Terminvergabe"
)

func newTestFlow(provider llm.LLMProvider, retriever Retriever, cfg Config) (*Flow, *recordingSink) {
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = time.Millisecond
	}
	sink := &recordingSink{}
	return NewFlow(Dependencies{
		LLM:       provider,
		Retriever: retriever,
		Catalog:   DefaultCatalog(),
		Logger:    logger.NewNopLogger(),
		Events:    sink,
	}, cfg), sink
}

// afterUsage answers every question that follows the AI usage slot.
func afterUsage(confirm ...step) []step {
	steps := []step{
		choice("Bereitsteller"),
		text(answerHorizon),
		choice("externe Nutzung"),
		choice("Verarbeitung in der EU"),
		text(answerRemarks),
	}
	return append(steps, confirm...)
}

func directScript(confirm ...step) []step {
	steps := []step{text(answerProcess), choice(DecisionYes), text(answerUsage)}
	return append(steps, afterUsage(confirm...)...)
}

func roles(msgs []llm.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func lastContent(call llmtest.Call) string {
	if len(call.History) == 0 {
		return ""
	}
	return call.History[len(call.History)-1].Content
}

func countPrompt(ui *fakeSurface, p string) int {
	n := 0
	for _, c := range ui.choices {
		if c.Prompt == p {
			n++
		}
	}
	return n
}

func TestRunDirectUsageConfirmedFirstPass(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text("Zusammenfassung des Vorhabens"),
		llmtest.Text("Summary of the project"),
	)
	retriever := &fakeRetriever{answer: "The use case falls under the AI Act."}
	flow, sink := newTestFlow(provider, retriever, Config{RevisionLimit: 1, RetryAttempts: 1})

	ui := newFakeSurface(directScript(choice(DecisionYes))...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	// one summary call, one translation call, no revision
	assert.Equal(t, 2, provider.CallCount())
	require.Len(t, retriever.prompts, 1)
	assert.Contains(t, retriever.prompts[0], "Summary of the project")
	assert.NotContains(t, retriever.prompts[0], "Zusammenfassung des Vorhabens")

	msgs := s.Transcript.Messages()
	assert.Equal(t, []string{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleUser, llm.RoleAssistant}, roles(msgs))
	assert.Empty(t, msgs[0].Content)
	assert.Equal(t, "Zusammenfassung des Vorhabens", msgs[2].Content)
	assert.Equal(t, "Summary of the project", msgs[4].Content)
	for _, m := range msgs {
		assert.NotContains(t, m.Content, "falls under the AI Act.")
	}

	assert.Len(t, provider.Calls[0].History, 2)
	assert.Len(t, provider.Calls[1].History, 4)

	// summary and evaluation are visible, the translation is not
	require.Len(t, ui.messages, 2)
	assert.Equal(t, "Zusammenfassung des Vorhabens", ui.messages[0].content.String())
	assert.Equal(t, "The use case falls under the AI Act.", ui.messages[1].content.String())
	assert.True(t, ui.messages[1].done)

	assert.Equal(t, AIUsage{Source: SourceDirect, Text: answerUsage}, s.Slots.AIUsage)
	assert.Equal(t, RoleDeployer, s.Slots.DeploymentRole)
	assert.Equal(t, PopulationExternal, s.Slots.AffectedPopulation)
	assert.Equal(t, JurisdictionEU, s.Slots.DataJurisdiction)
	assert.Empty(t, s.Slots.Missing())

	assert.Equal(t, StageChatting, s.Stage)
	assert.False(t, s.UsedBrainstormer)
	assert.False(t, s.WantsRevision)
	assert.Zero(t, s.Revisions)
	assert.True(t, s.Evaluated)
	assert.Equal(t, 1, countPrompt(ui, flow.Catalog().Questions.SummaryConfirm.Prompt))

	assert.Equal(t, []EventType{EventStarted, EventSummaryFinalized, EventEvaluated, EventEnded}, sink.types())
	assert.Equal(t, []string{
		flow.Catalog().Messages.Welcome,
		flow.Catalog().Messages.SummaryIntro,
		flow.Catalog().Messages.EvaluationIntro,
	}, ui.said)
}

func TestSummaryPromptCarriesEverySlotOnce(t *testing.T) {
	provider := llmtest.New(llmtest.Text("S"), llmtest.Text("T"))
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	require.NoError(t, flow.Run(context.Background(), NewSession(""), newFakeSurface(directScript(choice(DecisionYes))...)))

	p := lastContent(provider.Calls[0])
	for _, v := range []string{answerProcess, answerUsage, "Bereitsteller", answerHorizon, "externe Nutzung", "Verarbeitung in der EU", answerRemarks} {
		assert.Equal(t, 1, strings.Count(p, v), v)
	}
	assert.True(t, strings.HasPrefix(p, prompt.BaseSystemPrompt))
}

func TestRunBrainstormedIdeaIsUsedVerbatim(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text(brainstormText),
		llmtest.Text("Zusammenfassung"),
		llmtest.Text("Summary"),
	)
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	script := append([]step{text(answerProcess), choice(DecisionNo), choice("Idee 2")}, afterUsage(choice(DecisionYes))...)
	ui := newFakeSurface(script...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	assert.Equal(t, AIUsage{Source: SourceBrainstormed, Text: "Automatische Dokumentenprüfung"}, s.Slots.AIUsage)
	assert.True(t, s.UsedBrainstormer)

	// no free-text AI usage question after picking an idea
	assert.NotContains(t, ui.texts, flow.Catalog().Questions.AIUsage.Prompt)
	assert.Len(t, ui.texts, 3)

	var ideaChoice askedChoice
	for _, c := range ui.choices {
		if c.Prompt == flow.Catalog().Questions.IdeaChoice.Prompt {
			ideaChoice = c
		}
	}
	require.Len(t, ideaChoice.Actions, 4)
	assert.Equal(t, Action{Name: "Idee 1", Value: "Chatbot für Bürgeranfragen", Label: "Idee 1"}, ideaChoice.Actions[0])
	assert.Equal(t, "Intelligente Terminvergabe", ideaChoice.Actions[2].Value)
	assert.Equal(t, IdeaCustom, ideaChoice.Actions[3].Name)

	assert.Contains(t, lastContent(provider.Calls[1]), "2: Automatische Dokumentenprüfung.")
	assert.Equal(t, brainstormText, ui.messages[0].content.String())

	msgs := s.Transcript.Messages()
	require.Len(t, msgs, 7)
	assert.Equal(t, brainstormText, msgs[2].Content)
	assert.Contains(t, msgs[1].Content, "exactly three ideas")
	assert.Contains(t, ui.said, flow.Catalog().Messages.BrainstormIntro)
}

func TestRunCustomIdeaAsksDirectly(t *testing.T) {
	provider := llmtest.New(llmtest.Text(brainstormText), llmtest.Text("Z"), llmtest.Text("S"))
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	script := append([]step{text(answerProcess), choice(DecisionNo), choice(IdeaCustom), text("Eigene Idee: Sprachassistent")}, afterUsage(choice(DecisionYes))...)
	ui := newFakeSurface(script...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	assert.Equal(t, AIUsage{Source: SourceDirect, Text: "Eigene Idee: Sprachassistent"}, s.Slots.AIUsage)
	assert.Contains(t, ui.texts, flow.Catalog().Questions.AIUsage.Prompt)
	assert.True(t, s.UsedBrainstormer)
}

func TestRunDirectUsageNeverBrainstorms(t *testing.T) {
	provider := llmtest.New(llmtest.Text("Z"), llmtest.Text("S"))
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	ui := newFakeSurface(directScript(choice(DecisionYes))...)
	require.NoError(t, flow.Run(context.Background(), NewSession(""), ui))

	for _, c := range provider.Calls {
		assert.NotContains(t, lastContent(c), "exactly three ideas")
	}
	assert.Zero(t, countPrompt(ui, flow.Catalog().Questions.IdeaChoice.Prompt))
}

func TestRunRevisedSummaryFeedsTranslation(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text("Erste Fassung der Zusammenfassung"),
		llmtest.Text("Zweite Fassung der Zusammenfassung"),
		llmtest.Text("Second version, translated"),
	)
	retriever := &fakeRetriever{answer: "ok"}
	flow, sink := newTestFlow(provider, retriever, Config{RevisionLimit: 1})

	ui := newFakeSurface(directScript(choice(DecisionNo), text(answerChange))...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	// initial summary plus exactly one revision, then translation
	require.Equal(t, 3, provider.CallCount())
	revision := lastContent(provider.Calls[1])
	assert.Contains(t, revision, "Erste Fassung der Zusammenfassung")
	assert.Contains(t, revision, answerChange)

	translation := lastContent(provider.Calls[2])
	assert.Contains(t, translation, "Zweite Fassung der Zusammenfassung")
	assert.NotContains(t, translation, "Erste Fassung")

	assert.Contains(t, retriever.prompts[0], "Second version, translated")
	assert.Equal(t, "Zweite Fassung der Zusammenfassung", s.Summary)
	assert.Equal(t, "Second version, translated", s.Translated)
	assert.True(t, s.WantsRevision)
	assert.Equal(t, 1, s.Revisions)

	// with a limit of one the confirmation is not asked again
	assert.Equal(t, 1, countPrompt(ui, flow.Catalog().Questions.SummaryConfirm.Prompt))
	assert.Equal(t, 1, sink.events[1].Revisions)
	assert.Equal(t, EventSummaryFinalized, sink.events[1].Type)
}

func TestRunRevisionLimit(t *testing.T) {
	tests := []struct {
		name          string
		confirm       []step
		wantRevisions int
		wantAsked     int
	}{
		{
			name:          "confirmed after one revision",
			confirm:       []step{choice(DecisionNo), text("a"), choice(DecisionYes)},
			wantRevisions: 1,
			wantAsked:     2,
		},
		{
			name:          "limit reached",
			confirm:       []step{choice(DecisionNo), text("a"), choice(DecisionNo), text("b")},
			wantRevisions: 2,
			wantAsked:     2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llmtest.New()
			flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{RevisionLimit: 2})

			ui := newFakeSurface(directScript(tt.confirm...)...)
			s := NewSession("")
			require.NoError(t, flow.Run(context.Background(), s, ui))

			assert.Equal(t, tt.wantRevisions, s.Revisions)
			assert.Equal(t, tt.wantAsked, countPrompt(ui, flow.Catalog().Questions.SummaryConfirm.Prompt))
			assert.Equal(t, 1+tt.wantRevisions+1, provider.CallCount())
		})
	}
}

func TestBrainstormRePromptsOnce(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text("1. Chatbot 2. Dokumente 3. Termine"),
		llmtest.Text(brainstormText),
		llmtest.Text("Z"),
		llmtest.Text("S"),
	)
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	script := append([]step{text(answerProcess), choice(DecisionNo), choice("Idee 3")}, afterUsage(choice(DecisionYes))...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, newFakeSurface(script...)))

	assert.Equal(t, AIUsage{Source: SourceBrainstormed, Text: "Intelligente Terminvergabe"}, s.Slots.AIUsage)

	msgs := s.Transcript.Messages()
	assert.Equal(t, "1. Chatbot 2. Dokumente 3. Termine", msgs[2].Content)
	assert.Equal(t, llm.RoleUser, msgs[3].Role)
	assert.Equal(t, prompt.BrainstormCorrection(), msgs[3].Content)
	assert.Equal(t, brainstormText, msgs[4].Content)
}

func TestBrainstormFallsBackToDirectQuestion(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text("Keine Ideen."),
		llmtest.Text("Idee 1: nur eine"),
		llmtest.Text("Z"),
		llmtest.Text("S"),
	)
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	script := append([]step{text(answerProcess), choice(DecisionNo), text(answerUsage)}, afterUsage(choice(DecisionYes))...)
	ui := newFakeSurface(script...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	assert.Equal(t, AIUsage{Source: SourceDirect, Text: answerUsage}, s.Slots.AIUsage)
	assert.True(t, s.UsedBrainstormer)
	assert.Contains(t, ui.said, flow.Catalog().Messages.BrainstormFallback)
	assert.Zero(t, countPrompt(ui, flow.Catalog().Questions.IdeaChoice.Prompt))
	assert.Equal(t, 4, provider.CallCount())
}

func TestStreamFailureIsRetriedAfterReset(t *testing.T) {
	provider := llmtest.New(
		llmtest.Reply{Chunks: []string{"Zusammen", "fassung"}, StreamErr: errors.New("connection reset")},
		llmtest.Text("Zusammenfassung komplett"),
		llmtest.Text("Summary"),
	)
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{RetryAttempts: 1})

	ui := newFakeSurface(directScript(choice(DecisionYes))...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	assert.Equal(t, 3, provider.CallCount())
	assert.Equal(t, provider.Calls[0].History, provider.Calls[1].History)
	assert.Equal(t, 1, ui.messages[0].resets)
	assert.Equal(t, "Zusammenfassung komplett", ui.messages[0].content.String())
	assert.Equal(t, "Zusammenfassung komplett", s.Summary)
	assert.Equal(t, 5, s.Transcript.Len())
	assert.Empty(t, ui.errors)
}

func TestModelFailureEndsGuidedFlow(t *testing.T) {
	boom := errors.New("503 service unavailable")
	provider := llmtest.New(
		llmtest.Reply{InitErr: boom},
		llmtest.Reply{InitErr: boom},
		llmtest.Text("Wie kann ich helfen?"),
	)
	retriever := &fakeRetriever{answer: "ok"}
	flow, sink := newTestFlow(provider, retriever, Config{RetryAttempts: 1})

	ui := newFakeSurface(directScript()...)
	ui.chat = []string{"Hallo?"}
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	require.Len(t, ui.errors, 1)
	assert.Equal(t, flow.Catalog().Messages.ModelError, ui.errors[0])
	assert.Empty(t, retriever.prompts)
	assert.Empty(t, s.Summary)
	assert.Equal(t, StageChatting, s.Stage)

	msgs := s.Transcript.Messages()
	assert.Equal(t, []string{llm.RoleSystem, llm.RoleUser, llm.RoleUser, llm.RoleAssistant}, roles(msgs))
	assert.Equal(t, "Hallo?", msgs[2].Content)
	assert.Equal(t, "Wie kann ich helfen?", msgs[3].Content)

	assert.Equal(t, []EventType{EventStarted, EventEnded}, sink.types())
	assert.Equal(t, StageChatting, sink.events[1].Stage)
}

func TestEvaluationFailureShowsErrorTurn(t *testing.T) {
	provider := llmtest.New(llmtest.Text("Z"), llmtest.Text("S"))
	retriever := &fakeRetriever{err: errors.New("index unavailable")}
	flow, _ := newTestFlow(provider, retriever, Config{RetryAttempts: 1})

	ui := newFakeSurface(directScript(choice(DecisionYes))...)
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	assert.Len(t, retriever.prompts, 2)
	assert.Len(t, ui.errors, 1)
	assert.False(t, s.Evaluated)
	assert.Equal(t, StageChatting, s.Stage)
}

func TestChatUsesWholeTranscript(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text("Zusammenfassung"),
		llmtest.Text("Summary"),
		llmtest.Text("Sie müssen eine Folgenabschätzung durchführen."),
	)
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	ui := newFakeSurface(directScript(choice(DecisionYes))...)
	ui.chat = []string{"Welche Pflichten habe ich?"}
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	chat := provider.Calls[2]
	require.Len(t, chat.History, 6)
	assert.Equal(t, "Welche Pflichten habe ich?", chat.History[5].Content)
	assert.Equal(t, "Summary", chat.History[4].Content)

	msgs := s.Transcript.Messages()
	require.Len(t, msgs, 7)
	assert.Equal(t, llm.RoleAssistant, msgs[6].Role)
	assert.Equal(t, "Sie müssen eine Folgenabschätzung durchführen.", msgs[6].Content)
	assert.Equal(t, "Sie müssen eine Folgenabschätzung durchführen.", ui.lastMessage())
}

func TestChatFailureKeepsUserTurn(t *testing.T) {
	boom := errors.New("timeout")
	provider := llmtest.New(
		llmtest.Text("Z"),
		llmtest.Text("S"),
		llmtest.Reply{InitErr: boom},
		llmtest.Reply{InitErr: boom},
		llmtest.Text("zweite Antwort"),
	)
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{RetryAttempts: 1})

	ui := newFakeSurface(directScript(choice(DecisionYes))...)
	ui.chat = []string{"erste Frage", "zweite Frage"}
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	msgs := s.Transcript.Messages()
	require.Len(t, msgs, 8)
	assert.Equal(t, []string{llm.RoleUser, llm.RoleUser, llm.RoleAssistant}, roles(msgs[5:]))
	assert.Equal(t, "erste Frage", msgs[5].Content)
	assert.Equal(t, "zweite Antwort", msgs[7].Content)
	assert.Len(t, ui.errors, 1)
}

func TestCancelledSessionReturnsError(t *testing.T) {
	provider := llmtest.New()
	flow, sink := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	// the user leaves after the first answer
	ui := newFakeSurface(text(answerProcess))
	err := flow.Run(context.Background(), NewSession(""), ui)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, provider.CallCount())
	assert.Equal(t, []EventType{EventStarted, EventEnded}, sink.types())
}

func TestTranscriptOrderMatchesTurns(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text(brainstormText),
		llmtest.Text("Erste"),
		llmtest.Text("Zweite"),
		llmtest.Text("Translated"),
		llmtest.Text("Antwort"),
	)
	flow, _ := newTestFlow(provider, &fakeRetriever{answer: "ok"}, Config{})

	script := append([]step{text(answerProcess), choice(DecisionNo), choice("Idee 1")}, afterUsage(choice(DecisionNo), text(answerChange))...)
	ui := newFakeSurface(script...)
	ui.chat = []string{"Frage"}
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	msgs := s.Transcript.Messages()
	require.Len(t, msgs, 11)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	for i := 1; i < len(msgs); i++ {
		want := llm.RoleUser
		if i%2 == 0 {
			want = llm.RoleAssistant
		}
		assert.Equal(t, want, msgs[i].Role, i)
	}
	assert.Equal(t, []string{brainstormText, "Erste", "Zweite", "Translated", "Antwort"},
		[]string{msgs[2].Content, msgs[4].Content, msgs[6].Content, msgs[8].Content, msgs[10].Content})

	// every call saw exactly the transcript as it stood before its reply
	for i, c := range provider.Calls {
		assert.Equal(t, msgs[:2*i+2], c.History, i)
	}
}

func countText(ui *fakeSurface, p string) int {
	n := 0
	for _, q := range ui.texts {
		if q == p {
			n++
		}
	}
	return n
}

func TestBlankAnswersAreAskedAgain(t *testing.T) {
	provider := llmtest.New(
		llmtest.Text("Zusammenfassung"),
		llmtest.Text("Überarbeitet"),
		llmtest.Text("Summary"),
	)
	retriever := &fakeRetriever{answer: "ok"}
	flow, _ := newTestFlow(provider, retriever, Config{RevisionLimit: 1})
	q := flow.Catalog().Questions

	ui := newFakeSurface(
		text(answerProcess),
		choice(DecisionYes),
		text(answerUsage),
		choice("Bereitsteller"),
		text(answerHorizon),
		choice("externe Nutzung"),
		choice("Verarbeitung in der EU"),
		text(""),
		text("   "),
		text(answerRemarks),
		choice(DecisionNo),
		text(""),
		text(answerChange),
	)
	ui.chat = []string{""}
	s := NewSession("")
	require.NoError(t, flow.Run(context.Background(), s, ui))

	assert.Equal(t, answerRemarks, s.Slots.Remarks)
	assert.Equal(t, 3, countText(ui, q.Remarks.Prompt))
	assert.Equal(t, 2, countText(ui, q.SummaryChange.Prompt))
	assert.Contains(t, lastContent(provider.Calls[1]), answerChange)
	assert.Equal(t, "Überarbeitet", s.Summary)
	assert.Empty(t, ui.errors)
	assert.True(t, s.Evaluated)

	empty := 0
	for _, said := range ui.said {
		if said == flow.Catalog().Messages.EmptyAnswer {
			empty++
		}
	}
	assert.Equal(t, 3, empty)
	// the blank chat message is not sent to the model
	assert.Equal(t, 3, provider.CallCount())
}

func TestEmptyModelReplyIsRetried(t *testing.T) {
	tests := []struct {
		name    string
		replies []llmtest.Reply
		summary string
		errors  int
		stage   Stage
	}{
		{
			name:    "recovers on retry",
			replies: []llmtest.Reply{{}, llmtest.Text("Zusammenfassung"), llmtest.Text("Summary")},
			summary: "Zusammenfassung",
			stage:   StageChatting,
		},
		{
			name:    "blank twice degrades to chat",
			replies: []llmtest.Reply{{}, {Chunks: []string{" ", "\n"}}, llmtest.Text("Wie kann ich helfen?")},
			errors:  1,
			stage:   StageChatting,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llmtest.New(tt.replies...)
			retriever := &fakeRetriever{answer: "ok"}
			flow, _ := newTestFlow(provider, retriever, Config{RetryAttempts: 1})

			ui := newFakeSurface(directScript(choice(DecisionYes))...)
			if tt.errors > 0 {
				ui = newFakeSurface(directScript()...)
				ui.chat = []string{"Hallo?"}
			}
			s := NewSession("")
			require.NoError(t, flow.Run(context.Background(), s, ui))

			assert.Equal(t, tt.summary, s.Summary)
			assert.Len(t, ui.errors, tt.errors)
			assert.Equal(t, tt.stage, s.Stage)
			if tt.errors > 0 {
				assert.Empty(t, retriever.prompts)
				assert.Equal(t, "Wie kann ich helfen?", s.Transcript.Messages()[s.Transcript.Len()-1].Content)
			} else {
				assert.Len(t, retriever.prompts, 1)
			}
		})
	}
}
