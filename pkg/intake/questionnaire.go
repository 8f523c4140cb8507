package intake

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed questionnaire.yaml
var defaultCatalog []byte

// Action names the flow branches on.
const (
	DecisionYes = "Ja"
	DecisionNo  = "Nein"
	IdeaCustom  = "Idee 4"
)

type Question struct {
	Prompt  string   `yaml:"prompt"`
	Actions []Action `yaml:"actions,omitempty"`
}

type Messages struct {
	Welcome            string `yaml:"welcome"`
	BrainstormIntro    string `yaml:"brainstorm_intro"`
	BrainstormFallback string `yaml:"brainstorm_fallback"`
	SummaryIntro       string `yaml:"summary_intro"`
	EvaluationIntro    string `yaml:"evaluation_intro"`
	ModelError         string `yaml:"model_error"`
	EmptyAnswer        string `yaml:"empty_answer"`
}

type Questions struct {
	Process            Question `yaml:"process"`
	AIUsageDecision    Question `yaml:"ai_usage_decision"`
	AIUsage            Question `yaml:"ai_usage"`
	IdeaChoice         Question `yaml:"idea_choice"`
	DeploymentRole     Question `yaml:"deployment_role"`
	TimeHorizon        Question `yaml:"time_horizon"`
	AffectedPopulation Question `yaml:"affected_population"`
	DataJurisdiction   Question `yaml:"data_jurisdiction"`
	Remarks            Question `yaml:"remarks"`
	SummaryConfirm     Question `yaml:"summary_confirm"`
	SummaryChange      Question `yaml:"summary_change"`
}

// Catalog is every user-facing text of the questionnaire. All of it is German.
type Catalog struct {
	Author    string    `yaml:"author"`
	Messages  Messages  `yaml:"messages"`
	Questions Questions `yaml:"questions"`
}

// LoadCatalog parses the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read questionnaire: %w", err)
		}
		raw = b
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse questionnaire: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog is the built-in catalog. It panics if the embedded file is broken.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog("")
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks that every prompt is set and that choice questions offer
// the options the flow branches on.
func (c *Catalog) Validate() error {
	q := c.Questions
	prompts := map[string]string{
		"process":             q.Process.Prompt,
		"ai_usage_decision":   q.AIUsageDecision.Prompt,
		"ai_usage":            q.AIUsage.Prompt,
		"idea_choice":         q.IdeaChoice.Prompt,
		"deployment_role":     q.DeploymentRole.Prompt,
		"time_horizon":        q.TimeHorizon.Prompt,
		"affected_population": q.AffectedPopulation.Prompt,
		"data_jurisdiction":   q.DataJurisdiction.Prompt,
		"remarks":             q.Remarks.Prompt,
		"summary_confirm":     q.SummaryConfirm.Prompt,
		"summary_change":      q.SummaryChange.Prompt,
	}
	for name, p := range prompts {
		if p == "" {
			return fmt.Errorf("questionnaire: question %s has no prompt", name)
		}
	}

	required := []struct {
		name     string
		question Question
		values   []string
	}{
		{"ai_usage_decision", q.AIUsageDecision, []string{DecisionYes, DecisionNo}},
		{"idea_choice", q.IdeaChoice, []string{IdeaCustom}},
		{"deployment_role", q.DeploymentRole, []string{string(RoleProvider), string(RoleDeployer), string(RoleImporter)}},
		{"affected_population", q.AffectedPopulation, []string{string(PopulationInternal), string(PopulationExternal), string(PopulationBoth)}},
		{"data_jurisdiction", q.DataJurisdiction, []string{string(JurisdictionEU), string(JurisdictionNonEU)}},
		{"summary_confirm", q.SummaryConfirm, []string{DecisionYes, DecisionNo}},
	}
	for _, r := range required {
		if len(r.question.Actions) != len(r.values) {
			return fmt.Errorf("questionnaire: %s needs %d actions, has %d", r.name, len(r.values), len(r.question.Actions))
		}
		for i, v := range r.values {
			if a := r.question.Actions[i]; a.Name != v || a.Value != v {
				return fmt.Errorf("questionnaire: %s action %d must be %q", r.name, i+1, v)
			}
		}
	}
	return nil
}
