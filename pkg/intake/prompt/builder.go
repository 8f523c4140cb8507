// Package prompt renders the English instructions sent to the model at each
// step of the guided intake. User answers are embedded verbatim.
package prompt

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var ErrSlotMissing = errors.New("slot missing")

// SummaryInput carries the seven answers in questionnaire order.
type SummaryInput struct {
	Process            string
	AIUsage            string
	DeploymentRole     string
	TimeHorizon        string
	AffectedPopulation string
	DataJurisdiction   string
	Remarks            string
}

func (in SummaryInput) missing() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"process", in.Process},
		{"ai_usage", in.AIUsage},
		{"deployment_role", in.DeploymentRole},
		{"time_horizon", in.TimeHorizon},
		{"affected_population", in.AffectedPopulation},
		{"data_jurisdiction", in.DataJurisdiction},
		{"remarks", in.Remarks},
	}
	var out []string
	for _, f := range fields {
		if f.value == "" {
			out = append(out, f.name)
		}
	}
	return out
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func checkNonEmpty(name string, values map[string]string) error {
	var missing []string
	for _, k := range []string{"process", "summary", "change"} {
		if v, ok := values[k]; ok && v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s prompt: %w: %s", name, ErrSlotMissing, strings.Join(missing, ", "))
	}
	return nil
}

func Brainstorm(base, process string) (string, error) {
	if err := checkNonEmpty("brainstorm", map[string]string{"process": process}); err != nil {
		return "", err
	}
	return render("brainstorm.tmpl", map[string]any{"Base": base, "Process": process})
}

// BrainstormCorrection is sent as a follow-up user turn after a malformed answer.
func BrainstormCorrection() string {
	out, err := render("brainstorm_correction.tmpl", nil)
	if err != nil {
		panic(err)
	}
	return out
}

// Summary fails with ErrSlotMissing when any answer is empty.
func Summary(base string, in SummaryInput) (string, error) {
	if missing := in.missing(); len(missing) > 0 {
		return "", fmt.Errorf("summary prompt: %w: %s", ErrSlotMissing, strings.Join(missing, ", "))
	}
	return render("summary.tmpl", map[string]any{
		"Base":     base,
		"Input":    in,
		"MaxChars": SummaryMaxChars,
	})
}

func Revision(base, summary, change string) (string, error) {
	if err := checkNonEmpty("revision", map[string]string{"summary": summary, "change": change}); err != nil {
		return "", err
	}
	return render("revision.tmpl", map[string]any{
		"Base":     base,
		"Summary":  summary,
		"Change":   change,
		"MaxChars": SummaryMaxChars,
	})
}

func Translation(base, summary string) (string, error) {
	if err := checkNonEmpty("translation", map[string]string{"summary": summary}); err != nil {
		return "", err
	}
	return render("translation.tmpl", map[string]any{
		"Base":     base,
		"Summary":  summary,
		"MaxChars": SummaryMaxChars,
	})
}

func Evaluation(base, translated string) (string, error) {
	if err := checkNonEmpty("evaluation", map[string]string{"summary": translated}); err != nil {
		return "", err
	}
	return render("evaluation.tmpl", map[string]any{
		"Base":    base,
		"Summary": translated,
	})
}
