// Package stub is a deterministic, no-network engine for local runs and
// end-to-end tests. It answers with schema-valid JSON built from the
// patient lines of the prompt, wrapped in a line of prose the way real
// models sometimes reply.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"icf-classifier/api/internal/llm"
	"icf-classifier/api/internal/prompt"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string     { return "stub" }
func (e *Engine) GetModel() string { return "stub" }

var _ llm.Engine = (*Engine)(nil)

func (e *Engine) Classify(ctx context.Context, p prompt.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fields := patientLines(p.Text)

	var personal []string
	for _, k := range []string{"Age", "Gender", "Personal factors"} {
		if v := fields[k]; v != "" {
			personal = append(personal, v)
		}
	}
	overview := fields["Symptoms/Condition"]
	if len(p.Images) > 0 {
		overview = strings.TrimSpace(overview + fmt.Sprintf(" (%d image(s) reviewed)", len(p.Images)))
	}

	out := map[string]any{
		"healthCondition": map[string]any{
			"currentMedicalHistory": fields["Diagnosis"],
			"pastMedicalHistory":    "",
			"overview":              overview,
		},
		"bodyFunctionsAndStructures": map[string]any{
			"functions":   []string{},
			"structures":  []string{},
			"impairments": nonEmpty(fields["Symptoms/Condition"]),
		},
		"environmentalFactors": map[string]any{
			"physical": nonEmpty(fields["Environmental factors"]),
			"human":    []string{},
			"social":   []string{},
		},
		"personalFactors": personal,
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return "Stub classification follows.\n" + string(b), nil
}

// patientLines reads "- Label: value" lines of the patient block.
func patientLines(text string) map[string]string {
	out := map[string]string{}
	in := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "# Patient information"):
			in = true
		case strings.HasPrefix(line, "#"):
			in = false
		case in && strings.HasPrefix(line, "- "):
			if k, v, ok := strings.Cut(line[2:], ": "); ok {
				out[k] = v
			}
		}
	}
	return out
}

func nonEmpty(s string) []string {
	if s == "" {
		return []string{}
	}
	return []string{s}
}
