// Package icf holds the request and result types shared by every pipeline
// stage: the patient fields a user submits and the six-section
// classification the model answers with.
package icf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ClassificationResult struct {
	HealthCondition            HealthCondition            `json:"healthCondition"`
	BodyFunctionsAndStructures BodyFunctionsAndStructures `json:"bodyFunctionsAndStructures"`
	Activities                 Activities                 `json:"activities"`
	Participation              Participation              `json:"participation"`
	EnvironmentalFactors       EnvironmentalFactors       `json:"environmentalFactors"`
	PersonalFactors            TextList                   `json:"personalFactors"`
}

type HealthCondition struct {
	CurrentMedicalHistory Text `json:"currentMedicalHistory"`
	PastMedicalHistory    Text `json:"pastMedicalHistory"`
	Overview              Text `json:"overview"`
}

type BodyFunctionsAndStructures struct {
	Functions   TextList `json:"functions"`
	Structures  TextList `json:"structures"`
	Impairments TextList `json:"impairments"`
}

type Activities struct {
	Capacity    TextList `json:"capacity"`
	Performance TextList `json:"performance"`
	Limitations TextList `json:"limitations"`
}

type Participation struct {
	Participation TextList `json:"participation"`
	Restrictions  TextList `json:"restrictions"`
}

type EnvironmentalFactors struct {
	Physical TextList `json:"physical"`
	Human    TextList `json:"human"`
	Social   TextList `json:"social"`
}

// The section decoders below ignore values that are not JSON objects, so a
// model answering "healthCondition": "none" yields an empty section.

func (s *HealthCondition) UnmarshalJSON(b []byte) error {
	type plain HealthCondition
	return decodeObject(b, (*plain)(s))
}

func (s *BodyFunctionsAndStructures) UnmarshalJSON(b []byte) error {
	type plain BodyFunctionsAndStructures
	return decodeObject(b, (*plain)(s))
}

func (s *Activities) UnmarshalJSON(b []byte) error {
	type plain Activities
	return decodeObject(b, (*plain)(s))
}

func (s *Participation) UnmarshalJSON(b []byte) error {
	type plain Participation
	return decodeObject(b, (*plain)(s))
}

func (s *EnvironmentalFactors) UnmarshalJSON(b []byte) error {
	type plain EnvironmentalFactors
	return decodeObject(b, (*plain)(s))
}

func decodeObject(b []byte, v any) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	return json.Unmarshal(b, v)
}

// Text is a string leaf. Lists are joined with newlines, numbers and bools
// are printed, null stays empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Text(flatten(v, "\n"))
	return nil
}

func (t Text) IsEmpty() bool { return strings.TrimSpace(string(t)) == "" }

// TextList is a list leaf. A bare string becomes a one-item list; blank
// items are dropped; order is kept as given.
type TextList []string

func (l *TextList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var out []string
	switch x := v.(type) {
	case nil:
	case []any:
		for _, it := range x {
			if s := strings.TrimSpace(flatten(it, "; ")); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := strings.TrimSpace(flatten(x, "; ")); s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

func (l TextList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l TextList) IsEmpty() bool { return len(l) == 0 }

func flatten(v any, sep string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64, bool:
		return fmt.Sprint(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, it := range x {
			if s := strings.TrimSpace(flatten(it, sep)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	case map[string]any:
		b, _ := json.Marshal(x)
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func (h HealthCondition) IsEmpty() bool {
	return h.CurrentMedicalHistory.IsEmpty() && h.PastMedicalHistory.IsEmpty() && h.Overview.IsEmpty()
}

func (b BodyFunctionsAndStructures) IsEmpty() bool {
	return b.Functions.IsEmpty() && b.Structures.IsEmpty() && b.Impairments.IsEmpty()
}

func (a Activities) IsEmpty() bool {
	return a.Capacity.IsEmpty() && a.Performance.IsEmpty() && a.Limitations.IsEmpty()
}

func (p Participation) IsEmpty() bool {
	return p.Participation.IsEmpty() && p.Restrictions.IsEmpty()
}

func (e EnvironmentalFactors) IsEmpty() bool {
	return e.Physical.IsEmpty() && e.Human.IsEmpty() && e.Social.IsEmpty()
}
