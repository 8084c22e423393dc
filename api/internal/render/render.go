// Package render maps a classification onto the six display sections in
// their fixed order. Output is plain data; markup belongs to the caller.
package render

import (
	"strings"

	"icf-classifier/api/internal/icf"
)

// Item is one labelled leaf. Exactly one of Value or Items is set for
// populated leaves; empty leaves are omitted from a section.
type Item struct {
	Label string   `json:"label,omitempty"`
	Value string   `json:"value,omitempty"`
	Items []string `json:"items,omitempty"`
}

type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	// Placeholder is set instead of Items when every leaf is empty.
	Placeholder string `json:"placeholder,omitempty"`
	Items       []Item `json:"items,omitempty"`
}

func (s Section) Empty() bool { return len(s.Items) == 0 }

type Renderer struct {
	catalog *Catalog
}

func New(c *Catalog) *Renderer {
	return &Renderer{catalog: c}
}

type leaf struct {
	key   string
	text  icf.Text
	list  icf.TextList
	isStr bool
}

func str(key string, t icf.Text) leaf       { return leaf{key: key, text: t, isStr: true} }
func list(key string, l icf.TextList) leaf { return leaf{key: key, list: l} }

// Render returns the six sections in canonical order. A nil result renders
// like an all-empty one.
func (r *Renderer) Render(res *icf.ClassificationResult, loc Locale) []Section {
	if res == nil {
		res = &icf.ClassificationResult{}
	}
	h := res.HealthCondition
	b := res.BodyFunctionsAndStructures
	a := res.Activities
	p := res.Participation
	e := res.EnvironmentalFactors

	return []Section{
		r.section(loc, "healthCondition",
			str("currentMedicalHistory", h.CurrentMedicalHistory),
			str("pastMedicalHistory", h.PastMedicalHistory),
			str("overview", h.Overview)),
		r.section(loc, "bodyFunctionsAndStructures",
			list("functions", b.Functions),
			list("structures", b.Structures),
			list("impairments", b.Impairments)),
		r.section(loc, "activities",
			list("capacity", a.Capacity),
			list("performance", a.Performance),
			list("limitations", a.Limitations)),
		r.section(loc, "participation",
			list("participation", p.Participation),
			list("restrictions", p.Restrictions)),
		r.section(loc, "environmentalFactors",
			list("physical", e.Physical),
			list("human", e.Human),
			list("social", e.Social)),
		// personal factors is a bare list without a sub-label
		r.section(loc, "personalFactors", list("", res.PersonalFactors)),
	}
}

func (r *Renderer) section(loc Locale, key string, leaves ...leaf) Section {
	s := Section{Key: key, Title: r.catalog.Section(loc, key)}
	for _, l := range leaves {
		label := ""
		if l.key != "" {
			label = r.catalog.Label(loc, l.key)
		}
		switch {
		case l.isStr && !l.text.IsEmpty():
			s.Items = append(s.Items, Item{Label: label, Value: strings.TrimSpace(string(l.text))})
		case !l.isStr && !l.list.IsEmpty():
			s.Items = append(s.Items, Item{Label: label, Items: append([]string(nil), l.list...)})
		}
	}
	if len(s.Items) == 0 {
		s.Placeholder = r.catalog.NoData(loc)
	}
	return s
}

// FormatText lays sections out as plain text for chat surfaces.
func FormatText(sections []Section) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("■ ")
		b.WriteString(s.Title)
		b.WriteString("\n")
		if s.Empty() {
			b.WriteString(s.Placeholder)
			b.WriteString("\n")
			continue
		}
		for _, it := range s.Items {
			indent := ""
			if it.Label != "" {
				b.WriteString("【")
				b.WriteString(it.Label)
				b.WriteString("】\n")
				indent = "  "
			}
			if it.Value != "" {
				b.WriteString(indent)
				b.WriteString(it.Value)
				b.WriteString("\n")
			}
			for _, v := range it.Items {
				b.WriteString(indent)
				b.WriteString("• ")
				b.WriteString(v)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
