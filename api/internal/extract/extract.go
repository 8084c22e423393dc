// Package extract pulls the classification object out of a model reply that
// may wrap it in prose or code fences.
package extract

import (
	"encoding/json"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/util"
)

const (
	msgNoObject  = "no JSON object found"
	msgMalformed = "malformed JSON"
)

// Extractor turns raw model output into a classification.
type Extractor interface {
	Extract(raw string) (*icf.ClassificationResult, error)
}

// BraceSpan scans for balanced top-level {...} spans in order and decodes
// the first one that is valid JSON. Missing keys decode as empty sections.
type BraceSpan struct{}

func (BraceSpan) Extract(raw string) (*icf.ClassificationResult, error) {
	text := util.StripCodeFences(raw)

	spans, unbalanced := Spans(text)
	if len(spans) == 0 {
		if unbalanced {
			return nil, apperr.Extraction(msgMalformed, len(raw))
		}
		return nil, apperr.Extraction(msgNoObject, len(raw))
	}

	for _, s := range spans {
		if !json.Valid([]byte(s)) {
			continue
		}
		var res icf.ClassificationResult
		if err := json.Unmarshal([]byte(s), &res); err != nil {
			continue
		}
		return &res, nil
	}
	return nil, apperr.Extraction(msgMalformed, len(raw))
}

// Spans returns every balanced top-level brace span of s in order. Braces
// inside JSON string literals are ignored. unbalanced reports an opening
// brace that is never closed.
func Spans(s string) (spans []string, unbalanced bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if depth > 0 && inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, s[start:i+1])
				start = -1
			}
		}
	}
	return spans, depth > 0
}
