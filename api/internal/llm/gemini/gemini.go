package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/llm"
	"icf-classifier/api/internal/prompt"
)

const op = "gemini.classify"

type Engine struct {
	APIKey string
	Model  string

	opts []option.ClientOption
}

func New(apiKey, model string) *Engine {
	return &Engine{APIKey: apiKey, Model: model}
}

// WithClientOptions appends options such as a custom endpoint.
func (e *Engine) WithClientOptions(opts ...option.ClientOption) *Engine {
	e.opts = append(e.opts, opts...)
	return e
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

var _ llm.Engine = (*Engine)(nil)

func (e *Engine) Classify(ctx context.Context, p prompt.Prompt) (string, error) {
	if strings.TrimSpace(e.APIKey) == "" {
		return "", apperr.Auth(op, 0, "GEMINI_API_KEY is not set", nil)
	}

	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)...)
	if err != nil {
		return "", apperr.Transport(op, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	configure(m)

	started := time.Now()
	resp, err := m.GenerateContent(ctx, buildParts(p)...)
	fields := log.Fields{
		"engine":      e.Name(),
		"model":       e.Model,
		"images":      len(p.Images),
		"image_bytes": imaging.TotalBytes(p.Images),
		"prompt_len":  len(p.Text),
		"elapsed_ms":  time.Since(started).Milliseconds(),
	}
	if err != nil {
		cerr := classifyError(err)
		log.WithFields(fields).WithField("kind", cerr.Kind).WithField("status", cerr.Status).Warn("gemini request failed")
		return "", cerr
	}

	out := firstText(resp)
	if strings.TrimSpace(out) == "" {
		return "", apperr.Upstream(op, 0, "gemini: empty response", nil)
	}
	fields["reply_len"] = len(out)
	log.WithFields(fields).Info("gemini request done")
	return out, nil
}

// configure asks for JSON output at the shared low temperature, with the
// fixed persona as the system instruction.
func configure(m *genai.GenerativeModel) {
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(llm.Temperature),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.SystemInstruction)},
	}
}

// buildParts puts the prompt text first, then one inline blob per image.
func buildParts(p prompt.Prompt) []genai.Part {
	parts := make([]genai.Part, 0, len(p.Images)+1)
	parts = append(parts, genai.Text(p.Text))
	for _, img := range p.Images {
		parts = append(parts, &genai.Blob{MIMEType: img.MIMEType, Data: img.Bytes()})
	}
	return parts
}

func classifyError(err error) *apperr.Error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := strings.TrimSpace(gerr.Message)
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Auth(op, gerr.Code, msg, err)
		}
		if gerr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "api key") {
			// invalid keys come back as 400 API_KEY_INVALID
			return apperr.Auth(op, http.StatusUnauthorized, msg, err)
		}
		if msg == "" {
			msg = fmt.Sprintf("gemini returned %d", gerr.Code)
		}
		return apperr.Upstream(op, gerr.Code, msg, err)
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return apperr.Upstream(op, http.StatusUnprocessableEntity, "gemini blocked the request", err)
	}
	return apperr.Transport(op, err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(f float32) *float32 { return &f }
