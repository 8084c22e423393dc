package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	goopenai "github.com/sashabaranov/go-openai"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/llm"
	"icf-classifier/api/internal/prompt"
	"icf-classifier/api/internal/util"
)

const (
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"

	schemaName = "icf_classification"
	op         = "openai.classify"
)

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	Format  string

	httpc *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   20,
	}
	return &Engine{
		APIKey: key,
		Model:  model,
		Format: FormatJSONObject,
		// the request deadline comes from the caller's context
		httpc: &http.Client{Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client.
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

// WithBaseURL points the engine at an OpenAI-compatible endpoint.
func (e *Engine) WithBaseURL(u string) *Engine {
	e.BaseURL = strings.TrimRight(strings.TrimSpace(u), "/")
	return e
}

func (e *Engine) WithFormat(f string) *Engine {
	if f == FormatJSONSchema {
		e.Format = FormatJSONSchema
	} else {
		e.Format = FormatJSONObject
	}
	return e
}

func (e *Engine) Name() string     { return "openai" }
func (e *Engine) GetModel() string { return e.Model }

var _ llm.Engine = (*Engine)(nil)

func (e *Engine) client() *goopenai.Client {
	cfg := goopenai.DefaultConfig(e.APIKey)
	if e.BaseURL != "" {
		cfg.BaseURL = e.BaseURL
	}
	cfg.HTTPClient = e.httpc
	return goopenai.NewClientWithConfig(cfg)
}

func (e *Engine) Classify(ctx context.Context, p prompt.Prompt) (string, error) {
	if strings.TrimSpace(e.APIKey) == "" {
		return "", apperr.Auth(op, 0, "OPENAI_API_KEY is not set", nil)
	}

	req, err := e.buildRequest(p)
	if err != nil {
		return "", apperr.Internal(op, err)
	}

	started := time.Now()
	resp, err := e.client().CreateChatCompletion(ctx, req)
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
		log.WithFields(fields).WithField("kind", cerr.Kind).WithField("status", cerr.Status).Warn("openai request failed")
		return "", cerr
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Upstream(op, 0, "openai: empty choices", nil)
	}

	out := resp.Choices[0].Message.Content
	fields["reply_len"] = len(out)
	fields["finish_reason"] = resp.Choices[0].FinishReason
	log.WithFields(fields).Info("openai request done")
	return out, nil
}

func (e *Engine) buildRequest(p prompt.Prompt) (goopenai.ChatCompletionRequest, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       e.Model,
		Temperature: llm.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: prompt.SystemInstruction},
			userMessage(p),
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject},
	}
	if e.Format == FormatJSONSchema {
		schema, err := util.StrictSchema(prompt.OutputSchema)
		if err != nil {
			return req, err
		}
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(schema),
				Strict: true,
			},
		}
	}
	return req, nil
}

// userMessage is plain text without images, otherwise the text part
// followed by one data-URI image part per attachment in order.
func userMessage(p prompt.Prompt) goopenai.ChatCompletionMessage {
	if len(p.Images) == 0 {
		return goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: p.Text}
	}
	parts := make([]goopenai.ChatMessagePart, 0, len(p.Images)+1)
	parts = append(parts, goopenai.ChatMessagePart{Type: goopenai.ChatMessagePartTypeText, Text: p.Text})
	for _, img := range p.Images {
		parts = append(parts, goopenai.ChatMessagePart{
			Type:     goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{URL: img.DataURL()},
		})
	}
	return goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, MultiContent: parts}
}

func classifyError(err error) *apperr.Error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fromStatus(reqErr.HTTPStatusCode, "", err)
	}
	return apperr.Transport(op, err)
}

func fromStatus(status int, message string, err error) *apperr.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Auth(op, status, message, err)
	case 0:
		return apperr.Upstream(op, 0, message, err)
	default:
		if message == "" {
			message = fmt.Sprintf("openai returned %d", status)
		}
		return apperr.Upstream(op, status, message, err)
	}
}
