package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/llm"
	"icf-classifier/api/internal/prompt"
)

func TestBuildParts(t *testing.T) {
	imgs := []*imaging.NormalizedImage{{MIMEType: imaging.OutputMIME}, {MIMEType: imaging.OutputMIME}}
	p := prompt.Build(icf.PatientInput{}, 2).WithImages(imgs)

	parts := buildParts(p)
	require.Len(t, parts, 3)
	assert.Equal(t, genai.Text(p.Text), parts[0])
	for _, part := range parts[1:] {
		blob, ok := part.(*genai.Blob)
		require.True(t, ok)
		assert.Equal(t, "image/jpeg", blob.MIMEType)
	}

	assert.Len(t, buildParts(prompt.Build(icf.PatientInput{Symptoms: "x"}, 0)), 1)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   apperr.Kind
		status int
	}{
		{"permission denied", &googleapi.Error{Code: 403, Message: "denied"}, apperr.KindAuth, 403},
		{"invalid key", fmt.Errorf("rpc: %w", &googleapi.Error{Code: 400, Message: "API key not valid. Please pass a valid API key."}), apperr.KindAuth, 401},
		{"quota", &googleapi.Error{Code: 429, Message: "Resource has been exhausted"}, apperr.KindUpstream, 429},
		{"bad request", &googleapi.Error{Code: 400, Message: "Invalid JSON payload"}, apperr.KindUpstream, 400},
		{"blocked", &genai.BlockedError{}, apperr.KindUpstream, 422},
		{"network", errors.New("dial tcp: lookup generativelanguage.googleapis.com: no such host"), apperr.KindTransport, 0},
		{"deadline", context.DeadlineExceeded, apperr.KindTransport, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}}},
	}}
	assert.Equal(t, `{"a":1}`, firstText(resp))
}

func TestClassify_MissingKey(t *testing.T) {
	_, err := New("", "gemini-2.5-flash").Classify(context.Background(), prompt.Build(icf.PatientInput{Symptoms: "x"}, 0))
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))
}

func TestConfigure(t *testing.T) {
	m := &genai.GenerativeModel{}
	configure(m)

	require.NotNil(t, m.Temperature)
	assert.InDelta(t, 0.3, *m.Temperature, 1e-6)
	assert.Equal(t, float32(llm.Temperature), *m.Temperature)
	assert.Equal(t, "application/json", m.ResponseMIMEType)
	require.NotNil(t, m.SystemInstruction)
	assert.Equal(t, []genai.Part{genai.Text(prompt.SystemInstruction)}, m.SystemInstruction.Parts)
}

func TestWithClientOptions(t *testing.T) {
	e := New("key", "gemini-2.5-flash").
		WithClientOptions(option.WithEndpoint("http://localhost:8081")).
		WithClientOptions()
	assert.Len(t, e.opts, 1)
}
