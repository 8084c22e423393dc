// Package app turns a Config into a ready pipeline. Both binaries share it.
package app

import (
	"strings"

	"github.com/apex/log"
	"google.golang.org/api/option"

	"icf-classifier/api/internal/config"
	"icf-classifier/api/internal/extract"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/llm"
	"icf-classifier/api/internal/llm/gemini"
	"icf-classifier/api/internal/llm/openai"
	"icf-classifier/api/internal/llm/stub"
	"icf-classifier/api/internal/metrics"
	"icf-classifier/api/internal/pipeline"
	"icf-classifier/api/internal/render"
)

// maxPixels bounds decoded image area.
const maxPixels = 50_000_000

type App struct {
	Config       *config.Config
	Orchestrator *pipeline.Orchestrator
	Catalog      *render.Catalog
	Locale       render.Locale
}

func NewEngines(cfg *config.Config) *llm.Engines {
	g := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	if ep := strings.TrimSpace(cfg.GeminiEndpoint); ep != "" {
		g.WithClientOptions(option.WithEndpoint(ep))
	}
	return &llm.Engines{
		OpenAI: openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel).
			WithBaseURL(cfg.OpenAIBaseURL).
			WithFormat(cfg.OpenAIResponseFormat),
		Gemini: g,
		Stub:   stub.New(),
	}
}

// New validates cfg and wires the configured engine into an orchestrator
// reporting to Prometheus.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eng, err := NewEngines(cfg).GetEngine(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	catalog, err := render.LoadCatalog()
	if err != nil {
		return nil, err
	}

	metrics.Register()
	norm := imaging.NewNormalizer(
		imaging.WithMaxBytes(int(cfg.MaxImageBytes)),
		imaging.WithMaxPixels(maxPixels),
	)
	orch := pipeline.New(norm, eng, extract.BraceSpan{}, render.New(catalog),
		pipeline.WithTimeout(cfg.ModelTimeout),
		pipeline.WithMaxImages(cfg.MaxImages),
		pipeline.WithObserver(metrics.Observer{}),
	)

	log.WithFields(log.Fields{
		"provider":   eng.Name(),
		"model":      eng.GetModel(),
		"timeout":    cfg.ModelTimeout.String(),
		"max_images": cfg.MaxImages,
	}).Info("classification pipeline ready")

	return &App{
		Config:       cfg,
		Orchestrator: orch,
		Catalog:      catalog,
		Locale:       render.ParseLocale(cfg.DefaultLocale, render.DefaultLocale),
	}, nil
}
