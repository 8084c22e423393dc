// Package pipeline sequences one classification request: validate the
// input, normalize images, build the prompt, call the model, extract and
// render the result.
//
// Every exit path releases raw and normalized image buffers and re-enables
// the caller's trigger before Run returns.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/extract"
	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/llm"
	"icf-classifier/api/internal/prompt"
	"icf-classifier/api/internal/render"
)

const (
	DefaultTimeout   = 90 * time.Second
	DefaultMaxImages = 10
)

type Request struct {
	Patient icf.PatientInput
	// Images are owned by the pipeline once Run is called.
	Images []*imaging.RawImage
	Locale render.Locale
	// Trigger is optional.
	Trigger   Trigger
	RequestID string
}

type Result struct {
	Classification *icf.ClassificationResult
	Sections       []render.Section
}

type Orchestrator struct {
	normalizer *imaging.Normalizer
	engine     llm.Engine
	extractor  extract.Extractor
	renderer   *render.Renderer

	timeout   time.Duration
	maxImages int
	observers []Observer
}

type Option func(*Orchestrator)

// WithTimeout bounds the model call.
func WithTimeout(d time.Duration) Option { return func(o *Orchestrator) { o.timeout = d } }

// WithMaxImages caps the number of images per request; 0 disables the cap.
func WithMaxImages(n int) Option { return func(o *Orchestrator) { o.maxImages = n } }

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

func New(n *imaging.Normalizer, eng llm.Engine, ex extract.Extractor, r *render.Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		normalizer: n,
		engine:     eng,
		extractor:  ex,
		renderer:   r,
		timeout:    DefaultTimeout,
		maxImages:  DefaultMaxImages,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Engine() llm.Engine { return o.engine }

type run struct {
	o       *Orchestrator
	state   State
	entered time.Time
	started time.Time
	images  int
	logger  *log.Entry
}

func (r *run) enter(s State, kind apperr.Kind) {
	now := time.Now()
	t := Transition{From: r.state, To: s, Elapsed: now.Sub(r.entered), Kind: kind}
	if r.state == Normalizing {
		t.Images = r.images
	}
	r.state, r.entered = s, now
	for _, obs := range r.o.observers {
		obs.Observe(t)
	}
	r.logger.WithField("state", s.String()).Debug("pipeline transition")
}

func (r *run) fail(err error) error {
	e := apperr.As(err)
	stage := r.state
	r.enter(Failed, e.Kind)
	r.logger.WithFields(log.Fields{
		"stage":      stage.String(),
		"kind":       e.Kind,
		"status":     e.Status,
		"elapsed_ms": time.Since(r.started).Milliseconds(),
	}).WithError(err).Warn("classification failed")
	return e
}

// Run executes one request. The returned error is always an *apperr.Error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	now := time.Now()
	r := &run{
		o:       o,
		state:   Idle,
		entered: now,
		started: now,
		logger: log.WithFields(log.Fields{
			"request_id": req.RequestID,
			"engine":     o.engine.Name(),
		}),
	}

	var normalized []*imaging.NormalizedImage
	if req.Trigger != nil {
		req.Trigger.Disable()
	}
	defer func() {
		imaging.ReleaseRaw(req.Images)
		imaging.ReleaseAll(normalized)
		if req.Trigger != nil {
			req.Trigger.Enable()
		}
		r.enter(Idle, "")
	}()

	r.enter(Validating, "")
	if !req.Patient.HasText() && len(req.Images) == 0 {
		return nil, r.fail(apperr.Input("no patient text and no images supplied"))
	}
	if o.maxImages > 0 && len(req.Images) > o.maxImages {
		return nil, r.fail(apperr.Input(fmt.Sprintf("too many images: %d, limit %d", len(req.Images), o.maxImages)))
	}
	if err := imaging.CheckMIMETypes(req.Images); err != nil {
		return nil, r.fail(err)
	}

	r.enter(Normalizing, "")
	normalized, err := o.normalizer.NormalizeAll(ctx, req.Images)
	if err != nil {
		return nil, r.fail(err)
	}
	r.images = len(normalized)

	r.enter(Prompting, "")
	p := prompt.Build(req.Patient, len(normalized)).WithImages(normalized)

	r.enter(Requesting, "")
	r.logger.WithFields(log.Fields{
		"images":      len(normalized),
		"image_bytes": imaging.TotalBytes(normalized),
	}).Info("classification request")

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	raw, err := o.engine.Classify(callCtx, p)
	cancel()
	imaging.ReleaseAll(normalized)
	normalized = nil
	if err != nil {
		return nil, r.fail(classifyError(err))
	}

	r.enter(Extracting, "")
	result, err := o.extractor.Extract(raw)
	if err != nil {
		return nil, r.fail(err)
	}
	sections := o.renderer.Render(result, req.Locale)

	r.enter(Rendered, "")
	r.logger.WithFields(log.Fields{
		"reply_len":  len(raw),
		"elapsed_ms": time.Since(r.started).Milliseconds(),
	}).Info("classification done")

	return &Result{Classification: result, Sections: sections}, nil
}

// classifyError keeps the engine's kind. An untyped error is transport only
// when the call context ran out; anything else is internal.
func classifyError(err error) error {
	kind := apperr.KindInternal
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = apperr.KindTransport
	}
	return apperr.Wrap(kind, "classify", "model call failed", err)
}
