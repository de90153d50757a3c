// Package pipeline - Website Generation Flow
// Runs the sequential generation steps and assembles the final artifact
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sitesmith/internal/ai"
	"sitesmith/internal/keys"
	"sitesmith/internal/metrics"
	"sitesmith/internal/normalize"
	"sitesmith/internal/templates"
	"sitesmith/pkg/models"
)

// Invoker is the slice of the provider layer the pipeline depends on.
type Invoker interface {
	Do(ctx context.Context, req ai.CallRequest) (string, error)
}

// Content sources reported in events and metrics.
const (
	SourceProvider = "provider"
	SourceFallback = "fallback"
)

// Run outcomes reported in metrics.
const (
	outcomeProvider      = "provider"
	outcomeDegraded      = "degraded"
	outcomeNoCredentials = "no_credentials"
)

// Step identifiers used in events, metrics and logs.
const (
	StepHTML  = "html"
	StepCSS   = "css"
	StepJS    = "js"
	StepPage  = "page"
	StepAdmin = "admin"
	StepSEO   = "seo"
)

// EventType distinguishes the progress notifications a run emits.
type EventType string

const (
	EventRunStarted      EventType = "run_started"
	EventStepStarted     EventType = "step_started"
	EventStepCompleted   EventType = "step_completed"
	EventCorrectiveRetry EventType = "corrective_retry"
	EventRunCompleted    EventType = "run_completed"
)

// Event is one progress notification emitted while a run advances.
type Event struct {
	Type      EventType `json:"type"`
	Step      string    `json:"step,omitempty"`
	File      string    `json:"file,omitempty"`
	Source    string    `json:"source,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Pipeline turns a generation context into a complete website artifact.
type Pipeline struct {
	invoker Invoker
	log     *zap.Logger
}

func New(invoker Invoker, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{invoker: invoker, log: log}
}

// Run executes every generation step in order and always returns a complete
// artifact: steps the provider cannot serve are filled with deterministic
// fallback content instead of failing the run. The returned error is non-nil
// only when no credentials are configured at all, so callers can surface
// that to the user alongside the artifact.
func (p *Pipeline) Run(ctx context.Context, gen models.GenerationContext, emit func(Event)) (*models.WebsiteArtifact, error) {
	start := time.Now()
	r := &run{pipeline: p, ctx: ctx, gen: gen, emit: emit}
	r.event(Event{Type: EventRunStarted})

	html := r.textStep(StepHTML, "index.html", models.FileHTML,
		htmlRequest(gen), templates.FallbackHTML(gen))
	r.textStep(StepCSS, "styles.css", models.FileCSS,
		cssRequest(gen, html), templates.FallbackCSS(gen))
	r.textStep(StepJS, "script.js", models.FileJS,
		jsRequest(gen, html), templates.FallbackJS(gen))

	for _, page := range gen.ExtraPages() {
		r.textStep(StepPage, models.PageSlug(page)+".html", models.FileHTML,
			pageRequest(gen, page, html), templates.FallbackPage(gen, page))
	}
	if gen.IncludeAdminPage {
		r.textStep(StepAdmin, "admin.html", models.FileHTML,
			adminRequest(gen, html), templates.FallbackAdminPage(gen))
	}

	seo := r.seoStep()

	artifact := &models.WebsiteArtifact{Files: r.files, SEO: seo}
	outcome := outcomeProvider
	switch {
	case r.noCredentials:
		outcome = outcomeNoCredentials
	case r.degraded:
		outcome = outcomeDegraded
	}
	metrics.Get().RecordGenerationRun(outcome, len(artifact.Files))
	p.log.Info("generation run finished",
		zap.String("outcome", outcome),
		zap.Int("files", len(artifact.Files)),
		zap.Duration("elapsed", time.Since(start)))
	r.event(Event{Type: EventRunCompleted, Outcome: outcome})

	if r.noCredentials {
		return artifact, fmt.Errorf("%w; the site was assembled from built-in fallback content", keys.ErrNoCredentials)
	}
	return artifact, nil
}

// run carries the state of one Run invocation.
type run struct {
	pipeline *Pipeline
	ctx      context.Context
	gen      models.GenerationContext
	emit     func(Event)

	files         []models.GeneratedFile
	degraded      bool
	noCredentials bool
}

func (r *run) event(ev Event) {
	if r.emit == nil {
		return
	}
	ev.Timestamp = time.Now()
	r.emit(ev)
}

// textStep produces one output file and appends it to the artifact.
func (r *run) textStep(step, path string, kind models.FileKind, req ai.CallRequest, fallback string) string {
	started := time.Now()
	r.event(Event{Type: EventStepStarted, Step: step, File: path})

	content, source := r.produceText(step, kind, req, fallback)
	r.files = append(r.files, models.GeneratedFile{Path: path, Content: content, Kind: kind})
	if source == SourceFallback {
		r.degraded = true
	}

	metrics.Get().RecordPipelineStep(step, source, time.Since(started))
	r.event(Event{Type: EventStepCompleted, Step: step, File: path, Source: source})
	return content
}

// produceText asks the provider for the step's content, applying at most one
// corrective re-prompt when the reply is too short to be a usable file.
func (r *run) produceText(step string, kind models.FileKind, req ai.CallRequest, fallback string) (string, string) {
	if r.noCredentials {
		return fallback, SourceFallback
	}

	raw, err := r.pipeline.invoker.Do(r.ctx, req)
	if err != nil {
		r.providerFailed(step, err)
		return fallback, SourceFallback
	}
	content := normalize.StripCodeFences(raw)
	if !normalize.Undersized(content, kind) {
		return content, SourceProvider
	}

	metrics.Get().RecordCorrectiveRetry(step)
	r.event(Event{Type: EventCorrectiveRetry, Step: step})
	r.pipeline.log.Warn("response below minimum size, sending corrective prompt",
		zap.String("step", step),
		zap.Int("size", len(content)))
	raw, err = r.pipeline.invoker.Do(r.ctx, correctiveRequest(req, raw, undersizedProblem(kind)))
	if err != nil {
		r.providerFailed(step, err)
		return fallback, SourceFallback
	}
	content = normalize.StripCodeFences(raw)
	if normalize.Undersized(content, kind) {
		r.pipeline.log.Warn("corrective response still below minimum size, using fallback",
			zap.String("step", step))
		return fallback, SourceFallback
	}
	return content, SourceProvider
}

func (r *run) seoStep() models.SEO {
	started := time.Now()
	r.event(Event{Type: EventStepStarted, Step: StepSEO})

	seo, source := r.produceSEO()
	if source == SourceFallback {
		r.degraded = true
	}

	metrics.Get().RecordPipelineStep(StepSEO, source, time.Since(started))
	r.event(Event{Type: EventStepCompleted, Step: StepSEO, Source: source})
	return seo
}

// produceSEO asks the provider for the site metadata, applying at most one
// corrective re-prompt when the reply does not decode.
func (r *run) produceSEO() (models.SEO, string) {
	fallback := templates.FallbackSEO(r.gen.Prompt, r.gen.Language)
	if r.noCredentials {
		return fallback, SourceFallback
	}

	req := seoRequest(r.gen)
	raw, err := r.pipeline.invoker.Do(r.ctx, req)
	if err != nil {
		r.providerFailed(StepSEO, err)
		return fallback, SourceFallback
	}
	seo, decodeErr := normalize.DecodeSEO(raw)
	if decodeErr == nil {
		return seo, SourceProvider
	}

	metrics.Get().RecordCorrectiveRetry(StepSEO)
	r.event(Event{Type: EventCorrectiveRetry, Step: StepSEO})
	r.pipeline.log.Warn("metadata response did not decode, sending corrective prompt",
		zap.Error(decodeErr))
	raw, err = r.pipeline.invoker.Do(r.ctx, correctiveRequest(req, raw, malformedSEOProblem))
	if err != nil {
		r.providerFailed(StepSEO, err)
		return fallback, SourceFallback
	}
	seo, decodeErr = normalize.DecodeSEO(raw)
	if decodeErr != nil {
		r.pipeline.log.Warn("corrective metadata response did not decode, using fallback",
			zap.Error(decodeErr))
		return fallback, SourceFallback
	}
	return seo, SourceProvider
}

// providerFailed notes a step-level provider failure. Once the pool reports
// no credentials the remaining steps stop calling the provider entirely.
func (r *run) providerFailed(step string, err error) {
	if errors.Is(err, keys.ErrNoCredentials) {
		r.noCredentials = true
		r.pipeline.log.Warn("no credentials configured, remaining steps use fallback content",
			zap.String("step", step))
		return
	}
	r.pipeline.log.Warn("provider unavailable for step, using fallback content",
		zap.String("step", step),
		zap.Error(err))
}
