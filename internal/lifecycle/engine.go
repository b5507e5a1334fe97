package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"componentlab/internal/domain"
	"componentlab/internal/providers/compiler"
	"componentlab/internal/providers/generation"
)

const (
	DefaultBatchSize = 2

	// DefaultMaxAttempts leaves failed prompts eligible on every tick.
	DefaultMaxAttempts = 0
)

// PreviewMirror receives compiled artifacts after a successful build.
type PreviewMirror interface {
	WritePreview(ctx context.Context, slug, artifact string) (string, error)
}

type Options struct {
	Prompts   domain.PromptRepository
	Events    domain.EventLog
	Generator generation.Generator
	Compiler  compiler.Compiler
	Mirror    PreviewMirror
	Logger    zerolog.Logger

	BatchSize int
	// MaxAttempts bounds automatic retries of failed prompts. Zero or less
	// retries forever.
	MaxAttempts int
	// CallTimeout bounds each generation and compilation call. Zero disables it.
	CallTimeout time.Duration
	Now         func() time.Time
}

// Engine drives prompts from pending to ready or failed. It is not safe for
// concurrent use and assumes a single worker process per database.
type Engine struct {
	prompts     domain.PromptRepository
	events      domain.EventLog
	generator   generation.Generator
	compiler    compiler.Compiler
	mirror      PreviewMirror
	logger      zerolog.Logger
	batchSize   int
	maxAttempts int
	callTimeout time.Duration
	now         func() time.Time

	idle bool
}

func NewEngine(opts Options) (*Engine, error) {
	switch {
	case opts.Prompts == nil:
		return nil, errors.New("lifecycle: prompt repository is required")
	case opts.Events == nil:
		return nil, errors.New("lifecycle: event log is required")
	case opts.Generator == nil:
		return nil, errors.New("lifecycle: generator is required")
	case opts.Compiler == nil:
		return nil, errors.New("lifecycle: compiler is required")
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		prompts:     opts.Prompts,
		events:      opts.Events,
		generator:   opts.Generator,
		compiler:    opts.Compiler,
		mirror:      opts.Mirror,
		logger:      opts.Logger,
		batchSize:   batch,
		maxAttempts: opts.MaxAttempts,
		callTimeout: opts.CallTimeout,
		now:         now,
	}, nil
}

// Tick runs one batch. Adapter failures stay with their prompt; a store error
// ends the batch and is returned. Panics are logged and reported as errors.
func (e *Engine) Tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("worker: tick panicked")
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()

	configured, err := e.generator.Configured(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("worker: credential lookup failed, ending tick")
		return &domain.StoreError{Op: "load generation credential", Err: err}
	}
	if !configured {
		if !e.idle {
			e.logger.Warn().Msg("worker: generation provider not configured, idling")
			e.idle = true
		}
		return nil
	}
	if e.idle {
		e.logger.Info().Msg("worker: generation provider configured, resuming")
		e.idle = false
	}

	prompts, err := e.prompts.ListEligibleForBuild(ctx, e.batchSize, e.maxAttempts)
	if err != nil {
		e.logger.Error().Err(err).Msg("worker: list eligible prompts failed")
		return err
	}
	if len(prompts) > 0 {
		e.logger.Debug().Int("count", len(prompts)).Msg("worker: picked prompts")
	}

	for i := range prompts {
		if ctx.Err() != nil {
			return nil
		}
		if err := e.Process(ctx, &prompts[i]); err != nil {
			e.logger.Error().Err(err).Str("prompt_id", prompts[i].ID).Msg("worker: store failure, ending tick")
			return err
		}
	}
	return nil
}

// Process runs one prompt through generation and compilation. Only store
// errors are returned; adapter errors leave the prompt failed.
func (e *Engine) Process(ctx context.Context, p *domain.Prompt) error {
	log := e.logger.With().Str("prompt_id", p.ID).Int("attempt", p.AttemptCount+1).Logger()
	log.Info().Str("status", string(p.Status)).Msg("worker: processing prompt")
	e.events.Record(ctx, p.ID, domain.EventLevelInfo, "processing", map[string]any{"status": string(p.Status)})

	if err := e.prompts.MarkBuilding(ctx, p.ID, p.GenerationHandle); err != nil {
		return err
	}

	result, err := e.generate(ctx, p)
	if err != nil {
		kind := string(domain.GenerationUnavailable)
		var ge *domain.GenerationError
		if errors.As(err, &ge) {
			kind = string(ge.Kind)
		}
		return e.fail(ctx, log, p.ID, "generation failed", kind, err)
	}

	handle := p.GenerationHandle
	if h := strings.TrimSpace(result.Handle); h != "" {
		handle = &h
	}
	if err := e.prompts.SaveGeneration(ctx, p.ID, handle, result.Source); err != nil {
		return err
	}
	fields := map[string]any{}
	if handle != nil {
		fields["handle"] = *handle
	}
	e.events.Record(ctx, p.ID, domain.EventLevelInfo, "source received", fields)

	artifact, err := e.compile(ctx, result.Source)
	if err != nil {
		return e.fail(ctx, log, p.ID, "compilation failed", "compilation_failed", err)
	}

	slug := domain.PreviewSlug(p.ID)
	if p.PreviewSlug != nil && *p.PreviewSlug != "" {
		slug = *p.PreviewSlug
	}
	err = e.prompts.SaveBuildResult(ctx, p.ID, domain.BuildResult{
		Source:           result.Source,
		CompiledArtifact: artifact,
		PreviewSlug:      slug,
		SandboxConfig:    domain.NewSandboxConfig(e.now()),
	})
	if err != nil {
		return err
	}
	e.events.Record(ctx, p.ID, domain.EventLevelInfo, "ready", map[string]any{"slug": slug})
	log.Info().Str("slug", slug).Msg("worker: prompt ready")

	if e.mirror != nil {
		if _, err := e.mirror.WritePreview(ctx, slug, artifact); err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("worker: mirror preview failed")
		}
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, log zerolog.Logger, id, message, kind string, cause error) error {
	reason := domain.TruncateReason(cause.Error())
	log.Warn().Err(cause).Str("kind", kind).Msg("worker: " + message)
	if err := e.prompts.MarkFailed(ctx, id, reason); err != nil {
		return err
	}
	e.events.Record(ctx, id, domain.EventLevelError, message, map[string]any{"error": reason, "kind": kind})
	return nil
}

func (e *Engine) generate(ctx context.Context, p *domain.Prompt) (res *generation.Result, err error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	defer recoverAdapter("generator", &err)

	res, err = e.generator.Generate(callCtx, p.PromptText, p.GenerationHandle)
	if err == nil && (res == nil || res.Source == "") {
		err = &domain.GenerationError{Kind: domain.GenerationFailed, Msg: "generator returned no source"}
	}
	return res, err
}

func (e *Engine) compile(ctx context.Context, source string) (out string, err error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	defer recoverAdapter("compiler", &err)

	return e.compiler.Compile(callCtx, source)
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout > 0 {
		return context.WithTimeout(ctx, e.callTimeout)
	}
	return context.WithCancel(ctx)
}

func recoverAdapter(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", name, r)
	}
}
