package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/storefront/internal/model"
)

// Phase names.
const (
	PhaseEager   = "eager"
	PhaseLazy    = "lazy"
	PhaseDelayed = "delayed"
)

// Step is one unit of work in a lifecycle phase.
//
// Design decision: an interface with Name rather than a bare function lets
// steps carry their own state and gives every log line and phase report a
// stable step name.
type Step interface {
	// Do runs the step. A returned error is recorded in the phase result;
	// whether the phase continues depends on the pipeline.
	Do(ctx context.Context, page *Page) error

	// Name returns the step name used in logs and reports.
	Name() string
}

// StepFunc adapts a function to Step.
type StepFunc struct {
	name string
	fn   func(ctx context.Context, page *Page) error
}

// NewStep returns a Step that runs fn.
func NewStep(name string, fn func(ctx context.Context, page *Page) error) StepFunc {
	return StepFunc{name: name, fn: fn}
}

// Do implements Step.
func (s StepFunc) Do(ctx context.Context, page *Page) error {
	return s.fn(ctx, page)
}

// Name implements Step.
func (s StepFunc) Name() string {
	return s.name
}

// Pipeline runs the steps of one phase in order and records the outcome
// as a PhaseResult in the page report.
type Pipeline struct {
	phase           string
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later steps after a step fails.
//
// Design decision: lifecycle phases always set this. A failing header or
// font load must not keep the rest of the page from becoming ready; only
// context cancellation stops a phase.
func WithContinueOnError(continueOnError bool) PipelineOption {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// NewPipeline creates an empty pipeline for the named phase.
func NewPipeline(phase string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		phase: phase,
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order.
//
// Cancellation is checked between steps; a step in progress handles its
// own context. Execute returns the context error on cancellation, the
// first step error when continueOnError is off, and nil otherwise. The
// phase result is recorded in every case.
func (p *Pipeline) Execute(ctx context.Context, page *Page) error {
	start := time.Now()
	result := model.PhaseResult{Name: p.phase, Steps: make([]string, 0, len(p.steps))}
	defer func() {
		result.Duration = time.Since(start)
		page.Report.AddPhase(result)
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("phase cancelled",
				"phase", p.phase,
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"phase", p.phase,
			"step", step.Name(),
			"url", page.Report.URL,
		)

		if err := step.Do(ctx, page); err != nil {
			p.logger.Warn("step failed",
				"phase", p.phase,
				"step", step.Name(),
				"url", page.Report.URL,
				"error", err,
			)
			result.Errors = append(result.Errors, step.Name()+": "+err.Error())
			result.Steps = append(result.Steps, step.Name())
			if !p.continueOnError {
				return err
			}
			continue
		}
		result.Steps = append(result.Steps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Phase returns the phase name.
func (p *Pipeline) Phase() string {
	return p.phase
}
