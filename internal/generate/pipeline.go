// Package generate runs schema-constrained generations against the local
// model and turns the output into journal records.
//
// Every entry point follows the same sequence: take the session
// (single-flight), check the input, probe availability, ensure the session,
// call the model under the retry policy, then validate, normalize and
// decode the output.
package generate

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/wayfarer-app/wayfarer/internal/availability"
	"github.com/wayfarer-app/wayfarer/internal/classifier"
	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/history"
	"github.com/wayfarer-app/wayfarer/internal/metrics"
	"github.com/wayfarer-app/wayfarer/internal/model"
	"github.com/wayfarer-app/wayfarer/internal/prompt"
	"github.com/wayfarer-app/wayfarer/internal/sanitize"
	"github.com/wayfarer-app/wayfarer/internal/schema"
	"github.com/wayfarer-app/wayfarer/internal/session"
	"github.com/wayfarer-app/wayfarer/internal/stats"
)

// Recorder stores finished generations.
type Recorder interface {
	Append(ctx context.Context, r *history.Record) error
}

// Pipeline owns the session and runs the six recipes.
// It is safe for concurrent use; concurrent generations are rejected
// with AlreadyGenerating rather than queued.
type Pipeline struct {
	resource model.Resource
	probe    *availability.Probe
	sessions *session.Manager
	schemas  *schema.Registry
	prompts  *prompt.Builder
	policy   *errors.Policy
	notes    *classifier.Classifier
	maxInput int
	lang     language.Tag

	log       *zap.Logger
	metrics   *metrics.Metrics
	stats     *stats.Collector
	history   Recorder
	storeBody bool

	prewarmTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithStats enables in-process counters.
func WithStats(c *stats.Collector) Option {
	return func(p *Pipeline) { p.stats = c }
}

// WithHistory records every generation. With storeBody the input
// parameters and output record are kept as JSON.
func WithHistory(r Recorder, storeBody bool) Option {
	return func(p *Pipeline) {
		p.history = r
		p.storeBody = storeBody
	}
}

// WithPolicy replaces the default retry policy.
func WithPolicy(policy *errors.Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithPromptBuilder replaces the default system instruction builder.
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(p *Pipeline) { p.prompts = b }
}

// WithMaxInputLength caps free-text input in runes.
func WithMaxInputLength(n int) Option {
	return func(p *Pipeline) { p.maxInput = n }
}

// WithLanguage sets the language of user-facing error messages.
func WithLanguage(tag language.Tag) Option {
	return func(p *Pipeline) { p.lang = tag }
}

// WithPrewarmTimeout bounds background prewarming.
func WithPrewarmTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.prewarmTimeout = d }
}

// New creates a pipeline over resource. Use model.Open to obtain one.
func New(resource model.Resource, opts ...Option) *Pipeline {
	p := &Pipeline{
		resource: resource,
		probe:    availability.NewProbe(resource),
		schemas:  schema.Default(),
		prompts:  prompt.NewBuilder(prompt.ModeFull, ""),
		policy:   errors.DefaultPolicy(),
		notes:    classifier.NewClassifier(nil),
		maxInput: sanitize.DefaultMaxLength,
		lang:     language.English,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.policy == nil {
		p.policy = errors.DefaultPolicy()
	}

	sessOpts := []session.Option{session.WithLogger(p.log)}
	if p.prewarmTimeout > 0 {
		sessOpts = append(sessOpts, session.WithPrewarmTimeout(p.prewarmTimeout))
	}
	p.sessions = session.NewManager(resource, p.probe, sessOpts...)
	p.log = p.log.With(zap.String("component", "generate"), zap.String("resource", resource.Name()))
	return p
}

// CheckAvailability probes the resource. It is never cached.
func (p *Pipeline) CheckAvailability(ctx context.Context) availability.State {
	state := p.probe.Check(ctx)
	p.metrics.SetAvailability(state.String(), availabilityLabels)
	return state
}

// ResetSession discards the session so the next generation starts fresh.
// It fails with AlreadyGenerating while a generation is in flight.
func (p *Pipeline) ResetSession() error {
	return p.sessions.Reset()
}

// IsBusy reports whether a generation is in flight.
func (p *Pipeline) IsBusy() bool {
	return p.sessions.IsBusy()
}

// Prewarm creates and warms the session in the background.
func (p *Pipeline) Prewarm() {
	p.sessions.Prewarm(p.buildSystemPrompt())
}

// Wait blocks until background prewarming has finished.
func (p *Pipeline) Wait() {
	p.sessions.Wait()
}

// PresentError converts any error into its user-facing form.
func (p *Pipeline) PresentError(err error) errors.UserFacing {
	return errors.PresentIn(p.lang, err)
}

// SystemPrompt returns the instruction of the current session, or the one
// the next session would be created with.
func (p *Pipeline) SystemPrompt() string {
	if s := p.sessions.SystemPrompt(); s != "" {
		return s
	}
	return p.buildSystemPrompt()
}

// buildSystemPrompt is rebuilt for every new session so its date stays
// current across resets.
func (p *Pipeline) buildSystemPrompt() string {
	return p.prompts.BuildSystemPrompt(prompt.SystemContext{})
}

var availabilityLabels = []string{
	"available",
	errors.ReasonNotEnabled.String(),
	errors.ReasonDeviceIneligible.String(),
	errors.ReasonNotReady.String(),
	errors.ReasonUnknown.String(),
}

// ============================================================
// Generic run
// ============================================================

// recipe describes one kind of generation.
type recipe[T any] struct {
	name   string
	schema schema.ID

	// input is recorded in history
	input any

	// prepare checks parameters and returns the user prompt. It runs
	// after the session is taken and before the resource is touched.
	prepare func() (string, error)

	// finish fills fields that come from the request rather than the model
	finish func(*T)
}

// outcome is what one run reports to observers.
type outcome struct {
	attempts int
	tokens   int
	model    string
	output   any
}

func run[T any](ctx context.Context, p *Pipeline, rc recipe[T]) (result *T, err error) {
	start := time.Now()
	var out outcome
	defer func() {
		p.observe(rc.name, rc.input, start, out, err)
	}()

	release, err := p.sessions.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if p.metrics != nil {
		p.metrics.InFlight.Set(1)
		defer p.metrics.InFlight.Set(0)
	}

	userPrompt, err := rc.prepare()
	if err != nil {
		return nil, err
	}

	if err := p.CheckAvailability(ctx).Err(); err != nil {
		return nil, err
	}

	unhold, err := p.sessions.Hold(ctx)
	if err != nil {
		return nil, err
	}
	defer unhold()

	sess, err := p.sessions.Ensure(ctx, p.buildSystemPrompt())
	if err != nil {
		return nil, err
	}

	s := p.schemas.MustGet(rc.schema)
	req := &model.Request{
		Prompt: userPrompt,
		Format: &model.Format{Name: string(s.ID), Schema: s.Generation()},
	}

	policy := *p.policy
	policy.OnRetry = func(attempt int, err error) {
		p.log.Warn("retrying generation",
			zap.String("recipe", rc.name),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if p.policy.OnRetry != nil {
			p.policy.OnRetry(attempt, err)
		}
	}

	resp, err := errors.Do(ctx, &policy, func(ctx context.Context) (*model.Response, error) {
		out.attempts++
		return sess.Respond(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	out.tokens = resp.TokensUsed
	out.model = resp.Model

	doc, err := s.Decode(resp.Text)
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, &errors.Error{Kind: errors.KindOutputValidationFailed, Detail: "malformed output", Inner: err}
	}
	if rc.finish != nil {
		rc.finish(&v)
	}

	out.output = &v
	return &v, nil
}

// observe reports a finished run to logs, metrics, stats and history.
func (p *Pipeline) observe(name string, input any, start time.Time, out outcome, err error) {
	took := time.Since(start)

	code := "ok"
	status := history.StatusOK
	var detail string
	if err != nil {
		e := errors.Classify(err)
		code = e.Kind.String()
		status = history.StatusFailed
		detail = e.Error()
	}

	fields := []zap.Field{
		zap.String("recipe", name),
		zap.String("outcome", code),
		zap.Int("attempts", out.attempts),
		zap.Duration("took", took),
	}
	if err != nil {
		p.log.Info("generation failed", append(fields, zap.Error(err))...)
	} else {
		p.log.Info("generation complete", append(fields, zap.Int("tokens", out.tokens))...)
	}

	p.metrics.ObserveGeneration(name, code, out.attempts, took)

	if p.stats != nil {
		errCode := ""
		if err != nil {
			errCode = code
		}
		p.stats.RecordRequest(name, out.attempts, out.tokens, took, errCode)
	}

	if p.history == nil {
		return
	}
	rec := &history.Record{
		Recipe:      name,
		Status:      status,
		ErrorDetail: detail,
		Attempts:    out.attempts,
		TokensUsed:  out.tokens,
		DurationMs:  took.Milliseconds(),
		Model:       out.model,
	}
	if err != nil {
		rec.ErrorCode = code
	}
	if p.storeBody {
		rec.InputJSON = marshal(input)
		rec.OutputJSON = marshal(out.output)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if herr := p.history.Append(ctx, rec); herr != nil {
		p.log.Warn("record generation", zap.Error(herr))
	}
}

func marshal(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
