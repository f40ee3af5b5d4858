// Package session owns the single session handle to the generative resource.
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wayfarer-app/wayfarer/internal/availability"
	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/model"
)

const defaultPrewarmTimeout = 30 * time.Second

// Manager lazily creates one session, enforces single-flight use of it and
// recreates it after Reset.
//
// The busy flag is the caller-facing guard: a second generation or reset
// fails fast while it is held. slot serializes actual use of the session
// between the caller holding busy and a background prewarm, so a prewarm
// delays the first generation instead of rejecting it. mu only protects the
// session pointer itself.
type Manager struct {
	resource model.Resource
	probe    *availability.Probe
	log      *zap.Logger

	busy atomic.Bool
	slot chan struct{}

	mu      sync.Mutex
	current model.Session
	system  string
	created time.Time

	prewarmTimeout time.Duration
	wg             sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithPrewarmTimeout bounds each background prewarm.
func WithPrewarmTimeout(d time.Duration) Option {
	return func(m *Manager) { m.prewarmTimeout = d }
}

// NewManager creates a manager over resource.
func NewManager(resource model.Resource, probe *availability.Probe, opts ...Option) *Manager {
	m := &Manager{
		resource:       resource,
		probe:          probe,
		log:            zap.NewNop(),
		slot:           make(chan struct{}, 1),
		prewarmTimeout: defaultPrewarmTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("component", "session"))
	return m
}

// Ensure returns the current session, creating it with systemPrompt when
// there is none. An existing session keeps the prompt it was created with.
func (m *Manager) Ensure(ctx context.Context, systemPrompt string) (model.Session, error) {
	if err := m.probe.Check(ctx).Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	s, err := m.resource.NewSession(systemPrompt)
	if err != nil {
		if errors.IsKind(err, errors.KindResourceUnavailable) {
			return nil, err
		}
		return nil, errors.SessionNotReady(err)
	}
	if s == nil {
		return nil, errors.SessionNotReady(nil)
	}

	m.current = s
	m.system = systemPrompt
	m.created = time.Now()
	m.log.Debug("session created", zap.String("resource", m.resource.Name()))
	return s, nil
}

// Acquire marks the session busy. The returned release is idempotent.
// It fails with AlreadyGenerating if another generation holds the session.
func (m *Manager) Acquire() (release func(), err error) {
	if !m.busy.CompareAndSwap(false, true) {
		return nil, errors.AlreadyGenerating()
	}
	var once sync.Once
	return func() {
		once.Do(func() { m.busy.Store(false) })
	}, nil
}

// IsBusy reports whether a generation is in flight.
func (m *Manager) IsBusy() bool {
	return m.busy.Load()
}

// Hold waits until no prewarm is using the session and takes it. Callers
// hold the busy flag first; the wait ends early with Cancelled or Timeout
// when ctx is done.
func (m *Manager) Hold(ctx context.Context) (release func(), err error) {
	select {
	case m.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.FromContext(ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-m.slot })
	}, nil
}

// HasSession reports whether a session currently exists.
func (m *Manager) HasSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// SystemPrompt returns the instruction the current session was created with.
func (m *Manager) SystemPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.system
}

// Reset discards the current session. It refuses with AlreadyGenerating
// while a generation is in flight, holding the busy flag itself so no
// generation can start halfway through. A running prewarm is waited for.
func (m *Manager) Reset() error {
	release, err := m.Acquire()
	if err != nil {
		return err
	}
	defer release()

	// a running prewarm ends within prewarmTimeout
	m.slot <- struct{}{}
	defer func() { <-m.slot }()

	m.mu.Lock()
	old := m.current
	age := time.Since(m.created)
	m.current = nil
	m.system = ""
	m.created = time.Time{}
	m.mu.Unlock()

	if old == nil {
		return nil
	}
	if c, ok := old.(io.Closer); ok {
		if err := c.Close(); err != nil {
			m.log.Debug("close session", zap.Error(err))
		}
	}
	m.log.Debug("session reset", zap.Duration("age", age))
	return nil
}

// Prewarm creates the session in the background and, when the session
// supports it, loads its state ahead of the first request. It never blocks
// and never reports failures. It does not take the busy flag: a generation
// that starts meanwhile waits in Hold for the prewarm to finish. A prewarm
// requested while a generation is in flight is skipped.
func (m *Manager) Prewarm(systemPrompt string) {
	if m.IsBusy() {
		m.log.Debug("prewarm skipped", zap.String("reason", "generation in flight"))
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.prewarmTimeout)
		defer cancel()

		select {
		case m.slot <- struct{}{}:
		default:
			m.log.Debug("prewarm skipped", zap.String("reason", "session in use"))
			return
		}
		defer func() { <-m.slot }()

		s, err := m.Ensure(ctx, systemPrompt)
		if err != nil {
			m.log.Debug("prewarm failed", zap.Error(err))
			return
		}

		p, ok := s.(model.Prewarmer)
		if !ok {
			return
		}
		start := time.Now()
		if err := p.Prewarm(ctx); err != nil {
			m.log.Debug("prewarm failed", zap.Error(err))
			return
		}
		m.log.Debug("prewarm complete", zap.Duration("took", time.Since(start)))
	}()
}

// Wait blocks until all outstanding prewarms have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
