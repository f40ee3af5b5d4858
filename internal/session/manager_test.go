package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-app/wayfarer/internal/availability"
	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSession struct {
	system   string
	closed   atomic.Bool
	prewarms atomic.Int32
	warmErr  error

	// when set, Prewarm signals started and blocks until gate closes
	started chan struct{}
	gate    chan struct{}
}

func (s *fakeSession) Respond(context.Context, *model.Request) (*model.Response, error) {
	return &model.Response{Text: "{}"}, nil
}

func (s *fakeSession) Prewarm(ctx context.Context) error {
	s.prewarms.Add(1)
	if s.gate != nil {
		close(s.started)
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.warmErr
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeResource struct {
	mu      sync.Mutex
	status  model.Status
	created []*fakeSession
	newErr  error
	warmErr error
	started chan struct{}
	gate    chan struct{}
}

func (r *fakeResource) Name() string { return "fake" }

func (r *fakeResource) Status(context.Context) model.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *fakeResource) NewSession(system string) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.newErr != nil {
		return nil, r.newErr
	}
	s := &fakeSession{system: system, warmErr: r.warmErr, started: r.started, gate: r.gate}
	r.created = append(r.created, s)
	return s, nil
}

func (r *fakeResource) sessions() []*fakeSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeSession(nil), r.created...)
}

func newManager(t *testing.T, r *fakeResource) *Manager {
	return NewManager(r, availability.NewProbe(r), WithLogger(zaptest.NewLogger(t)))
}

func TestEnsure_CreatesOnceAndKeepsPrompt(t *testing.T) {
	r := &fakeResource{status: model.StatusReady}
	m := newManager(t, r)
	ctx := context.Background()

	s1, err := m.Ensure(ctx, "persona A")
	require.NoError(t, err)
	s2, err := m.Ensure(ctx, "persona B")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	require.Len(t, r.sessions(), 1)
	assert.Equal(t, "persona A", r.sessions()[0].system)
	assert.Equal(t, "persona A", m.SystemPrompt())
}

func TestEnsure_Unavailable(t *testing.T) {
	tests := []struct {
		status model.Status
		reason errors.Reason
	}{
		{model.StatusDisabled, errors.ReasonNotEnabled},
		{model.StatusAbsent, errors.ReasonDeviceIneligible},
		{model.StatusLoading, errors.ReasonNotReady},
		{model.Status("weird"), errors.ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := &fakeResource{status: tt.status}
			m := newManager(t, r)

			_, err := m.Ensure(context.Background(), "sys")
			e := errors.Classify(err)
			require.NotNil(t, e)
			assert.Equal(t, errors.KindResourceUnavailable, e.Kind)
			assert.Equal(t, tt.reason, e.Reason)
			assert.Empty(t, r.sessions())
		})
	}
}

func TestEnsure_CreationFailure(t *testing.T) {
	r := &fakeResource{status: model.StatusReady, newErr: fmt.Errorf("kv cache allocation failed")}
	m := newManager(t, r)

	_, err := m.Ensure(context.Background(), "sys")
	assert.Equal(t, errors.KindSessionNotReady, errors.KindOf(err))
	assert.False(t, m.HasSession())

	r.newErr = errors.Unavailable(errors.ReasonNotEnabled)
	_, err = m.Ensure(context.Background(), "sys")
	assert.ErrorIs(t, err, errors.Unavailable(errors.ReasonNotEnabled))
}

func TestAcquire_SingleFlight(t *testing.T) {
	m := newManager(t, &fakeResource{status: model.StatusReady})

	release, err := m.Acquire()
	require.NoError(t, err)
	assert.True(t, m.IsBusy())

	_, err = m.Acquire()
	assert.ErrorIs(t, err, errors.ErrAlreadyGenerating)

	release()
	release()
	assert.False(t, m.IsBusy())

	release2, err := m.Acquire()
	require.NoError(t, err)
	release2()
}

func TestAcquire_Concurrent(t *testing.T) {
	m := newManager(t, &fakeResource{status: model.StatusReady})

	const n = 32
	var won atomic.Int32
	start := make(chan struct{})
	hold := make(chan struct{})

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			<-start
			release, err := m.Acquire()
			if err != nil {
				if !errors.IsKind(err, errors.KindAlreadyGenerating) {
					return err
				}
				return nil
			}
			won.Add(1)
			<-hold
			release()
			return nil
		})
	}

	close(start)
	assert.Eventually(t, func() bool { return won.Load() == 1 }, time.Second, time.Millisecond)
	close(hold)
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, won.Load())
}

func TestReset(t *testing.T) {
	r := &fakeResource{status: model.StatusReady}
	m := newManager(t, r)
	ctx := context.Background()

	require.NoError(t, m.Reset())

	_, err := m.Ensure(ctx, "first")
	require.NoError(t, err)
	require.NoError(t, m.Reset())
	assert.False(t, m.HasSession())
	assert.True(t, r.sessions()[0].closed.Load())

	_, err = m.Ensure(ctx, "second")
	require.NoError(t, err)
	require.Len(t, r.sessions(), 2)
	assert.Equal(t, "second", r.sessions()[1].system)
	assert.False(t, m.IsBusy())
}

func TestReset_WhileBusy(t *testing.T) {
	r := &fakeResource{status: model.StatusReady}
	m := newManager(t, r)

	_, err := m.Ensure(context.Background(), "sys")
	require.NoError(t, err)

	release, err := m.Acquire()
	require.NoError(t, err)

	err = m.Reset()
	assert.ErrorIs(t, err, errors.ErrAlreadyGenerating)
	assert.True(t, m.HasSession())

	release()
	assert.NoError(t, m.Reset())
}

func TestPrewarm(t *testing.T) {
	r := &fakeResource{status: model.StatusReady}
	m := newManager(t, r)

	m.Prewarm("persona")
	m.Wait()

	require.Len(t, r.sessions(), 1)
	assert.EqualValues(t, 1, r.sessions()[0].prewarms.Load())
	assert.False(t, m.IsBusy())
}

func TestPrewarm_SwallowsErrors(t *testing.T) {
	r := &fakeResource{status: model.StatusLoading}
	m := newManager(t, r)
	m.Prewarm("persona")
	m.Wait()
	assert.False(t, m.HasSession())

	r = &fakeResource{status: model.StatusReady, warmErr: fmt.Errorf("slot busy")}
	m = newManager(t, r)
	m.Prewarm("persona")
	m.Wait()
	assert.True(t, m.HasSession())
	assert.False(t, m.IsBusy())
}

func TestPrewarm_SkipsWhileBusy(t *testing.T) {
	r := &fakeResource{status: model.StatusReady}
	m := newManager(t, r)

	release, err := m.Acquire()
	require.NoError(t, err)
	m.Prewarm("persona")
	m.Wait()
	release()

	assert.Empty(t, r.sessions())
}

func TestPrewarm_DoesNotRejectCallers(t *testing.T) {
	r := &fakeResource{
		status:  model.StatusReady,
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	m := newManager(t, r)

	m.Prewarm("persona")
	<-r.started
	assert.False(t, m.IsBusy())

	release, err := m.Acquire()
	require.NoError(t, err)
	defer release()

	held := make(chan error, 1)
	go func() {
		unhold, err := m.Hold(context.Background())
		if err == nil {
			unhold()
		}
		held <- err
	}()

	select {
	case <-held:
		t.Fatal("Hold returned while prewarm was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(r.gate)
	require.NoError(t, <-held)
	m.Wait()
	assert.EqualValues(t, 1, r.sessions()[0].prewarms.Load())
}

func TestHold_RespectsContext(t *testing.T) {
	r := &fakeResource{
		status:  model.StatusReady,
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	m := newManager(t, r)
	m.Prewarm("persona")
	<-r.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Hold(ctx)
	assert.ErrorIs(t, err, errors.ErrCancelled)

	close(r.gate)
	m.Wait()
}

func TestReset_WaitsForPrewarm(t *testing.T) {
	r := &fakeResource{
		status:  model.StatusReady,
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	m := newManager(t, r)
	m.Prewarm("persona")
	<-r.started

	done := make(chan error, 1)
	go func() { done <- m.Reset() }()

	select {
	case <-done:
		t.Fatal("Reset returned while prewarm was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(r.gate)
	require.NoError(t, <-done)
	m.Wait()
	assert.False(t, m.HasSession())
	assert.True(t, r.sessions()[0].closed.Load())
}

func TestHold_Release(t *testing.T) {
	m := newManager(t, &fakeResource{status: model.StatusReady})

	unhold, err := m.Hold(context.Background())
	require.NoError(t, err)
	unhold()
	unhold()

	unhold, err = m.Hold(context.Background())
	require.NoError(t, err)
	unhold()
}
