package availability

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/model"
)

// scriptedResource returns the next status from a fixed list on each call.
type scriptedResource struct {
	statuses []model.Status
	calls    atomic.Int32
}

func (r *scriptedResource) Name() string { return "scripted" }

func (r *scriptedResource) Status(context.Context) model.Status {
	i := int(r.calls.Add(1)) - 1
	if i >= len(r.statuses) {
		i = len(r.statuses) - 1
	}
	return r.statuses[i]
}

func (r *scriptedResource) NewSession(string) (model.Session, error) { return nil, nil }

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status model.Status
		want   State
	}{
		{model.StatusReady, Ready},
		{model.StatusDisabled, Unavailable(errors.ReasonNotEnabled)},
		{model.StatusIneligible, Unavailable(errors.ReasonDeviceIneligible)},
		{model.StatusAbsent, Unavailable(errors.ReasonDeviceIneligible)},
		{model.StatusLoading, Unavailable(errors.ReasonNotReady)},
		{model.StatusOffline, Unavailable(errors.ReasonNotReady)},
		{model.StatusError, Unavailable(errors.ReasonUnknown)},
		{model.Status("quantum"), Unavailable(errors.ReasonUnknown)},
		{model.Status(""), Unavailable(errors.ReasonUnknown)},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatus(tt.status))
		})
	}
}

func TestCheck_NotCached(t *testing.T) {
	r := &scriptedResource{statuses: []model.Status{model.StatusLoading, model.StatusReady}}
	p := NewProbe(r)

	first := p.Check(context.Background())
	second := p.Check(context.Background())

	assert.NotEqual(t, first, second)
	assert.False(t, first.Available)
	assert.Equal(t, errors.ReasonNotReady, first.Reason)
	assert.True(t, second.Available)
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestStateErr(t *testing.T) {
	assert.NoError(t, Ready.Err())
	assert.Equal(t, "available", Ready.String())

	s := Unavailable(errors.ReasonNotEnabled)
	assert.Equal(t, "not_enabled", s.String())
	assert.ErrorIs(t, s.Err(), errors.Unavailable(errors.ReasonNotEnabled))
}

func TestCheck_Absent(t *testing.T) {
	p := NewProbe(model.Absent{})
	assert.Equal(t, Unavailable(errors.ReasonDeviceIneligible), p.Check(context.Background()))
}
