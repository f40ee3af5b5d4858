// Package availability reports whether the generative resource can be used now.
package availability

import (
	"context"

	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/model"
)

// State is the result of one availability probe.
type State struct {
	Available bool
	Reason    errors.Reason // zero when Available
}

// Ready is the available state.
var Ready = State{Available: true}

// Unavailable returns a not-available state with reason.
func Unavailable(reason errors.Reason) State {
	return State{Reason: reason}
}

// String returns "available" or the unavailability reason.
func (s State) String() string {
	if s.Available {
		return "available"
	}
	return s.Reason.String()
}

// Err returns nil when available, otherwise a ResourceUnavailable error.
func (s State) Err() error {
	if s.Available {
		return nil
	}
	return errors.Unavailable(s.Reason)
}

// Probe queries a resource on every call. It keeps no state.
type Probe struct {
	resource model.Resource
}

// NewProbe creates a probe over resource.
func NewProbe(resource model.Resource) *Probe {
	return &Probe{resource: resource}
}

// Check reports the current state of the resource.
func (p *Probe) Check(ctx context.Context) State {
	return FromStatus(p.resource.Status(ctx))
}

// FromStatus maps a low-level status to a state. Every status maps to
// exactly one state; unrecognized values are Unknown.
func FromStatus(s model.Status) State {
	switch s {
	case model.StatusReady:
		return Ready
	case model.StatusDisabled:
		return Unavailable(errors.ReasonNotEnabled)
	case model.StatusIneligible, model.StatusAbsent:
		return Unavailable(errors.ReasonDeviceIneligible)
	case model.StatusLoading, model.StatusOffline:
		return Unavailable(errors.ReasonNotReady)
	default:
		return Unavailable(errors.ReasonUnknown)
	}
}
