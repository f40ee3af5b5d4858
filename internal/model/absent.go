package model

import (
	"context"

	"github.com/wayfarer-app/wayfarer/internal/errors"
)

// Absent is the resource used when no local runtime is configured.
type Absent struct{}

// Name returns "absent".
func (Absent) Name() string { return "absent" }

// Status always reports StatusAbsent.
func (Absent) Status(context.Context) Status { return StatusAbsent }

// NewSession always fails.
func (Absent) NewSession(string) (Session, error) {
	return nil, errors.Unavailable(errors.ReasonDeviceIneligible)
}
