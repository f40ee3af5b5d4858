// Package model provides the generative resource interfaces and backends.
//
// A Resource is the local inference capability. It reports a low-level
// Status and hands out Sessions, each bound to one system instruction for
// its whole lifetime.
package model

import "context"

// Resource represents the on-device generative capability.
type Resource interface {
	// Name returns the resource identifier.
	Name() string

	// Status reports current readiness. It must not cache.
	Status(ctx context.Context) Status

	// NewSession opens a session bound to systemPrompt.
	NewSession(systemPrompt string) (Session, error)
}

// Session is a stateful handle carrying a fixed system instruction.
// A session must not be used by two generations at once.
type Session interface {
	// Respond runs one schema-constrained generation.
	Respond(ctx context.Context, req *Request) (*Response, error)
}

// Prewarmer is implemented by sessions that can load state ahead of use.
type Prewarmer interface {
	Prewarm(ctx context.Context) error
}
