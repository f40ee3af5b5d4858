// Package model provides types for generative resource operations.
package model

// Status is the low-level readiness code reported by a resource.
// Callers map it to an availability reason; unknown values are legal.
type Status string

const (
	StatusReady      Status = "ready"      // Can be invoked now
	StatusDisabled   Status = "disabled"   // Turned off by config or user
	StatusIneligible Status = "ineligible" // Platform cannot run the model
	StatusAbsent     Status = "absent"     // No resource configured at all
	StatusLoading    Status = "loading"    // Model still downloading or loading
	StatusOffline    Status = "offline"    // Runtime not reachable yet
	StatusError      Status = "error"      // Runtime answered with something unexpected
)

// Format constrains the output to a JSON schema.
type Format struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// Request represents a generation request.
type Request struct {
	Prompt      string  `json:"prompt"`
	Format      *Format `json:"format,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Response represents a generation response.
type Response struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model"`
	DurationMs int64  `json:"duration_ms"`
}
