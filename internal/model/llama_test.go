package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-app/wayfarer/internal/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *LlamaClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultLlamaConfig()
	cfg.BaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewLlamaClient(cfg)
}

func TestLlamaStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want Status
	}{
		{"ok", http.StatusOK, StatusReady},
		{"loading", http.StatusServiceUnavailable, StatusLoading},
		{"teapot", http.StatusTeapot, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.code)
			})
			assert.Equal(t, tt.want, c.Status(context.Background()))
		})
	}
}

func TestLlamaStatus_Offline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultLlamaConfig()
	cfg.BaseURL = url
	assert.Equal(t, StatusOffline, NewLlamaClient(cfg).Status(context.Background()))
}

func TestLlamaStatus_DisabledAndIneligible(t *testing.T) {
	cfg := DefaultLlamaConfig()
	cfg.Enabled = false
	c := NewLlamaClient(cfg)
	assert.Equal(t, StatusDisabled, c.Status(context.Background()))

	_, err := c.NewSession("sys")
	assert.ErrorIs(t, err, errors.Unavailable(errors.ReasonNotEnabled))

	c = NewLlamaClient(DefaultLlamaConfig())
	c.is64Bit = func() bool { return false }
	assert.Equal(t, StatusIneligible, c.Status(context.Background()))
}

func TestLlamaRespond(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"model": "qwen",
			"choices": [{"index":0,"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"},"finish_reason":"stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	s, err := c.NewSession("You are a travel assistant.")
	require.NoError(t, err)

	resp, err := s.Respond(context.Background(), &Request{
		Prompt: "Structure this note",
		Format: &Format{Name: "note", Schema: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, resp.Text)
	assert.Equal(t, 15, resp.TokensUsed)
	assert.Equal(t, "qwen", resp.Model)

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "You are a travel assistant.", msgs[0].(map[string]any)["content"])

	rf := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	assert.Equal(t, "note", rf["json_schema"].(map[string]any)["name"])
}

func TestLlamaRespond_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   string
		kind   errors.Kind
		reason errors.Reason
	}{
		{"context", http.StatusBadRequest,
			`{"error":{"code":400,"message":"request exceeds the available context size","type":"exceed_context_size_error"}}`,
			errors.KindContextTooLarge, errors.ReasonUnknown},
		{"language", http.StatusBadRequest,
			`{"error":{"code":400,"message":"Unsupported language: tlh"}}`,
			errors.KindUnsupportedLanguage, errors.ReasonUnknown},
		{"loading", http.StatusServiceUnavailable,
			`{"error":{"code":503,"message":"Loading model","type":"unavailable_error"}}`,
			errors.KindResourceUnavailable, errors.ReasonNotReady},
		{"server", http.StatusInternalServerError, `boom`,
			errors.KindGenerationFailed, errors.ReasonUnknown},
		{"filtered", http.StatusOK,
			`{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`,
			errors.KindContentPolicyViolation, errors.ReasonUnknown},
		{"length", http.StatusOK,
			`{"choices":[{"message":{"content":"{"},"finish_reason":"length"}]}`,
			errors.KindGenerationFailed, errors.ReasonUnknown},
		{"empty", http.StatusOK, `{"choices":[]}`,
			errors.KindGenerationFailed, errors.ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			})
			s, err := c.NewSession("sys")
			require.NoError(t, err)

			_, err = s.Respond(context.Background(), &Request{Prompt: "p"})
			require.Error(t, err)
			e := errors.Classify(err)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.reason, e.Reason)
		})
	}
}

func TestLlamaRespond_Cancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	s, err := c.NewSession("sys")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Respond(ctx, &Request{Prompt: "p"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLlamaPrewarm(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completion", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"content":""}`)
	})

	s, err := c.NewSession("persona")
	require.NoError(t, err)

	p, ok := s.(Prewarmer)
	require.True(t, ok)
	require.NoError(t, p.Prewarm(context.Background()))
	assert.Equal(t, "persona", got["prompt"])
	assert.EqualValues(t, 0, got["n_predict"])
}

func TestOpen(t *testing.T) {
	assert.IsType(t, Absent{}, Open(nil))
	assert.IsType(t, Absent{}, Open(&LlamaConfig{BaseURL: "  "}))
	assert.IsType(t, &LlamaClient{}, Open(DefaultLlamaConfig()))

	a := Absent{}
	assert.Equal(t, StatusAbsent, a.Status(context.Background()))
	_, err := a.NewSession("x")
	assert.ErrorIs(t, err, errors.Unavailable(errors.ReasonDeviceIneligible))
}
