package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/generate"
	"github.com/wayfarer-app/wayfarer/internal/metrics"
	"github.com/wayfarer-app/wayfarer/internal/model"
	"github.com/wayfarer-app/wayfarer/internal/ratelimit"
	"github.com/wayfarer-app/wayfarer/internal/stats"
)

const noteJSON = `{"category": "food", "place_name": "Enzo", "rating": 4, "summary": "Great carbonara.", "tags": ["pasta"]}`

type fakeResource struct {
	status model.Status
	text   string
}

func (r *fakeResource) Name() string                             { return "fake" }
func (r *fakeResource) Status(context.Context) model.Status      { return r.status }
func (r *fakeResource) NewSession(string) (model.Session, error) { return r, nil }

func (r *fakeResource) Respond(context.Context, *model.Request) (*model.Response, error) {
	return &model.Response{Text: r.text, TokensUsed: 10}, nil
}

type fixture struct {
	srv     *httptest.Server
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, status model.Status, limiter ratelimit.Limiter) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := stats.NewCollector()

	p := generate.New(&fakeResource{status: status, text: noteJSON},
		generate.WithLogger(log),
		generate.WithMetrics(m),
		generate.WithStats(st))

	s := New(p, Config{Limiter: limiter, Gatherer: reg, Metrics: m, Stats: st, Log: log})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, metrics: m}
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	b, _ := io.ReadAll(resp.Body)
	if len(b) > 0 {
		require.NoError(t, json.Unmarshal(b, &out), string(b))
	}
	return resp, out
}

func TestGenerateNote(t *testing.T) {
	f := newFixture(t, model.StatusReady, nil)

	resp, out := f.post(t, "/v1/generate/structured_note", `{"text": "carbonara at Enzo, 4 stars"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "food", out["category"])
	assert.Equal(t, "Enzo", out["place_name"])
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status model.Status
		path   string
		body   string
		code   int
		kind   string
	}{
		{"empty note", model.StatusReady, "/v1/generate/structured_note", `{"text": "  "}`,
			http.StatusUnprocessableEntity, "OUTPUT_VALIDATION_FAILED"},
		{"malformed body", model.StatusReady, "/v1/generate/itinerary", `{"days": "three"}`,
			http.StatusUnprocessableEntity, "OUTPUT_VALIDATION_FAILED"},
		{"disabled", model.StatusDisabled, "/v1/generate/briefing", `{"destination": "Oslo"}`,
			http.StatusServiceUnavailable, "RESOURCE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.status, nil)
			resp, out := f.post(t, tt.path, tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.kind, out["code"])
			uf, ok := out["error"].(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, uf["title"])
		})
	}
}

func TestUnknownRecipe(t *testing.T) {
	f := newFixture(t, model.StatusReady, nil)
	resp, _ := f.post(t, "/v1/generate/poem", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimited(t *testing.T) {
	f := newFixture(t, model.StatusReady, ratelimit.NewWindow(1, time.Minute, nil))

	resp, _ := f.post(t, "/v1/generate/structured_note", `{"text": "one"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := f.post(t, "/v1/generate/structured_note", `{"text": "two"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", out["code"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RateLimited))
}

func TestHealth(t *testing.T) {
	for status, want := range map[model.Status]int{
		model.StatusReady:   http.StatusOK,
		model.StatusLoading: http.StatusServiceUnavailable,
	} {
		f := newFixture(t, status, nil)
		resp, err := http.Get(f.srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, status)
	}
}

func TestMetricsAndStats(t *testing.T) {
	f := newFixture(t, model.StatusReady, nil)
	f.post(t, "/v1/generate/structured_note", `{"text": "note"}`)

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(b), `wayfarer_generations_total{outcome="ok",recipe="structured_note"} 1`)

	resp, err = http.Get(f.srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.EqualValues(t, 1, snap["request_count"])
}

func TestReset(t *testing.T) {
	f := newFixture(t, model.StatusReady, nil)
	resp, _ := f.post(t, "/v1/session/reset", ``)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	for _, k := range errors.Kinds() {
		assert.GreaterOrEqual(t, StatusFor(k), 400, k.String())
	}
	assert.Equal(t, http.StatusConflict, StatusFor(errors.KindAlreadyGenerating))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(errors.KindTimeout))
}
