// Package stats provides in-process generation statistics for Wayfarer.
package stats

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Collector collects and tracks generation statistics. It is safe for
// concurrent use.
type Collector struct {
	mu sync.Mutex

	startTime     time.Time
	requestCount  int64
	attemptCount  int64
	tokenCount    int64
	errorCount    int64
	totalDuration int64 // nanoseconds

	byRecipe map[string]*RecipeStats
	byError  map[string]int64
}

// RecipeStats are the counters of one recipe.
type RecipeStats struct {
	Recipe       string  `json:"recipe"`
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	Attempts     int64   `json:"attempts"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	totalDuration int64
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		byRecipe:  make(map[string]*RecipeStats),
		byError:   make(map[string]int64),
	}
}

// Stats represents generation statistics at a point in time.
type Stats struct {
	// Process
	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	Uptime      string  `json:"uptime"`

	// Generation
	RequestCount int64            `json:"request_count"`
	AttemptCount int64            `json:"attempt_count"`
	TokenCount   int64            `json:"token_count"`
	ErrorCount   int64            `json:"error_count"`
	AvgLatencyMs float64          `json:"avg_latency_ms"`
	Recipes      []RecipeStats    `json:"recipes"`
	Errors       map[string]int64 `json:"errors,omitempty"`
}

// Collect returns current statistics.
func (c *Collector) Collect() *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.Lock()
	defer c.mu.Unlock()

	recipes := make([]RecipeStats, 0, len(c.byRecipe))
	for _, r := range c.byRecipe {
		rs := *r
		rs.AvgLatencyMs = avgMs(r.totalDuration, r.Requests)
		recipes = append(recipes, rs)
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Recipe < recipes[j].Recipe })

	errs := make(map[string]int64, len(c.byError))
	for k, v := range c.byError {
		errs[k] = v
	}

	return &Stats{
		Goroutines:   runtime.NumGoroutine(),
		HeapAllocMB:  bytesToMB(int64(m.HeapAlloc)),
		Uptime:       time.Since(c.startTime).Round(time.Second).String(),
		RequestCount: c.requestCount,
		AttemptCount: c.attemptCount,
		TokenCount:   c.tokenCount,
		ErrorCount:   c.errorCount,
		AvgLatencyMs: avgMs(c.totalDuration, c.requestCount),
		Recipes:      recipes,
		Errors:       errs,
	}
}

// RecordRequest records a completed generation. errCode is empty on success.
func (c *Collector) RecordRequest(recipe string, attempts, tokens int, duration time.Duration, errCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.byRecipe[recipe]
	if !ok {
		r = &RecipeStats{Recipe: recipe}
		c.byRecipe[recipe] = r
	}

	c.requestCount++
	c.attemptCount += int64(attempts)
	c.tokenCount += int64(tokens)
	c.totalDuration += duration.Nanoseconds()

	r.Requests++
	r.Attempts += int64(attempts)
	r.totalDuration += duration.Nanoseconds()

	if errCode != "" {
		c.errorCount++
		r.Errors++
		c.byError[errCode]++
	}
}

// GetMetrics returns the global counters.
func (c *Collector) GetMetrics() (requests, tokens, errors int64, totalDuration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount, c.tokenCount, c.errorCount, time.Duration(c.totalDuration)
}

func avgMs(totalNanos, n int64) float64 {
	if n == 0 {
		return 0
	}
	return float64(totalNanos) / float64(n) / 1e6
}

// bytesToMB converts bytes to megabytes.
func bytesToMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
