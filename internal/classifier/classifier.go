// Package classifier guesses note fields from the raw text.
//
// Matching is rule-based (keywords and regular expressions), instant and
// free. The result is only a hint for the model, which has the final word.
package classifier

import (
	"fmt"
	"strings"

	"github.com/wayfarer-app/wayfarer/pkg/journal"
)

// DefaultMinConfidence is the lowest confidence a category guess is reported at.
const DefaultMinConfidence = 0.7

// Hints are the fields recognized in a note.
type Hints struct {
	Category   journal.Category `json:"category,omitempty"`
	Confidence float64          `json:"confidence,omitempty"` // 0-1
	Cost       *float64         `json:"cost,omitempty"`
	Currency   string           `json:"currency,omitempty"` // ISO 4217 when known
	Rating     *int             `json:"rating,omitempty"`   // 1-5
	Place      string           `json:"place,omitempty"`
}

// Empty reports whether nothing was recognized.
func (h *Hints) Empty() bool {
	return h.Category == "" && h.Cost == nil && h.Rating == nil && h.Place == ""
}

// Lines renders the hints for a prompt, one fact per line.
func (h *Hints) Lines() []string {
	var lines []string
	if h.Category != "" {
		lines = append(lines, fmt.Sprintf("category looks like %s", h.Category))
	}
	if h.Place != "" {
		lines = append(lines, fmt.Sprintf("place mentioned: %s", h.Place))
	}
	if h.Cost != nil {
		amount := fmt.Sprintf("%.2f", *h.Cost)
		if h.Currency != "" {
			amount += " " + h.Currency
		}
		lines = append(lines, "amount spent: "+amount)
	}
	if h.Rating != nil {
		lines = append(lines, fmt.Sprintf("rating: %d/5", *h.Rating))
	}
	return lines
}

// Classifier matches notes against category patterns.
type Classifier struct {
	patterns      []*CategoryPattern
	minConfidence float64
}

// Config for classifier.
type Config struct {
	MinConfidence float64
}

// NewClassifier creates a classifier with the default patterns.
func NewClassifier(cfg *Config) *Classifier {
	if cfg == nil {
		cfg = &Config{MinConfidence: DefaultMinConfidence}
	}
	return &Classifier{
		patterns:      defaultPatterns(),
		minConfidence: cfg.MinConfidence,
	}
}

// Classify extracts hints from a sanitized note.
func (c *Classifier) Classify(note string) *Hints {
	h := &Hints{
		Place: extractPlace(note),
	}
	h.Cost, h.Currency = extractCost(note)
	h.Rating = extractRating(note)

	if p, conf := c.matchPatterns(note); p != nil && conf >= c.minConfidence {
		h.Category = p.Category
		h.Confidence = conf
	}
	return h
}

// matchPatterns returns the pattern with the most keyword hits.
// Ties go to the pattern declared first.
func (c *Classifier) matchPatterns(note string) (*CategoryPattern, float64) {
	msg := strings.ToLower(note)

	var best *CategoryPattern
	bestHits := 0
	for _, p := range c.patterns {
		if hits := p.Hits(msg); hits > bestHits {
			best, bestHits = p, hits
		}
	}
	if best == nil {
		return nil, 0
	}

	// every extra keyword adds a little certainty
	conf := best.Confidence + 0.05*float64(bestHits-1)
	return best, min(conf, 0.99)
}

// SetPatterns replaces the category patterns.
func (c *Classifier) SetPatterns(patterns []*CategoryPattern) {
	c.patterns = patterns
}

// AddPattern adds a category pattern.
func (c *Classifier) AddPattern(pattern *CategoryPattern) {
	c.patterns = append(c.patterns, pattern)
}
