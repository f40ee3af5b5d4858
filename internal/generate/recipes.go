package generate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/prompt"
	"github.com/wayfarer-app/wayfarer/internal/sanitize"
	"github.com/wayfarer-app/wayfarer/internal/schema"
	"github.com/wayfarer-app/wayfarer/pkg/journal"
)

const (
	// MinDays and MaxDays bound every trip length sent to the model.
	MinDays = 1
	MaxDays = 30

	maxNameLength = 200
)

// ItineraryParams describes the trip to plan.
type ItineraryParams struct {
	Destination string `json:"destination"`
	Days        int    `json:"days"`
	TripType    string `json:"trip_type,omitempty"`
	TravelStyle string `json:"travel_style,omitempty"`
}

// PackingParams describes the trip to pack for.
type PackingParams struct {
	Destination string `json:"destination"`
	Days        int    `json:"days"`
	TripType    string `json:"trip_type,omitempty"`
	Season      string `json:"season,omitempty"`
}

// SummaryParams are the trip statistics a summary is written from.
type SummaryParams = journal.TripStats

// Itinerary plans a trip. Trips longer than a week get a condensed
// multi-day overview.
func (p *Pipeline) Itinerary(ctx context.Context, params ItineraryParams) (*journal.Itinerary, error) {
	return run(ctx, p, recipe[journal.Itinerary]{
		name:   "itinerary",
		schema: schema.Itinerary,
		input:  params,
		prepare: func() (string, error) {
			dest, err := destination(params.Destination)
			if err != nil {
				return "", err
			}
			params.Days = clampDays(params.Days)
			return prompt.Itinerary(dest, params.Days,
				p.text(params.TripType), p.text(params.TravelStyle)), nil
		},
		finish: func(it *journal.Itinerary) {
			if it.TravelStyle == "" {
				it.TravelStyle = p.text(params.TravelStyle)
			}
		},
	})
}

// PackingList builds a categorized packing list.
func (p *Pipeline) PackingList(ctx context.Context, params PackingParams) (*journal.PackingList, error) {
	return run(ctx, p, recipe[journal.PackingList]{
		name:   "packing_list",
		schema: schema.PackingList,
		input:  params,
		prepare: func() (string, error) {
			dest, err := destination(params.Destination)
			if err != nil {
				return "", err
			}
			params.Days = clampDays(params.Days)
			return prompt.PackingList(dest, params.Days,
				p.text(params.TripType), p.text(params.Season)), nil
		},
	})
}

// Briefing writes a destination overview.
func (p *Pipeline) Briefing(ctx context.Context, dest string) (*journal.Briefing, error) {
	return run(ctx, p, recipe[journal.Briefing]{
		name:   "briefing",
		schema: schema.Briefing,
		input:  map[string]string{"destination": dest},
		prepare: func() (string, error) {
			d, err := destination(dest)
			if err != nil {
				return "", err
			}
			return prompt.Briefing(d), nil
		},
	})
}

// StructureNote turns a free-text note into fields. A note that is empty
// after sanitizing never reaches the model.
func (p *Pipeline) StructureNote(ctx context.Context, raw string) (*journal.StructuredNote, error) {
	return run(ctx, p, recipe[journal.StructuredNote]{
		name:   "structured_note",
		schema: schema.Note,
		input:  map[string]string{"text": raw},
		prepare: func() (string, error) {
			text := sanitize.Sanitize(raw, p.maxInput)
			if text == "" {
				return "", errors.Validation("empty input")
			}
			hints := p.notes.Classify(text)
			p.log.Debug("note hints", zap.Any("hints", hints))
			return prompt.Note(text, hints.Lines()...), nil
		},
	})
}

// JournalEntry writes the narrative of one day.
func (p *Pipeline) JournalEntry(ctx context.Context, day journal.DayStats) (*journal.JournalEntry, error) {
	return run(ctx, p, recipe[journal.JournalEntry]{
		name:   "journal_entry",
		schema: schema.JournalEntry,
		input:  day,
		prepare: func() (string, error) {
			if day.Date.IsZero() {
				return "", errors.Validation("missing date")
			}
			day.PhotoCount = max(day.PhotoCount, 0)
			day.TotalDistanceMeters = max(day.TotalDistanceMeters, 0)
			day.NoteContents = p.texts(day.NoteContents)
			day.PlacesVisited = p.names(day.PlacesVisited)
			return prompt.JournalEntry(day), nil
		},
		finish: func(e *journal.JournalEntry) {
			e.Date = day.Date.Format("2006-01-02")
		},
	})
}

// TripSummary writes the recap of a whole trip. An empty variant means
// narrative.
func (p *Pipeline) TripSummary(ctx context.Context, trip SummaryParams) (*journal.TripSummary, error) {
	return run(ctx, p, recipe[journal.TripSummary]{
		name:   "trip_summary",
		schema: schema.TripSummary,
		input:  trip,
		prepare: func() (string, error) {
			dest, err := destination(trip.Destination)
			if err != nil {
				return "", err
			}
			if trip.Variant == "" {
				trip.Variant = journal.VariantNarrative
			}
			if !trip.Variant.Valid() {
				return "", errors.Validationf("unknown summary variant %q", trip.Variant)
			}
			trip.Destination = dest
			trip.DurationDays = max(trip.DurationDays, 1)
			trip.PhotoCount = max(trip.PhotoCount, 0)
			trip.NoteCount = max(trip.NoteCount, 0)
			trip.TotalDistanceMeters = max(trip.TotalDistanceMeters, 0)
			trip.Highlights = p.names(trip.Highlights)
			return prompt.TripSummary(trip), nil
		},
	})
}

// ============================================================
// Parameter helpers
// ============================================================

func destination(raw string) (string, error) {
	d := sanitize.Sanitize(raw, maxNameLength)
	if d == "" {
		return "", errors.Validation("empty destination")
	}
	return d, nil
}

func clampDays(days int) int {
	return min(max(days, MinDays), MaxDays)
}

func (p *Pipeline) text(raw string) string {
	return sanitize.Sanitize(raw, maxNameLength)
}

// texts sanitizes free text and drops what ends up empty.
func (p *Pipeline) texts(raw []string) []string {
	return p.clean(raw, p.maxInput)
}

func (p *Pipeline) names(raw []string) []string {
	return p.clean(raw, maxNameLength)
}

func (p *Pipeline) clean(raw []string, limit int) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s := sanitize.Sanitize(r, limit); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
