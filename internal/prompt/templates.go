package prompt

import (
	"fmt"
	"strings"

	"github.com/wayfarer-app/wayfarer/pkg/journal"
)

// CondensedAfterDays is the trip length above which itineraries group days.
const CondensedAfterDays = 7

// Itinerary asks for a travel plan.
func Itinerary(destination string, days int, tripType, travelStyle string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a %d-day itinerary for %s.\n", days, destination)
	fmt.Fprintf(&sb, "Trip type: %s.\n", orDefault(tripType, "leisure"))
	if travelStyle != "" {
		fmt.Fprintf(&sb, "Travel style: %s. Tailor pace and budget to it.\n", travelStyle)
	}
	if days > CondensedAfterDays {
		sb.WriteString("The trip is long: give a condensed multi-day overview, grouping consecutive days " +
			"into blocks with labels like 'Days 4-6', instead of detailing every single day.\n")
	} else {
		sb.WriteString("Give one plan per day with morning, afternoon and evening activities.\n")
	}
	sb.WriteString("Finish with 3 to 5 general tips for the whole trip.")
	return sb.String()
}

// PackingList asks for a categorized packing list.
func PackingList(destination string, days int, tripType, season string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a packing list for %d days in %s.\n", days, destination)
	fmt.Fprintf(&sb, "Trip type: %s.\n", orDefault(tripType, "leisure"))
	fmt.Fprintf(&sb, "Season: %s.\n", orDefault(season, "any"))
	sb.WriteString("Group items into documents, clothing, toiletries, electronics, special items and health kit. " +
		"Scale quantities to the trip length and mark items the trip cannot do without as essential.")
	return sb.String()
}

// Briefing asks for a destination overview.
func Briefing(destination string) string {
	return fmt.Sprintf("Write a briefing for a first-time visitor to %s.\n"+
		"Include quick facts (currency, language, time zone, power plug, emergency number), "+
		"3 to 5 cultural tips, 5 to 8 useful phrases with translation and pronunciation, "+
		"the climate, 3 to 5 notes on food culture and 2 to 4 safety notes.", destination)
}

// Note asks to structure a free-text note. text must already be sanitized.
// hints are facts recognized locally; the model may overrule them.
func Note(text string, hints ...string) string {
	var sb strings.Builder
	sb.WriteString("Turn this travel note into structured data. " +
		"Only set place, rating or cost when the note states them.\n")
	if len(hints) > 0 {
		sb.WriteString("Hints (may be wrong):\n")
		for _, h := range hints {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
	}
	fmt.Fprintf(&sb, "\nNote:\n\"\"\"\n%s\n\"\"\"", text)
	return sb.String()
}

// JournalEntry asks for the narrative of one day.
func JournalEntry(day journal.DayStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a journal entry for %s.\n", day.Date.Format("Monday 2 January 2006"))
	fmt.Fprintf(&sb, "Photos taken: %d.\n", day.PhotoCount)
	fmt.Fprintf(&sb, "Distance covered: %s.\n", formatDistance(day.TotalDistanceMeters))
	if len(day.PlacesVisited) > 0 {
		fmt.Fprintf(&sb, "Places visited: %s.\n", strings.Join(day.PlacesVisited, ", "))
	}
	if len(day.NoteContents) > 0 {
		sb.WriteString("Notes written during the day:\n")
		for _, n := range day.NoteContents {
			fmt.Fprintf(&sb, "- %s\n", n)
		}
	}
	sb.WriteString("Use the date as given. Pick one highlight and describe the numbers in a friendly sentence.")
	return sb.String()
}

// TripSummary asks for the recap of a whole trip.
func TripSummary(trip journal.TripStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize a %d-day trip to %s.\n", trip.DurationDays, trip.Destination)
	fmt.Fprintf(&sb, "Photos: %d. Notes: %d. Distance: %s.\n",
		trip.PhotoCount, trip.NoteCount, formatDistance(trip.TotalDistanceMeters))
	if len(trip.Highlights) > 0 {
		fmt.Fprintf(&sb, "Traveler's highlights: %s.\n", strings.Join(trip.Highlights, "; "))
	}

	switch trip.Variant {
	case journal.VariantConcise:
		sb.WriteString("Keep it concise: the narrative is at most three sentences.\n")
	case journal.VariantSocial:
		sb.WriteString("Write it for a social media post: upbeat, short sentences, a catchy tagline.\n")
	default:
		sb.WriteString("Write a full narrative of a few paragraphs.\n")
	}
	sb.WriteString("Give 3 to 5 highlights and suggest a next destination.")
	return sb.String()
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
