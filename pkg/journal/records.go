// Package journal provides the plain records produced by Wayfarer generation.
// They carry no reference to the model or session and may be stored verbatim.
package journal

// Itinerary is a day-by-day travel plan.
type Itinerary struct {
	Destination string    `json:"destination"`
	TotalDays   int       `json:"total_days"` // 1-30
	TravelStyle string    `json:"travel_style"`
	DailyPlans  []DayPlan `json:"daily_plans"`  // 1-30
	GeneralTips []string  `json:"general_tips"` // 3-5
}

// DayPlan is one day (or, for long trips, one block of days) of an itinerary.
type DayPlan struct {
	Day       int    `json:"day"`
	Label     string `json:"label"` // e.g. "Day 1" or "Days 8-10"
	Title     string `json:"title"`
	Morning   string `json:"morning"`
	Afternoon string `json:"afternoon"`
	Evening   string `json:"evening"`
	Tip       string `json:"tip"`
}

// PackingList groups items to pack by category.
type PackingList struct {
	Documents    []PackingItem `json:"documents"`     // 1-10
	Clothing     []PackingItem `json:"clothing"`      // 1-15
	Toiletries   []PackingItem `json:"toiletries"`    // 1-10
	Electronics  []PackingItem `json:"electronics"`   // 1-10
	SpecialItems []PackingItem `json:"special_items"` // 0-8
	HealthKit    []PackingItem `json:"health_kit"`    // 1-8
}

// Categories returns the six lists keyed by field name.
func (p *PackingList) Categories() map[string][]PackingItem {
	return map[string][]PackingItem{
		"documents":     p.Documents,
		"clothing":      p.Clothing,
		"toiletries":    p.Toiletries,
		"electronics":   p.Electronics,
		"special_items": p.SpecialItems,
		"health_kit":    p.HealthKit,
	}
}

// PackingItem is a single thing to pack.
type PackingItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"` // 1-20
	Essential bool   `json:"essential"`
}

// Briefing is a destination overview for first-time visitors.
type Briefing struct {
	Destination   string     `json:"destination"`
	QuickFacts    QuickFacts `json:"quick_facts"`
	CulturalTips  []string   `json:"cultural_tips"`  // 3-5
	UsefulPhrases []Phrase   `json:"useful_phrases"` // 5-8
	ClimateInfo   string     `json:"climate_info"`
	FoodCulture   []string   `json:"food_culture"` // 3-5
	SafetyNotes   []string   `json:"safety_notes"` // 2-4
}

// QuickFacts are the practical basics of a destination.
type QuickFacts struct {
	Currency        string `json:"currency"`
	Language        string `json:"language"`
	TimeZone        string `json:"time_zone"`
	PowerPlug       string `json:"power_plug"`
	EmergencyNumber string `json:"emergency_number"`
}

// Phrase is a useful local phrase.
type Phrase struct {
	Original      string `json:"original"`
	Translation   string `json:"translation"`
	Pronunciation string `json:"pronunciation"`
}

// StructuredNote is a free-text travel note turned into fields.
type StructuredNote struct {
	Category  Category `json:"category"`
	PlaceName *string  `json:"place_name,omitempty"`
	Rating    *int     `json:"rating,omitempty"` // 1-5
	Cost      *float64 `json:"cost,omitempty"`   // >= 0
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"` // 0-5
}

// JournalEntry is the narrative of one travel day.
type JournalEntry struct {
	Title          string `json:"title"`
	Date           string `json:"date"`
	Narrative      string `json:"narrative"`
	Highlight      string `json:"highlight"`
	StatsNarrative string `json:"stats_narrative"`
}

// TripSummary is the closing recap of a whole trip.
type TripSummary struct {
	Title              string   `json:"title"`
	Tagline            string   `json:"tagline"`
	Narrative          string   `json:"narrative"`
	Highlights         []string `json:"highlights"` // 3-5
	StatsNarrative     string   `json:"stats_narrative"`
	NextTripSuggestion string   `json:"next_trip_suggestion"`
}
