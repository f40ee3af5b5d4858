package journal

import "time"

// Category classifies a structured note.
type Category string

const (
	CategoryFood          Category = "food"
	CategorySight         Category = "sight"
	CategoryAccommodation Category = "accommodation"
	CategoryTransport     Category = "transport"
	CategoryActivity      Category = "activity"
	CategoryShopping      Category = "shopping"
	CategoryNature        Category = "nature"
	CategoryNightlife     Category = "nightlife"
	CategoryOther         Category = "other"
)

// Categories returns every note category.
func Categories() []Category {
	return []Category{
		CategoryFood, CategorySight, CategoryAccommodation, CategoryTransport,
		CategoryActivity, CategoryShopping, CategoryNature, CategoryNightlife,
		CategoryOther,
	}
}

// SummaryVariant selects the tone and length of a trip summary.
type SummaryVariant string

const (
	VariantConcise   SummaryVariant = "concise"
	VariantNarrative SummaryVariant = "narrative"
	VariantSocial    SummaryVariant = "social"
)

// Valid reports whether v is a known variant.
func (v SummaryVariant) Valid() bool {
	switch v {
	case VariantConcise, VariantNarrative, VariantSocial:
		return true
	}
	return false
}

// DayStats is what the app collected during one travel day.
type DayStats struct {
	Date                time.Time `json:"date"`
	PhotoCount          int       `json:"photo_count"`
	NoteContents        []string  `json:"note_contents"`
	TotalDistanceMeters float64   `json:"total_distance_meters"`
	PlacesVisited       []string  `json:"places_visited"`
}

// TripStats is what the app collected over a whole trip.
type TripStats struct {
	Destination         string         `json:"destination"`
	DurationDays        int            `json:"duration_days"`
	PhotoCount          int            `json:"photo_count"`
	NoteCount           int            `json:"note_count"`
	TotalDistanceMeters float64        `json:"total_distance_meters"`
	Highlights          []string       `json:"highlights"`
	Variant             SummaryVariant `json:"variant"`
}
