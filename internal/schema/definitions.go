package schema

import (
	"github.com/wayfarer-app/wayfarer/pkg/journal"
)

// Default returns a registry holding all six output schemas.
func Default() *Registry {
	r := NewRegistry()
	for _, s := range []*Schema{
		ItinerarySchema(),
		PackingListSchema(),
		BriefingSchema(),
		NoteSchema(),
		JournalEntrySchema(),
		TripSummarySchema(),
	} {
		if err := r.Register(s); err != nil {
			// Static schemas; a compile error is a programming bug.
			panic(err)
		}
	}
	return r
}

// ItinerarySchema describes a day-by-day plan.
func ItinerarySchema() *Schema {
	day := NewObject().
		Field("day", Integer("Day number, starting at 1", 1, 30)).
		Field("label", String("Short label such as 'Day 1' or 'Days 8-10'")).
		Field("title", String("Theme of the day")).
		Field("morning", String("Morning activities")).
		Field("afternoon", String("Afternoon activities")).
		Field("evening", String("Evening activities")).
		Field("tip", Text("Practical tip for the day"))

	return NewObject().
		Field("destination", String("Destination name")).
		Field("total_days", Integer("Trip length in days", 1, 30)).
		Field("travel_style", Text("Travel style the plan is tailored to")).
		Field("daily_plans", Array("Plan for each day", Object("One day", day), 1, 30)).
		Field("general_tips", Array("Tips that apply to the whole trip", String("Tip"), 3, 5)).
		Build(Itinerary, "Travel itinerary")
}

// PackingListSchema describes a categorized packing list.
func PackingListSchema() *Schema {
	item := Object("Item to pack", NewObject().
		Field("name", String("Item name")).
		Field("quantity", Integer("How many to pack", 1, 20)).
		Field("essential", Boolean("Whether the trip fails without it")))

	return NewObject().
		Field("documents", Array("Passports, tickets, insurance", item, 1, 10)).
		Field("clothing", Array("Clothes and shoes", item, 1, 15)).
		Field("toiletries", Array("Hygiene items", item, 1, 10)).
		Field("electronics", Array("Devices, chargers, adapters", item, 1, 10)).
		Field("special_items", Array("Items specific to this trip type", item, 0, 8)).
		Field("health_kit", Array("Medicine and first aid", item, 1, 8)).
		Build(PackingList, "Packing list")
}

// BriefingSchema describes a destination briefing.
func BriefingSchema() *Schema {
	facts := NewObject().
		Field("currency", String("Local currency")).
		Field("language", String("Main language")).
		Field("time_zone", String("Time zone")).
		Field("power_plug", String("Plug type and voltage")).
		Field("emergency_number", String("Emergency phone number"))

	phrase := NewObject().
		Field("original", String("Phrase in the local language")).
		Field("translation", String("Meaning")).
		Field("pronunciation", Text("How to pronounce it"))

	return NewObject().
		Field("destination", String("Destination name")).
		Field("quick_facts", Object("Practical basics", facts)).
		Field("cultural_tips", Array("Etiquette and customs", String("Tip"), 3, 5)).
		Field("useful_phrases", Array("Phrases worth learning", Object("Phrase", phrase), 5, 8)).
		Field("climate_info", String("Typical weather")).
		Field("food_culture", Array("Dishes and dining habits", String("Item"), 3, 5)).
		Field("safety_notes", Array("Safety advice", String("Note"), 2, 4)).
		Build(Briefing, "Destination briefing")
}

// NoteSchema describes a structured travel note.
func NoteSchema() *Schema {
	cats := journal.Categories()
	values := make([]string, len(cats))
	for i, c := range cats {
		values[i] = string(c)
	}

	return NewObject().
		Field("category", Enum("What the note is about", values...)).
		Optional("place_name", Text("Name of the place, if any")).
		Optional("rating", Integer("Rating from 1 to 5, if the note expresses one", 1, 5)).
		Optional("cost", NonNegative("Amount spent, if mentioned")).
		Field("summary", String("One-sentence summary")).
		Field("tags", Array("Short keywords", String("Tag"), 0, 5)).
		Build(Note, "Structured note")
}

// JournalEntrySchema describes the narrative of one day.
func JournalEntrySchema() *Schema {
	return NewObject().
		Field("title", String("Entry title")).
		Field("date", String("Date of the day")).
		Field("narrative", String("First-person account of the day")).
		Field("highlight", String("Best moment of the day")).
		Field("stats_narrative", String("The day's numbers told as a sentence")).
		Build(JournalEntry, "Journal entry")
}

// TripSummarySchema describes the recap of a trip.
func TripSummarySchema() *Schema {
	return NewObject().
		Field("title", String("Summary title")).
		Field("tagline", String("One-line tagline")).
		Field("narrative", String("Account of the trip")).
		Field("highlights", Array("Best moments", String("Highlight"), 3, 5)).
		Field("stats_narrative", String("The trip's numbers told as a sentence")).
		Field("next_trip_suggestion", String("Where to go next")).
		Build(TripSummary, "Trip summary")
}
