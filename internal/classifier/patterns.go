package classifier

import (
	"regexp"
	"strings"

	"github.com/wayfarer-app/wayfarer/pkg/journal"
)

// CategoryPattern recognizes one note category.
type CategoryPattern struct {
	ID         string
	Category   journal.Category
	Keywords   []string
	Regex      *regexp.Regexp // optional; must also match when set
	Confidence float64
}

// Hits counts the keywords found in msg, which must be lower case.
// It returns 0 when the regex is set and does not match.
func (p *CategoryPattern) Hits(msg string) int {
	if p.Regex != nil && !p.Regex.MatchString(msg) {
		return 0
	}

	n := 0
	for _, kw := range p.Keywords {
		if containsWord(msg, kw) {
			n++
		}
	}
	if n == 0 && p.Regex != nil && len(p.Keywords) == 0 {
		return 1
	}
	return n
}

// containsWord reports whether kw occurs in msg at a word start.
// Keywords shorter than four bytes must also end a word.
func containsWord(msg, kw string) bool {
	for i := 0; ; {
		j := strings.Index(msg[i:], kw)
		if j < 0 {
			return false
		}
		at := i + j
		end := at + len(kw)
		start := at == 0 || !isLetter(msg[at-1])
		whole := len(kw) >= 4 || end == len(msg) || !isLetter(msg[end])
		if start && whole {
			return true
		}
		i = at + 1
	}
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 0x80
}

// defaultPatterns covers English and Italian notes.
func defaultPatterns() []*CategoryPattern {
	return []*CategoryPattern{
		{
			ID:       "food",
			Category: journal.CategoryFood,
			Keywords: []string{
				"restaurant", "trattoria", "osteria", "ristorante", "pizzeria", "cafe", "café", "bakery",
				"lunch", "dinner", "breakfast", "brunch", "pranzo", "cena", "colazione",
				"pizza", "pasta", "carbonara", "ramen", "sushi", "tapas", "gelato", "dessert", "ate", "tasted",
			},
			Confidence: 0.8,
		},
		{
			ID:       "sight",
			Category: journal.CategorySight,
			Keywords: []string{
				"museum", "museo", "cathedral", "duomo", "church", "chiesa", "basilica", "temple", "shrine",
				"castle", "castello", "palace", "palazzo", "tower", "monument", "ruins", "gallery", "viewpoint",
			},
			Confidence: 0.8,
		},
		{
			ID:       "accommodation",
			Category: journal.CategoryAccommodation,
			Keywords: []string{
				"hotel", "hostel", "ostello", "albergo", "airbnb", "b&b", "ryokan", "guesthouse",
				"check-in", "checked in", "check-out", "room", "camera", "bed",
			},
			Confidence: 0.8,
		},
		{
			ID:       "transport",
			Category: journal.CategoryTransport,
			Keywords: []string{
				"train", "treno", "bus", "flight", "volo", "plane", "airport", "aeroporto", "taxi", "uber",
				"metro", "subway", "ferry", "traghetto", "shinkansen", "tram", "car rental", "station", "stazione",
			},
			Confidence: 0.8,
		},
		{
			ID:       "activity",
			Category: journal.CategoryActivity,
			Keywords: []string{
				"tour", "class", "lesson", "lezione", "workshop", "concert", "concerto", "show",
				"kayak", "surf", "dive", "diving", "snorkel", "cooking class", "bike", "escursione",
			},
			Confidence: 0.75,
		},
		{
			ID:       "shopping",
			Category: journal.CategoryShopping,
			Keywords: []string{
				"market", "mercato", "shop", "negozio", "souvenir", "bought", "comprato", "mall", "boutique",
			},
			Confidence: 0.75,
		},
		{
			ID:       "nature",
			Category: journal.CategoryNature,
			Keywords: []string{
				"beach", "spiaggia", "mountain", "montagna", "lake", "lago", "park", "parco", "trail",
				"hike", "hiking", "forest", "bosco", "waterfall", "cascata", "sunset", "tramonto",
			},
			Confidence: 0.75,
		},
		{
			ID:       "nightlife",
			Category: journal.CategoryNightlife,
			Keywords: []string{
				"bar", "pub", "club", "cocktail", "aperitivo", "disco", "nightclub", "karaoke", "rooftop",
			},
			Confidence: 0.75,
		},
	}
}
