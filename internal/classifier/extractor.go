package classifier

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	costSymbolFirst = regexp.MustCompile(`(€|\$|£|¥)\s*(\d+(?:[.,]\d{1,2})?)`)
	costAmountFirst = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)\s*(€|\$|£|¥|(?i:eur|euros?|usd|dollars?|gbp|pounds?|jpy|yen)\b)`)

	ratingOutOf10 = regexp.MustCompile(`\b(10|[0-9])\s*/\s*10\b`)
	ratingOutOf5  = regexp.MustCompile(`\b([0-5])\s*/\s*5\b`)
	ratingStars   = regexp.MustCompile(`(?i)\b([1-5])\s*(?:stars?|stelle|stella)\b`)

	quotedPlace = regexp.MustCompile(`"([^"]{2,60})"`)
	namedPlace  = regexp.MustCompile(`\b(?:at|in|da|al|alla|presso)\s+(\p{Lu}[\p{L}'’]*(?:\s+(?:(?:da|di|del|della|de|la|le|of|the)\s+)?\p{Lu}[\p{L}'’]*)*)`)
)

var currencies = map[string]string{
	"€": "EUR", "eur": "EUR", "euro": "EUR", "euros": "EUR",
	"$": "USD", "usd": "USD", "dollar": "USD", "dollars": "USD",
	"£": "GBP", "gbp": "GBP", "pound": "GBP", "pounds": "GBP",
	"¥": "JPY", "jpy": "JPY", "yen": "JPY",
}

// extractCost finds the first amount of money and its currency.
func extractCost(note string) (*float64, string) {
	var amount, unit string
	if m := costSymbolFirst.FindStringSubmatch(note); m != nil {
		unit, amount = m[1], m[2]
	} else if m := costAmountFirst.FindStringSubmatch(note); m != nil {
		amount, unit = m[1], m[2]
	} else {
		return nil, ""
	}

	v, err := strconv.ParseFloat(strings.Replace(amount, ",", ".", 1), 64)
	if err != nil {
		return nil, ""
	}
	return &v, currencies[strings.ToLower(unit)]
}

// extractRating finds a score and scales it to 1-5.
func extractRating(note string) *int {
	var r int
	switch {
	case ratingOutOf10.MatchString(note):
		n, _ := strconv.Atoi(ratingOutOf10.FindStringSubmatch(note)[1])
		r = int(math.Round(float64(n) / 2))
	case ratingOutOf5.MatchString(note):
		r, _ = strconv.Atoi(ratingOutOf5.FindStringSubmatch(note)[1])
	case ratingStars.MatchString(note):
		r, _ = strconv.Atoi(ratingStars.FindStringSubmatch(note)[1])
	default:
		return nil
	}
	r = min(max(r, 1), 5)
	return &r
}

// extractPlace returns quoted text, or a capitalized name after "at"/"da".
func extractPlace(note string) string {
	if m := quotedPlace.FindStringSubmatch(note); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := namedPlace.FindStringSubmatch(note); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
