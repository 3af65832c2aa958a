package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record parsers. Each one turns a single loosely-typed scalar into a
// normalized value or an explicit absence; malformed input never escapes
// as a fault.

// LinkFlag reports whether v is a capability link. The search provider
// signals reservation / online-order support with a URL string.
func LinkFlag(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "http")
}

// ServiceFeatures extracts dine_in / takeout / delivery from a
// service-options descriptor. dine_in and takeout are fixed-key lookups
// (absent key stays absent, not false). delivery is an OR over every key
// containing "delivery" with a truthy value, because the provider emits
// variants like no_contact_delivery. An unparsable descriptor leaves all
// three absent.
func ServiceFeatures(v any) (dineIn, takeout, delivery *bool) {
	d, ok := ParseDict(v)
	if !ok {
		return nil, nil, nil
	}
	if raw, present := d["dine_in"]; present {
		dineIn = boolPtr(truthy(raw))
	}
	if raw, present := d["takeout"]; present {
		takeout = boolPtr(truthy(raw))
	}
	del := false
	for k, val := range d {
		if strings.Contains(k, "delivery") && truthy(val) {
			del = true
			break
		}
	}
	return dineIn, takeout, boolPtr(del)
}

// ParseRelativeDate resolves strings like "3 weeks ago" or "a month ago"
// against the supplied anchor. Months and years are 30- and 365-day
// approximations, deliberately not calendar-accurate; downstream consumers
// rely on the consistent deltas. Callers pass time.Now() in production,
// which makes the resolved timestamps run-dependent.
func ParseRelativeDate(s string, now time.Time) (time.Time, bool) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(parts) < 2 {
		return time.Time{}, false
	}

	num := 1
	if parts[0] != "a" {
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, false
		}
		num = n
	}

	unit := parts[1]
	switch {
	case strings.Contains(unit, "day"):
		return now.AddDate(0, 0, -num), true
	case strings.Contains(unit, "week"):
		return now.AddDate(0, 0, -7*num), true
	case strings.Contains(unit, "month"):
		return now.AddDate(0, 0, -30*num), true
	case strings.Contains(unit, "year"):
		return now.AddDate(0, 0, -365*num), true
	}
	return time.Time{}, false
}

// cuisineRules is checked in order; the first substring hit wins, so the
// specific cuisines sit above the catch-alls.
var cuisineRules = []struct {
	keywords []string
	label    string
}{
	{[]string{"italian"}, "Italian"},
	{[]string{"mediterranean"}, "Mediterranean"},
	{[]string{"mexican"}, "Mexican"},
	{[]string{"american"}, "American"},
	{[]string{"japanese", "sushi"}, "Japanese"},
	{[]string{"chinese"}, "Chinese"},
	{[]string{"thai"}, "Thai"},
	{[]string{"indian"}, "Indian"},
	{[]string{"cafe", "coffee"}, "Cafe"},
	{[]string{"bbq", "barbecue"}, "BBQ"},
	{[]string{"pizza"}, "Pizza"},
	{[]string{"seafood"}, "Seafood"},
}

var genericVenueWords = []string{"restaurant", "diner", "eatery", "grill", "food"}

var titleCaser = cases.Title(language.English)

// Cuisine maps a free-text category like "Italian Bistro" onto a fixed
// label. Matching is substring, not whole-word — "grille" hitting "grill"
// is intended. Unmatched non-generic text comes back title-cased.
func Cuisine(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return "Other"
	}
	t := strings.ToLower(s)

	for _, rule := range cuisineRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.label
			}
		}
	}
	for _, w := range genericVenueWords {
		if strings.Contains(t, w) {
			return "Other"
		}
	}
	return titleCaser.String(t)
}

var digitRuns = regexp.MustCompile(`\d+`)

// PriceLevel converts a display price into a numeric level: a run of
// currency symbols counts the symbols ("$$$" → 3), otherwise the level is
// the mean of every digit run ("$10–20" → 15). Unparsable input is absent.
func PriceLevel(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if allCurrency(s) {
			return float64(utf8.RuneCountInString(s)), true
		}
		runs := digitRuns.FindAllString(s, -1)
		if len(runs) == 0 {
			return 0, false
		}
		sum := 0
		for _, r := range runs {
			n, err := strconv.Atoi(r)
			if err != nil {
				return 0, false
			}
			sum += n
		}
		return float64(sum) / float64(len(runs)), true
	default:
		return 0, false
	}
}

func allCurrency(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Sc, r) {
			return false
		}
	}
	return true
}

/********** scalar coercion helpers **********/

// asFloat coerces float64/int/numeric-string values, tolerating a comma
// decimal separator. Everything else is absent.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// truthy mirrors the loose boolean semantics of the raw layer: real
// booleans, nonzero numbers and nonempty strings count as true.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t != ""
	default:
		return false
	}
}

func boolPtr(b bool) *bool { return &b }
