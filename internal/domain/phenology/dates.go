package phenology

import (
	"fmt"
	"strings"
	"time"
)

// facetDateLayouts are tried in order; layouts without a zone parse as UTC.
var facetDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseFacetDate parses an eventDate facet name. For ranges ("start/end") only the start is used.
func ParseFacetDate(name string) (time.Time, error) {
	start := strings.TrimSpace(strings.SplitN(name, "/", 2)[0])
	if start == "" {
		return time.Time{}, fmt.Errorf("empty facet date %q", name)
	}
	for _, layout := range facetDateLayouts {
		if ts, err := time.Parse(layout, start); err == nil {
			return ToUTC(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized facet date %q", name)
}

// ToUTC returns t with its wall-clock fields expressed in UTC, so bucketing never
// depends on the server's local zone.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Week returns the zero-based week of the year, weeks starting on Sunday and week 0
// containing January 1. The result is capped at WeeksPerYear-1.
func Week(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	week := (t.YearDay() - 1 + int(jan1.Weekday())) / 7
	if week > WeeksPerYear-1 {
		week = WeeksPerYear - 1
	}
	return week
}

// DayOfYear returns the 1-based ordinal day.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// WeekToMonth returns the month(s) spanned by a 1-based week of year. A week that starts
// in December stays in December rather than wrapping into the next January.
func WeekToMonth(week, year int) []int {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := int(jan1.Weekday())
	begin := jan1.AddDate(0, 0, (week-1)*7-offset)
	end := jan1.AddDate(0, 0, week*7-offset)

	begMon := int(begin.Month())
	endMon := int(end.Month())
	if begMon == 12 {
		endMon = begMon
	}
	if begMon == endMon {
		return []int{begMon}
	}
	return []int{begMon, endMon}
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}
