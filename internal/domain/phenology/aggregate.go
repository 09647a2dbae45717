package phenology

import (
	"time"

	"github.com/yanqian/phenology/pkg/metrics"
)

// sums accumulates facet counts into sparse day, week and month mappings.
type sums struct {
	total int64
	day   map[int]int64
	week  map[int]int64
	month map[int]int64
	ext   DayExtent
	stats metrics.FanoutStats
}

func newSums() *sums {
	return &sums{
		day:   make(map[int]int64),
		week:  make(map[int]int64),
		month: make(map[int]int64),
		ext:   DayExtent{Min: DaysPerYear, Max: 0},
	}
}

// add folds one response into the sums. Buckets that fall in week 1 at exactly
// midnight are the upstream marker for an unknown date and are dropped entirely.
func (s *sums) add(result FacetResult) {
	s.stats.Requests++
	if !result.HasFacets {
		return
	}
	for _, count := range result.Counts {
		s.stats.Buckets++
		date, err := ParseFacetDate(count.Name)
		if err != nil {
			s.stats.Skipped++
			continue
		}
		month := int(date.Month())
		week := Week(date) + 1
		doy := DayOfYear(date)
		if week == 1 && isMidnight(date) {
			s.stats.Excluded++
			continue
		}
		s.total += count.Count
		s.day[doy] += count.Count
		s.week[week] += count.Count
		s.month[month] += count.Count
		if doy < s.ext.Min {
			s.ext.Min = doy
		}
		if doy > s.ext.Max {
			s.ext.Max = doy
		}
	}
}

// histogram renders the sums together with the dense chart arrays.
func (s *sums) histogram(search string, today time.Time, chartYear int) Histogram {
	weekArr := make([]WeekBucket, 0, WeeksPerYear)
	for week := 1; week <= WeeksPerYear; week++ {
		weekArr = append(weekArr, WeekBucket{
			Count:  s.week[week],
			Week:   week,
			Months: WeekToMonth(week, chartYear),
		})
	}
	doyArr := make([]DayBucket, 0, DaysPerYear)
	for doy := 1; doy <= DaysPerYear; doy++ {
		doyArr = append(doyArr, DayBucket{Count: s.day[doy], DOY: doy})
	}
	return Histogram{
		Search:    search,
		Total:     s.total,
		WeekToday: Week(ToUTC(today)) + 1,
		WeekSum:   s.week,
		MonthSum:  s.month,
		DaySum:    s.day,
		WeekArr:   weekArr,
		DoyArr:    doyArr,
		DoyExt:    s.ext,
		Stats:     s.stats,
	}
}

// Fold merges facet results from every geography filter into one histogram.
// Summation makes the result independent of the order of results.
func Fold(search string, results []FacetResult, today time.Time, chartYear int) Histogram {
	acc := newSums()
	for _, result := range results {
		acc.add(result)
	}
	return acc.histogram(search, today, chartYear)
}
