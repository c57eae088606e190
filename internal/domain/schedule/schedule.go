// Package schedule turns season metadata into ordered monthly rating periods
// and assigns matches to them.
package schedule

import (
	"sort"
	"time"

	"github.com/matrank/matrank/internal/domain/model"
)

const (
	hoursPerDay  = 24
	daysPerMonth = 30.0
)

// Filter narrows which seasons and date ranges produce periods. A nil Seasons
// set admits every season; zero Start/End apply no override.
type Filter struct {
	Seasons map[string]struct{}
	Start   time.Time
	End     time.Time
}

// BuildPeriods splits every admitted season into consecutive calendar-month
// rating periods, clipped to the filter overrides and to now. Seasons missing
// boundary dates, filtered out, or entirely in the future yield no periods.
// The result preserves season order and increases chronologically.
func BuildPeriods(seasons []model.Season, filter Filter, now time.Time) []model.RatingPeriod {
	var periods []model.RatingPeriod

	for _, season := range seasons {
		if !season.HasDates {
			continue
		}
		if filter.Seasons != nil {
			if _, ok := filter.Seasons[season.Name]; !ok {
				continue
			}
		}

		start := season.RegularStart
		// Postseason end date is inclusive; periods are half-open.
		end := season.PostEnd.Add(hoursPerDay * time.Hour)

		if !filter.Start.IsZero() && filter.Start.After(start) {
			start = filter.Start
		}
		if !filter.End.IsZero() && filter.End.Before(end) {
			end = filter.End
		}
		if now.Before(end) {
			end = now
		}
		if !start.Before(end) {
			continue
		}

		for _, span := range monthSpans(start, end) {
			periods = append(periods, model.RatingPeriod{
				Start:  span[0],
				End:    span[1],
				Season: season.Name,
			})
		}
	}

	return periods
}

// monthSpans splits [start, end) into consecutive segments each running to
// the same day-of-month one month later (clamped to shorter months), with the
// final segment clipped to end.
func monthSpans(start, end time.Time) [][2]time.Time {
	var spans [][2]time.Time
	cur := start
	for cur.Before(end) {
		next := addMonthClamped(cur)
		if next.After(end) {
			next = end
		}
		spans = append(spans, [2]time.Time{cur, next})
		cur = next
	}
	return spans
}

// addMonthClamped advances t by one calendar month, clamping the day to the
// target month's length rather than letting the date normalize past it.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BucketMatches assigns each match to at most one period by date, returning
// one bucket per period in the same order. Matches are expected pre-sorted
// ascending by date; the input is re-sorted defensively since an unsorted
// feed would silently drop matches. Matches falling in gaps between periods
// (off-season) are dropped; matches past the last period end the scan.
func BucketMatches(periods []model.RatingPeriod, matches []model.MatchResult) [][]model.MatchResult {
	buckets := make([][]model.MatchResult, len(periods))
	if len(periods) == 0 || len(matches) == 0 {
		return buckets
	}

	sorted := make([]model.MatchResult, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	idx := 0
	for _, match := range sorted {
		for idx < len(periods) && !match.Date.Before(periods[idx].End) {
			idx++
		}
		if idx >= len(periods) {
			break
		}
		if !match.Date.Before(periods[idx].Start) {
			buckets[idx] = append(buckets[idx], match)
		}
	}

	return buckets
}

// MonthsBetween approximates the month gap between two instants, in units of
// 30 days. Non-positive gaps return zero.
func MonthsBetween(first, second time.Time) float64 {
	if !second.After(first) {
		return 0
	}
	days := second.Sub(first).Hours() / hoursPerDay
	return days / daysPerMonth
}

// SchoolYear maps a date onto the school year it belongs to: September and
// later count toward the calendar year, earlier months toward the previous.
func SchoolYear(date time.Time) int {
	if date.Month() > time.August {
		return date.Year()
	}
	return date.Year() - 1
}
