package util

import (
	"strings"
	"time"

	"medallion/internal/domain"
)

// cryptoIdentifiers mark a ticker as continuously traded: well-known coin
// symbols plus the Yahoo-style quote-currency suffix.
var cryptoIdentifiers = []string{"BTC", "ETH", "SOL", "-USD"}

// ClassifyTicker reports whether a ticker trades on the 24/7 crypto calendar
// or the US equity calendar.
func ClassifyTicker(ticker string) domain.AssetClass {
	upper := strings.ToUpper(ticker)
	for _, id := range cryptoIdentifiers {
		if strings.Contains(upper, id) {
			return domain.AssetClassCrypto
		}
	}
	return domain.AssetClassEquity
}

// LookbackStart returns the priming start date for an incremental rolling
// computation: n raw calendar days back for crypto, n US trading days back
// for equities.
func LookbackStart(ticker string, from time.Time, n int) (time.Time, domain.AssetClass) {
	class := ClassifyTicker(ticker)
	if class == domain.AssetClassCrypto {
		return from.AddDate(0, 0, -n), class
	}
	return USTradingDaysBefore(from, n), class
}

// USTradingDaysBefore steps back n US trading days (weekends and observed
// federal holidays excluded) from d.
func USTradingDaysBefore(d time.Time, n int) time.Time {
	holidays := observedHolidays(d.Year()-1, d.Year()+1)
	cur := d
	for remaining := n; remaining > 0; {
		cur = cur.AddDate(0, 0, -1)
		if cur.Year() < d.Year()-1 {
			// Long lookbacks can cross more year boundaries than the
			// pre-built window covers; extend it.
			holidays = observedHolidays(cur.Year(), d.Year()+1)
		}
		if isTradingDay(cur, holidays) {
			remaining--
		}
	}
	return cur
}

// IsUSTradingDay reports whether d is a US equity trading day.
func IsUSTradingDay(d time.Time) bool {
	return isTradingDay(d, observedHolidays(d.Year()-1, d.Year()+1))
}

func isTradingDay(d time.Time, holidays map[string]bool) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays[d.Format("2006-01-02")]
}

// observedHolidays returns the observed US federal holiday dates for the
// years [fromYear, toYear], keyed by YYYY-MM-DD. Saturday holidays are
// observed the preceding Friday, Sunday holidays the following Monday, so an
// observed date can spill into an adjacent year.
func observedHolidays(fromYear, toYear int) map[string]bool {
	days := make(map[string]bool)
	add := func(d time.Time, observed bool) {
		if observed {
			d = nearestWeekday(d)
		}
		days[d.Format("2006-01-02")] = true
	}

	for y := fromYear; y <= toYear; y++ {
		add(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true)   // New Year's Day
		add(nthWeekday(y, time.January, time.Monday, 3), false)          // Martin Luther King Jr. Day
		add(nthWeekday(y, time.February, time.Monday, 3), false)         // Washington's Birthday
		add(lastWeekday(y, time.May, time.Monday), false)                // Memorial Day
		if y >= 2021 {
			add(time.Date(y, time.June, 19, 0, 0, 0, 0, time.UTC), true) // Juneteenth
		}
		add(time.Date(y, time.July, 4, 0, 0, 0, 0, time.UTC), true)      // Independence Day
		add(nthWeekday(y, time.September, time.Monday, 1), false)        // Labor Day
		add(nthWeekday(y, time.October, time.Monday, 2), false)          // Columbus Day
		add(time.Date(y, time.November, 11, 0, 0, 0, 0, time.UTC), true) // Veterans Day
		add(nthWeekday(y, time.November, time.Thursday, 4), false)       // Thanksgiving
		add(time.Date(y, time.December, 25, 0, 0, 0, 0, time.UTC), true) // Christmas Day
	}
	return days
}

// nearestWeekday shifts Saturday dates to Friday and Sunday dates to Monday.
func nearestWeekday(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// nthWeekday returns the nth occurrence of a weekday in the given month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the final occurrence of a weekday in the given month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
