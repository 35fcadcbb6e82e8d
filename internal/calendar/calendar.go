// Package calendar maps symbols to market timezones, classifies trading
// days, standardizes flexible date inputs, and counts contribution periods
// within a range.
package calendar

import (
	"strings"
	"time"

	"dripsim/internal/domain"
)

// minStart is the earliest start date accepted for any replay.
var minStart = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

// Accepted input layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// market identifies a holiday schedule and timezone.
type market struct {
	tz       string
	holidays func(year int) []time.Time
}

var markets = map[string]market{
	"us": {tz: "America/New_York", holidays: usHolidays},
	"uk": {tz: "Europe/London", holidays: ukHolidays},
	"jp": {tz: "Asia/Tokyo", holidays: jpHolidays},
	"hk": {tz: "Asia/Hong_Kong", holidays: hkHolidays},
	"cn": {tz: "Asia/Shanghai", holidays: cnHolidays},
}

// Calendar resolves per-symbol market conventions. The zero Calendar is not
// usable; construct with New.
type Calendar struct {
	now func() time.Time
}

// New creates a Calendar using the real clock.
func New() *Calendar {
	return &Calendar{now: time.Now}
}

// NewWithClock creates a Calendar with a pinned clock for tests.
func NewWithClock(now func() time.Time) *Calendar {
	return &Calendar{now: now}
}

// marketForSymbol maps a ticker to its market key. Suffixes follow the
// Yahoo convention; index tickers (^GSPC) and unknown symbols are US.
func marketForSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, ".L"):
		return "uk"
	case strings.HasSuffix(s, ".T"):
		return "jp"
	case strings.HasSuffix(s, ".HK"):
		return "hk"
	case strings.HasSuffix(s, ".SS"), strings.HasSuffix(s, ".SZ"):
		return "cn"
	}
	return "us"
}

// MarketTimezone returns the timezone of the symbol's market. Unknown
// symbols fall back to the default US market; a missing tz database entry
// falls back to UTC.
func (c *Calendar) MarketTimezone(symbol string) *time.Location {
	m := markets[marketForSymbol(symbol)]
	loc, err := time.LoadLocation(m.tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsTradingDay reports whether date is a trading day for the symbol's
// market: not a Saturday/Sunday and not a recognized market holiday.
func (c *Calendar) IsTradingDay(date time.Time, symbol string) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	m, ok := markets[marketForSymbol(symbol)]
	if !ok {
		m = markets["us"]
	}
	y, mo, d := date.Date()
	for _, h := range m.holidays(y) {
		hy, hm, hd := h.Date()
		if y == hy && mo == hm && d == hd {
			return false
		}
	}
	return true
}

// StandardizeRange parses flexible date inputs, interprets them in the
// symbol's market timezone, and normalizes both ends to UTC midnight. The
// end date is clamped to the current time if it lies in the future.
func (c *Calendar) StandardizeRange(start, end, symbol string) (time.Time, time.Time, error) {
	loc := c.MarketTimezone(symbol)

	s, err := parseFlexible(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &domain.InvalidDateRangeError{Start: start, End: end, Reason: err.Error()}
	}
	e, err := parseFlexible(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &domain.InvalidDateRangeError{Start: start, End: end, Reason: err.Error()}
	}

	s = normalize(s, loc)
	e = normalize(e, loc)

	if now := normalize(c.now(), loc); e.After(now) {
		e = now
	}

	if s.Before(minStart) {
		return time.Time{}, time.Time{}, &domain.InvalidDateRangeError{
			Start: start, End: end,
			Reason: "start date cannot be before 1990-01-01",
		}
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, &domain.InvalidDateRangeError{
			Start: start, End: end,
			Reason: "start date must be before end date",
		}
	}
	return s, e, nil
}

// CountPeriods returns how many contribution periods of the given frequency
// fall within [start, end]. The count is advisory: the engine detects
// period boundaries live, bar by bar. Always at least 1.
func (c *Calendar) CountPeriods(freq domain.Frequency, start, end time.Time, symbol string) int {
	if end.Before(start) {
		return 1
	}
	var n int
	switch freq {
	case domain.Weekly:
		n = c.TradingDayCount(start, end, symbol) / 7
	case domain.Monthly:
		n = (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	case domain.Quarterly:
		sq := (int(start.Month()) - 1) / 3
		eq := (int(end.Month()) - 1) / 3
		n = (end.Year()-start.Year())*4 + eq - sq + 1
	case domain.Yearly:
		n = end.Year() - start.Year() + 1
	}
	if n < 1 {
		n = 1
	}
	return n
}

// TradingDayCount counts trading days in [start, end] for the symbol's
// market.
func (c *Calendar) TradingDayCount(start, end time.Time, symbol string) int {
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d, symbol) {
			count++
		}
	}
	return count
}

// parseFlexible tries each accepted layout; date-only layouts are read in
// the market's location.
func parseFlexible(s string, loc *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// normalize reduces a timestamp to the calendar date it falls on in the
// market timezone, pinned to UTC midnight for downstream comparison.
func normalize(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---------------------------------------------------------------------------
// Holiday schedules
// ---------------------------------------------------------------------------

func usHolidays(year int) []time.Time {
	return []time.Time{
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 7, 4, 0, 0, 0, 0, time.UTC),
		fourthThursdayOfNovember(year),
		time.Date(year, 12, 25, 0, 0, 0, 0, time.UTC),
	}
}

func ukHolidays(year int) []time.Time {
	return []time.Time{
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 12, 25, 0, 0, 0, 0, time.UTC),
		time.Date(year, 12, 26, 0, 0, 0, 0, time.UTC),
	}
}

func jpHolidays(year int) []time.Time {
	return []time.Time{
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(year, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func hkHolidays(year int) []time.Time {
	return []time.Time{
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 12, 25, 0, 0, 0, 0, time.UTC),
	}
}

func cnHolidays(year int) []time.Time {
	return []time.Time{
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

// fourthThursdayOfNovember computes Thanksgiving for the given year.
func fourthThursdayOfNovember(year int) time.Time {
	d := time.Date(year, 11, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Thursday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+21)
}
