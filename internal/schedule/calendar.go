// Package schedule holds the slot arithmetic: the fixed civil calendar,
// interval expansion into (date, hour) cells, and conflict checking.
package schedule

import "time"

// KST is the fixed UTC+9 civil calendar used for "today" and for the
// extension window, regardless of the server timezone.
var KST = time.FixedZone("KST", 9*60*60)

// DateFormat is the civil date layout used everywhere, including storage.
const DateFormat = "2006-01-02"

// Clock abstracts time.Now for the extension-window checks.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Today returns the current civil date in KST.
func Today(clock Clock) string {
	return clock.Now().In(KST).Format(DateFormat)
}

// NextDate returns date + 1 day. Invalid input is returned unchanged;
// callers validate dates at the edges.
func NextDate(date string) string {
	t, err := time.ParseInLocation(DateFormat, date, KST)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, 1).Format(DateFormat)
}

// PrevDate returns date - 1 day, with the same pass-through on invalid
// input as NextDate.
func PrevDate(date string) string {
	t, err := time.ParseInLocation(DateFormat, date, KST)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -1).Format(DateFormat)
}

// Dates returns n consecutive civil dates starting at start.
func Dates(start string, n int) []string {
	t, err := time.ParseInLocation(DateFormat, start, KST)
	if err != nil {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, t.AddDate(0, 0, i).Format(DateFormat))
	}
	return out
}

// Midnight returns 00:00 KST of the given civil date.
func Midnight(date string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, date, KST)
}
