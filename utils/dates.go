// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// DayStamp renders the date part of an ISO timestamp, used in backup folder
// names and generated photo filenames.
func DayStamp(t time.Time) string {
	return t.Format("2006-01-02")
}
