package util

import (
	"fmt"
	"strings"
	"time"
)

// Seconds per approximate month used by the countdown (30.44 days).
const monthSeconds = int64(30.44 * 24 * 3600)

// Elapsed formats seconds as "Xd Yh Zm Ws", dropping leading zero units.
func Elapsed(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	days := sec / 86400
	hours := (sec % 86400) / 3600
	minutes := (sec % 3600) / 60
	seconds := sec % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Uptime formats d as "Nh Nm Ns" with hours unbounded.
func Uptime(d time.Duration) string {
	sec := int64(d / time.Second)
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%dh %dm %ds", sec/3600, (sec%3600)/60, sec%60)
}

// Countdown spells out sec as months, weeks, days, hours, minutes and seconds,
// skipping zero units. It returns "" when nothing is left.
func Countdown(sec int64) string {
	if sec <= 0 {
		return ""
	}
	months := sec / monthSeconds
	rem := sec % monthSeconds
	weeks := rem / (7 * 86400)
	rem %= 7 * 86400
	days := rem / 86400
	rem %= 86400
	hours := rem / 3600
	rem %= 3600
	minutes := rem / 60
	seconds := rem % 60

	units := []struct {
		n    int64
		name string
	}{
		{months, "month"},
		{weeks, "week"},
		{days, "day"},
		{hours, "hour"},
		{minutes, "minute"},
		{seconds, "second"},
	}
	parts := make([]string, 0, len(units))
	for _, u := range units {
		if u.n > 0 {
			parts = append(parts, Plural(u.n, u.name))
		}
	}
	return strings.Join(parts, ", ")
}

// Plural renders "1 day" / "2 days".
func Plural(n int64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// DateLabel renders t like "December 4th, 2025".
func DateLabel(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Month(), t.Day(), ordinal(t.Day()), t.Year())
}

func ordinal(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
