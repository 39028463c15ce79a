package schedule

import (
	"fmt"
	"time"
)

// FormatRelative renders an instant relative to now the way the app's
// task cards word it: "today", "tomorrow", "in 3 days", "2 days ago",
// falling back to an absolute date past a month out.
func FormatRelative(t, now time.Time) string {
	switch {
	case sameDay(t, now):
		return "today"
	case sameDay(t, now.AddDate(0, 0, -1)):
		return "yesterday"
	case sameDay(t, now.AddDate(0, 0, 1)):
		return "tomorrow"
	}

	days := int(t.Sub(now).Hours() / 24)
	if days < 0 {
		days = -days
	}

	if t.After(now) {
		if days <= 30 {
			return fmt.Sprintf("in %d %s", days, pluralDays(days))
		}
		return "on " + t.Format("Jan 2, 2006")
	}
	if days <= 30 {
		return fmt.Sprintf("%d %s ago", days, pluralDays(days))
	}
	return "on " + t.Format("Jan 2, 2006")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func pluralDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
