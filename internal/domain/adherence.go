package domain

import "time"

// FailureDateLayout is the calendar-day key format of User.Failures.
const FailureDateLayout = "2006-01-02"

// FailureWindowDays is the length of the trailing adherence window.
const FailureWindowDays = 7

// CalendarDay formats t as a failure key in loc.
func CalendarDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(FailureDateLayout)
}

// CountRecentFailures counts marked days in the FailureWindowDays ending on
// now's calendar day (inclusive). Keys that do not parse, lie in the future, or
// are older than the window are ignored.
func CountRecentFailures(failures map[string]bool, now time.Time, loc *time.Location) int {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	oldest := today.AddDate(0, 0, -(FailureWindowDays - 1))

	count := 0
	for key, marked := range failures {
		if !marked {
			continue
		}
		day, err := time.ParseInLocation(FailureDateLayout, key, loc)
		if err != nil {
			continue
		}
		if day.Before(oldest) || day.After(today) {
			continue
		}
		count++
	}
	return count
}

// AdjustmentResult reports what CheckAndAdjust saw and did.
type AdjustmentResult struct {
	PlanID           string `json:"planId"`
	RecentFailures   int    `json:"recentFailures"`
	FailureTolerance int    `json:"failureTolerance"`
	Adjusted         bool   `json:"adjusted"`
}
