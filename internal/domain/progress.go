package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// TaskReportInput is a progress submission as it arrives from a client.
// Fields are untyped because older clients send numbers as strings, omit
// fields, or use the legacy names (dailyGoalMet, lastSurah, lastAyah).
type TaskReportInput struct {
	CompletedVerses any `json:"completedVerses"`
	GoalMet         any `json:"goalMet"`
	DailyGoalMet    any `json:"dailyGoalMet"`
	Surah           any `json:"surah"`
	LastSurah       any `json:"lastSurah"`
	StartAyah       any `json:"startAyah"`
	EndAyah         any `json:"endAyah"`
	LastAyah        any `json:"lastAyah"`
	TaskType        any `json:"taskType"`
}

// TaskReport is a fully defaulted progress submission.
type TaskReport struct {
	CompletedVerses int
	GoalMet         bool
	Surah           string
	StartAyah       int
	LastAyah        int
	TaskType        string
}

// NormalizeTaskReport coerces every field to a safe value. It never fails:
// missing or malformed numbers become 0, booleans false, strings empty.
func NormalizeTaskReport(in TaskReportInput) TaskReport {
	report := TaskReport{
		CompletedVerses: nonNegativeInt(in.CompletedVerses),
		GoalMet:         toBool(in.GoalMet) || toBool(in.DailyGoalMet),
		Surah:           firstString(in.Surah, in.LastSurah),
		StartAyah:       nonNegativeInt(in.StartAyah),
		LastAyah:        nonNegativeInt(in.EndAyah),
		TaskType:        firstString(in.TaskType),
	}
	if report.LastAyah == 0 {
		report.LastAyah = nonNegativeInt(in.LastAyah)
	}
	if report.TaskType == "" {
		report.TaskType = TaskMemorization
	}
	return report
}

func nonNegativeInt(v any) int {
	if s, ok := v.(string); ok {
		return parseCount(s)
	}
	n, err := cast.ToIntE(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseCount reads s as a base-10 number. Leading zeros do not switch to
// octal and fractions truncate.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func toBool(v any) bool {
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

func firstString(values ...any) string {
	for _, v := range values {
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// ProgressEntry is everything one LogProgress call writes to a user record.
type ProgressEntry struct {
	Report   TaskReport
	Location Location
	Task     CompletedTask
	At       time.Time
}

// NewProgressEntry derives the write set for report at time at.
func NewProgressEntry(report TaskReport, at time.Time) ProgressEntry {
	return ProgressEntry{
		Report:   report,
		Location: Location{Surah: report.Surah, Ayah: report.LastAyah},
		Task: CompletedTask{
			Type:    report.TaskType,
			Verses:  report.CompletedVerses,
			Surah:   report.Surah,
			Date:    at,
			GoalMet: report.GoalMet,
		},
		At: at,
	}
}

// ProgressSnapshot is returned by LogProgress. It is derived locally from what
// was written; TotalVerses is the counter value the atomic increment produced.
type ProgressSnapshot struct {
	CompletedVerses       int       `json:"completedVerses"`
	TotalVerses           int       `json:"totalVerses"`
	DailyGoalMet          bool      `json:"dailyGoalMet"`
	Surah                 string    `json:"surah"`
	StartAyah             int       `json:"startAyah"`
	LastAyah              int       `json:"lastAyah"`
	TaskType              string    `json:"taskType"`
	LastMemorizedLocation Location  `json:"lastMemorizedLocation"`
	Timestamp             time.Time `json:"timestamp"`
}

// ProgressUpdate is pushed to in-process observers after each logged task.
type ProgressUpdate struct {
	UserID                string   `json:"userId"`
	LastSurah             string   `json:"lastSurah"`
	LastAyah              int      `json:"lastAyah"`
	CompletedVerses       int      `json:"completedVerses"`
	LastMemorizedLocation Location `json:"lastMemorizedLocation"`
}

// ProgressReport summarises a user's record for the dashboard.
type ProgressReport struct {
	TotalCompletedVerses  int      `json:"totalCompletedVerses"`
	LastMemorizedLocation Location `json:"lastMemorizedLocation"`
	LastSurahName         string   `json:"lastSurahName,omitempty"`
	CompletedTasks        int      `json:"completedTasks"`
	FailureRate           float64  `json:"failureRate"`
}

// FailureRate is the percentage of completed tasks whose goal was not met.
func FailureRate(tasks []CompletedTask) float64 {
	if len(tasks) == 0 {
		return 0
	}
	missed := 0
	for _, t := range tasks {
		if !t.GoalMet {
			missed++
		}
	}
	return float64(missed) / float64(len(tasks)) * 100
}

// EmptyProgress is the record initialised for users that have none.
func EmptyProgress() Progress {
	return Progress{CompletedTasks: []CompletedTask{}}
}
