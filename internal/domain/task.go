package domain

import (
	"fmt"
	"time"
)

// Task identifiers
const (
	TaskMemorization = "memorization"
	TaskRevision     = "revision"
)

const (
	memorizationTitle         = "حفظ آيات جديدة"
	revisionTitle             = "مراجعة المحفوظ"
	revisionDescription       = "راجع الآيات التي حفظتها في الأيام الماضية"
	missingMemorizationNotice = "لم يتم العثور على مهمة اليوم"
	missingRevisionNotice     = "لم يتم العثور على مهمة المراجعة"
)

// Task is a renderable work item for today.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	VerseCount  int    `json:"verseCount"`
	Surah       string `json:"surah,omitempty"`
	StartAyah   int    `json:"startAyah"`
	EndAyah     int    `json:"endAyah"`
}

// DailyTasks is the pair shown on the dashboard.
type DailyTasks struct {
	Memorization Task `json:"memorization"`
	Revision     Task `json:"revision"`
}

// DaysSinceStart is the 1-based plan day for now: the enrollment day is day 1
// and any negative delta (clock skew, future enrollment) clamps to day 1.
func DaysSinceStart(start, now time.Time) int {
	days := int(now.Sub(start)/(24*time.Hour)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// VerseCount is the inclusive ayah count of an entry, never negative.
func (e ScheduleEntry) VerseCount() int {
	n := e.EndAyah - e.StartAyah + 1
	if n < 0 {
		return 0
	}
	return n
}

// BuildDailyTasks turns a schedule entry into today's task pair.
func BuildDailyTasks(entry ScheduleEntry, revisionVerses int) DailyTasks {
	surah := SurahName(entry.StartSurah)
	return DailyTasks{
		Memorization: Task{
			ID:          TaskMemorization,
			Title:       memorizationTitle,
			Description: fmt.Sprintf("احفظ آيات من سورة %s من آية %d إلى %d", surah, entry.StartAyah, entry.EndAyah),
			VerseCount:  entry.VerseCount(),
			Surah:       surah,
			StartAyah:   entry.StartAyah,
			EndAyah:     entry.EndAyah,
		},
		Revision: Task{
			ID:          TaskRevision,
			Title:       revisionTitle,
			Description: revisionDescription,
			VerseCount:  revisionVerses,
		},
	}
}

// PlaceholderDailyTasks is returned whenever today's task cannot be resolved.
// Every numeric field is zero.
func PlaceholderDailyTasks() DailyTasks {
	return DailyTasks{
		Memorization: Task{
			ID:          TaskMemorization,
			Title:       memorizationTitle,
			Description: missingMemorizationNotice,
		},
		Revision: Task{
			ID:          TaskRevision,
			Title:       revisionTitle,
			Description: missingRevisionNotice,
		},
	}
}
