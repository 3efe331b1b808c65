// internal/domain/plan.go
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Plan is a shared memorization template; many users reference one plan.
type Plan struct {
	ID               string          `bson:"_id" json:"id"`
	Name             string          `bson:"name" json:"name"`
	TotalVerses      int             `bson:"totalVerses" json:"totalVerses"`
	DailySchedule    []ScheduleEntry `bson:"dailySchedule" json:"dailySchedule"`
	FailureTolerance int             `bson:"failureTolerance" json:"failureTolerance"` // Allowed missed days per rolling week
	LastAdjusted     *time.Time      `bson:"lastAdjusted,omitempty" json:"lastAdjusted,omitempty"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// ScheduleEntry is the memorization range for one day of a plan.
type ScheduleEntry struct {
	Day        DayKey `bson:"day" json:"day"`
	StartSurah int    `bson:"startSurah" json:"startSurah"`
	StartAyah  int    `bson:"startAyah" json:"startAyah"`
	EndSurah   int    `bson:"endSurah" json:"endSurah"`
	EndAyah    int    `bson:"endAyah" json:"endAyah"`
}

// EntryForDay returns the schedule entry whose day index equals day.
func (p *Plan) EntryForDay(day int) (ScheduleEntry, bool) {
	for _, entry := range p.DailySchedule {
		if entry.Day.Index == day {
			return entry, true
		}
	}
	return ScheduleEntry{}, false
}

// AdjustSchedule returns a copy of schedule with every endAyah reduced by
// reductionPercent, rounding down. startAyah is never touched, so an entry
// adjusted repeatedly can end before it starts.
func AdjustSchedule(schedule []ScheduleEntry, reductionPercent int) []ScheduleEntry {
	adjusted := make([]ScheduleEntry, len(schedule))
	for i, entry := range schedule {
		entry.EndAyah = ReduceAyah(entry.EndAyah, reductionPercent)
		adjusted[i] = entry
	}
	return adjusted
}

// ReduceAyah computes floor(ayah * (100-percent) / 100) in integer arithmetic.
func ReduceAyah(ayah, percent int) int {
	scaled := ayah * (100 - percent)
	q := scaled / 100
	if scaled%100 != 0 && scaled < 0 {
		q--
	}
	return q
}

// DayKey is a schedule day index. Plans seeded by different tools store it as
// a number, a numeric string or "dayN"; all parse to the same Index. The
// original string form is kept so writes round-trip it unchanged.
type DayKey struct {
	Index int
	Raw   string // empty when stored as a number
}

// NewDayKey builds a numeric day key.
func NewDayKey(day int) DayKey {
	return DayKey{Index: day}
}

// ParseDayIndex normalises "4", " 4 ", "day4" and "Day 4" to 4.
func ParseDayIndex(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "day"))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, false
		}
		n = int(f)
	}
	return n, true
}

func dayKeyFromString(s string) DayKey {
	n, _ := ParseDayIndex(s)
	return DayKey{Index: n, Raw: s}
}

func dayKeyFromFloat(f float64) (DayKey, error) {
	if f != math.Trunc(f) {
		return DayKey{}, fmt.Errorf("day index %v is not an integer", f)
	}
	return DayKey{Index: int(f)}, nil
}

func (k DayKey) String() string {
	if k.Raw != "" {
		return k.Raw
	}
	return strconv.Itoa(k.Index)
}

// Valid reports whether the key parsed to a usable 1-based index.
func (k DayKey) Valid() bool {
	return k.Index >= 1
}

func (k DayKey) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if k.Raw != "" {
		return bson.MarshalValue(k.Raw)
	}
	return bson.MarshalValue(int32(k.Index))
}

func (k *DayKey) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*k = DayKey{Index: int(raw.Int32())}
	case bsontype.Int64:
		*k = DayKey{Index: int(raw.Int64())}
	case bsontype.Double:
		parsed, err := dayKeyFromFloat(raw.Double())
		if err != nil {
			return err
		}
		*k = parsed
	case bsontype.String:
		*k = dayKeyFromString(raw.StringValue())
	default:
		return fmt.Errorf("cannot decode %s into DayKey", t)
	}
	return nil
}

func (k DayKey) MarshalJSON() ([]byte, error) {
	if k.Raw != "" {
		return json.Marshal(k.Raw)
	}
	return json.Marshal(k.Index)
}

func (k *DayKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = dayKeyFromString(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("day must be a number or string: %w", err)
	}
	parsed, err := dayKeyFromFloat(f)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
