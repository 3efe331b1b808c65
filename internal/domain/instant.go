package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Instant is a point in time that decodes from either a BSON datetime or an
// ISO-8601 string. It is always written back as a datetime.
type Instant struct {
	time.Time
}

// NewInstant wraps t.
func NewInstant(t time.Time) *Instant {
	return &Instant{Time: t.UTC()}
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseInstant accepts the string layouts older clients wrote.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid instant %q", s)
}

func (i Instant) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(i.Time.UTC())
}

func (i *Instant) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.DateTime:
		i.Time = raw.Time().UTC()
	case bsontype.String:
		// Blank strings mean "not set", like null.
		str := strings.TrimSpace(raw.StringValue())
		if str == "" {
			i.Time = time.Time{}
			return nil
		}
		parsed, err := ParseInstant(str)
		if err != nil {
			return err
		}
		i.Time = parsed
	case bsontype.Timestamp:
		sec, _ := raw.Timestamp()
		i.Time = time.Unix(int64(sec), 0).UTC()
	case bsontype.Null, bsontype.Undefined:
		i.Time = time.Time{}
	default:
		return fmt.Errorf("cannot decode %s into Instant", t)
	}
	return nil
}
