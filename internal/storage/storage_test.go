package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecitationKey(t *testing.T) {
	assert.Equal(t, "recitations/u1/day-4/abc.mpeg", RecitationKey("u1", 4, "abc", "audio/mpeg"))
	assert.Equal(t, "recitations/u1/day-1/abc.ogg", RecitationKey("u1", 1, "abc", "audio/ogg; codecs=opus"))
	assert.Equal(t, "recitations/u1/day-2/abc.bin", RecitationKey("u1", 2, "abc", "garbage"))
}

func TestKeyBelongsTo(t *testing.T) {
	key := RecitationKey("u1", 4, "abc", "audio/mpeg")
	assert.True(t, KeyBelongsTo(key, "u1"))
	assert.False(t, KeyBelongsTo(key, "u"))
	assert.False(t, KeyBelongsTo("uploads/u1/x.mp3", "u1"))
}

func TestParseRecitationKey(t *testing.T) {
	user, day, ok := ParseRecitationKey(RecitationKey("u1", 7, "abc", "audio/mpeg"))
	assert.True(t, ok)
	assert.Equal(t, "u1", user)
	assert.Equal(t, 7, day)

	for _, key := range []string{
		"",
		"recitations/u1/abc.mpeg",
		"uploads/u1/day-1/abc.mpeg",
		"recitations/u1/week-1/abc.mpeg",
		"recitations/u1/day-0/abc.mpeg",
		"recitations//day-1/abc.mpeg",
	} {
		_, _, ok := ParseRecitationKey(key)
		assert.False(t, ok, key)
	}
}
