package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustClock(t *testing.T, s string) Minute {
	t.Helper()
	m, err := ParseClock(s)
	require.NoError(t, err)
	return m
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Minute(9*60+30), m)

	for _, bad := range []string{"", "9:30", "24:00", "09:60", "09-30", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrBadClock, "input %q", bad)
	}
}

func TestParseTimeAcceptsBothForms(t *testing.T) {
	cases := map[string]Minute{
		"09:00":    9 * 60,
		"9:00 AM":  9 * 60,
		"09:00 AM": 9 * 60,
		"12:00 AM": 0,
		"12:00 PM": noon,
		"1:30 pm":  13*60 + 30,
		"11:00 PM": 23 * 60,
		" 9:00 AM": 9 * 60,
	}
	for in, want := range cases {
		got, err := ParseTime(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, bad := range []string{"", "9:00", "13:00 PM", "0:30 AM", "9:5 AM", "9:00 XM", "9:00 AM PM"} {
		_, err := ParseTime(bad)
		assert.ErrorIs(t, err, ErrBadClock, "input %q", bad)
	}
}

func TestMinuteLabel(t *testing.T) {
	cases := map[Minute]string{
		0:         "12:00 AM",
		9 * 60:    "9:00 AM",
		noon:      "12:00 PM",
		13 * 60:   "1:00 PM",
		23 * 60:   "11:00 PM",
		1440:      "12:00 AM", // wrapped
		9*60 + 15: "9:15 AM",
	}
	for m, want := range cases {
		assert.Equal(t, want, m.Label())
	}
}

func TestExpandHourly(t *testing.T) {
	w := Window{
		Weekday: time.Monday,
		Start:   mustClock(t, "09:00"),
		End:     mustClock(t, "13:00"),
	}

	slots := Expand(w, time.Hour)
	require.Len(t, slots, 4)

	var labels []string
	for _, s := range slots {
		labels = append(labels, s.Label())
	}
	assert.Equal(t, []string{"9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM"}, labels)

	for i := 1; i < len(slots); i++ {
		assert.Greater(t, slots[i].Start, slots[i-1].Start, "slots must be strictly increasing")
	}
}

func TestExpandLengthMatchesHourSpan(t *testing.T) {
	for startH := 0; startH < 23; startH++ {
		for endH := startH + 1; endH <= 24; endH++ {
			w := Window{Start: Minute(startH * 60), End: Minute(endH * 60)}
			slots := Expand(w, time.Hour)
			assert.Len(t, slots, endH-startH, "window %02d:00-%02d:00", startH, endH)
		}
	}
}

func TestExpandAlignsMidHourStartUp(t *testing.T) {
	w := Window{Start: mustClock(t, "09:30"), End: mustClock(t, "12:00")}
	slots := Expand(w, time.Hour)
	require.Len(t, slots, 2)
	assert.Equal(t, "10:00 AM", slots[0].Label())
	assert.Equal(t, "11:00 AM", slots[1].Label())
}

func TestExpandInvertedWindowIsEmpty(t *testing.T) {
	w := Window{Start: mustClock(t, "13:00"), End: mustClock(t, "09:00")}
	assert.Empty(t, Expand(w, time.Hour))

	same := Window{Start: mustClock(t, "09:00"), End: mustClock(t, "09:00")}
	assert.Empty(t, Expand(same, time.Hour))
}

func TestSlotEndWrapsAtNoonAndMidnight(t *testing.T) {
	eleven := NewSlot(mustClock(t, "11:00"))
	assert.Equal(t, "12:00 PM", eleven.End.Label())

	lateNight := NewSlot(mustClock(t, "23:00"))
	assert.Equal(t, "12:00 AM", lateNight.End.Label())
	assert.Equal(t, Minute(0), lateNight.End)
}

func TestWindowValidate(t *testing.T) {
	ok := Window{Weekday: time.Tuesday, Start: mustClock(t, "09:00"), End: mustClock(t, "17:00")}
	assert.NoError(t, ok.Validate())

	inverted := Window{Start: mustClock(t, "17:00"), End: mustClock(t, "09:00")}
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidWindow)

	empty := Window{Start: mustClock(t, "09:00"), End: mustClock(t, "09:00")}
	assert.ErrorIs(t, empty.Validate(), ErrInvalidWindow)
}

func TestValidateSetRejectsOverlap(t *testing.T) {
	overlapping := []Window{
		{Weekday: time.Monday, Start: mustClock(t, "09:00"), End: mustClock(t, "12:00")},
		{Weekday: time.Monday, Start: mustClock(t, "11:00"), End: mustClock(t, "15:00")},
	}
	assert.ErrorIs(t, ValidateSet(overlapping), ErrWindowOverlap)

	disjoint := []Window{
		{Weekday: time.Monday, Start: mustClock(t, "09:00"), End: mustClock(t, "12:00")},
		{Weekday: time.Monday, Start: mustClock(t, "12:00"), End: mustClock(t, "15:00")},
		{Weekday: time.Tuesday, Start: mustClock(t, "09:00"), End: mustClock(t, "12:00")},
	}
	assert.NoError(t, ValidateSet(disjoint))
}
