package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadClock = errors.New("clock must be HH:MM in 24-hour time")
)

// Minute is a minute-of-day offset in [0, 1440).
type Minute int

const (
	minutesPerDay = 24 * 60
	noon          = 12 * 60

	// DefaultSlotLength is the bookable slot granularity.
	DefaultSlotLength = time.Hour
)

// ParseClock converts a 24-hour "HH:MM" string to a minute-of-day.
func ParseClock(s string) (Minute, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return Minute(h*60 + m), nil
}

// ParseTime accepts either form a client sends for a slot start: the
// 24-hour "HH:MM" wire form or the 12-hour display label, e.g. "9:00 AM".
// Labels are case-insensitive; "12:00 AM" is midnight, "12:00 PM" is noon.
func ParseTime(s string) (Minute, error) {
	clock, suffix, found := strings.Cut(strings.TrimSpace(s), " ")
	if !found {
		return ParseClock(clock)
	}

	var pm bool
	switch strings.ToUpper(suffix) {
	case "AM":
	case "PM":
		pm = true
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 1 || h > 12 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	if h == 12 {
		h = 0
	}
	if pm {
		h += 12
	}
	return Minute(h*60 + m), nil
}

// Clock renders the minute as 24-hour "HH:MM".
func (m Minute) Clock() string {
	m = m.normalize()
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Label renders the minute as a 12-hour display label, e.g. "9:00 AM".
// Midnight is "12:00 AM" and noon is "12:00 PM".
func (m Minute) Label() string {
	m = m.normalize()
	h, mm := int(m)/60, int(m)%60

	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, mm, suffix)
}

func (m Minute) normalize() Minute {
	m %= minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// Slot is an ephemeral bookable unit derived from an availability window.
// It is never persisted; End wraps at midnight so a slot starting at
// 23:00 ends at minute 0 of the next day.
type Slot struct {
	Start Minute
	End   Minute
}

// NewSlot builds the slot starting at the given minute with the default
// length, wrapping the end at midnight.
func NewSlot(start Minute) Slot {
	return Slot{
		Start: start.normalize(),
		End:   (start + Minute(DefaultSlotLength.Minutes())).normalize(),
	}
}

// Label is the slot's display form, derived from its start.
func (s Slot) Label() string { return s.Start.Label() }

// Window is a doctor-declared recurring availability range on one weekday.
// Start must be strictly before End; Validate enforces this at write time.
type Window struct {
	Weekday time.Weekday
	Start   Minute
	End     Minute
}

var (
	ErrInvalidWindow = errors.New("availability window start must be before end")
	ErrWindowOverlap = errors.New("availability windows overlap on the same weekday")
)

// Validate checks that a window's bounds are ordered and within a day.
func (w Window) Validate() error {
	if w.Start < 0 || w.End > minutesPerDay || w.Start >= w.End {
		return fmt.Errorf("%w: %s-%s on %s", ErrInvalidWindow, w.Start.Clock(), w.End.Clock(), w.Weekday)
	}
	return nil
}

// ValidateSet checks a full weekly set: each window valid, no two windows
// on the same weekday overlapping.
func ValidateSet(windows []Window) error {
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
		for _, prev := range windows[:i] {
			if prev.Weekday != w.Weekday {
				continue
			}
			if w.Start < prev.End && prev.Start < w.End {
				return fmt.Errorf("%w: %s-%s and %s-%s on %s",
					ErrWindowOverlap,
					prev.Start.Clock(), prev.End.Clock(),
					w.Start.Clock(), w.End.Clock(), w.Weekday)
			}
		}
	}
	return nil
}

// Expand produces the ordered slots covering [w.Start, w.End) at the
// given step. Starts are aligned up to the next whole step so a window
// opening mid-hour never yields a slot outside it. An inverted or empty
// window yields no slots rather than an error.
func Expand(w Window, step time.Duration) []Slot {
	stepMin := Minute(step.Minutes())
	if stepMin <= 0 {
		stepMin = Minute(DefaultSlotLength.Minutes())
	}

	start := w.Start
	if rem := start % stepMin; rem != 0 {
		start += stepMin - rem
	}

	var slots []Slot
	for t := start; t+stepMin <= w.End; t += stepMin {
		slots = append(slots, Slot{Start: t, End: (t + stepMin).normalize()})
	}
	return slots
}
