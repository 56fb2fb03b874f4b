package schedule

import (
	"sort"
	"time"
)

const (
	afternoonStart = 12 * 60
	eveningStart   = 17 * 60
)

// Buckets partitions a day's slots for display. Boundaries are numeric
// minute-of-day comparisons on the slot start, never label matching:
// morning before 12:00, afternoon 12:00 to 16:59, evening from 17:00.
type Buckets struct {
	Morning   []Slot
	Afternoon []Slot
	Evening   []Slot
}

// Empty reports whether no slot landed in any bucket.
func (b Buckets) Empty() bool {
	return len(b.Morning) == 0 && len(b.Afternoon) == 0 && len(b.Evening) == 0
}

// DaySlots expands every window matching the weekday and returns the
// merged, deduplicated, ascending slot list. Pure: same input, same
// output, no hidden state.
func DaySlots(windows []Window, weekday time.Weekday, step time.Duration) []Slot {
	var all []Slot
	for _, w := range windows {
		if w.Weekday != weekday {
			continue
		}
		all = append(all, Expand(w, step)...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })

	// Dedupe slots produced by overlapping windows.
	out := all[:0]
	for i, s := range all {
		if i > 0 && s.Start == all[i-1].Start {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Subtract removes slots whose start is already taken.
func Subtract(slots []Slot, taken []Minute) []Slot {
	if len(taken) == 0 {
		return slots
	}
	busy := make(map[Minute]struct{}, len(taken))
	for _, t := range taken {
		busy[t.normalize()] = struct{}{}
	}

	var free []Slot
	for _, s := range slots {
		if _, ok := busy[s.Start]; ok {
			continue
		}
		free = append(free, s)
	}
	return free
}

// Bucket splits ascending slots into morning, afternoon and evening.
func Bucket(slots []Slot) Buckets {
	var b Buckets
	for _, s := range slots {
		switch {
		case s.Start < afternoonStart:
			b.Morning = append(b.Morning, s)
		case s.Start < eveningStart:
			b.Afternoon = append(b.Afternoon, s)
		default:
			b.Evening = append(b.Evening, s)
		}
	}
	return b
}
