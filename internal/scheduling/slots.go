// Package scheduling turns weekly availability into bookable slots. Both
// functions here are pure: same inputs, same ordered output.
package scheduling

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
)

// DefaultSlotWidth matches the fixed booking grid of the clinic.
const DefaultSlotWidth = 30 * time.Minute

// Slot is a bookable start time on a concrete date.
type Slot struct {
	Start time.Time
}

// Label renders the slot as HH:MM in its own location.
func (s Slot) Label() string {
	return s.Start.Format("15:04")
}

func Labels(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Label()
	}
	return out
}

type interval struct {
	start, end schedule.TimeOfDay
}

// GenerateCandidates walks every block of date's weekday in steps of width
// and returns the slot starts whose full width fits inside the block.
// Overlapping blocks are merged first so covered time counts once; blocks
// that merely touch stay separate. The grid of a merged span starts at its
// earliest block, so a later misaligned block contributes no starts of its
// own: 09:00-09:45 and 09:20-10:00 give 09:00 and 09:30, never 09:20.
// date should be midnight in the clinic's
// location; slots are placed in that location.
func GenerateCandidates(blocks []*schedule.Block, date time.Time, width time.Duration) []Slot {
	step := schedule.TimeOfDay(width / time.Minute)
	if step <= 0 {
		return nil
	}

	var spans []interval
	for _, b := range blocks {
		if b.Weekday != date.Weekday() || b.Start >= b.End {
			continue
		}
		spans = append(spans, interval{b.Start, b.End})
	}
	if len(spans) == 0 {
		return []Slot{}
	}

	slices.SortFunc(spans, func(a, b interval) int {
		if a.start != b.start {
			return int(a.start - b.start)
		}
		return int(a.end - b.end)
	})

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start < last.end {
			last.end = max(last.end, s.end)
			continue
		}
		merged = append(merged, s)
	}

	out := make([]Slot, 0)
	for _, span := range merged {
		for t := span.start; t+step <= span.end; t += step {
			out = append(out, Slot{Start: t.On(date)})
		}
	}
	return out
}

// FilterAvailable drops candidates already held by a non-cancelled
// appointment of doctorID at exactly the same instant. Conflicts are point
// equality on the slot start, which is sound only while every appointment
// occupies exactly one fixed-width slot.
func FilterAvailable(doctorID uuid.UUID, candidates []Slot, existing []*appointment.Appointment) []Slot {
	booked := make(map[int64]struct{}, len(existing))
	for _, a := range existing {
		if a.DoctorID != doctorID || !a.IsActive() {
			continue
		}
		booked[a.ScheduledAt.UnixNano()] = struct{}{}
	}

	out := make([]Slot, 0, len(candidates))
	for _, c := range candidates {
		if _, taken := booked[c.Start.UnixNano()]; taken {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Contains reports whether at is one of the slot starts.
func Contains(slots []Slot, at time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(at) {
			return true
		}
	}
	return false
}
