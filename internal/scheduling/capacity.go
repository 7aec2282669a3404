package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
)

// SlotAvailability annotates a candidate or explicit slot with its
// confirmed-booking count and remaining capacity. SlotID is set only
// for explicit slots.
type SlotAvailability struct {
	SlotID    *uuid.UUID        `json:"id,omitempty"`
	Start     model.MinuteOfDay `json:"start"`
	End       model.MinuteOfDay `json:"end"`
	Quota     int               `json:"quota"`
	Booked    int               `json:"booked"`
	Remaining int               `json:"remaining"`
	Available bool              `json:"available"`
}

// BuildAvailability merges the service's slots with confirmed bookings
// for the date and answers remaining capacity per slot, ordered by
// start time. bookings must already be filtered to (service, date,
// confirmed); slots to enabled explicit slots of the service.
//
// In generated mode the date-level remainder is spread across all
// candidates as ceil(remaining/candidates) with a floor of 1 while any
// capacity remains. That intentionally approximates even distribution;
// the sum of per-slot quotas may exceed the aggregate quota.
func BuildAvailability(svc *model.Service, date, now time.Time, bookings []*model.Booking, slots []*model.TimeSlot) []SlotAvailability {
	loc := svc.Location()
	sameDay := model.SameDate(date, now, loc)
	nowMin := MinuteOf(now.In(loc))

	cutoffOK := func(start model.MinuteOfDay) bool {
		if !sameDay {
			return true
		}
		return nowMin < start-model.MinuteOfDay(svc.CutoffMinutes)
	}

	if svc.UsesExplicitSlots {
		ordered := make([]*model.TimeSlot, len(slots))
		copy(ordered, slots)
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].StartMinute < ordered[j].StartMinute
		})

		bySlot := make(map[uuid.UUID]int)
		for _, b := range bookings {
			if b.SlotID != nil {
				bySlot[*b.SlotID]++
			}
		}

		out := make([]SlotAvailability, 0, len(ordered))
		for _, s := range ordered {
			booked := bySlot[s.ID]
			remaining := s.Quota - booked
			if remaining < 0 {
				remaining = 0
			}
			id := s.ID
			out = append(out, SlotAvailability{
				SlotID:    &id,
				Start:     s.StartMinute,
				End:       s.EndMinute,
				Quota:     s.Quota,
				Booked:    booked,
				Remaining: remaining,
				Available: s.Enabled && remaining > 0 && cutoffOK(s.StartMinute),
			})
		}
		return out
	}

	candidates := GenerateGrid(svc.StartMinute, svc.EndMinute, svc.SlotDurationMin)
	if len(candidates) == 0 {
		return nil
	}

	remainingCap := svc.AggregateQuota - len(bookings)
	perSlot := 0
	if remainingCap > 0 {
		perSlot = (remainingCap + len(candidates) - 1) / len(candidates)
		if perSlot < 1 {
			perSlot = 1
		}
	}

	byStart := make(map[model.MinuteOfDay]int)
	for _, b := range bookings {
		byStart[b.StartMinute]++
	}

	out := make([]SlotAvailability, 0, len(candidates))
	for _, c := range candidates {
		booked := byStart[c.Start]
		remaining := perSlot - booked
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, SlotAvailability{
			Start:     c.Start,
			End:       c.End,
			Quota:     perSlot,
			Booked:    booked,
			Remaining: remaining,
			Available: remaining > 0 && cutoffOK(c.Start),
		})
	}
	return out
}
