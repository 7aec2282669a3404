package scheduling

import (
	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
)

// Overlaps reports whether the half-open ranges [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not count.
func Overlaps(aStart, aEnd, bStart, bEnd model.MinuteOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// Conflicts returns every enabled existing slot whose range overlaps
// the proposed one, so the caller can report all conflicts at once.
// The slot being edited, if any, is excluded from the comparison.
func Conflicts(start, end model.MinuteOfDay, existing []*model.TimeSlot, exclude *uuid.UUID) []*model.TimeSlot {
	var conflicts []*model.TimeSlot
	for _, s := range existing {
		if !s.Enabled {
			continue
		}
		if exclude != nil && s.ID == *exclude {
			continue
		}
		if Overlaps(start, end, s.StartMinute, s.EndMinute) {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts
}
