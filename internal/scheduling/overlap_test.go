package scheduling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vaxbook/booking-api/internal/model"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd model.MinuteOfDay
		bStart, bEnd model.MinuteOfDay
		want         bool
	}{
		{"identical", minute(9, 0), minute(9, 30), minute(9, 0), minute(9, 30), true},
		{"partial overlap", minute(9, 0), minute(9, 30), minute(9, 15), minute(9, 45), true},
		{"containment", minute(9, 0), minute(10, 0), minute(9, 15), minute(9, 30), true},
		{"touching endpoints do not overlap", minute(9, 0), minute(9, 30), minute(9, 30), minute(10, 0), false},
		{"disjoint", minute(9, 0), minute(9, 30), minute(10, 0), minute(10, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Symmetric.
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func slot(start, end model.MinuteOfDay, enabled bool) *model.TimeSlot {
	s := &model.TimeSlot{StartMinute: start, EndMinute: end, Enabled: enabled}
	s.ID = uuid.New()
	return s
}

func TestConflicts_ReturnsAllOverlapping(t *testing.T) {
	existing := []*model.TimeSlot{
		slot(minute(9, 0), minute(9, 30), true),
		slot(minute(9, 30), minute(10, 0), true),
		slot(minute(10, 0), minute(10, 30), true),
	}

	// [09:15, 09:45) straddles the first two slots.
	conflicts := Conflicts(minute(9, 15), minute(9, 45), existing, nil)

	assert.Len(t, conflicts, 2)
	assert.Equal(t, existing[0].ID, conflicts[0].ID)
	assert.Equal(t, existing[1].ID, conflicts[1].ID)
}

func TestConflicts_IgnoresDisabledSlots(t *testing.T) {
	existing := []*model.TimeSlot{
		slot(minute(9, 0), minute(10, 0), false),
	}

	assert.Empty(t, Conflicts(minute(9, 15), minute(9, 45), existing, nil))
}

func TestConflicts_ExcludesSlotBeingEdited(t *testing.T) {
	edited := slot(minute(9, 0), minute(9, 30), true)
	existing := []*model.TimeSlot{
		edited,
		slot(minute(9, 30), minute(10, 0), true),
	}

	conflicts := Conflicts(minute(9, 0), minute(9, 45), existing, &edited.ID)

	assert.Len(t, conflicts, 1)
	assert.Equal(t, existing[1].ID, conflicts[0].ID)
}
