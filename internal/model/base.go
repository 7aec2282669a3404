package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Civil pins the calendar components of t to midnight in loc without
// converting the instant. Values that carry a calendar day (parsed
// request dates, DATE columns read back as UTC midnight) keep that day
// in any service timezone.
func Civil(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CivilDate projects the instant t onto the calendar date it falls on
// in loc. Use it for clock readings; use Civil for values that already
// name a calendar day.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	return Civil(t.In(loc), loc)
}

// SameDate reports whether the civil date d names the calendar day the
// instant now falls on in loc.
func SameDate(d, now time.Time, loc *time.Location) bool {
	return Civil(d, loc).Equal(CivilDate(now, loc))
}

// SameCivil reports whether a and b carry the same calendar components,
// the way a DATE column compares regardless of the zone each value was
// read back in.
func SameCivil(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
