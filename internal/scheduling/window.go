package scheduling

import (
	"time"

	"github.com/vaxbook/booking-api/internal/model"
)

// Reason identifies the first booking-window rule a date failed.
type Reason string

const (
	ReasonServiceDisabled   Reason = "service_disabled"
	ReasonOutsideWindow     Reason = "outside_booking_window"
	ReasonWeekdayNotAllowed Reason = "weekday_not_allowed"
	ReasonNoWeekdays        Reason = "no_weekdays_configured"
	ReasonOutsideHours      Reason = "outside_service_hours"
	ReasonPastDate          Reason = "past_date"

	// Reasons produced outside the date-level rules.
	ReasonIneligible Reason = "ineligible_patient"
	ReasonCutoff     Reason = "cutoff_passed"
)

// WindowPolicy decides whether a calendar date is open for booking.
//
// WeekdayFailOpen governs a service whose allowed-weekday set is empty:
// false (the default) treats it as "never bookable", true disables the
// weekday restriction entirely. The original system behaved as if this
// were true; that looked like a bug, so the safer reading is the
// default and the old behavior sits behind the flag.
type WindowPolicy struct {
	WeekdayFailOpen bool
}

// Evaluate applies the window rules in order and reports the first
// failure. It is pure given its inputs; now must come from the caller's
// clock. date names a calendar day: only its components are read, the
// zone it was parsed in does not matter.
func (p WindowPolicy) Evaluate(svc *model.Service, date, now time.Time) (bool, Reason) {
	loc := svc.Location()
	day := model.Civil(date, loc)
	today := model.CivilDate(now, loc)

	if !svc.Enabled {
		return false, ReasonServiceDisabled
	}

	windowStart := model.Civil(svc.BookingStartDate, loc).AddDate(0, 0, -svc.AdvanceDays)
	windowEnd := model.Civil(svc.BookingEndDate, loc)
	if day.Before(windowStart) || day.After(windowEnd) {
		return false, ReasonOutsideWindow
	}

	if svc.WeekdayConfigured() {
		if !svc.WeekdayAllowed(day.Weekday()) {
			return false, ReasonWeekdayNotAllowed
		}
	} else if !p.WeekdayFailOpen {
		return false, ReasonNoWeekdays
	}

	if day.Equal(today) {
		nowMin := MinuteOf(now.In(loc))
		if nowMin < svc.StartMinute || nowMin > svc.EndMinute {
			return false, ReasonOutsideHours
		}
	}

	if day.Before(today) {
		return false, ReasonPastDate
	}

	return true, ""
}

// MinuteOf projects an instant onto its minute of day.
func MinuteOf(t time.Time) model.MinuteOfDay {
	return model.MinuteOfDay(t.Hour()*60 + t.Minute())
}
