package scheduling

import "github.com/vaxbook/booking-api/internal/model"

// Eligible matches a patient profile against a service's age and gender
// constraints. A missing age bound is treated as unbounded; a correctly
// configured service always carries both.
func Eligible(p model.PatientProfile, svc *model.Service) bool {
	if svc.MinAge != nil && p.Age < *svc.MinAge {
		return false
	}
	if svc.MaxAge != nil && p.Age > *svc.MaxAge {
		return false
	}
	switch svc.GenderConstraint {
	case model.GenderConstraintAny, "":
		return true
	default:
		return string(svc.GenderConstraint) == string(p.Gender)
	}
}
