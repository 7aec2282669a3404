package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaxbook/booking-api/internal/model"
)

func intPtr(v int) *int { return &v }

func TestEligible(t *testing.T) {
	svc := &model.Service{
		MinAge:           intPtr(18),
		MaxAge:           intPtr(65),
		GenderConstraint: model.GenderConstraintFemale,
	}

	tests := []struct {
		name    string
		profile model.PatientProfile
		want    bool
	}{
		{"matches all constraints", model.PatientProfile{Age: 30, Gender: model.GenderFemale}, true},
		{"age at lower bound", model.PatientProfile{Age: 18, Gender: model.GenderFemale}, true},
		{"age at upper bound", model.PatientProfile{Age: 65, Gender: model.GenderFemale}, true},
		{"too young", model.PatientProfile{Age: 17, Gender: model.GenderFemale}, false},
		{"too old", model.PatientProfile{Age: 66, Gender: model.GenderFemale}, false},
		{"wrong gender", model.PatientProfile{Age: 30, Gender: model.GenderMale}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.profile, svc))
		})
	}
}

func TestEligible_UnboundedAges(t *testing.T) {
	svc := &model.Service{GenderConstraint: model.GenderConstraintAny}

	assert.True(t, Eligible(model.PatientProfile{Age: 0, Gender: model.GenderMale}, svc))
	assert.True(t, Eligible(model.PatientProfile{Age: 120, Gender: model.GenderFemale}, svc))
}

func TestEligible_EmptyGenderConstraintMeansAny(t *testing.T) {
	svc := &model.Service{}

	assert.True(t, Eligible(model.PatientProfile{Age: 40, Gender: model.GenderMale}, svc))
	assert.True(t, Eligible(model.PatientProfile{Age: 40, Gender: model.GenderFemale}, svc))
}
