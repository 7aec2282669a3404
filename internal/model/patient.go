package model

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// PatientProfile carries the demographic facts the eligibility rules
// need. Age is derived upstream from the patient record; the engine
// never computes it.
type PatientProfile struct {
	Age    int    `json:"age" binding:"min=0,max=150"`
	Gender Gender `json:"gender" binding:"required,oneof=male female"`
}
