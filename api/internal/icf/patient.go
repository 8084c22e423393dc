package icf

import "strings"

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender accepts form values case-insensitively. Blank and "unset"
// are unset; anything else outside male/female is other.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset":
		return GenderUnset
	case "male":
		return GenderMale
	case "female":
		return GenderFemale
	default:
		return GenderOther
	}
}

// PatientInput is the union of the form variants; every field is optional.
type PatientInput struct {
	PatientID            string `json:"patientId,omitempty" form:"patientId"`
	Age                  string `json:"age,omitempty" form:"age"`
	Gender               Gender `json:"gender,omitempty" form:"gender"`
	Diagnosis            string `json:"diagnosis,omitempty" form:"diagnosis"`
	Symptoms             string `json:"symptoms,omitempty" form:"symptoms"`
	EnvironmentalFactors string `json:"environmentalFactors,omitempty" form:"environmentalFactors"`
	PersonalFactors      string `json:"personalFactors,omitempty" form:"personalFactors"`
}

// Normalized trims every field and canonicalizes gender.
func (p PatientInput) Normalized() PatientInput {
	return PatientInput{
		PatientID:            strings.TrimSpace(p.PatientID),
		Age:                  strings.TrimSpace(p.Age),
		Gender:               ParseGender(string(p.Gender)),
		Diagnosis:            strings.TrimSpace(p.Diagnosis),
		Symptoms:             strings.TrimSpace(p.Symptoms),
		EnvironmentalFactors: strings.TrimSpace(p.EnvironmentalFactors),
		PersonalFactors:      strings.TrimSpace(p.PersonalFactors),
	}
}

// HasText reports whether any field carries non-blank content.
func (p PatientInput) HasText() bool {
	n := p.Normalized()
	return n.PatientID != "" || n.Age != "" || n.Gender != GenderUnset ||
		n.Diagnosis != "" || n.Symptoms != "" ||
		n.EnvironmentalFactors != "" || n.PersonalFactors != ""
}
