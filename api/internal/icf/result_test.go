package icf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationResult_TolerantDecode(t *testing.T) {
	raw := `{
		"healthCondition": {"currentMedicalHistory": ["fell at home", "hip fracture"], "overview": null},
		"bodyFunctionsAndStructures": "none",
		"activities": {"capacity": "walks 10m with frame", "limitations": ["stairs", "", "bathing"]},
		"participation": {"restrictions": [1, true]},
		"personalFactors": ["retired teacher"]
	}`

	var res ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(raw), &res))

	assert.Equal(t, Text("fell at home\nhip fracture"), res.HealthCondition.CurrentMedicalHistory)
	assert.True(t, res.HealthCondition.Overview.IsEmpty())
	assert.True(t, res.BodyFunctionsAndStructures.IsEmpty())
	assert.Equal(t, TextList{"walks 10m with frame"}, res.Activities.Capacity)
	assert.Equal(t, TextList{"stairs", "bathing"}, res.Activities.Limitations)
	assert.Equal(t, TextList{"1", "true"}, res.Participation.Restrictions)
	assert.True(t, res.EnvironmentalFactors.IsEmpty())
	assert.Equal(t, TextList{"retired teacher"}, res.PersonalFactors)
}

func TestTextList_MarshalEmptyAsArray(t *testing.T) {
	b, err := json.Marshal(Participation{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"participation":[],"restrictions":[]}`, string(b))
}

func TestPatientInput_HasText(t *testing.T) {
	assert.False(t, PatientInput{}.HasText())
	assert.False(t, PatientInput{Symptoms: "   ", Diagnosis: "\n"}.HasText())
	assert.False(t, PatientInput{Gender: "unset"}.HasText())
	assert.True(t, PatientInput{Gender: "Female"}.HasText())
	assert.True(t, PatientInput{PatientID: "P-001"}.HasText())
}

func TestParseGender(t *testing.T) {
	tests := map[string]Gender{
		"":        GenderUnset,
		"unset":   GenderUnset,
		" UNSET ": GenderUnset,
		"MALE":    GenderMale,
		" female": GenderFemale,
		"other":   GenderOther,
		"x":       GenderOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseGender(in), in)
	}
}
