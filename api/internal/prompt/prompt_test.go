package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/imaging"
)

func TestBuild_TextOnly(t *testing.T) {
	p := Build(icf.PatientInput{
		Age:      "72",
		Gender:   "female",
		Symptoms: "difficulty swallowing, needs pureed food",
	}, 0)

	assert.False(t, p.AttachImages)
	assert.Contains(t, p.Text, "- Age: 72\n")
	assert.Contains(t, p.Text, "- Gender: female\n")
	assert.Contains(t, p.Text, "- Symptoms/Condition: difficulty swallowing, needs pureed food\n")
	assert.Contains(t, p.Text, "# Patient information")
	assert.NotContains(t, p.Text, "# Images")
	assert.NotContains(t, p.Text, "- Diagnosis:")
	assert.NotContains(t, p.Text, "attached images")
}

func TestBuild_ImagesOnly(t *testing.T) {
	p := Build(icf.PatientInput{}, 2)

	assert.True(t, p.AttachImages)
	assert.Contains(t, p.Text, "# Images\n"+imagesClause)
	assert.NotContains(t, p.Text, "# Patient information")
	assert.Contains(t, p.Text, "Analyze the uploaded images")
}

func TestBuild_BlankFieldsCountAsEmpty(t *testing.T) {
	p := Build(icf.PatientInput{Diagnosis: "   "}, 1)
	assert.NotContains(t, p.Text, "# Patient information")
}

func TestBuild_UnsetGenderOmitted(t *testing.T) {
	p := Build(icf.PatientInput{Gender: "unset", Age: "80"}, 0)
	assert.Contains(t, p.Text, "- Age: 80\n")
	assert.NotContains(t, p.Text, "- Gender:")
}

func TestBuild_Deterministic(t *testing.T) {
	in := icf.PatientInput{
		PatientID:            "A-17",
		Age:                  "81",
		Gender:               "male",
		Diagnosis:            "cerebral infarction",
		Symptoms:             "left hemiparesis",
		EnvironmentalFactors: "lives with wife, two-storey house",
		PersonalFactors:      "former carpenter",
	}
	first := Build(in, 3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.Text, Build(in, 3).Text)
	}
	assert.NotEqual(t, first.Text, Build(in, 0).Text)
}

func TestBuild_FixedInstructions(t *testing.T) {
	p := Build(icf.PatientInput{Symptoms: "x"}, 0)

	assert.True(t, strings.HasPrefix(p.Text, Persona))
	assert.Contains(t, p.Text, "Do NOT output ICF codes")
	assert.Contains(t, p.Text, "Do NOT summarize")
	assert.Contains(t, p.Text, `"personalFactors": []`)
}

func TestWithImages(t *testing.T) {
	imgs := []*imaging.NormalizedImage{{MIMEType: imaging.OutputMIME}}
	p := Build(icf.PatientInput{}, 1).WithImages(imgs)
	assert.True(t, p.AttachImages)
	assert.Len(t, p.Images, 1)
}

func TestOutputSchemaIsValidJSON(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(OutputSchema), &m))
	assert.Len(t, m["properties"], 6)

	require.NoError(t, json.Unmarshal([]byte(outputExample), &m))
}
