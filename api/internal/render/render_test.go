package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icf-classifier/api/internal/icf"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	c, err := LoadCatalog()
	require.NoError(t, err)
	return New(c)
}

func decode(t *testing.T, s string) *icf.ClassificationResult {
	t.Helper()
	var res icf.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(s), &res))
	return &res
}

func TestRender_CanonicalOrderAndTitles(t *testing.T) {
	sections := newRenderer(t).Render(&icf.ClassificationResult{}, Japanese)

	keys := make([]string, 0, len(sections))
	for _, s := range sections {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{
		"healthCondition", "bodyFunctionsAndStructures", "activities",
		"participation", "environmentalFactors", "personalFactors",
	}, keys)
	assert.Equal(t, "1. 健康状態", sections[0].Title)
	assert.Equal(t, "6. 個人因子", sections[5].Title)
	for _, s := range sections {
		assert.True(t, s.Empty())
		assert.Equal(t, "データなし", s.Placeholder)
	}
}

func TestRender_MissingKeyEqualsAllEmpty(t *testing.T) {
	r := newRenderer(t)
	missing := decode(t, `{"healthCondition":{"overview":"x"}}`)
	empty := decode(t, `{
		"healthCondition":{"overview":"x"},
		"bodyFunctionsAndStructures":{"functions":[],"structures":[],"impairments":[]},
		"activities":{"capacity":[],"performance":[],"limitations":[]},
		"participation":{"participation":[],"restrictions":[]},
		"environmentalFactors":{"physical":[],"human":[],"social":[]},
		"personalFactors":[]
	}`)

	for _, loc := range []Locale{Japanese, English} {
		assert.Equal(t, r.Render(empty, loc), r.Render(missing, loc))
	}
	assert.Equal(t, r.Render(nil, English), r.Render(&icf.ClassificationResult{}, English))
}

func TestRender_EndToEndShape(t *testing.T) {
	res := decode(t, `{"healthCondition":{"overview":"needs pureed food"}, "personalFactors":[]}`)
	sections := newRenderer(t).Render(res, English)

	require.Len(t, sections, 6)
	assert.False(t, sections[0].Empty())
	assert.Equal(t, []Item{{Label: "Overview", Value: "needs pureed food"}}, sections[0].Items)
	for _, s := range sections[1:] {
		assert.True(t, s.Empty(), s.Key)
		assert.Equal(t, "No data", s.Placeholder)
	}
}

func TestRender_ListOrderPreserved(t *testing.T) {
	res := decode(t, `{
		"activities":{"limitations":["stairs","bathing","stairs","alpha"]},
		"personalFactors":["z","a"]
	}`)
	sections := newRenderer(t).Render(res, English)

	act := sections[2]
	require.Len(t, act.Items, 1)
	assert.Equal(t, "Activity Limitations", act.Items[0].Label)
	assert.Equal(t, []string{"stairs", "bathing", "stairs", "alpha"}, act.Items[0].Items)

	pf := sections[5]
	require.Len(t, pf.Items, 1)
	assert.Empty(t, pf.Items[0].Label)
	assert.Equal(t, []string{"z", "a"}, pf.Items[0].Items)
}

func TestRender_OnlyPopulatedLeavesListed(t *testing.T) {
	res := decode(t, `{"environmentalFactors":{"physical":[],"human":["daughter visits weekly"],"social":[]}}`)
	env := newRenderer(t).Render(res, Japanese)[4]

	assert.Equal(t, "5. 環境因子", env.Title)
	assert.Equal(t, []Item{{Label: "人的環境", Items: []string{"daughter visits weekly"}}}, env.Items)
	assert.Empty(t, env.Placeholder)
}

func TestParseLocale(t *testing.T) {
	assert.Equal(t, English, ParseLocale("en-US,en;q=0.9", Japanese))
	assert.Equal(t, Japanese, ParseLocale("ja", English))
	assert.Equal(t, Japanese, ParseLocale("fr-FR, ja;q=0.5", English))
	assert.Equal(t, English, ParseLocale("", English))
	assert.Equal(t, Japanese, ParseLocale("de", Japanese))
}

func TestCatalog_Messages(t *testing.T) {
	c := MustCatalog()
	assert.Equal(t, "Please enter either text information or images.", c.Message(English, "input"))
	assert.Equal(t, c.Message(Japanese, "internal"), c.Message(Japanese, "no-such-key"))
	assert.Equal(t, c.NoData(Japanese), c.NoData("xx"))
}

func TestFormatText(t *testing.T) {
	res := decode(t, `{
		"healthCondition":{"currentMedicalHistory":"fell on 3 May"},
		"activities":{"performance":["walks with a cane","needs help bathing"]}
	}`)
	text := FormatText(newRenderer(t).Render(res, English))

	assert.Contains(t, text, "■ 1. Health Condition\n【Current Medical History】\n  fell on 3 May\n")
	assert.Contains(t, text, "【Performance】\n  • walks with a cane\n  • needs help bathing\n")
	assert.Contains(t, text, "■ 2. Body Functions & Structures\nNo data\n")
	assert.Equal(t, 6, strings.Count(text, "■ "))
}
