package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/strikkeguide/internal/domain"
)

func TestNormalize(t *testing.T) {
	doc := &domain.PatternDocument{
		Title:      "  Lue ",
		Difficulty: "Ekspert",
		Sizes:      []string{"S", " M ", "S", ""},
		YarnAmounts: domain.SizeBinding{
			"S": 100, "XXL": 200,
		},
		Steps: []domain.Step{{
			Title:       " Bol ",
			Description: "Legg opp {count_0} masker, strikk [lengde] cm.",
			SizeSpecificValues: []domain.SizeSpecificValue{
				{Placeholder: "{count_0}", Values: domain.SizeBinding{"S": 80, "M": 88, "XL": 96}},
				{Placeholder: "lengde", Values: domain.SizeBinding{"S": 20}},
				{Placeholder: "{count_1}", Values: domain.SizeBinding{"S": 1}},
				{Placeholder: "{count_0}", Values: domain.SizeBinding{"XL": 1}},
			},
		}},
	}
	Normalize(doc)

	assert.Equal(t, "Lue", doc.Title)
	assert.Equal(t, domain.DifficultyIntermediate, doc.Difficulty)
	assert.Equal(t, []string{"S", "M"}, doc.Sizes)
	assert.Equal(t, domain.SizeBinding{"S": 100}, doc.YarnAmounts)
	assert.NotNil(t, doc.Needles)

	st := doc.Steps[0]
	assert.Equal(t, "Bol", st.Title)
	require.Len(t, st.SizeSpecificValues, 2)
	assert.Equal(t, "{count_0}", st.SizeSpecificValues[0].Placeholder)
	assert.Equal(t, domain.SizeBinding{"S": 80, "M": 88}, st.SizeSpecificValues[0].Values)
	assert.Equal(t, "[lengde]", st.SizeSpecificValues[1].Placeholder)
	assert.Empty(t, Validate(doc))
}

func TestValidate(t *testing.T) {
	doc := &domain.PatternDocument{
		Difficulty: "Lett",
		Sizes:      []string{"S", "S"},
		Steps: []domain.Step{{
			Description: "Strikk {count_0} omganger",
			SizeSpecificValues: []domain.SizeSpecificValue{
				{Placeholder: "{count_0}", Values: domain.SizeBinding{"S": 4, "M": 5}},
				{Placeholder: "{count_1}", Values: domain.SizeBinding{"S": 1}},
				{Placeholder: "", Values: domain.SizeBinding{"S": 1}},
			},
		}},
	}
	problems := Validate(doc)

	assert.Len(t, problems, 5)
	assert.Contains(t, problems, `size "S" is declared twice`)
	assert.Contains(t, problems, `step 0 binds {count_0} for undeclared size "M"`)
	assert.Contains(t, problems, "step 0 binds {count_1} but its description never uses it")
	assert.Contains(t, problems, "step 0 has an empty placeholder")
	assert.ErrorIs(t, Check(doc), domain.ErrInvalidInput)
}

func TestValidate_OneSizeBindings(t *testing.T) {
	doc := &domain.PatternDocument{
		Difficulty: domain.DifficultyBeginner,
		Steps: []domain.Step{{
			Description: "Legg opp [masker] masker",
			SizeSpecificValues: []domain.SizeSpecificValue{
				{Placeholder: "[masker]", Values: domain.SizeBinding{domain.OneSize: 64}},
			},
		}},
	}
	assert.NoError(t, Check(doc))
}

func TestValidate_VideoURL(t *testing.T) {
	doc := &domain.PatternDocument{
		Title: "Votter",
		Steps: []domain.Step{{Title: "Tommel", Description: "Strikk tommelen.", VideoURL: " https://example.com/tommel "}},
	}
	Normalize(doc)
	assert.Equal(t, "https://example.com/tommel", doc.Steps[0].VideoURL)
	require.Empty(t, Validate(doc))

	for _, bad := range []string{"javascript:alert(1)", "/relativ/sti", "ftp://example.com/v"} {
		doc.Steps[0].VideoURL = bad
		assert.Contains(t, Validate(doc), "step 0 has a video link that is not an http(s) URL", bad)
	}
}
