package search

import (
	"testing"

	"rental-marketplace/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredicate(t *testing.T) {
	clauses, err := ParsePredicate(`rent >= 800 AND rent <= 2000 AND gender:Female AND roomType:"Entire Unit"`)
	require.NoError(t, err)
	require.Len(t, clauses, 4)

	assert.Equal(t, Clause{Field: "rent", Op: ">=", Num: 800}, clauses[0])
	assert.Equal(t, Clause{Field: "rent", Op: "<=", Num: 2000}, clauses[1])
	assert.Equal(t, Clause{Field: "gender", Op: ":", Value: "Female"}, clauses[2])
	assert.Equal(t, "Entire Unit", clauses[3].Value)
	assert.True(t, clauses[3].Facet())
}

func TestParsePredicate_Empty(t *testing.T) {
	clauses, err := ParsePredicate("   ")
	require.NoError(t, err)
	assert.Empty(t, clauses)
}

func TestParsePredicate_RoundTripsBuilderOutput(t *testing.T) {
	f := Filters{MinRent: 700, MaxRent: 1800, Gender: "Female", RoomType: "Entire Unit"}
	clauses, err := ParsePredicate(BuildFilterPredicate(f, MaxSelectableRent))
	require.NoError(t, err)
	assert.Len(t, clauses, 4)
}

func TestParsePredicate_Invalid(t *testing.T) {
	for _, s := range []string{
		"rent >= cheap",
		"gender",
		"rent != 5",
		"gender: AND rent >= 1",
		"bad field:x",
		`roomType:"unterminated`,
	} {
		t.Run(s, func(t *testing.T) {
			_, err := ParsePredicate(s)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFilterFormat))
		})
	}
}
