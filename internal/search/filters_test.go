package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilterPredicate(t *testing.T) {
	tests := []struct {
		name     string
		filters  Filters
		expected string
	}{
		{
			name:     "min rent and gender",
			filters:  Filters{MinRent: 800, MaxRent: 5000, Gender: "Female", RoomType: "any"},
			expected: "rent >= 800 AND gender:Female",
		},
		{
			name:     "all defaults",
			filters:  Filters{MinRent: 0, MaxRent: 5000, Gender: "any", RoomType: "any"},
			expected: "",
		},
		{
			name:     "unset fields",
			filters:  Filters{},
			expected: "",
		},
		{
			name:     "max below ceiling",
			filters:  Filters{MaxRent: 1500, Gender: "ANY", RoomType: "Master"},
			expected: "rent <= 1500 AND roomType:Master",
		},
		{
			name:     "min above max is kept as given",
			filters:  Filters{MinRent: 3000, MaxRent: 1000},
			expected: "rent >= 3000 AND rent <= 1000",
		},
		{
			name:     "value with space is quoted",
			filters:  Filters{RoomType: "Entire Unit", MaxRent: 5000},
			expected: `roomType:"Entire Unit"`,
		},
		{
			name:     "all clauses",
			filters:  Filters{MinRent: 500, MaxRent: 2000, Gender: "Male", RoomType: "Studio"},
			expected: "rent >= 500 AND rent <= 2000 AND gender:Male AND roomType:Studio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildFilterPredicate(tt.filters, MaxSelectableRent))
		})
	}
}
