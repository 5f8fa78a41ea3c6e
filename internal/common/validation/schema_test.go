package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name     string
		schema   string
		document string
		validate func(t *testing.T, r *ValidationResult)
	}{
		{
			name:     "valid consultation",
			schema:   SchemaConsultation,
			document: `{"listingId":"l-1","tenantName":"Aina","tenantEmail":"aina@example.com","preferredDate":"2026-11-02","locale":"ja"}`,
			validate: func(t *testing.T, r *ValidationResult) {
				assert.True(t, r.Valid)
				assert.Empty(t, r.Errors)
			},
		},
		{
			name:     "consultation missing email",
			schema:   SchemaConsultation,
			document: `{"listingId":"l-1","tenantName":"Aina"}`,
			validate: func(t *testing.T, r *ValidationResult) {
				assert.False(t, r.Valid)
				require.Len(t, r.Errors, 1)
				assert.Equal(t, "REQUIRED", r.Errors[0].Code)
				assert.Contains(t, r.Summary(), "tenantEmail")
			},
		},
		{
			name:     "consultation unknown field",
			schema:   SchemaConsultation,
			document: `{"listingId":"l-1","tenantName":"Aina","tenantEmail":"aina@example.com","admin":true}`,
			validate: func(t *testing.T, r *ValidationResult) {
				assert.False(t, r.Valid)
			},
		},
		{
			name:     "listing with bad coordinates and room type",
			schema:   SchemaListing,
			document: `{"id":"l-1","ownerId":"u-1","title":"Room","location":{"lat":95,"lng":101.7},"rent":900,"roomType":"Castle"}`,
			validate: func(t *testing.T, r *ValidationResult) {
				assert.False(t, r.Valid)
				assert.Len(t, r.Errors, 2)
			},
		},
		{
			name:     "malformed json",
			schema:   SchemaChat,
			document: `{"message":`,
			validate: func(t *testing.T, r *ValidationResult) {
				assert.False(t, r.Valid)
				require.Len(t, r.Errors, 1)
				assert.Equal(t, "MALFORMED_JSON", r.Errors[0].Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := v.Validate(tt.schema, []byte(tt.document))
			require.NoError(t, err)
			tt.validate(t, r)
		})
	}
}

func TestValidateValue(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	r, err := v.ValidateValue(SchemaCommuteAssessment, map[string]interface{}{
		"listingId":      "l-1",
		"workplace":      "Menara TM",
		"transportModes": []string{"train", "walk"},
	})
	require.NoError(t, err)
	assert.True(t, r.Valid)

	_, err = v.ValidateValue("nope", map[string]interface{}{})
	assert.Error(t, err)
}
