package search

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Geocoder
// ==========================

type mockGeocoder struct {
	GeocodeFunc func(ctx context.Context, address string) (models.GeoPoint, error)
	calls       []string
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (models.GeoPoint, error) {
	m.calls = append(m.calls, address)
	return m.GeocodeFunc(ctx, address)
}

func resolving(p models.GeoPoint) *mockGeocoder {
	return &mockGeocoder{GeocodeFunc: func(context.Context, string) (models.GeoPoint, error) { return p, nil }}
}

func failing(err error) *mockGeocoder {
	return &mockGeocoder{GeocodeFunc: func(context.Context, string) (models.GeoPoint, error) { return models.GeoPoint{}, err }}
}

// ==========================
// Tests
// ==========================

func TestBuild_GeocodeSuccess(t *testing.T) {
	geo := resolving(models.GeoPoint{Lat: 3.15, Lng: 101.71})
	b := NewBuilder(geo, DefaultBuilderConfig(), logger.NewTestLogger(t))

	intent, req := b.Build(context.Background(), "Bangsar South", Filters{})

	assert.Equal(t, "", req.Query)
	assert.Equal(t, "3.15,101.71", req.AroundLatLng)
	require.NotNil(t, req.AroundRadius)
	assert.Equal(t, 5000, req.AroundRadius.Meters)
	assert.False(t, req.AroundRadius.All)
	assert.Equal(t, 20, req.HitsPerPage)

	require.NotNil(t, intent.Resolved)
	assert.Equal(t, "Bangsar South", intent.RawText)
	assert.Equal(t, []string{"Bangsar South"}, geo.calls)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"","filters":"","hitsPerPage":20,"aroundLatLng":"3.15,101.71","aroundRadius":5000}`, string(raw))
}

func TestBuild_GeocodeFailure(t *testing.T) {
	tests := []struct {
		name     string
		geocoder Geocoder
	}{
		{"no result", failing(stderrors.New("ZERO_RESULTS"))},
		{"api error", failing(stderrors.New("status 500"))},
		{"no geocoder configured", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.geocoder, DefaultBuilderConfig(), logger.NewTestLogger(t))
			intent, req := b.Build(context.Background(), "studio near LRT", Filters{MinRent: 800, Gender: "Female"})

			assert.Equal(t, "studio near LRT", req.Query)
			assert.Empty(t, req.AroundLatLng)
			assert.Nil(t, req.AroundRadius)
			assert.Nil(t, intent.Resolved)
			assert.Equal(t, "rent >= 800 AND gender:Female", req.Filters)

			raw, err := json.Marshal(req)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "aroundLatLng")
			assert.NotContains(t, string(raw), "aroundRadius")
		})
	}
}

func TestBuild_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		geo := resolving(models.GeoPoint{Lat: 1, Lng: 1})
		b := NewBuilder(geo, DefaultBuilderConfig(), logger.NewTestLogger(t))

		intent, req := b.Build(context.Background(), text, Filters{})

		assert.Empty(t, geo.calls, "empty text is never geocoded")
		assert.Empty(t, req.Query)
		assert.Equal(t, DefaultAnchor.String(), req.AroundLatLng)
		require.NotNil(t, req.AroundRadius)
		assert.True(t, req.AroundRadius.All)
		assert.Nil(t, intent.Resolved)

		raw, err := json.Marshal(req)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"aroundRadius":"all"`)
	}
}

func TestBuild_ResolvedAndKeywordNeverCoexist(t *testing.T) {
	inputs := []struct {
		text string
		geo  Geocoder
	}{
		{"KLCC", resolving(models.GeoPoint{Lat: 3.1579, Lng: 101.7116})},
		{"KLCC", failing(stderrors.New("no result"))},
		{"", nil},
	}
	for _, in := range inputs {
		_, req := NewBuilder(in.geo, DefaultBuilderConfig(), logger.NewTestLogger(t)).Build(context.Background(), in.text, Filters{})
		if req.AroundRadius != nil && !req.AroundRadius.All {
			assert.Empty(t, req.Query)
		}
	}
}

func TestRadiusJSON(t *testing.T) {
	var r Radius
	require.NoError(t, json.Unmarshal([]byte(`"all"`), &r))
	assert.True(t, r.All)

	require.NoError(t, json.Unmarshal([]byte(`5000`), &r))
	assert.Equal(t, Radius{Meters: 5000}, r)

	assert.Error(t, json.Unmarshal([]byte(`"everywhere"`), &r))
}
