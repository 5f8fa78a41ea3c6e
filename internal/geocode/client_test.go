package geocode

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var last url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestClientGeocode(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		status   int
		body     string
		validate func(t *testing.T, p models.GeoPoint, err error)
	}{
		{
			name:   "first result wins",
			apiKey: "k",
			status: http.StatusOK,
			body: `{"status":"OK","results":[
				{"formatted_address":"Bangsar South","geometry":{"location":{"lat":3.15,"lng":101.71}}},
				{"geometry":{"location":{"lat":1,"lng":1}}}]}`,
			validate: func(t *testing.T, p models.GeoPoint, err error) {
				require.NoError(t, err)
				assert.Equal(t, "3.15,101.71", p.String())
			},
		},
		{
			name:   "zero results",
			apiKey: "k",
			status: http.StatusOK,
			body:   `{"status":"ZERO_RESULTS","results":[]}`,
			validate: func(t *testing.T, _ models.GeoPoint, err error) {
				assert.ErrorIs(t, err, ErrNoResult)
			},
		},
		{
			name:   "denied request",
			apiKey: "k",
			status: http.StatusOK,
			body:   `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`,
			validate: func(t *testing.T, _ models.GeoPoint, err error) {
				assert.True(t, errors.HasCode(err, errors.ErrCodeGeocodeFailed))
				assert.Contains(t, err.Error(), "REQUEST_DENIED")
			},
		},
		{
			name:   "upstream error status",
			apiKey: "k",
			status: http.StatusInternalServerError,
			body:   `oops`,
			validate: func(t *testing.T, _ models.GeoPoint, err error) {
				assert.True(t, errors.HasCode(err, errors.ErrCodeGeocodeFailed))
			},
		},
		{
			name:   "missing key",
			status: http.StatusOK,
			body:   `{"status":"OK"}`,
			validate: func(t *testing.T, _ models.GeoPoint, err error) {
				assert.ErrorIs(t, err, ErrMissingCredentials)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			c := NewClient(Config{BaseURL: srv.URL, APIKey: tt.apiKey}, logger.NewTestLogger(t))
			p, err := c.Geocode(context.Background(), "Bangsar South")
			tt.validate(t, p, err)
		})
	}
}

func TestClientGeocode_QueryParameters(t *testing.T) {
	srv, last := newTestServer(t, http.StatusOK, `{"status":"OK","results":[{"geometry":{"location":{"lat":3.1,"lng":101.6}}}]}`)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", Region: "my"}, logger.NewTestLogger(t))

	_, err := c.Geocode(context.Background(), "Mont Kiara")
	require.NoError(t, err)

	q := *last
	assert.Equal(t, "Mont Kiara", q.Get("address"))
	assert.Equal(t, "secret", q.Get("key"))
	assert.Equal(t, "my", q.Get("region"))
}

func TestClientGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond}, logger.NewTestLogger(t))
	_, err := c.Geocode(context.Background(), "KLCC")
	require.Error(t, err)
	assert.False(t, stderrors.Is(err, ErrNoResult))
}
