// internal/geocode/client.go
package geocode

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rental-marketplace/internal/common/errors"
	commonhttp "rental-marketplace/internal/common/http"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/models"
)

var (
	ErrMissingCredentials = stderrors.New("GEOCODING_CREDENTIALS_MISSING")
	ErrNoResult           = stderrors.New("GEOCODING_NO_RESULT")
)

type Config struct {
	BaseURL string
	APIKey  string
	Region  string
	Timeout time.Duration
}

// Client resolves addresses with the maps geocoding API.
type Client struct {
	cfg    Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log,
	}
}

type apiResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first result's location for address.
func (c *Client) Geocode(ctx context.Context, address string) (models.GeoPoint, error) {
	if c.cfg.APIKey == "" {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return models.GeoPoint{}, ErrMissingCredentials
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.cfg.APIKey)
	if c.cfg.Region != "" {
		q.Set("region", c.cfg.Region)
	}

	var resp apiResponse
	if err := c.http.GetJSON(ctx, c.cfg.BaseURL+"?"+q.Encode(), &resp); err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return models.GeoPoint{}, errors.NewGeocodeFailedError(err)
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		metrics.GeocodeRequests.WithLabelValues("no_result").Inc()
		return models.GeoPoint{}, ErrNoResult
	default:
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return models.GeoPoint{}, errors.NewGeocodeFailedError(
			fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(resp.ErrorMessage)))
	}
	if len(resp.Results) == 0 {
		metrics.GeocodeRequests.WithLabelValues("no_result").Inc()
		return models.GeoPoint{}, ErrNoResult
	}

	loc := resp.Results[0].Geometry.Location
	point := models.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}
	if !point.Valid() {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return models.GeoPoint{}, errors.NewGeocodeFailedError(fmt.Errorf("invalid coordinate %s", point))
	}

	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	c.logger.WithContext(ctx).Debug("address geocoded", map[string]interface{}{
		"address":   address,
		"formatted": resp.Results[0].FormattedAddress,
		"location":  point.String(),
	})
	return point, nil
}
