package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rental-marketplace/internal/models"
)

const (
	DebounceWindow    = 500 * time.Millisecond
	HitsPerPage       = 20
	GeoRadiusMeters   = 5000
	MaxSelectableRent = 5000

	// AnyValue is the "no preference" selection for gender and room type.
	AnyValue = "any"
)

// DefaultAnchor is used when the search text is empty (KLCC).
var DefaultAnchor = models.GeoPoint{Lat: 3.1579, Lng: 101.7116}

// Filters is the state of the discrete filter widgets.
// A MaxRent of zero means the slider was never moved.
type Filters struct {
	MinRent  int    `json:"minRent"`
	MaxRent  int    `json:"maxRent"`
	Gender   string `json:"gender"`
	RoomType string `json:"roomType"`
}

// BuildFilterPredicate joins the clauses that differ from their "no
// preference" value with " AND ". A maximum equal to maxSelectable is the
// slider's resting position and is omitted. Min above max is passed through.
func BuildFilterPredicate(f Filters, maxSelectable int) string {
	var clauses []string

	if f.MinRent > 0 {
		clauses = append(clauses, "rent >= "+strconv.Itoa(f.MinRent))
	}
	if f.MaxRent > 0 && f.MaxRent < maxSelectable {
		clauses = append(clauses, "rent <= "+strconv.Itoa(f.MaxRent))
	}
	if isSet(f.Gender) {
		clauses = append(clauses, facet("gender", f.Gender))
	}
	if isSet(f.RoomType) {
		clauses = append(clauses, facet("roomType", f.RoomType))
	}

	return strings.Join(clauses, " AND ")
}

func isSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, AnyValue)
}

func facet(field, value string) string {
	value = strings.TrimSpace(value)
	if strings.ContainsAny(value, ` "`) {
		return fmt.Sprintf("%s:%q", field, value)
	}
	return field + ":" + value
}
