package search

import (
	"encoding/json"
	"fmt"

	"rental-marketplace/internal/models"
)

// Radius is either a distance in meters or unbounded ("all").
type Radius struct {
	Meters int
	All    bool
}

func (r Radius) MarshalJSON() ([]byte, error) {
	if r.All {
		return []byte(`"all"`), nil
	}
	return json.Marshal(r.Meters)
}

func (r *Radius) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "all" {
			return fmt.Errorf("aroundRadius: unsupported value %q", s)
		}
		*r = Radius{All: true}
		return nil
	}
	var m int
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("aroundRadius: %w", err)
	}
	*r = Radius{Meters: m}
	return nil
}

func (r Radius) String() string {
	if r.All {
		return "all"
	}
	return fmt.Sprintf("%dm", r.Meters)
}

// Request is the query object sent to the search index.
type Request struct {
	Query        string  `json:"query"`
	Filters      string  `json:"filters"`
	HitsPerPage  int     `json:"hitsPerPage"`
	AroundLatLng string  `json:"aroundLatLng,omitempty"`
	AroundRadius *Radius `json:"aroundRadius,omitempty"`
}

// GeoAnchored reports whether the request ranks by distance from a coordinate.
func (r *Request) GeoAnchored() bool {
	return r.AroundLatLng != ""
}

// Intent records how a request was derived from the raw input.
type Intent struct {
	RawText         string           `json:"rawText"`
	Resolved        *models.GeoPoint `json:"resolved,omitempty"`
	Radius          *Radius          `json:"radius,omitempty"`
	FilterPredicate string           `json:"filterPredicate"`
}

// Result is one page of hits.
type Result struct {
	Hits   []models.ListingHit `json:"hits"`
	Total  int64               `json:"total"`
	TookMs int64               `json:"tookMs"`
}
