// internal/models/listing.go
package models

import "time"

// Gender preferences a listing may advertise.
const (
	GenderAny    = "Any"
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Room types offered on the marketplace.
var RoomTypes = []string{"Master", "Medium", "Small", "Studio", "Entire Unit"}

type Listing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	AgentID     string    `json:"agentId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Location    GeoPoint  `json:"location"`
	Rent        int       `json:"rent"`
	Gender      string    `json:"gender"`
	RoomType    string    `json:"roomType"`
	BuildingID  string    `json:"buildingId,omitempty"`
	Locale      string    `json:"locale"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListingHit is a search result, with the distance from the anchor when the search was geo-anchored.
type ListingHit struct {
	Listing
	Score      float64  `json:"score,omitempty"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type ListingStats struct {
	ListingID   string    `json:"listingId"`
	Views       int64     `json:"views"`
	Impressions int64     `json:"impressions"`
	Leads       int64     `json:"leads"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
