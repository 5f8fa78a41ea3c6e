package search

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// textFields are searched by keyword queries, boosted by importance.
var textFields = []string{"title^3", "description^2", "address", "city"}

// predicateFields maps predicate field names to document fields.
var predicateFields = map[string]string{
	"rent":     "rent",
	"gender":   "gender",
	"roomType": "roomType",
	"city":     "city.raw",
	"locale":   "locale",
}

const listingMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "ownerId":     {"type": "keyword"},
      "agentId":     {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "address":     {"type": "text"},
      "city":        {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "location":    {"type": "geo_point"},
      "rent":        {"type": "integer"},
      "gender":      {"type": "keyword"},
      "roomType":    {"type": "keyword"},
      "buildingId":  {"type": "keyword"},
      "locale":      {"type": "keyword"},
      "updatedAt":   {"type": "date"}
    }
  }
}`

// Index is the Elasticsearch listing index.
type Index struct {
	client *elasticsearch.Client
	name   string
}

func NewIndex(client *elasticsearch.Client, name string) *Index {
	if name == "" {
		name = "listings"
	}
	return &Index{client: client, name: name}
}

func (ix *Index) Name() string {
	return ix.name
}

// document is the stored form of a listing; geo_point objects use "lon".
type document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	AgentID     string    `json:"agentId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Location    geoPoint  `json:"location"`
	Rent        int       `json:"rent"`
	Gender      string    `json:"gender"`
	RoomType    string    `json:"roomType"`
	BuildingID  string    `json:"buildingId,omitempty"`
	Locale      string    `json:"locale"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toDocument(l models.Listing) document {
	return document{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		AgentID:     l.AgentID,
		Title:       l.Title,
		Description: l.Description,
		Address:     l.Address,
		City:        l.City,
		Location:    geoPoint{Lat: l.Location.Lat, Lon: l.Location.Lng},
		Rent:        l.Rent,
		Gender:      l.Gender,
		RoomType:    l.RoomType,
		BuildingID:  l.BuildingID,
		Locale:      l.Locale,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (d document) listing() models.Listing {
	return models.Listing{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		AgentID:     d.AgentID,
		Title:       d.Title,
		Description: d.Description,
		Address:     d.Address,
		City:        d.City,
		Location:    models.GeoPoint{Lat: d.Location.Lat, Lng: d.Location.Lon},
		Rent:        d.Rent,
		Gender:      d.Gender,
		RoomType:    d.RoomType,
		BuildingID:  d.BuildingID,
		Locale:      d.Locale,
		UpdatedAt:   d.UpdatedAt,
	}
}

// BuildQuery translates a request into an Elasticsearch search body.
func BuildQuery(req *Request) (map[string]interface{}, error) {
	clauses, err := ParsePredicate(req.Filters)
	if err != nil {
		return nil, err
	}

	filter := make([]interface{}, 0, len(clauses)+1)
	for _, c := range clauses {
		f, err := clauseFilter(c)
		if err != nil {
			return nil, err
		}
		filter = append(filter, f)
	}

	var must interface{} = map[string]interface{}{"match_all": map[string]interface{}{}}
	if q := strings.TrimSpace(req.Query); q != "" {
		must = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q,
				"fields":    textFields,
				"fuzziness": "AUTO",
			},
		}
	}

	size := req.HitsPerPage
	if size <= 0 {
		size = HitsPerPage
	}

	body := map[string]interface{}{
		"size":             size,
		"track_total_hits": true,
	}

	sort := []interface{}{"_score"}
	if req.GeoAnchored() {
		anchor, err := parseLatLng(req.AroundLatLng)
		if err != nil {
			return nil, err
		}
		loc := map[string]float64{"lat": anchor.Lat, "lon": anchor.Lng}
		if req.AroundRadius != nil && !req.AroundRadius.All {
			filter = append(filter, map[string]interface{}{
				"geo_distance": map[string]interface{}{
					"distance": fmt.Sprintf("%dm", req.AroundRadius.Meters),
					"location": loc,
				},
			})
		}
		geoSort := map[string]interface{}{
			"_geo_distance": map[string]interface{}{
				"location": loc,
				"order":    "asc",
				"unit":     "km",
			},
		}
		if req.Query == "" {
			sort = []interface{}{geoSort}
		} else {
			sort = append(sort, geoSort)
		}
	}
	body["sort"] = sort

	body["query"] = map[string]interface{}{
		"bool": map[string]interface{}{
			"must":   must,
			"filter": filter,
		},
	}
	return body, nil
}

func clauseFilter(c Clause) (map[string]interface{}, error) {
	field, ok := predicateFields[c.Field]
	if !ok {
		return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("unknown filter field %q", c.Field))
	}
	if c.Facet() {
		return map[string]interface{}{"term": map[string]interface{}{field: c.Value}}, nil
	}

	var bound string
	switch c.Op {
	case ">=":
		bound = "gte"
	case "<=":
		bound = "lte"
	case ">":
		bound = "gt"
	case "<":
		bound = "lt"
	case "=":
		return map[string]interface{}{"term": map[string]interface{}{field: c.Num}}, nil
	default:
		return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("unsupported operator %q", c.Op))
	}
	return map[string]interface{}{"range": map[string]interface{}{field: map[string]interface{}{bound: c.Num}}}, nil
}

func parseLatLng(s string) (models.GeoPoint, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return models.GeoPoint{}, errors.NewInvalidFilterFormatError(fmt.Sprintf("aroundLatLng %q must be lat,lng", s))
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	p := models.GeoPoint{Lat: lat, Lng: lng}
	if err1 != nil || err2 != nil || !p.Valid() {
		return models.GeoPoint{}, errors.NewInvalidFilterFormatError(fmt.Sprintf("aroundLatLng %q is not a valid coordinate", s))
	}
	return p, nil
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  *float64        `json:"_score"`
			Source document        `json:"_source"`
			Sort   json.RawMessage `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs req against the index.
func (ix *Index) Search(ctx context.Context, req *Request) (*Result, error) {
	body, err := BuildQuery(req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	searchReq := esapi.SearchRequest{
		Index: []string{ix.name},
		Body:  &buf,
	}
	res, err := searchReq.Do(ctx, ix.client)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewSearchTimeoutError(ix.name)
		}
		return nil, errors.NewSearchQueryFailedError(ix.name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, ix.responseError(res)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.NewSearchQueryFailedError(ix.name, fmt.Errorf("decode response: %w", err))
	}

	geoSortFirst := req.GeoAnchored() && req.Query == ""
	geoSortSecond := req.GeoAnchored() && req.Query != ""

	result := &Result{
		Hits:   make([]models.ListingHit, 0, len(sr.Hits.Hits)),
		Total:  sr.Hits.Total.Value,
		TookMs: sr.Took,
	}
	for _, h := range sr.Hits.Hits {
		hit := models.ListingHit{Listing: h.Source.listing()}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		if geoSortFirst || geoSortSecond {
			var sortVals []interface{}
			if err := json.Unmarshal(h.Sort, &sortVals); err == nil {
				idx := 0
				if geoSortSecond {
					idx = 1
				}
				if idx < len(sortVals) {
					if d, ok := sortVals[idx].(float64); ok {
						hit.DistanceKm = &d
					}
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

func (ix *Index) responseError(res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	if res.StatusCode == http.StatusNotFound {
		return errors.NewIndexNotFoundError(ix.name)
	}
	return errors.NewSearchQueryFailedError(ix.name, fmt.Errorf("status %d: %s", res.StatusCode, string(raw)))
}

// EnsureIndex creates the listing index with its mapping if it does not exist.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{ix.name}}.Do(ctx, ix.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(ix.name, err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := esapi.IndicesCreateRequest{
		Index: ix.name,
		Body:  strings.NewReader(listingMapping),
	}.Do(ctx, ix.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(ix.name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return ix.responseError(res)
	}
	return nil
}

// IndexListings writes listings with one bulk request. Documents are keyed by listing id.
func (ix *Index) IndexListings(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, l := range listings {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": ix.name, "_id": l.ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(toDocument(l)); err != nil {
			return fmt.Errorf("encode listing %s: %w", l.ID, err)
		}
	}

	res, err := esapi.BulkRequest{Body: &buf, Refresh: "wait_for"}.Do(ctx, ix.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(ix.name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return ix.responseError(res)
	}

	var bulk struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return errors.NewSearchQueryFailedError(ix.name, fmt.Errorf("decode bulk response: %w", err))
	}
	if !bulk.Errors {
		return nil
	}

	var failed []string
	for _, item := range bulk.Items {
		for _, op := range item {
			if op.Error != nil {
				failed = append(failed, fmt.Sprintf("%s: %s", op.ID, op.Error.Reason))
			}
		}
	}
	return errors.NewSearchQueryFailedError(ix.name, fmt.Errorf("bulk indexing failed for %d documents: %s", len(failed), strings.Join(failed, "; ")))
}
