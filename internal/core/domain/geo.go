package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLocation is returned when a coordinate pair is malformed or out of range.
var ErrInvalidLocation = errors.New("invalid location format")

// GeoPoint is a WGS 84 coordinate. On the wire it is the GeoJSON-ordered
// pair [longitude, latitude].
type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Validate reports whether both components are finite and inside their ranges.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidLocation)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %.6f outside [-180, 180]", ErrInvalidLocation, p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %.6f outside [-90, 90]", ErrInvalidLocation, p.Lat)
	}
	return nil
}

// Pair returns the point as [lng, lat].
func (p GeoPoint) Pair() [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Pair())
}

// UnmarshalJSON accepts only a JSON array of exactly two numbers.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	pt, err := ParseGeoPoint(data)
	if err != nil {
		return err
	}
	*p = pt
	return nil
}

// ParseGeoPoint decodes a raw [lng, lat] array and validates it.
// Strings, objects, nulls and arrays of the wrong length are rejected.
func ParseGeoPoint(raw json.RawMessage) (GeoPoint, error) {
	if len(raw) == 0 {
		return GeoPoint{}, fmt.Errorf("%w: missing", ErrInvalidLocation)
	}
	var pair []*float64
	if err := json.Unmarshal(raw, &pair); err != nil || pair == nil {
		return GeoPoint{}, fmt.Errorf("%w: expected [longitude, latitude]", ErrInvalidLocation)
	}
	if len(pair) != 2 {
		return GeoPoint{}, fmt.Errorf("%w: expected 2 components, got %d", ErrInvalidLocation, len(pair))
	}
	if pair[0] == nil || pair[1] == nil {
		return GeoPoint{}, fmt.Errorf("%w: null component", ErrInvalidLocation)
	}
	p := GeoPoint{Lng: *pair[0], Lat: *pair[1]}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
