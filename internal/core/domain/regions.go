package domain

// FallbackRegion tags round targets taken from the fallback city list.
const FallbackRegion = "Fallback"

// Region is a named sampling box.
type Region struct {
	Name   string `json:"name"`
	Bounds Bounds `json:"bounds"`
}

// City is a known-good location used when sampling gives up.
type City struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

var regions = [...]Region{
	{Name: "North America", Bounds: Bounds{MinLat: 25, MaxLat: 60, MinLng: -140, MaxLng: -60}},
	{Name: "Europe", Bounds: Bounds{MinLat: 35, MaxLat: 70, MinLng: -10, MaxLng: 40}},
	{Name: "Asia", Bounds: Bounds{MinLat: 10, MaxLat: 55, MinLng: 60, MaxLng: 140}},
	{Name: "South America", Bounds: Bounds{MinLat: -40, MaxLat: 10, MinLng: -80, MaxLng: -35}},
	{Name: "Africa", Bounds: Bounds{MinLat: -35, MaxLat: 35, MinLng: -20, MaxLng: 50}},
	{Name: "Oceania", Bounds: Bounds{MinLat: -45, MaxLat: -10, MinLng: 110, MaxLng: 180}},
}

var fallbackCities = [...]City{
	{Name: "New York", Location: GeoPoint{Lng: -73.935242, Lat: 40.730610}},
	{Name: "Paris", Location: GeoPoint{Lng: 2.352222, Lat: 48.856614}},
	{Name: "Tokyo", Location: GeoPoint{Lng: 139.691706, Lat: 35.689487}},
	{Name: "Moscow", Location: GeoPoint{Lng: 37.618423, Lat: 55.751244}},
	{Name: "London", Location: GeoPoint{Lng: -0.127758, Lat: 51.507351}},
}

// Regions returns a copy of the sampling table.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions[:])
	return out
}

// FallbackCities returns a copy of the fallback city list.
func FallbackCities() []City {
	out := make([]City, len(fallbackCities))
	copy(out, fallbackCities[:])
	return out
}

// RegionByName looks up a region in the sampling table.
func RegionByName(name string) (Region, bool) {
	for _, r := range regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}
