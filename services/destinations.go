package services

import (
	"strings"

	"travel-scout/models"
)

// Destination is a named accommodation search area near an airport
type Destination struct {
	Name        string             `json:"name"`
	AirportCode string             `json:"airport_code"`
	Box         models.BoundingBox `json:"coordinates"`
}

var defaultDestination = Destination{
	Name: "New York",
	Box:  models.BoundingBox{NELat: 40.7808, NELong: -73.9653, SWLat: 40.7308, SWLong: -74.0005},
}

var airportAreas = map[string]Destination{
	"JFK": {Name: "New York", Box: models.BoundingBox{NELat: 40.8508, NELong: -73.8553, SWLat: 40.6308, SWLong: -74.0505}},
	"LAX": {Name: "Los Angeles", Box: models.BoundingBox{NELat: 34.1522, NELong: -118.1437, SWLat: 33.9422, SWLong: -118.4537}},
	"ORD": {Name: "Chicago", Box: models.BoundingBox{NELat: 42.0781, NELong: -87.5298, SWLat: 41.7681, SWLong: -87.8398}},
	"LHR": {Name: "London", Box: models.BoundingBox{NELat: 51.6074, NELong: -0.0278, SWLat: 51.3974, SWLong: -0.2378}},
	"CDG": {Name: "Paris", Box: models.BoundingBox{NELat: 48.9566, NELong: 2.4522, SWLat: 48.7466, SWLong: 2.2422}},
	"IST": {Name: "Istanbul", Box: models.BoundingBox{NELat: 41.1082, NELong: 29.0784, SWLat: 40.8982, SWLong: 28.8684}},
	"MIA": {Name: "Miami", Box: models.BoundingBox{NELat: 25.8617, NELong: -80.0918, SWLat: 25.6517, SWLong: -80.3018}},
	"SFO": {Name: "San Francisco", Box: models.BoundingBox{NELat: 37.8749, NELong: -122.3194, SWLat: 37.6649, SWLong: -122.5294}},
	"NRT": {Name: "Tokyo", Box: models.BoundingBox{NELat: 35.7762, NELong: 139.7503, SWLat: 35.5662, SWLong: 139.5403}},
	"DXB": {Name: "Dubai", Box: models.BoundingBox{NELat: 25.3048, NELong: 55.3708, SWLat: 25.0948, SWLong: 55.1608}},
}

// LookupDestination returns the search area for an airport code. Unknown codes get
// the default New York area and ok=false.
func LookupDestination(code string) (d Destination, ok bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	d, ok = airportAreas[code]
	if !ok {
		d = defaultDestination
	}
	d.AirportCode = code
	return d, ok
}

// DefaultBox is the area searched when a request gives no coordinates
func DefaultBox() models.BoundingBox {
	return defaultDestination.Box
}
