package model

import "math"

// Category classifies a directory entry.  The values mirror the
// `services.type` ENUM column.
type Category string

const (
	CategoryHospital  Category = "hospital"
	CategoryPharmacy  Category = "pharmacy"
	CategoryBloodBank Category = "blood-bank"
	CategoryAmbulance Category = "ambulance"

	// CategoryAll is accepted by filters only; no record carries it.
	CategoryAll Category = "all"
)

// Categories lists every category a record may carry, in display order.
var Categories = []Category{CategoryHospital, CategoryPharmacy, CategoryBloodBank, CategoryAmbulance}

// Known reports whether c is one of the record categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Point is a latitude/longitude pair in decimal degrees (WGS 84).
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite and within geodetic range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Service represents a row in the `services` table: a hospital, pharmacy,
// blood bank or ambulance provider listed in the directory.
//
// Fields:
//
//	ID       – services.id
//	Name     – display name
//	Category – services.type
//	Address  – free-form postal address
//	Phone    – contact number, empty when unknown
//	Position – coordinates, nil when the row has no lat/lng
//	IsOpen   – services.is_open
type Service struct {
	ID       uint64
	Name     string
	Category Category
	Address  string
	Phone    string
	Position *Point
	IsOpen   bool
}
