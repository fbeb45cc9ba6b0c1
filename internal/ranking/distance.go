package ranking

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mediaid/mediaid-api/internal/model"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b model.Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Distance is either a known distance in kilometres or Unknown.  The zero
// value is Unknown.
type Distance struct {
	km    float64
	known bool
}

// Unknown is the distance of a record that cannot be placed relative to the
// origin.
var Unknown = Distance{}

// Known wraps an exact distance.
func Known(km float64) Distance {
	return Distance{km: km, known: true}
}

// DistanceBetween measures from origin to pos.  Missing or invalid
// coordinates on either side yield Unknown.
func DistanceBetween(origin, pos *model.Point) Distance {
	if origin == nil || pos == nil || !origin.Valid() || !pos.Valid() {
		return Unknown
	}
	return Known(Haversine(*origin, *pos))
}

// Km returns the unrounded distance and whether it is known.
func (d Distance) Km() (float64, bool) {
	return d.km, d.known
}

// IsKnown reports whether d carries a value.
func (d Distance) IsKnown() bool {
	return d.known
}

// Rounded returns the distance rounded to one decimal place, or 0 when
// unknown.  Only for display; comparisons use the exact value.
func (d Distance) Rounded() float64 {
	if !d.known {
		return 0
	}
	return math.Round(d.km*10) / 10
}

// String renders the display form, e.g. "5.0 km", or "" when unknown.  It
// formats Rounded so the text always agrees with the JSON number.
func (d Distance) String() string {
	if !d.known {
		return ""
	}
	return fmt.Sprintf("%.1f km", d.Rounded())
}

// Less orders known distances ascending and places Unknown after every
// known distance.  Two Unknown values are equal.
func (d Distance) Less(o Distance) bool {
	switch {
	case d.known && o.known:
		return d.km < o.km
	case d.known:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the rounded kilometres, or null when unknown.
func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.known {
		return []byte("null"), nil
	}
	return json.Marshal(d.Rounded())
}
