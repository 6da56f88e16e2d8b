package geo

import (
	"fmt"
	"math"
)

const (
	EarthRadiusKm = 6371.0
	// KmPerDegree is the flat approximation used for bounding-box pre-filters.
	KmPerDegree = 111.0
	// QuantizeStep is the coordinate grid (~110 m) applied before anything is stored.
	QuantizeStep = 0.001
	// CellStep is the grid used for density cells; "100:200" is lat 1.00, lng 2.00.
	CellStep = 0.01
)

type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a box that contains every point within radiusKm of (lat, lng).
func BoundingBox(lat, lng, radiusKm float64) Box {
	if radiusKm < 0 {
		radiusKm = 0
	}
	dLat := radiusKm / KmPerDegree
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	dLng := radiusKm / (KmPerDegree * cos)
	return Box{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLng: lng - dLng,
		MaxLng: lng + dLng,
	}
}

// HaversineKm is the great-circle distance between two points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Quantize snaps v to the QuantizeStep grid.
func Quantize(v float64) float64 {
	const scale = 1 / QuantizeStep
	return math.Round(v*scale) / scale
}

func CellID(lat, lng float64) string {
	return fmt.Sprintf("%d:%d", int64(math.Floor(lat/CellStep+1e-9)), int64(math.Floor(lng/CellStep+1e-9)))
}

func ValidLatLng(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
