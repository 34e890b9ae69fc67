// Package geo provides the small amount of spherical geometry the engine needs.
//
// Midpoints and centroids are plain arithmetic means of latitude and longitude.
// They are not corrected for the antimeridian or the poles.
package geo

import (
	"errors"
	"math"

	"github.com/okian/fairmeet/internal/domain/model"
)

// EarthRadiusMeters is the radius used by DistanceMeters.
const EarthRadiusMeters = 6378137.0

const metersPerDegreeLat = EarthRadiusMeters * math.Pi / 180

// ErrInvalidInput is returned for empty point sets.
var ErrInvalidInput = errors.New("invalid input")

// Midpoint returns the arithmetic mean of a and b.
func Midpoint(a, b model.Point) model.Point {
	return model.Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}

// Centroid returns the mean position of points.
func Centroid(points []model.Point) (model.Point, error) {
	if len(points) == 0 {
		return model.Point{}, ErrInvalidInput
	}
	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))
	return model.Point{Lat: lat / n, Lng: lng / n}, nil
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b model.Point) float64 {
	if a == b {
		return 0
	}
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(1, h)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Offset moves p by the given distances along the local north and east axes.
// It uses an equirectangular approximation that is accurate at city scale.
func Offset(p model.Point, northMeters, eastMeters float64) model.Point {
	lat := p.Lat + northMeters/metersPerDegreeLat
	cos := math.Cos(toRadians(p.Lat))
	lng := p.Lng
	if cos > 1e-9 {
		lng += eastMeters / (metersPerDegreeLat * cos)
	}
	return model.Point{Lat: lat, Lng: lng}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
