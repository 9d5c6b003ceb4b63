package domain

import "errors"

// ErrInvertedBounds reports a viewport whose north/south or east/west
// edges are swapped.
var ErrInvertedBounds = errors.New("viewport bounds are inverted")

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a map viewport bounding box.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Center returns the midpoint of the bounding box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.North + b.South) / 2,
		Lon: (b.East + b.West) / 2,
	}
}

// Contains reports whether the point lies inside the box.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat <= b.North && p.Lat >= b.South &&
		p.Lon <= b.East && p.Lon >= b.West
}
