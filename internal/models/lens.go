package models

import (
	"math"
)

// Lens represents a single lenslet of a multi-lens array in physical units
type Lens struct {
	// X, Y are the center coordinates of the lens on the mask plane (m)
	X, Y float64

	// R is the lens radius (m)
	R float64
}

// Overlaps reports whether the disks of two lenses intersect.
// Two lenses are non-overlapping when the distance between their
// centers is at least the sum of their radii.
func (l Lens) Overlaps(other Lens) bool {
	dx := l.X - other.X
	dy := l.Y - other.Y
	return math.Sqrt(dx*dx+dy*dy) < l.R+other.R
}

// OverlapsAny reports whether the lens overlaps any lens in the list
func (l Lens) OverlapsAny(lenses []Lens) bool {
	for _, other := range lenses {
		if l.Overlaps(other) {
			return true
		}
	}
	return false
}

// SensorSpec holds the physical parameters of a virtual sensor
type SensorSpec struct {
	// Name identifies the sensor in the registry
	Name string

	// Resolution is the pixel grid of the sensor as (height, width)
	Resolution [2]int

	// PixelSize is the pixel pitch in meters as (height, width)
	PixelSize [2]float64

	// Size is the physical extent of the sensor in meters as (height, width)
	Size [2]float64
}
