// Package mask implements the synthesis of physical phase/amplitude masks
// for lensless imaging and the simulation of their point-spread functions.
//
// Every mask variant follows the same lifecycle: a Spec fixes the pixel
// grid and physical geometry, the variant-specific synthesis populates the
// complex mask field, and the shared PSF routine propagates that field to
// the sensor plane once per design wavelength.
package mask

import (
	"fmt"
	"math"

	"lensless/pkg/propagation"
	"lensless/pkg/sensor"
)

// DefaultWavelengths are the blue, green and red design wavelengths (m)
// used to simulate the PSF when none are specified.
var DefaultWavelengths = []float64{460e-9, 550e-9, 640e-9}

// Spec holds the geometry shared by every mask variant. Exactly one of
// Size or FeatureSize may be left zero; the missing one is derived from
// the other and the resolution.
type Spec struct {
	// Resolution is the pixel grid of the mask as (height, width)
	Resolution [2]int

	// Size is the physical extent of the mask in meters as (height, width)
	Size [2]float64

	// FeatureSize is the pixel pitch in meters as (height, width)
	FeatureSize [2]float64

	// DistanceSensor is the mask-to-sensor distance (m)
	DistanceSensor float64

	// PSFWavelengths are the wavelengths the PSF is simulated at (m).
	// Defaults to DefaultWavelengths when empty.
	PSFWavelengths []float64
}

// validate checks the spec and derives whichever of Size/FeatureSize was
// not supplied. The invariant Resolution*FeatureSize <= Size must hold
// elementwise afterwards.
func (s *Spec) validate() error {
	if s.Resolution[0] <= 0 || s.Resolution[1] <= 0 {
		return fmt.Errorf("resolution must be positive, got %v", s.Resolution)
	}
	if s.DistanceSensor <= 0 {
		return fmt.Errorf("sensor distance must be positive, got %g", s.DistanceSensor)
	}

	hasSize := s.Size != [2]float64{}
	hasFeature := s.FeatureSize != [2]float64{}
	switch {
	case !hasSize && !hasFeature:
		return fmt.Errorf("either size or feature size must be specified")
	case !hasSize:
		s.Size[0] = float64(s.Resolution[0]) * s.FeatureSize[0]
		s.Size[1] = float64(s.Resolution[1]) * s.FeatureSize[1]
	case !hasFeature:
		s.FeatureSize[0] = s.Size[0] / float64(s.Resolution[0])
		s.FeatureSize[1] = s.Size[1] / float64(s.Resolution[1])
	}

	if s.Size[0] <= 0 || s.Size[1] <= 0 {
		return fmt.Errorf("size must be positive, got %v", s.Size)
	}
	if s.FeatureSize[0] <= 0 || s.FeatureSize[1] <= 0 {
		return fmt.Errorf("feature size must be positive, got %v", s.FeatureSize)
	}
	for axis := 0; axis < 2; axis++ {
		if float64(s.Resolution[axis])*s.FeatureSize[axis] > s.Size[axis]*(1+1e-12) {
			return fmt.Errorf("resolution*featureSize exceeds size on axis %d", axis)
		}
	}

	if len(s.PSFWavelengths) == 0 {
		s.PSFWavelengths = append([]float64(nil), DefaultWavelengths...)
	}
	for _, wv := range s.PSFWavelengths {
		if wv <= 0 {
			return fmt.Errorf("PSF wavelengths must be positive, got %g", wv)
		}
	}
	return nil
}

// SpecFromSensor builds a Spec by copying the resolution, size and pixel
// pitch of a registered virtual sensor.
//
// Parameters:
//   - name: Name of the sensor, see the sensor package
//   - downsample: Downsampling factor applied to the sensor grid; <= 1 for none
//   - distanceSensor: Mask-to-sensor distance (m)
//   - wavelengths: PSF design wavelengths; nil selects the defaults
func SpecFromSensor(name string, downsample, distanceSensor float64, wavelengths []float64) (Spec, error) {
	spec, err := sensor.FromName(name, downsample)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		Resolution:     spec.Resolution,
		Size:           spec.Size,
		FeatureSize:    spec.PixelSize,
		DistanceSensor: distanceSensor,
		PSFWavelengths: wavelengths,
	}, nil
}

// Mask is the base embedded by every variant. Field is written exactly once
// by the variant's synthesis step; PSF is derived from Field immediately
// afterwards and stays in sync with it.
type Mask struct {
	Spec

	// Field is the complex-valued mask transmission, shape = Resolution
	Field [][]complex128

	// PSF is the intensity point-spread function, indexed as
	// PSF[row][col][wavelength]
	PSF [][][]float64
}

// computePSF propagates the finished mask field to the sensor plane with
// the band-limited angular spectrum method at each design wavelength and
// accumulates the intensity. Invoked exactly once per construction,
// regardless of which synthesis produced the field.
func (m *Mask) computePSF() error {
	h, w := m.Resolution[0], m.Resolution[1]
	psf := make([][][]float64, h)
	for i := range psf {
		psf[i] = make([][]float64, w)
		for j := range psf[i] {
			psf[i][j] = make([]float64, len(m.PSFWavelengths))
		}
	}

	for k, wv := range m.PSFWavelengths {
		out, err := propagation.AngularSpectrum(m.Field, wv, m.FeatureSize, m.DistanceSensor, true)
		if err != nil {
			return fmt.Errorf("PSF computation at wavelength %g failed: %v", wv, err)
		}
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				re := real(out[i][j])
				im := imag(out[i][j])
				psf[i][j][k] = re*re + im*im
			}
		}
	}

	m.PSF = psf
	return nil
}

// phaseToField maps a real phase pattern to the unit-amplitude complex
// mask transmission exp(i*phi).
func phaseToField(phi [][]float64) [][]complex128 {
	field := make([][]complex128, len(phi))
	for i := range phi {
		field[i] = make([]complex128, len(phi[i]))
		for j, p := range phi[i] {
			field[i][j] = complex(math.Cos(p), math.Sin(p))
		}
	}
	return field
}

// zeros2D allocates an h x w array of zeros.
func zeros2D(h, w int) [][]float64 {
	a := make([][]float64, h)
	for i := range a {
		a[i] = make([]float64, w)
	}
	return a
}
