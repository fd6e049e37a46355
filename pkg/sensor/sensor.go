// Package sensor provides a registry of virtual sensors whose physical
// parameters (resolution, size, pixel pitch) can be copied onto a mask
// design instead of specifying them by hand.
package sensor

import (
	"fmt"
	"sort"

	"lensless/internal/models"
)

// Names of the built-in virtual sensors.
const (
	RPiHQ     = "rpi_hq"
	RPiGS     = "rpi_gs"
	Basler287 = "basler_287"
)

// registry holds the known sensors. Entries are copied on lookup so callers
// can never mutate the registered specs.
var registry = map[string]models.SensorSpec{
	RPiHQ: {
		Name:       RPiHQ,
		Resolution: [2]int{3040, 4056},
		PixelSize:  [2]float64{1.55e-6, 1.55e-6},
	},
	RPiGS: {
		Name:       RPiGS,
		Resolution: [2]int{1088, 1456},
		PixelSize:  [2]float64{3.45e-6, 3.45e-6},
	},
	Basler287: {
		Name:       Basler287,
		Resolution: [2]int{720, 1280},
		PixelSize:  [2]float64{6.9e-6, 6.9e-6},
	},
}

// Register adds or replaces a sensor in the registry, typically to expose
// custom sensors declared in the configuration file.
func Register(spec models.SensorSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("sensor name must not be empty")
	}
	if spec.Resolution[0] <= 0 || spec.Resolution[1] <= 0 {
		return fmt.Errorf("sensor %q: resolution must be positive, got %v", spec.Name, spec.Resolution)
	}
	if spec.PixelSize[0] <= 0 || spec.PixelSize[1] <= 0 {
		return fmt.Errorf("sensor %q: pixel size must be positive, got %v", spec.Name, spec.PixelSize)
	}
	registry[spec.Name] = spec
	return nil
}

// Names returns the sorted names of all registered sensors.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromName looks up a sensor by name, optionally downsampling its pixel
// grid. Downsampling divides the resolution and multiplies the pixel pitch
// by the same factor, so the physical sensor size is preserved.
//
// Parameters:
//   - name: Name of the registered sensor
//   - downsample: Downsampling factor; values <= 1 leave the sensor unchanged
//
// Returns:
//   - The sensor parameters with the size derived from resolution and pitch
func FromName(name string, downsample float64) (models.SensorSpec, error) {
	spec, ok := registry[name]
	if !ok {
		return models.SensorSpec{}, fmt.Errorf("unknown sensor %q (available: %v)", name, Names())
	}

	if downsample > 1 {
		spec.Resolution[0] = int(float64(spec.Resolution[0]) / downsample)
		spec.Resolution[1] = int(float64(spec.Resolution[1]) / downsample)
		spec.PixelSize[0] *= downsample
		spec.PixelSize[1] *= downsample
		if spec.Resolution[0] < 1 || spec.Resolution[1] < 1 {
			return models.SensorSpec{}, fmt.Errorf("downsample factor %g collapses sensor %q", downsample, name)
		}
	}

	spec.Size[0] = float64(spec.Resolution[0]) * spec.PixelSize[0]
	spec.Size[1] = float64(spec.Resolution[1]) * spec.PixelSize[1]
	return spec, nil
}
