package mask

import (
	"math"
	"testing"
)

// TestSpecDerivesSize checks that the physical size is derived from the
// resolution and feature size, and the size invariant holds elementwise
func TestSpecDerivesSize(t *testing.T) {
	spec := Spec{
		Resolution:     [2]int{64, 48},
		FeatureSize:    [2]float64{2e-6, 3e-6},
		DistanceSensor: 4e-3,
	}
	if err := spec.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	expected := [2]float64{64 * 2e-6, 48 * 3e-6}
	if spec.Size != expected {
		t.Errorf("Expected derived size %v, got %v", expected, spec.Size)
	}
	for axis := 0; axis < 2; axis++ {
		if float64(spec.Resolution[axis])*spec.FeatureSize[axis] > spec.Size[axis]*(1+1e-12) {
			t.Errorf("Size invariant violated on axis %d", axis)
		}
	}
}

// TestSpecDerivesFeatureSize checks the reverse derivation from size to
// feature size
func TestSpecDerivesFeatureSize(t *testing.T) {
	spec := Spec{
		Resolution:     [2]int{100, 200},
		Size:           [2]float64{1e-3, 4e-3},
		DistanceSensor: 4e-3,
	}
	if err := spec.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if math.Abs(spec.FeatureSize[0]-1e-5) > 1e-20 || math.Abs(spec.FeatureSize[1]-2e-5) > 1e-20 {
		t.Errorf("Expected derived feature size (1e-5, 2e-5), got %v", spec.FeatureSize)
	}
}

// TestSpecRequiresSizeOrFeatureSize ensures at least one of the two is
// specified
func TestSpecRequiresSizeOrFeatureSize(t *testing.T) {
	spec := Spec{
		Resolution:     [2]int{64, 64},
		DistanceSensor: 4e-3,
	}
	if err := spec.validate(); err == nil {
		t.Fatal("Expected error when neither size nor feature size is given, got none")
	}
}

// TestSpecRejectsInvalidParameters covers the fatal configuration errors
// of the shared geometry
func TestSpecRejectsInvalidParameters(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
	}{
		{"zero resolution", Spec{Resolution: [2]int{0, 64}, FeatureSize: [2]float64{1e-5, 1e-5}, DistanceSensor: 4e-3}},
		{"negative distance", Spec{Resolution: [2]int{64, 64}, FeatureSize: [2]float64{1e-5, 1e-5}, DistanceSensor: -1}},
		{"negative wavelength", Spec{Resolution: [2]int{64, 64}, FeatureSize: [2]float64{1e-5, 1e-5}, DistanceSensor: 4e-3, PSFWavelengths: []float64{-460e-9}}},
	}
	for _, tc := range cases {
		if err := tc.spec.validate(); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}

// TestSpecDefaultWavelengths checks the three-wavelength default design list
func TestSpecDefaultWavelengths(t *testing.T) {
	spec := Spec{
		Resolution:     [2]int{16, 16},
		FeatureSize:    [2]float64{1e-5, 1e-5},
		DistanceSensor: 4e-3,
	}
	if err := spec.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(spec.PSFWavelengths) != 3 {
		t.Fatalf("Expected 3 default wavelengths, got %d", len(spec.PSFWavelengths))
	}
	for i, wv := range DefaultWavelengths {
		if spec.PSFWavelengths[i] != wv {
			t.Errorf("Default wavelength %d: expected %g, got %g", i, wv, spec.PSFWavelengths[i])
		}
	}
}

// TestSpecFromSensor copies the geometry of a registered sensor
func TestSpecFromSensor(t *testing.T) {
	spec, err := SpecFromSensor("rpi_hq", 8, 4e-3, nil)
	if err != nil {
		t.Fatalf("SpecFromSensor failed: %v", err)
	}
	if spec.Resolution[0] != 380 || spec.Resolution[1] != 507 {
		t.Errorf("Expected resolution (380, 507), got %v", spec.Resolution)
	}
	if err := spec.validate(); err != nil {
		t.Errorf("Sensor-derived spec should validate, got %v", err)
	}

	if _, err := SpecFromSensor("no_such_sensor", 1, 4e-3, nil); err == nil {
		t.Error("Expected error for unknown sensor, got none")
	}
}
