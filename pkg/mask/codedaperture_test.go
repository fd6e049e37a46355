package mask

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func testSpec(h, w int) Spec {
	return Spec{
		Resolution:     [2]int{h, w},
		FeatureSize:    [2]float64{1e-5, 1e-5},
		DistanceSensor: 4e-3,
	}
}

// TestMURADensity verifies the standard MURA density: the full square
// pattern of prime side p carries exactly (p*p-1)/2 ones
func TestMURADensity(t *testing.T) {
	for _, p := range []int{5, 13, 29} {
		pattern, err := muraSquarePattern(p)
		if err != nil {
			t.Fatalf("muraSquarePattern(%d) failed: %v", p, err)
		}

		ones := 0
		for i := range pattern {
			for j := range pattern[i] {
				if pattern[i][j] == 1 {
					ones++
				}
			}
		}

		expected := (p*p - 1) / 2
		if ones != expected {
			t.Errorf("p=%d: expected %d ones, got %d", p, expected, ones)
		}
	}
}

// TestMURAInvalidLength ensures construction fails when 4*nBits+1 is not
// prime
func TestMURAInvalidLength(t *testing.T) {
	// 4*8+1 = 33 = 3*11 is composite
	_, err := NewCodedAperture(testSpec(64, 64), MethodMURA, 8)
	if err == nil {
		t.Fatal("Expected error for composite MURA length, got none")
	}
}

// TestMURASignatures checks that the row/column signatures are the bipolar
// first row and column of the trimmed pattern
func TestMURASignatures(t *testing.T) {
	// p = 4*3+1 = 13 is prime; keep the resolution at the pattern size so
	// no upscaling happens.
	ca, err := NewCodedAperture(testSpec(12, 12), MethodMURA, 3)
	if err != nil {
		t.Fatalf("NewCodedAperture failed: %v", err)
	}

	if len(ca.Row) != 12 || len(ca.Col) != 12 {
		t.Fatalf("Expected 12-element signatures, got %d and %d", len(ca.Row), len(ca.Col))
	}
	for j, r := range ca.Row {
		expected := 2*int(real(ca.Field[0][j])) - 1
		if r != expected {
			t.Errorf("Row[%d]: expected %d, got %d", j, expected, r)
		}
	}
	for i, c := range ca.Col {
		expected := 2*int(real(ca.Field[i][0])) - 1
		if c != expected {
			t.Errorf("Col[%d]: expected %d, got %d", i, expected, c)
		}
	}
}

// TestMLSEndToEnd builds an MLS mask upscaled to 64x64 and verifies the
// field is strictly binary and the PSF has one slice per default wavelength
func TestMLSEndToEnd(t *testing.T) {
	ca, err := NewCodedAperture(testSpec(64, 64), MethodMLS, 5)
	if err != nil {
		t.Fatalf("NewCodedAperture failed: %v", err)
	}

	if len(ca.Field) != 64 || len(ca.Field[0]) != 64 {
		t.Fatalf("Expected 64x64 field, got %dx%d", len(ca.Field), len(ca.Field[0]))
	}
	for i := range ca.Field {
		for j, v := range ca.Field[i] {
			if real(v) != 0 && real(v) != 1 {
				t.Fatalf("Field value at (%d,%d) is %g, expected strictly binary", i, j, real(v))
			}
			if imag(v) != 0 {
				t.Fatalf("Field value at (%d,%d) has imaginary part %g", i, j, imag(v))
			}
		}
	}

	if len(ca.PSF) != 64 || len(ca.PSF[0]) != 64 || len(ca.PSF[0][0]) != 3 {
		t.Errorf("Expected PSF of shape (64,64,3), got (%d,%d,%d)",
			len(ca.PSF), len(ca.PSF[0]), len(ca.PSF[0][0]))
	}
	for i := range ca.PSF {
		for j := range ca.PSF[i] {
			for k, v := range ca.PSF[i][j] {
				if v < 0 {
					t.Fatalf("PSF value at (%d,%d,%d) is negative: %g", i, j, k, v)
				}
			}
		}
	}
}

// TestMLSDoubledSignature checks the doubled maximal-length signature and
// the outer-product structure of the unscaled pattern
func TestMLSDoubledSignature(t *testing.T) {
	// nBits=3: sequence length 7, doubled to 14.
	ca, err := NewCodedAperture(testSpec(14, 14), MethodMLS, 3)
	if err != nil {
		t.Fatalf("NewCodedAperture failed: %v", err)
	}

	if len(ca.Row) != 14 {
		t.Fatalf("Expected doubled signature of length 14, got %d", len(ca.Row))
	}
	for i := 0; i < 7; i++ {
		if ca.Row[i] != ca.Row[i+7] {
			t.Errorf("Signature is not self-concatenated at index %d", i)
		}
	}

	// Pattern must be the outer product mapped to {0,1}.
	for i := range ca.Field {
		for j := range ca.Field[i] {
			expected := float64(ca.Col[i]*ca.Row[j]+1) / 2
			if real(ca.Field[i][j]) != expected {
				t.Errorf("Pattern at (%d,%d): expected %g, got %g", i, j, expected, real(ca.Field[i][j]))
			}
		}
	}
}

// TestConvMatrices verifies the circulant structure and the truncation to
// the image shape
func TestConvMatrices(t *testing.T) {
	ca, err := NewCodedAperture(testSpec(16, 16), MethodMLS, 3)
	if err != nil {
		t.Fatalf("NewCodedAperture failed: %v", err)
	}

	p, q, err := ca.ConvMatrices(8, 10)
	if err != nil {
		t.Fatalf("ConvMatrices failed: %v", err)
	}

	pr, pc := p.Dims()
	if pr != 16 || pc != 8 {
		t.Errorf("Expected P of shape 16x8, got %dx%d", pr, pc)
	}
	qr, qc := q.Dims()
	if qr != 16 || qc != 10 {
		t.Errorf("Expected Q of shape 16x10, got %dx%d", qr, qc)
	}

	// Circulant structure: each column is the previous one shifted down.
	for i := 0; i < pr; i++ {
		for j := 1; j < pc; j++ {
			if p.At(i, j) != p.At((i-1+pr)%pr, j-1) {
				t.Fatalf("P is not circulant at (%d,%d)", i, j)
			}
		}
	}

	// Images larger than the mask resolution are rejected.
	if _, _, err := ca.ConvMatrices(17, 8); err == nil {
		t.Error("Expected error for image taller than the mask, got none")
	}
}

// TestSimulate runs the separable measurement model and checks output
// shape and determinism of the noiseless path
func TestSimulate(t *testing.T) {
	ca, err := NewCodedAperture(testSpec(16, 16), MethodMLS, 3)
	if err != nil {
		t.Fatalf("NewCodedAperture failed: %v", err)
	}

	obj := make([][][]float64, 8)
	for i := range obj {
		obj[i] = make([][]float64, 8)
		for j := range obj[i] {
			obj[i][j] = []float64{float64(i + j)}
		}
	}

	noiseless := math.Inf(1)
	meas1, err := ca.Simulate(obj, noiseless, nil)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if len(meas1) != 16 || len(meas1[0]) != 16 || len(meas1[0][0]) != 1 {
		t.Fatalf("Expected measurement of shape (16,16,1), got (%d,%d,%d)",
			len(meas1), len(meas1[0]), len(meas1[0][0]))
	}

	meas2, err := ca.Simulate(obj, noiseless, nil)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	for i := range meas1 {
		for j := range meas1[i] {
			if meas1[i][j][0] != meas2[i][j][0] {
				t.Fatalf("Noiseless simulation is not deterministic at (%d,%d)", i, j)
			}
		}
	}

	// With a finite SNR the measurement differs from the noiseless one.
	noisy, err := ca.Simulate(obj, 20, rand.NewSource(1))
	if err != nil {
		t.Fatalf("Simulate with noise failed: %v", err)
	}
	same := true
	for i := range noisy {
		for j := range noisy[i] {
			if noisy[i][j][0] != meas1[i][j][0] {
				same = false
			}
		}
	}
	if same {
		t.Error("Expected shot noise to perturb the measurement")
	}

	// Non-3D objects are rejected.
	if _, err := ca.Simulate(nil, noiseless, nil); err == nil {
		t.Error("Expected error for empty object, got none")
	}
}

// TestCodedApertureUnknownMethod ensures unsupported methods are rejected
func TestCodedApertureUnknownMethod(t *testing.T) {
	if _, err := NewCodedAperture(testSpec(16, 16), Method("FZA"), 3); err == nil {
		t.Fatal("Expected error for unknown method, got none")
	}
}
