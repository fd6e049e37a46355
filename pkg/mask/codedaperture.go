package mask

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"lensless/pkg/imageutil"
	"lensless/pkg/noise"
)

// Method selects the coded-aperture pattern construction.
type Method string

const (
	// MethodMURA builds a Modified Uniformly Redundant Array of side 4*nBits+1.
	MethodMURA Method = "MURA"

	// MethodMLS builds the outer product of a doubled maximal-length
	// sequence of length 2^nBits-1.
	MethodMLS Method = "MLS"
)

// CodedAperture is a separable binary amplitude mask (FlatCam-style).
// The 2D pattern is the outer product of the Row and Col signature
// sequences, which is what makes the separable measurement model possible.
type CodedAperture struct {
	Mask

	// Method is the pattern construction used (MURA or MLS)
	Method Method

	// NBits controls the pattern size: 4*NBits+1 for MURA, 2^NBits-1 for MLS
	NBits int

	// Row and Col are the bipolar (-1/+1) signature sequences of the
	// separable pattern, before upscaling
	Row []int
	Col []int
}

// NewCodedAperture synthesizes a coded aperture mask and computes its PSF.
//
// Parameters:
//   - spec: Geometry of the mask
//   - method: MethodMURA or MethodMLS
//   - nBits: Pattern size parameter; MURA requires 4*nBits+1 prime
//
// Returns:
//   - The finished mask, or an error for invalid parameters
func NewCodedAperture(spec Spec, method Method, nBits int) (*CodedAperture, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if nBits <= 0 {
		return nil, fmt.Errorf("nBits must be positive, got %d", nBits)
	}

	ca := &CodedAperture{
		Mask:   Mask{Spec: spec},
		Method: method,
		NBits:  nBits,
	}

	var pattern [][]float64
	var err error
	switch method {
	case MethodMURA:
		pattern, err = ca.createMURA()
	case MethodMLS:
		pattern, err = ca.createMLS()
	default:
		return nil, fmt.Errorf("method should be either %q or %q, got %q", MethodMLS, MethodMURA, method)
	}
	if err != nil {
		return nil, err
	}

	// Upscale to the sensor resolution. Interpolation produces fractional
	// values, so the result is clipped and rounded back to a strict binary
	// aperture.
	h, w := spec.Resolution[0], spec.Resolution[1]
	if h != len(pattern) || w != len(pattern[0]) {
		pattern, err = imageutil.Resize(pattern, h, w)
		if err != nil {
			return nil, fmt.Errorf("upscaling aperture pattern: %v", err)
		}
		for i := range pattern {
			for j := range pattern[i] {
				pattern[i][j] = math.Round(clamp01(pattern[i][j]))
			}
		}
	}

	ca.Field = make([][]complex128, h)
	for i := range ca.Field {
		ca.Field[i] = make([]complex128, w)
		for j := range ca.Field[i] {
			ca.Field[i][j] = complex(pattern[i][j], 0)
		}
	}

	if err := ca.computePSF(); err != nil {
		return nil, err
	}
	return ca, nil
}

// createMURA builds the MURA pattern and its row/column signatures.
// The full square pattern is trimmed by one row and column (the standard
// 1-offset trim); signatures are the bipolar first row and column of the
// trimmed pattern.
func (ca *CodedAperture) createMURA() ([][]float64, error) {
	p := 4*ca.NBits + 1
	square, err := muraSquarePattern(p)
	if err != nil {
		return nil, err
	}

	pattern := make([][]float64, p-1)
	for i := range pattern {
		pattern[i] = make([]float64, p-1)
		for j := range pattern[i] {
			pattern[i][j] = float64(square[i+1][j+1])
		}
	}

	ca.Row = make([]int, p-1)
	ca.Col = make([]int, p-1)
	for j := 0; j < p-1; j++ {
		ca.Row[j] = 2*int(pattern[0][j]) - 1
	}
	for i := 0; i < p-1; i++ {
		ca.Col[i] = 2*int(pattern[i][0]) - 1
	}
	return pattern, nil
}

// createMLS builds the doubled maximal-length-sequence pattern. The bipolar
// sequence is concatenated with itself and serves as both signatures; the
// 2D pattern is the outer product mapped back to {0,1}.
func (ca *CodedAperture) createMLS() ([][]float64, error) {
	seq, err := maxLenSeq(ca.NBits)
	if err != nil {
		return nil, err
	}

	bipolar := make([]int, len(seq))
	for i, s := range seq {
		bipolar[i] = 2*s - 1
	}
	doubled := append(append([]int(nil), bipolar...), bipolar...)
	ca.Row = doubled
	ca.Col = doubled

	n := len(doubled)
	pattern := make([][]float64, n)
	for i := range pattern {
		pattern[i] = make([]float64, n)
		for j := range pattern[i] {
			pattern[i][j] = float64(doubled[i]*doubled[j]+1) / 2
		}
	}
	return pattern, nil
}

// muraSquarePattern generates the full p x p MURA pattern from the
// quadratic-residue set modulo p. Cell (i,j) with i,j >= 1 is set when the
// residue membership of i-1 and j-1 agree; the first row is zero and the
// first column below it is one. p must be prime.
func muraSquarePattern(p int) ([][]int, error) {
	if !isPrime(p) {
		return nil, fmt.Errorf("invalid MURA length %d: must be prime", p)
	}

	residues := quadraticResidues(p)
	pattern := make([][]int, p)
	for i := range pattern {
		pattern[i] = make([]int, p)
	}
	for i := 1; i < p; i++ {
		pattern[i][0] = 1
	}
	for j := 1; j < p; j++ {
		for i := 1; i < p; i++ {
			if residues[i-1] == residues[j-1] {
				pattern[i][j] = 1
			}
		}
	}
	return pattern, nil
}

// ConvMatrices builds the left and right convolution operators of the
// separable measurement model meas = P * img * Q^T. The signature
// sequences are repeated cyclically up to the mask resolution, arranged as
// circulant matrices and truncated to the image shape.
//
// The operators are derived on demand for a given image shape; they are
// not persisted on the mask.
func (ca *CodedAperture) ConvMatrices(imgH, imgW int) (*mat.Dense, *mat.Dense, error) {
	if imgH <= 0 || imgW <= 0 {
		return nil, nil, fmt.Errorf("invalid image shape %dx%d", imgH, imgW)
	}
	if imgH > ca.Resolution[0] || imgW > ca.Resolution[1] {
		return nil, nil, fmt.Errorf("image shape %dx%d exceeds mask resolution %v", imgH, imgW, ca.Resolution)
	}

	p := truncatedCirculant(cycleToLength(ca.Col, ca.Resolution[0]), imgH)
	q := truncatedCirculant(cycleToLength(ca.Row, ca.Resolution[1]), imgW)
	return p, q, nil
}

// Simulate applies the separable measurement model to an image and adds
// shot noise at the requested SNR. Pass a positive-infinite snrDB to
// simulate a noiseless measurement.
//
// Parameters:
//   - obj: Image indexed as obj[row][col][channel]; must be 3D even if grayscale
//   - snrDB: Signal-to-noise ratio of the measurement (dB)
//   - src: Seeded random source for the noise model
//
// Returns:
//   - The measurement with shape resolution x channels
func (ca *CodedAperture) Simulate(obj [][][]float64, snrDB float64, src rand.Source) ([][][]float64, error) {
	imgH := len(obj)
	if imgH == 0 || len(obj[0]) == 0 || len(obj[0][0]) == 0 {
		return nil, fmt.Errorf("object should be a 3D array (HxWxC) even if grayscale")
	}
	imgW := len(obj[0])
	channels := len(obj[0][0])

	p, q, err := ca.ConvMatrices(imgH, imgW)
	if err != nil {
		return nil, err
	}

	outH, outW := ca.Resolution[0], ca.Resolution[1]
	meas := make([][][]float64, outH)
	for i := range meas {
		meas[i] = make([][]float64, outW)
		for j := range meas[i] {
			meas[i][j] = make([]float64, channels)
		}
	}

	img := mat.NewDense(imgH, imgW, nil)
	var left, full mat.Dense
	for c := 0; c < channels; c++ {
		for i := 0; i < imgH; i++ {
			for j := 0; j < imgW; j++ {
				img.Set(i, j, obj[i][j][c])
			}
		}
		left.Mul(p, img)
		full.Mul(&left, q.T())
		for i := 0; i < outH; i++ {
			for j := 0; j < outW; j++ {
				meas[i][j][c] = full.At(i, j)
			}
		}
	}

	if !math.IsInf(snrDB, 1) {
		meas = noise.AddShotNoise(meas, snrDB, src)
	}
	return meas, nil
}

// cycleToLength repeats a sequence cyclically (or truncates it) to the
// requested length.
func cycleToLength(seq []int, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(seq[i%len(seq)])
	}
	return out
}

// truncatedCirculant builds the circulant matrix whose first column is c
// and keeps only the first cols columns.
func truncatedCirculant(c []float64, cols int) *mat.Dense {
	n := len(c)
	m := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, c[((i-j)%n+n)%n])
		}
	}
	return m
}

// clamp01 clips a value to the [0,1] interval.
func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
