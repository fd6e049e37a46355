// Package imageutil provides the 2D resampling and edge-detection primitives
// used when upscaling coarse aperture patterns and noise fields to the full
// sensor resolution.
package imageutil

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Resize resamples a 2D array to the requested shape using separable
// piecewise-linear interpolation (rows first, then columns).
//
// Parameters:
//   - src: Input array indexed as src[row][col]
//   - dstH, dstW: Target shape
//
// Returns:
//   - The resampled dstH x dstW array
func Resize(src [][]float64, dstH, dstW int) ([][]float64, error) {
	srcH, _, err := rectShape(src)
	if err != nil {
		return nil, err
	}
	if dstH <= 0 || dstW <= 0 {
		return nil, fmt.Errorf("invalid target shape %dx%d", dstH, dstW)
	}

	// Resample each row to the target width.
	rows := make([][]float64, srcH)
	for i := 0; i < srcH; i++ {
		rows[i], err = resampleLinear(src[i], dstW)
		if err != nil {
			return nil, err
		}
	}

	// Resample each column to the target height.
	dst := make([][]float64, dstH)
	for i := range dst {
		dst[i] = make([]float64, dstW)
	}
	col := make([]float64, srcH)
	for j := 0; j < dstW; j++ {
		for i := 0; i < srcH; i++ {
			col[i] = rows[i][j]
		}
		out, err := resampleLinear(col, dstH)
		if err != nil {
			return nil, err
		}
		for i := 0; i < dstH; i++ {
			dst[i][j] = out[i]
		}
	}

	return dst, nil
}

// ResizeNearest resamples a 2D array using nearest-neighbor lookup.
// Unlike Resize it never introduces intermediate values, so label-like
// or strictly binary data stays binary.
func ResizeNearest(src [][]float64, dstH, dstW int) ([][]float64, error) {
	srcH, srcW, err := rectShape(src)
	if err != nil {
		return nil, err
	}
	if dstH <= 0 || dstW <= 0 {
		return nil, fmt.Errorf("invalid target shape %dx%d", dstH, dstW)
	}

	dst := make([][]float64, dstH)
	for i := range dst {
		dst[i] = make([]float64, dstW)
		si := nearestIndex(i, dstH, srcH)
		for j := 0; j < dstW; j++ {
			dst[i][j] = src[si][nearestIndex(j, dstW, srcW)]
		}
	}
	return dst, nil
}

// resampleLinear resamples a 1D signal to n points. The endpoints of the
// source signal map to the endpoints of the output.
func resampleLinear(values []float64, n int) ([]float64, error) {
	out := make([]float64, n)
	if len(values) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, values); err != nil {
		return nil, fmt.Errorf("linear resampling failed: %v", err)
	}

	if n == 1 {
		out[0] = pl.Predict(0)
		return out, nil
	}
	scale := float64(len(values)-1) / float64(n-1)
	for i := range out {
		out[i] = pl.Predict(float64(i) * scale)
	}
	return out, nil
}

// nearestIndex maps output index i on a grid of n points back to a source
// grid of m points.
func nearestIndex(i, n, m int) int {
	if n == 1 {
		return 0
	}
	idx := int(float64(i)*float64(m-1)/float64(n-1) + 0.5)
	if idx >= m {
		idx = m - 1
	}
	return idx
}

// rectShape validates that the array is non-empty and rectangular and
// returns its shape.
func rectShape(a [][]float64) (int, int, error) {
	if len(a) == 0 || len(a[0]) == 0 {
		return 0, 0, fmt.Errorf("empty array")
	}
	w := len(a[0])
	for i := range a {
		if len(a[i]) != w {
			return 0, 0, fmt.Errorf("ragged array: row %d has %d columns, expected %d", i, len(a[i]), w)
		}
	}
	return len(a), w, nil
}
