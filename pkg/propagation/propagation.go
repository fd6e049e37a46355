// Package propagation implements the free-space wave propagation primitives
// consumed by the mask synthesis pipeline: a band-limited angular spectrum
// method for PSF simulation and a Fresnel transfer-function convolution for
// iterative phase retrieval. Both operate in the frequency domain via 2D FFT.
package propagation

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// AngularSpectrum propagates a complex field over a distance using the
// angular spectrum of plane waves. Evanescent components (spatial
// frequencies beyond 1/wavelength) are discarded. With bandlimit enabled
// the transfer function is additionally truncated following Matsushima and
// Shimobaba so that aliasing of the sampled kernel is avoided.
//
// Parameters:
//   - field: Input complex field at the source plane, indexed as field[row][col]
//   - wavelength: Wavelength of the propagated light (m)
//   - pitch: Sample pitch along (row, col) axes (m)
//   - distance: Propagation distance (m); may be negative for back-propagation
//   - bandlimit: Whether to band-limit the transfer function
//
// Returns:
//   - The propagated complex field with the same shape as the input
func AngularSpectrum(field [][]complex128, wavelength float64, pitch [2]float64, distance float64, bandlimit bool) ([][]complex128, error) {
	h, w, err := fieldShape(field)
	if err != nil {
		return nil, err
	}
	if wavelength <= 0 {
		return nil, fmt.Errorf("wavelength must be positive, got %g", wavelength)
	}
	if pitch[0] <= 0 || pitch[1] <= 0 {
		return nil, fmt.Errorf("pitch must be positive, got %v", pitch)
	}

	fy := fftFreq(h, pitch[0])
	fx := fftFreq(w, pitch[1])

	// Band limit per Matsushima & Shimobaba: the transfer function is only
	// kept within |f| <= 1/(wavelength*sqrt((2*df*dz)^2+1)) per axis, where
	// df is the frequency resolution of the sampled grid.
	limY := math.Inf(1)
	limX := math.Inf(1)
	if bandlimit {
		dfy := 1.0 / (float64(h) * pitch[0])
		dfx := 1.0 / (float64(w) * pitch[1])
		limY = 1.0 / (wavelength * math.Sqrt(math.Pow(2*dfy*distance, 2)+1))
		limX = 1.0 / (wavelength * math.Sqrt(math.Pow(2*dfx*distance, 2)+1))
	}

	invLambdaSq := 1.0 / (wavelength * wavelength)

	spectrum := fft.FFT2(field)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			fsq := fy[i]*fy[i] + fx[j]*fx[j]
			if fsq > invLambdaSq || math.Abs(fy[i]) > limY || math.Abs(fx[j]) > limX {
				spectrum[i][j] = 0
				continue
			}
			kz := 2 * math.Pi * distance * math.Sqrt(invLambdaSq-fsq)
			spectrum[i][j] *= cmplx.Exp(complex(0, kz))
		}
	}

	return fft.IFFT2(spectrum), nil
}

// FresnelConv propagates a complex field using the Fresnel transfer
// function (paraxial) approximation. Used by phase retrieval, where the
// forward step passes a positive distance and the backward step a negative
// one.
//
// Parameters:
//   - field: Input complex field at the source plane
//   - wavelength: Wavelength of the propagated light (m)
//   - pitch: Sample pitch along (row, col) axes (m)
//   - distance: Propagation distance (m); sign selects the direction
//
// Returns:
//   - The propagated complex field with the same shape as the input
func FresnelConv(field [][]complex128, wavelength float64, pitch [2]float64, distance float64) ([][]complex128, error) {
	h, w, err := fieldShape(field)
	if err != nil {
		return nil, err
	}
	if wavelength <= 0 {
		return nil, fmt.Errorf("wavelength must be positive, got %g", wavelength)
	}
	if pitch[0] <= 0 || pitch[1] <= 0 {
		return nil, fmt.Errorf("pitch must be positive, got %v", pitch)
	}

	fy := fftFreq(h, pitch[0])
	fx := fftFreq(w, pitch[1])

	k := 2 * math.Pi / wavelength
	carrier := cmplx.Exp(complex(0, k*distance))

	spectrum := fft.FFT2(field)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			fsq := fy[i]*fy[i] + fx[j]*fx[j]
			spectrum[i][j] *= carrier * cmplx.Exp(complex(0, -math.Pi*wavelength*distance*fsq))
		}
	}

	return fft.IFFT2(spectrum), nil
}

// fftFreq returns the discrete Fourier transform sample frequencies for a
// signal of n samples spaced d apart, ordered [0, 1, ..., n/2-1, -n/2, ..., -1]/(n*d).
func fftFreq(n int, d float64) []float64 {
	freqs := make([]float64, n)
	scale := 1.0 / (float64(n) * d)
	half := (n - 1) / 2
	for i := 0; i <= half; i++ {
		freqs[i] = float64(i) * scale
	}
	for i := half + 1; i < n; i++ {
		freqs[i] = float64(i-n) * scale
	}
	return freqs
}

// fieldShape validates that the field is non-empty and rectangular and
// returns its shape.
func fieldShape(field [][]complex128) (int, int, error) {
	if len(field) == 0 || len(field[0]) == 0 {
		return 0, 0, fmt.Errorf("empty field")
	}
	w := len(field[0])
	for i := range field {
		if len(field[i]) != w {
			return 0, 0, fmt.Errorf("ragged field: row %d has %d columns, expected %d", i, len(field[i]), w)
		}
	}
	return len(field), w, nil
}
