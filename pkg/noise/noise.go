// Package noise provides the stochastic collaborators of the synthesis
// pipeline: the shot-noise model applied to simulated measurements and the
// seeded coherent-noise generator used to build phase-retrieval targets.
package noise

import (
	"fmt"
	"log"
	"math"

	"github.com/aquilax/go-perlin"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Perlin noise shape parameters. Two octaves of persistence 2 give the
// smooth blob structure the contour targets are derived from.
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = 3
)

// AddShotNoise adds signal-dependent (shot) noise to a measurement so that
// the result has approximately the requested signal-to-noise ratio. The
// noise at each sample is gaussian with a standard deviation proportional
// to the square root of the signal there, scaled globally to match snrDB.
//
// A zero-variance noise draw (e.g. an all-zero signal) is reported and the
// measurement is returned unnormalized rather than failing.
//
// Parameters:
//   - signal: Measurement indexed as signal[row][col][channel]
//   - snrDB: Target signal-to-noise ratio in dB
//   - src: Seeded random source; must not be nil
//
// Returns:
//   - A new array of the same shape with noise added
func AddShotNoise(signal [][][]float64, snrDB float64, src rand.Source) [][][]float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	flatSignal := flatten(signal)
	sigVar := stat.Variance(flatSignal, nil)

	noise := make([]float64, len(flatSignal))
	for i, s := range flatSignal {
		if s > 0 {
			noise[i] = normal.Rand() * math.Sqrt(s)
		}
	}
	noiseVar := stat.Variance(noise, nil)

	fact := 1.0
	if noiseVar == 0 {
		log.Printf("shot noise: zero noise variance, returning unnormalized measurement")
	} else {
		fact = math.Sqrt(sigVar / noiseVar / math.Pow(10, snrDB/10))
	}

	out := make([][][]float64, len(signal))
	idx := 0
	for i := range signal {
		out[i] = make([][]float64, len(signal[i]))
		for j := range signal[i] {
			out[i][j] = make([]float64, len(signal[i][j]))
			for c := range signal[i][j] {
				out[i][j][c] = signal[i][j][c] + fact*noise[idx]
				idx++
			}
		}
	}
	return out
}

// Perlin generates a 2D coherent noise field with values roughly in [-1,1].
// The field is deterministic for a given seed.
//
// Parameters:
//   - h, w: Shape of the generated field (px)
//   - periodY, periodX: Spatial period of the noise lattice (px)
//   - seed: Seed for the underlying gradient table
//
// Returns:
//   - An h x w noise field
func Perlin(h, w int, periodY, periodX float64, seed int64) ([][]float64, error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("invalid noise field shape %dx%d", h, w)
	}
	if periodY <= 0 || periodX <= 0 {
		return nil, fmt.Errorf("noise period must be positive, got (%g, %g)", periodY, periodX)
	}

	gen := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed)
	field := make([][]float64, h)
	for i := range field {
		field[i] = make([]float64, w)
		for j := range field[i] {
			field[i][j] = gen.Noise2D(float64(i)/periodY, float64(j)/periodX)
		}
	}
	return field, nil
}

// flatten copies a 3D array into a flat slice in row-major order.
func flatten(a [][][]float64) []float64 {
	var out []float64
	for i := range a {
		for j := range a[i] {
			out = append(out, a[i][j]...)
		}
	}
	return out
}
