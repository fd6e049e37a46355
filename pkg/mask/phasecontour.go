package mask

import (
	"fmt"
	"log"
	"math"
	"math/cmplx"

	"lensless/pkg/imageutil"
	"lensless/pkg/noise"
	"lensless/pkg/propagation"
)

// Defaults for the phase contour parameters.
const (
	defaultPCRefractiveIndex = 1.2
	defaultPCDesignWv        = 532e-9
	defaultPCNIter           = 10
	defaultPCNoisePeriod     = 16
)

// PhaseContourParams configures a PhaseContour mask.
type PhaseContourParams struct {
	// NoisePeriod is the spatial period of the coherent noise the target
	// PSF is derived from, in pixels per axis; default (16, 16)
	NoisePeriod [2]int

	// RefractiveIndex of the mask substrate; default 1.2
	RefractiveIndex float64

	// DesignWavelength the mask is optimized for (m); default 532 nm
	DesignWavelength float64

	// NIter is the number of phase retrieval iterations; default 10
	NIter int

	// Seed for the noise generator
	Seed int64
}

// PhaseContour is a phase-only mask (PhlatCam-style) whose PSF approximates
// the contours of a filtered noise pattern. The mask phase is obtained by
// iterative phase retrieval against that binary contour target.
type PhaseContour struct {
	Mask

	// TargetPSF is the binary contour pattern the retrieval optimizes for
	TargetPSF [][]float64

	// PhasePattern is the retrieved mask phase in radians, wrapped to [0, 2*pi)
	PhasePattern [][]float64

	// HeightMap is the substrate thickness realizing the phase (m)
	HeightMap [][]float64

	// RefractiveIndex and DesignWavelength parameterize the height map
	RefractiveIndex  float64
	DesignWavelength float64

	// NIter is the number of retrieval iterations that were run
	NIter int
}

// NewPhaseContour synthesizes a phase contour mask and computes its PSF.
func NewPhaseContour(spec Spec, params PhaseContourParams) (*PhaseContour, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	applyPCDefaults(&params)
	if params.NIter < 0 {
		return nil, fmt.Errorf("iteration count must be non-negative, got %d", params.NIter)
	}

	pc := &PhaseContour{
		Mask:             Mask{Spec: spec},
		RefractiveIndex:  params.RefractiveIndex,
		DesignWavelength: params.DesignWavelength,
		NIter:            params.NIter,
	}

	target, err := contourTarget(spec.Resolution, params.NoisePeriod, params.Seed)
	if err != nil {
		return nil, err
	}
	pc.TargetPSF = target

	phi, height, err := PhaseRetrieval(target, params.DesignWavelength, spec.FeatureSize,
		spec.DistanceSensor, params.RefractiveIndex, params.NIter)
	if err != nil {
		return nil, err
	}
	pc.PhasePattern = phi
	pc.HeightMap = height
	pc.Field = phaseToField(phi)

	if err := pc.computePSF(); err != nil {
		return nil, err
	}
	return pc, nil
}

// contourTarget builds the binary target PSF: coherent noise on the largest
// period-divisible grid, upscaled to the sensor resolution, binarized, and
// reduced to its edges.
func contourTarget(resolution [2]int, period [2]int, seed int64) ([][]float64, error) {
	if period[0] <= 0 || period[1] <= 0 {
		return nil, fmt.Errorf("noise period must be positive, got %v", period)
	}
	properH := (resolution[0] / period[0]) * period[0]
	properW := (resolution[1] / period[1]) * period[1]
	if properH == 0 || properW == 0 {
		return nil, fmt.Errorf("noise period %v exceeds resolution %v", period, resolution)
	}

	field, err := noise.Perlin(properH, properW, float64(period[0]), float64(period[1]), seed)
	if err != nil {
		return nil, err
	}

	if properH != resolution[0] || properW != resolution[1] {
		field, err = imageutil.Resize(field, resolution[0], resolution[1])
		if err != nil {
			return nil, fmt.Errorf("upscaling noise field: %v", err)
		}
	}

	// Map [-1,1] to [0,1] and round to a binary blob pattern.
	binary := make([][]float64, len(field))
	for i := range field {
		binary[i] = make([]float64, len(field[i]))
		for j, v := range field[i] {
			binary[i][j] = math.Round(clamp01((v + 1) / 2))
		}
	}

	return imageutil.SobelEdges(binary)
}

// PhaseRetrieval derives a phase-only mask whose propagated intensity
// approximates a target PSF, by Gerchberg-Saxton style alternating
// projection between the mask and sensor planes using Fresnel propagation.
//
// Each iteration back-propagates the sensor-plane estimate, projects onto
// the phase-only constraint (unit amplitude), forward-propagates, and
// restores the target amplitude while keeping the propagated phase. The
// loop runs a fixed nIter times with no convergence test; with nIter=0 the
// phase and height map are uniformly zero.
//
// An anisotropic pixel pitch is not supported by the propagation kernel
// parameterization used here: it is reported and the first-axis pitch is
// used for both axes.
//
// Parameters:
//   - targetPSF: Target intensity pattern (non-negative)
//   - wavelength: Design wavelength (m)
//   - pitch: Pixel pitch (m); only the first axis is used if anisotropic
//   - distance: Mask-to-sensor distance (m)
//   - refractiveIndex: Substrate refractive index for the height map
//   - nIter: Number of iterations
//
// Returns:
//   - The mask phase wrapped to [0, 2*pi) and the corresponding height map (m)
func PhaseRetrieval(targetPSF [][]float64, wavelength float64, pitch [2]float64, distance float64, refractiveIndex float64, nIter int) ([][]float64, [][]float64, error) {
	h := len(targetPSF)
	if h == 0 || len(targetPSF[0]) == 0 {
		return nil, nil, fmt.Errorf("empty target PSF")
	}
	w := len(targetPSF[0])

	if pitch[0] != pitch[1] {
		log.Printf("phase retrieval: non-square pixel %v, first dimension taken as feature size", pitch)
	}
	d1 := [2]float64{pitch[0], pitch[0]}

	// Amplitude constraint at the sensor plane.
	amplitude := make([][]float64, h)
	sensorField := make([][]complex128, h)
	for i := range targetPSF {
		amplitude[i] = make([]float64, w)
		sensorField[i] = make([]complex128, w)
		for j, v := range targetPSF[i] {
			amplitude[i][j] = math.Sqrt(v)
			sensorField[i][j] = complex(amplitude[i][j], 0)
		}
	}

	phi := zeros2D(h, w)
	for iter := 0; iter < nIter; iter++ {
		// Back-propagate from sensor to mask plane.
		maskField, err := propagation.FresnelConv(sensorField, wavelength, d1, -distance)
		if err != nil {
			return nil, nil, err
		}
		// Project onto the phase-only constraint: keep phase, unit amplitude.
		for i := range maskField {
			for j := range maskField[i] {
				phi[i][j] = cmplx.Phase(maskField[i][j])
				maskField[i][j] = cmplx.Exp(complex(0, phi[i][j]))
			}
		}
		// Forward-propagate to the sensor plane.
		sensorField, err = propagation.FresnelConv(maskField, wavelength, d1, distance)
		if err != nil {
			return nil, nil, err
		}
		// Project onto the amplitude constraint: target amplitude, kept phase.
		for i := range sensorField {
			for j := range sensorField[i] {
				sensorField[i][j] = complex(amplitude[i][j], 0) * cmplx.Exp(complex(0, cmplx.Phase(sensorField[i][j])))
			}
		}
	}

	height := zeros2D(h, w)
	heightFactor := wavelength / (2 * math.Pi * (refractiveIndex - 1))
	for i := range phi {
		for j := range phi[i] {
			phi[i][j] = math.Mod(phi[i][j]+2*math.Pi, 2*math.Pi)
			height[i][j] = phi[i][j] * heightFactor
		}
	}
	return phi, height, nil
}

// applyPCDefaults fills unset parameters with their defaults.
func applyPCDefaults(p *PhaseContourParams) {
	if p.NoisePeriod == [2]int{} {
		p.NoisePeriod = [2]int{defaultPCNoisePeriod, defaultPCNoisePeriod}
	}
	if p.RefractiveIndex == 0 {
		p.RefractiveIndex = defaultPCRefractiveIndex
	}
	if p.DesignWavelength == 0 {
		p.DesignWavelength = defaultPCDesignWv
	}
	if p.NIter == 0 {
		p.NIter = defaultPCNIter
	}
}
