package mask

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Defaults for the height-varying mask parameters.
const (
	defaultHVRefractiveIndex = 1.2
	defaultHVDesignWv        = 532e-9
	defaultHVHeightMin       = 1e-5
	defaultHVHeightMax       = 1e-3
)

// HeightVaryingParams configures a HeightVarying mask.
type HeightVaryingParams struct {
	// HeightMap is an explicit per-pixel substrate thickness (m). When nil
	// a random map is sampled uniformly from HeightRange.
	HeightMap [][]float64

	// HeightRange bounds the sampled heights (m); defaults (1e-5, 1e-3)
	HeightRange [2]float64

	// RefractiveIndex of the mask substrate; default 1.2
	RefractiveIndex float64

	// DesignWavelength the phase is computed for (m); default 532 nm
	DesignWavelength float64

	// Seed for the height sampling
	Seed uint64
}

// HeightVarying is a phase mask defined directly by a per-pixel height map,
// either caller-supplied or sampled with a seeded generator. Its phase is
// wrapped modulo 2*pi.
type HeightVarying struct {
	Mask

	// HeightMap is the per-pixel substrate thickness (m)
	HeightMap [][]float64

	// HeightRange bounds randomly generated heights (m)
	HeightRange [2]float64

	// RefractiveIndex and DesignWavelength parameterize the phase
	RefractiveIndex  float64
	DesignWavelength float64
}

// NewHeightVarying synthesizes a height-varying mask and computes its PSF.
// An explicit height map must match the spec resolution.
func NewHeightVarying(spec Spec, params HeightVaryingParams) (*HeightVarying, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	applyHVDefaults(&params)
	if params.HeightRange[0] >= params.HeightRange[1] {
		return nil, fmt.Errorf("invalid height range %v", params.HeightRange)
	}

	hv := &HeightVarying{
		Mask:             Mask{Spec: spec},
		HeightRange:      params.HeightRange,
		RefractiveIndex:  params.RefractiveIndex,
		DesignWavelength: params.DesignWavelength,
	}

	h, w := spec.Resolution[0], spec.Resolution[1]
	if params.HeightMap != nil {
		if len(params.HeightMap) != h {
			return nil, fmt.Errorf("height map shape mismatch: %d rows, resolution %v", len(params.HeightMap), spec.Resolution)
		}
		for i, row := range params.HeightMap {
			if len(row) != w {
				return nil, fmt.Errorf("height map shape mismatch: row %d has %d columns, resolution %v", i, len(row), spec.Resolution)
			}
		}
		hv.HeightMap = params.HeightMap
	} else {
		uniform := distuv.Uniform{
			Min: params.HeightRange[0],
			Max: params.HeightRange[1],
			Src: rand.NewSource(params.Seed),
		}
		hv.HeightMap = make([][]float64, h)
		for i := range hv.HeightMap {
			hv.HeightMap[i] = make([]float64, w)
			for j := range hv.HeightMap[i] {
				hv.HeightMap[i][j] = uniform.Rand()
			}
		}
	}

	hv.Field = phaseToField(hv.Phi())

	if err := hv.computePSF(); err != nil {
		return nil, err
	}
	return hv, nil
}

// Phi returns the mask phase derived from the height map, wrapped modulo
// 2*pi.
func (hv *HeightVarying) Phi() [][]float64 {
	factor := 2 * math.Pi * (hv.RefractiveIndex - 1) / hv.DesignWavelength
	phi := make([][]float64, len(hv.HeightMap))
	for i := range hv.HeightMap {
		phi[i] = make([]float64, len(hv.HeightMap[i]))
		for j, height := range hv.HeightMap[i] {
			phi[i][j] = math.Mod(height*factor, 2*math.Pi)
		}
	}
	return phi
}

// applyHVDefaults fills unset parameters with their defaults.
func applyHVDefaults(p *HeightVaryingParams) {
	if p.RefractiveIndex == 0 {
		p.RefractiveIndex = defaultHVRefractiveIndex
	}
	if p.DesignWavelength == 0 {
		p.DesignWavelength = defaultHVDesignWv
	}
	if p.HeightRange == [2]float64{} {
		p.HeightRange = [2]float64{defaultHVHeightMin, defaultHVHeightMax}
	}
}
