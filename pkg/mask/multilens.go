package mask

import (
	"fmt"
	"log"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"lensless/internal/models"
)

// Defaults for the multi-lens array parameters.
const (
	defaultMLARefractiveIndex = 1.2
	defaultMLADesignWv        = 532e-9
	defaultMLAMinHeight       = 1e-3
	defaultMLARadiusMin       = 1e-5
	defaultMLARadiusMax       = 1e-3
	defaultMLAMaxAttempts     = 1000
)

// MultiLensParams configures a MultiLensArray. Either Radius+Loc describe
// the lens geometry explicitly, or N lenses are sampled and placed with the
// seeded generator.
type MultiLensParams struct {
	// N is the number of lenses to sample when no explicit geometry is given
	N int

	// Radius are explicit lens radii (m); requires Loc of equal length
	Radius []float64

	// Loc are explicit lens centers (m) as (x, y) along the (height, width) axes
	Loc [][2]float64

	// RefractiveIndex of the mask substrate; default 1.2
	RefractiveIndex float64

	// DesignWavelength the phase profile is computed for (m); default 532 nm
	DesignWavelength float64

	// Seed for radius sampling and placement
	Seed uint64

	// MinHeight is the uniform substrate height under the lenses (m); default 1e-3
	MinHeight float64

	// RadiusMin, RadiusMax bound the sampled radii (m); defaults 1e-5, 1e-3
	RadiusMin, RadiusMax float64

	// MaxAttempts bounds the candidate centers tried per lens; default 1000
	MaxAttempts int
}

// MultiLensArray is a phase mask built from non-overlapping spherical
// lenslets. Its phase profile is continuous (not wrapped modulo 2*pi),
// unlike the other phase variants; see the per-variant policy notes.
type MultiLensArray struct {
	Mask

	// Lenses is the accepted lens geometry in physical units, in
	// placement order
	Lenses []models.Lens

	// HeightMap is the per-pixel substrate thickness (m)
	HeightMap [][]float64

	// RefractiveIndex and DesignWavelength parameterize the phase profile
	RefractiveIndex  float64
	DesignWavelength float64

	// MinHeight is the uniform substrate height (m)
	MinHeight float64
}

// NewMultiLensArray synthesizes a multi-lens array mask and computes its PSF.
//
// With explicit geometry the pairwise non-overlap invariant is validated and
// any violation is a fatal configuration error. Otherwise N radii are
// sampled uniformly and placed greedily, largest first; a lens whose
// placement attempts are exhausted is reported and dropped, never retried.
func NewMultiLensArray(spec Spec, params MultiLensParams) (*MultiLensArray, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	applyMLADefaults(&params)

	mla := &MultiLensArray{
		Mask:             Mask{Spec: spec},
		RefractiveIndex:  params.RefractiveIndex,
		DesignWavelength: params.DesignWavelength,
		MinHeight:        params.MinHeight,
	}

	if params.Radius != nil {
		if params.Loc == nil {
			return nil, fmt.Errorf("explicit radii require explicit locations")
		}
		if len(params.Radius) != len(params.Loc) {
			return nil, fmt.Errorf("radius/location length mismatch: %d vs %d", len(params.Radius), len(params.Loc))
		}
		lenses := make([]models.Lens, len(params.Radius))
		for i, r := range params.Radius {
			if r <= 0 {
				return nil, fmt.Errorf("lens radius must be positive, got %g", r)
			}
			lenses[i] = models.Lens{X: params.Loc[i][0], Y: params.Loc[i][1], R: r}
		}
		for i := range lenses {
			if lenses[i].OverlapsAny(lenses[i+1:]) {
				return nil, fmt.Errorf("explicit lens geometry overlaps at lens %d", i)
			}
		}
		mla.Lenses = lenses
	} else {
		if params.N <= 0 {
			return nil, fmt.Errorf("either explicit lens geometry or a positive lens count is required")
		}
		src := rand.NewSource(params.Seed)
		radii := sampleRadii(params.N, params.RadiusMin, params.RadiusMax, src)
		mla.Lenses = placeLenses(radii, spec.Size, params.MaxAttempts, rand.New(src))
	}

	mla.HeightMap = mla.createHeightMap()

	// Continuous phase: values may exceed 2*pi by design.
	phi := zeros2D(spec.Resolution[0], spec.Resolution[1])
	phaseFactor := (mla.RefractiveIndex - 1) * 2 * math.Pi / mla.DesignWavelength
	for i := range phi {
		for j := range phi[i] {
			phi[i][j] = mla.HeightMap[i][j] * phaseFactor
		}
	}
	mla.Field = phaseToField(phi)

	if err := mla.computePSF(); err != nil {
		return nil, err
	}
	return mla, nil
}

// sampleRadii draws n lens radii uniformly from [min, max] with the given
// source.
func sampleRadii(n int, min, max float64, src rand.Source) []float64 {
	uniform := distuv.Uniform{Min: min, Max: max, Src: src}
	radii := make([]float64, n)
	for i := range radii {
		radii[i] = uniform.Rand()
	}
	return radii
}

// placeLenses greedily places lenses of the given radii on the mask plane.
// Radii are placed largest first; for each radius up to maxAttempts uniform
// candidate centers inside the valid interior (at least one radius from
// every boundary) are tried and the first non-overlapping one is accepted.
// Lenses that cannot be placed are logged and dropped. The total work is
// bounded by len(radii)*maxAttempts trials.
func placeLenses(radii []float64, size [2]float64, maxAttempts int, rng *rand.Rand) []models.Lens {
	sorted := append([]float64(nil), radii...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var placed []models.Lens
	for _, r := range sorted {
		accepted := false
		for attempt := 0; attempt < maxAttempts; attempt++ {
			candidate := models.Lens{
				X: r + rng.Float64()*(size[0]-2*r),
				Y: r + rng.Float64()*(size[1]-2*r),
				R: r,
			}
			if !candidate.OverlapsAny(placed) {
				placed = append(placed, candidate)
				accepted = true
				break
			}
		}
		if !accepted {
			log.Printf("multi-lens array: failed to place lens with radius %g, dropping it", r)
		}
	}
	return placed
}

// createHeightMap builds the per-pixel height map from the lens geometry.
// Each pixel center is assigned the spherical-cap height of the FIRST lens
// in placement order whose disk covers it; pixels under no lens keep only
// the substrate height. First match wins even where disks would stack.
func (mla *MultiLensArray) createHeightMap() [][]float64 {
	h, w := mla.Resolution[0], mla.Resolution[1]
	height := make([][]float64, h)

	// Lens geometry in pixel units.
	type pxLens struct{ x, y, r float64 }
	lenses := make([]pxLens, len(mla.Lenses))
	for i, l := range mla.Lenses {
		lenses[i] = pxLens{
			x: l.X / mla.FeatureSize[0],
			y: l.Y / mla.FeatureSize[1],
			r: l.R / mla.FeatureSize[0],
		}
	}

	for x := 0; x < h; x++ {
		height[x] = make([]float64, w)
		for y := 0; y < w; y++ {
			cx, cy := float64(x)+0.5, float64(y)+0.5
			contribution := 0.0
			for _, l := range lenses {
				dx, dy := cx-l.x, cy-l.y
				if dx*dx+dy*dy < l.r*l.r {
					contribution = math.Sqrt(l.r*l.r - dx*dx - dy*dy)
					break
				}
			}
			height[x][y] = mla.MinHeight + contribution*mla.FeatureSize[0]
		}
	}
	return height
}

// applyMLADefaults fills unset parameters with their defaults.
func applyMLADefaults(p *MultiLensParams) {
	if p.RefractiveIndex == 0 {
		p.RefractiveIndex = defaultMLARefractiveIndex
	}
	if p.DesignWavelength == 0 {
		p.DesignWavelength = defaultMLADesignWv
	}
	if p.MinHeight == 0 {
		p.MinHeight = defaultMLAMinHeight
	}
	if p.RadiusMin == 0 {
		p.RadiusMin = defaultMLARadiusMin
	}
	if p.RadiusMax == 0 {
		p.RadiusMax = defaultMLARadiusMax
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = defaultMLAMaxAttempts
	}
}
