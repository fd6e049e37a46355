package imageutil

import (
	"math"
)

// SobelEdges extracts a binary edge map from a binary image using the
// Sobel gradient operator. A pixel is marked as an edge when the gradient
// magnitude at that pixel is non-negligible, which for a {0,1} input marks
// the boundaries between regions.
//
// Parameters:
//   - binary: Input image with values in {0,1}
//
// Returns:
//   - An edge map of the same shape with values in {0,1}
func SobelEdges(binary [][]float64) ([][]float64, error) {
	h, w, err := rectShape(binary)
	if err != nil {
		return nil, err
	}

	edges := make([][]float64, h)
	for i := range edges {
		edges[i] = make([]float64, w)
	}

	// Sobel kernels for the vertical and horizontal gradients.
	kx := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	ky := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	for i := 1; i < h-1; i++ {
		for j := 1; j < w-1; j++ {
			var gx, gy float64
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					v := binary[i+di][j+dj]
					gx += kx[di+1][dj+1] * v
					gy += ky[di+1][dj+1] * v
				}
			}
			if math.Sqrt(gx*gx+gy*gy) > 0.5 {
				edges[i][j] = 1
			}
		}
	}

	return edges, nil
}
