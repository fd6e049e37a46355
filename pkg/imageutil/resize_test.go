package imageutil

import (
	"math"
	"testing"
)

// TestResizeIdentity checks that resampling to the same shape returns the
// input values exactly (knot points of the piecewise-linear fit)
func TestResizeIdentity(t *testing.T) {
	src := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}
	dst, err := Resize(src, 3, 3)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	for i := range src {
		for j := range src[i] {
			if math.Abs(dst[i][j]-src[i][j]) > 1e-12 {
				t.Errorf("Identity resize changed (%d,%d): %g vs %g", i, j, dst[i][j], src[i][j])
			}
		}
	}
}

// TestResizePreservesEndpoints verifies the corners of the source map to
// the corners of the output
func TestResizePreservesEndpoints(t *testing.T) {
	src := [][]float64{
		{1, 2},
		{3, 4},
	}
	dst, err := Resize(src, 5, 7)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if len(dst) != 5 || len(dst[0]) != 7 {
		t.Fatalf("Expected 5x7 output, got %dx%d", len(dst), len(dst[0]))
	}

	corners := [][3]float64{
		{0, 0, 1}, {0, 6, 2}, {4, 0, 3}, {4, 6, 4},
	}
	for _, c := range corners {
		got := dst[int(c[0])][int(c[1])]
		if math.Abs(got-c[2]) > 1e-12 {
			t.Errorf("Corner (%d,%d): expected %g, got %g", int(c[0]), int(c[1]), c[2], got)
		}
	}
}

// TestResizeInterpolatesBetweenKnots checks a midpoint value of the
// linear interpolant
func TestResizeInterpolatesBetweenKnots(t *testing.T) {
	src := [][]float64{
		{0, 2},
		{0, 2},
	}
	dst, err := Resize(src, 2, 3)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if math.Abs(dst[0][1]-1) > 1e-12 {
		t.Errorf("Expected midpoint value 1, got %g", dst[0][1])
	}
}

// TestResizeNearestKeepsBinary ensures nearest-neighbor resampling never
// introduces fractional values
func TestResizeNearestKeepsBinary(t *testing.T) {
	src := [][]float64{
		{0, 1, 0},
		{1, 0, 1},
		{0, 1, 0},
	}
	dst, err := ResizeNearest(src, 8, 8)
	if err != nil {
		t.Fatalf("ResizeNearest failed: %v", err)
	}
	for i := range dst {
		for j, v := range dst[i] {
			if v != 0 && v != 1 {
				t.Fatalf("Nearest resize produced non-binary value %g at (%d,%d)", v, i, j)
			}
		}
	}
}

// TestResizeRejectsInvalidInput covers the error paths
func TestResizeRejectsInvalidInput(t *testing.T) {
	if _, err := Resize(nil, 4, 4); err == nil {
		t.Error("Expected error for empty input, got none")
	}
	if _, err := Resize([][]float64{{1, 2}, {3}}, 4, 4); err == nil {
		t.Error("Expected error for ragged input, got none")
	}
	if _, err := Resize([][]float64{{1, 2}}, 0, 4); err == nil {
		t.Error("Expected error for zero target shape, got none")
	}
}

// TestSobelEdgesOnSquare checks that the boundary of a block is marked and
// the far background is not
func TestSobelEdgesOnSquare(t *testing.T) {
	size := 12
	binary := make([][]float64, size)
	for i := range binary {
		binary[i] = make([]float64, size)
	}
	for i := 4; i < 8; i++ {
		for j := 4; j < 8; j++ {
			binary[i][j] = 1
		}
	}

	edges, err := SobelEdges(binary)
	if err != nil {
		t.Fatalf("SobelEdges failed: %v", err)
	}

	for i := range edges {
		for j, v := range edges[i] {
			if v != 0 && v != 1 {
				t.Fatalf("Edge map value %g at (%d,%d) is not binary", v, i, j)
			}
		}
	}

	// The block boundary must respond.
	if edges[4][5] != 1 {
		t.Error("Expected an edge on the top boundary of the block")
	}
	// The background far from the block must not.
	if edges[1][1] != 0 {
		t.Error("Expected no edge in the empty background")
	}
	// A pixel whose whole neighborhood lies inside the block has zero
	// gradient and must not respond.
	if edges[5][5] != 0 {
		t.Error("Expected no edge in the flat block interior")
	}
}
