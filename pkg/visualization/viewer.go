// Package visualization exports mask artifacts (PSF slices, height maps,
// binary fields) as grayscale images for inspection.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

// SavePSF saves each wavelength slice of an intensity PSF as a normalized
// 16-bit grayscale PNG named psf_wv<N>.png in the output directory.
//
// Parameters:
//   - psf: Intensity PSF indexed as psf[row][col][wavelength]
//   - outputDir: Directory the images are written to (created if missing)
func SavePSF(psf [][][]float64, outputDir string) error {
	if len(psf) == 0 || len(psf[0]) == 0 || len(psf[0][0]) == 0 {
		return fmt.Errorf("empty PSF")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	wavelengths := len(psf[0][0])
	for k := 0; k < wavelengths; k++ {
		slice := make([][]float64, len(psf))
		for i := range psf {
			slice[i] = make([]float64, len(psf[i]))
			for j := range psf[i] {
				slice[i][j] = psf[i][j][k]
			}
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("psf_wv%d.png", k))
		if err := SaveGrayscale(slice, filename); err != nil {
			return err
		}
	}
	return nil
}

// SaveHeightMap saves a height map as a normalized grayscale PNG.
func SaveHeightMap(heightMap [][]float64, filename string) error {
	return SaveGrayscale(heightMap, filename)
}

// SaveGrayscale normalizes a 2D array to its value range and writes it as
// a 16-bit grayscale PNG. A constant array is written as black.
func SaveGrayscale(data [][]float64, filename string) error {
	if len(data) == 0 || len(data[0]) == 0 {
		return fmt.Errorf("empty image data")
	}
	h, w := len(data), len(data[0])

	min, max := data[0][0], data[0][0]
	for i := range data {
		for _, v := range data[i] {
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
	}
	scale := 0.0
	if max > min {
		scale = 65535 / (max - min)
	}

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			value := uint16((data[i][j] - min) * scale)
			img.SetGray16(j, i, color.Gray16{Y: value})
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}
