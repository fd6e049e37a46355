package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"

	"lensless/internal/models"
	"lensless/pkg/config"
	"lensless/pkg/mask"
	"lensless/pkg/sensor"
	"lensless/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "masksim.yaml", "Path to the YAML configuration file")
	maskType := flag.String("type", "", "Mask type override (coded_aperture, multi_lens, phase_contour, fresnel_zone, height_varying)")
	saveImages := flag.Bool("save-images", false, "Save PSF and height map images")
	outputDir := flag.String("output-dir", "", "Directory for saved images (overrides config)")
	writeDefault := flag.Bool("write-default-config", false, "Write the default configuration to the config path and exit")
	flag.Parse()

	if *writeDefault {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *maskType != "" {
		cfg.Mask.Type = *maskType
	}
	if *saveImages {
		cfg.Output.SaveImages = true
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	fmt.Println("================================")
	fmt.Println("LENSLESS MASK SYNTHESIS AND PSF SIMULATION")
	fmt.Println("================================")

	// Custom sensors declared in the config become available by name.
	for _, custom := range cfg.Sensor.Custom {
		err := sensor.Register(models.SensorSpec{
			Name:       custom.Name,
			Resolution: custom.Resolution,
			PixelSize:  custom.PixelSize,
		})
		if err != nil {
			log.Fatalf("Failed to register sensor %q: %v", custom.Name, err)
		}
	}

	spec, err := mask.SpecFromSensor(cfg.Sensor.Name, cfg.Sensor.Downsample,
		cfg.Sensor.DistanceSensor, cfg.Sensor.PSFWavelengths)
	if err != nil {
		log.Fatalf("Failed to build mask spec: %v", err)
	}

	if cfg.Output.Verbose {
		fmt.Printf("Sensor: %s (downsample %.0fx)\n", cfg.Sensor.Name, cfg.Sensor.Downsample)
		fmt.Printf("Resolution: %dx%d px\n", spec.Resolution[0], spec.Resolution[1])
		fmt.Printf("Feature size: %.3g x %.3g m\n", spec.FeatureSize[0], spec.FeatureSize[1])
		fmt.Printf("Sensor distance: %.3g m\n", spec.DistanceSensor)
	}

	fmt.Printf("Synthesizing %s mask...\n", cfg.Mask.Type)
	startTime := time.Now()

	built, heightMap, err := buildMask(spec, cfg)
	if err != nil {
		log.Fatalf("Mask synthesis failed: %v", err)
	}

	fmt.Printf("Synthesis completed in %.2f seconds\n\n", time.Since(startTime).Seconds())

	// Per-wavelength PSF statistics
	fmt.Println("PSF statistics per wavelength:")
	for k, wv := range built.PSFWavelengths {
		slice := psfSlice(built.PSF, k)
		fmt.Printf("  %4.0f nm: mean=%.4g max=%.4g std=%.4g\n",
			wv*1e9, stat.Mean(slice, nil), maxOf(slice), stat.StdDev(slice, nil))
	}

	if cfg.Output.SaveImages {
		fmt.Printf("\nSaving images to %s...\n", cfg.Output.Dir)
		if err := visualization.SavePSF(built.PSF, cfg.Output.Dir); err != nil {
			log.Fatalf("Failed to save PSF images: %v", err)
		}
		if heightMap != nil {
			path := filepath.Join(cfg.Output.Dir, "height_map.png")
			if err := visualization.SaveHeightMap(heightMap, path); err != nil {
				log.Fatalf("Failed to save height map: %v", err)
			}
		}
		fmt.Println("Images saved!")
	}
}

// buildMask constructs the configured mask variant and returns its base
// artifacts plus the height map for variants that have one.
func buildMask(spec mask.Spec, cfg *config.Config) (*mask.Mask, [][]float64, error) {
	switch cfg.Mask.Type {
	case "coded_aperture":
		ca, err := mask.NewCodedAperture(spec, mask.Method(cfg.Mask.Method), cfg.Mask.NBits)
		if err != nil {
			return nil, nil, err
		}
		return &ca.Mask, nil, nil

	case "multi_lens":
		mla, err := mask.NewMultiLensArray(spec, mask.MultiLensParams{
			N:                cfg.Mask.NLenses,
			RefractiveIndex:  cfg.Mask.RefractiveIndex,
			DesignWavelength: cfg.Mask.DesignWavelength,
			Seed:             cfg.Mask.Seed,
		})
		if err != nil {
			return nil, nil, err
		}
		return &mla.Mask, mla.HeightMap, nil

	case "phase_contour":
		pc, err := mask.NewPhaseContour(spec, mask.PhaseContourParams{
			NoisePeriod:      cfg.Mask.NoisePeriod,
			RefractiveIndex:  cfg.Mask.RefractiveIndex,
			DesignWavelength: cfg.Mask.DesignWavelength,
			NIter:            cfg.Mask.NIter,
			Seed:             int64(cfg.Mask.Seed),
		})
		if err != nil {
			return nil, nil, err
		}
		return &pc.Mask, pc.HeightMap, nil

	case "fresnel_zone":
		fza, err := mask.NewFresnelZoneAperture(spec, cfg.Mask.Radius)
		if err != nil {
			return nil, nil, err
		}
		return &fza.Mask, nil, nil

	case "height_varying":
		hv, err := mask.NewHeightVarying(spec, mask.HeightVaryingParams{
			RefractiveIndex:  cfg.Mask.RefractiveIndex,
			DesignWavelength: cfg.Mask.DesignWavelength,
			Seed:             cfg.Mask.Seed,
		})
		if err != nil {
			return nil, nil, err
		}
		return &hv.Mask, hv.HeightMap, nil
	}
	return nil, nil, fmt.Errorf("unknown mask type %q", cfg.Mask.Type)
}

// psfSlice flattens one wavelength slice of the PSF.
func psfSlice(psf [][][]float64, k int) []float64 {
	out := make([]float64, 0, len(psf)*len(psf[0]))
	for i := range psf {
		for j := range psf[i] {
			out = append(out, psf[i][j][k])
		}
	}
	return out
}

func maxOf(values []float64) float64 {
	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
