// Package config provides configuration loading and management for the mask
// synthesis pipeline. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Mask parameters
	Mask struct {
		// Type selects the mask variant: coded_aperture, multi_lens,
		// phase_contour, fresnel_zone or height_varying
		Type string `yaml:"type"`

		// Method is the coded-aperture construction (MURA or MLS)
		Method string `yaml:"method"`

		// NBits is the coded-aperture pattern size parameter
		NBits int `yaml:"nBits"`

		// Radius is the Fresnel zone aperture characteristic radius (m)
		Radius float64 `yaml:"radius"`

		// NLenses is the number of lenses sampled for a multi-lens array
		NLenses int `yaml:"nLenses"`

		// NIter is the phase retrieval iteration count
		NIter int `yaml:"nIter"`

		// NoisePeriod is the phase-contour noise period (px)
		NoisePeriod [2]int `yaml:"noisePeriod"`

		// RefractiveIndex of the mask substrate
		RefractiveIndex float64 `yaml:"refractiveIndex"`

		// DesignWavelength for the phase variants (m)
		DesignWavelength float64 `yaml:"designWavelength"`

		// Seed for every randomized synthesis step
		Seed uint64 `yaml:"seed"`
	} `yaml:"mask"`

	// Sensor parameters
	Sensor struct {
		// Name of the virtual sensor to copy geometry from
		Name string `yaml:"name"`

		// Downsample factor applied to the sensor grid
		Downsample float64 `yaml:"downsample"`

		// DistanceSensor is the mask-to-sensor distance (m)
		DistanceSensor float64 `yaml:"distanceSensor"`

		// PSFWavelengths are the design wavelengths the PSF is simulated at (m)
		PSFWavelengths []float64 `yaml:"psfWavelengths"`

		// Custom declares additional sensors registered before lookup
		Custom []CustomSensor `yaml:"custom"`
	} `yaml:"sensor"`

	// Output parameters
	Output struct {
		// SaveImages determines whether PSF and height map images are written
		SaveImages bool `yaml:"saveImages"`

		// Dir is the directory images are written to
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// CustomSensor declares a user-defined sensor in the configuration file
type CustomSensor struct {
	// Name the sensor is registered and looked up under
	Name string `yaml:"name"`

	// Resolution is the pixel grid as (height, width)
	Resolution [2]int `yaml:"resolution"`

	// PixelSize is the pixel pitch in meters as (height, width)
	PixelSize [2]float64 `yaml:"pixelSize"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default mask parameters
	cfg.Mask.Type = "coded_aperture"
	cfg.Mask.Method = "MLS"
	cfg.Mask.NBits = 8
	cfg.Mask.Radius = 0.32e-3
	cfg.Mask.NLenses = 10
	cfg.Mask.NIter = 10
	cfg.Mask.NoisePeriod = [2]int{16, 16}
	cfg.Mask.RefractiveIndex = 1.2
	cfg.Mask.DesignWavelength = 532e-9

	// Set default sensor parameters
	cfg.Sensor.Name = "rpi_hq"
	cfg.Sensor.Downsample = 8
	cfg.Sensor.DistanceSensor = 4e-3
	cfg.Sensor.PSFWavelengths = []float64{460e-9, 550e-9, 640e-9}

	// Set default output parameters
	cfg.Output.SaveImages = false
	cfg.Output.Dir = "mask_output"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
