package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxConfigFileSize bounds how much we are willing to read for a config file.
const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// SensorConfig is the dataset sensor setup. Only the radar section is used by
// the evaluator; camera and calibration sections are accepted and ignored.
type SensorConfig struct {
	Dataset string      `json:"dataset"`
	Radar   RadarConfig `json:"radar_cfg"`
}

// RadarConfig holds the radar front-end parameters needed to build the
// range/angle grids. Fields are pointers so partial files fall back to the
// ROD2021 defaults through the Get* accessors.
type RadarConfig struct {
	// Confidence-map grid
	SampleFreq *float64 `json:"sample_freq,omitempty"` // Hz
	SweepSlope *float64 `json:"sweep_slope,omitempty"` // Hz/s
	CropNum    *int     `json:"crop_num,omitempty"`
	RAMapRSize *int     `json:"ramap_rsize,omitempty"`
	RAMapASize *int     `json:"ramap_asize,omitempty"`
	RAMin      *float64 `json:"ra_min,omitempty"` // degrees
	RAMax      *float64 `json:"ra_max,omitempty"` // degrees

	// Label-map grid
	RAMapRSizeLabel *int     `json:"ramap_rsize_label,omitempty"`
	RAMapASizeLabel *int     `json:"ramap_asize_label,omitempty"`
	RAMinLabel      *float64 `json:"ra_min_label,omitempty"` // degrees
	RAMaxLabel      *float64 `json:"ra_max_label,omitempty"` // degrees

	// BEV grid
	XZDim *[2]int  `json:"xz_dim,omitempty"` // rows (z), cols (x)
	ZMax  *float64 `json:"z_max,omitempty"`  // meters
}

// DefaultSensorConfig returns an empty ROD2021 sensor config; every accessor
// yields its default.
func DefaultSensorConfig() *SensorConfig {
	return &SensorConfig{Dataset: "ROD2021"}
}

// LoadSensorConfig loads a SensorConfig from a JSON file.
// Fields omitted from the file retain their default values.
func LoadSensorConfig(path string) (*SensorConfig, error) {
	cfg := DefaultSensorConfig()
	if err := loadJSONFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sensor configuration: %w", err)
	}
	return cfg, nil
}

// loadJSONFile validates the path (extension, size) and decodes it into v.
func loadJSONFile(path string, v interface{}) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

// Validate checks that the radar parameters can produce non-empty grids.
func (c *SensorConfig) Validate() error {
	r := &c.Radar
	if r.GetSampleFreq() <= 0 {
		return fmt.Errorf("sample_freq must be positive, got %g", r.GetSampleFreq())
	}
	if r.GetSweepSlope() <= 0 {
		return fmt.Errorf("sweep_slope must be positive, got %g", r.GetSweepSlope())
	}
	if r.GetCropNum() < 0 {
		return fmt.Errorf("crop_num must be non-negative, got %d", r.GetCropNum())
	}
	if r.GetRAMapRSize() <= 0 || r.GetRAMapASize() <= 0 {
		return fmt.Errorf("ramap_rsize and ramap_asize must be positive, got %d x %d", r.GetRAMapRSize(), r.GetRAMapASize())
	}
	if r.GetRAMapRSizeLabel() <= 0 || r.GetRAMapASizeLabel() <= 0 {
		return fmt.Errorf("ramap_rsize_label and ramap_asize_label must be positive, got %d x %d",
			r.GetRAMapRSizeLabel(), r.GetRAMapASizeLabel())
	}
	if r.GetRAMin() >= r.GetRAMax() {
		return fmt.Errorf("ra_min (%g) must be below ra_max (%g)", r.GetRAMin(), r.GetRAMax())
	}
	if r.GetRAMin() < -90 || r.GetRAMax() > 90 {
		return fmt.Errorf("angle bounds must lie within [-90, 90], got [%g, %g]", r.GetRAMin(), r.GetRAMax())
	}
	if r.GetRAMinLabel() >= r.GetRAMaxLabel() {
		return fmt.Errorf("ra_min_label (%g) must be below ra_max_label (%g)", r.GetRAMinLabel(), r.GetRAMaxLabel())
	}
	dim := r.GetXZDim()
	if dim[0] <= 0 || dim[1] <= 0 {
		return fmt.Errorf("xz_dim must be positive, got %v", dim)
	}
	if r.GetZMax() <= 0 {
		return fmt.Errorf("z_max must be positive, got %g", r.GetZMax())
	}
	return nil
}

// GetSampleFreq returns the ADC sample frequency in Hz.
func (r *RadarConfig) GetSampleFreq() float64 {
	if r.SampleFreq == nil {
		return 4e6
	}
	return *r.SampleFreq
}

// GetSweepSlope returns the chirp sweep slope in Hz/s.
func (r *RadarConfig) GetSweepSlope() float64 {
	if r.SweepSlope == nil {
		return 21.0017e12
	}
	return *r.SweepSlope
}

// GetCropNum returns the number of range bins dropped from each end.
func (r *RadarConfig) GetCropNum() int {
	if r.CropNum == nil {
		return 3
	}
	return *r.CropNum
}

// GetRAMapRSize returns the confidence-map range bin count after cropping.
func (r *RadarConfig) GetRAMapRSize() int {
	if r.RAMapRSize == nil {
		return 128
	}
	return *r.RAMapRSize
}

// GetRAMapASize returns the confidence-map angle bin count.
func (r *RadarConfig) GetRAMapASize() int {
	if r.RAMapASize == nil {
		return 128
	}
	return *r.RAMapASize
}

// GetRAMin returns the confidence-map minimum angle in degrees.
func (r *RadarConfig) GetRAMin() float64 {
	if r.RAMin == nil {
		return -90
	}
	return *r.RAMin
}

// GetRAMax returns the confidence-map maximum angle in degrees.
func (r *RadarConfig) GetRAMax() float64 {
	if r.RAMax == nil {
		return 90
	}
	return *r.RAMax
}

// GetRAMapRSizeLabel returns the label-map range bin count after cropping.
func (r *RadarConfig) GetRAMapRSizeLabel() int {
	if r.RAMapRSizeLabel == nil {
		return 122
	}
	return *r.RAMapRSizeLabel
}

// GetRAMapASizeLabel returns the label-map angle bin count.
func (r *RadarConfig) GetRAMapASizeLabel() int {
	if r.RAMapASizeLabel == nil {
		return 121
	}
	return *r.RAMapASizeLabel
}

// GetRAMinLabel returns the label-map minimum angle in degrees.
func (r *RadarConfig) GetRAMinLabel() float64 {
	if r.RAMinLabel == nil {
		return -60
	}
	return *r.RAMinLabel
}

// GetRAMaxLabel returns the label-map maximum angle in degrees.
func (r *RadarConfig) GetRAMaxLabel() float64 {
	if r.RAMaxLabel == nil {
		return 60
	}
	return *r.RAMaxLabel
}

// GetXZDim returns the BEV grid dimensions as (rows along z, cols along x).
func (r *RadarConfig) GetXZDim() [2]int {
	if r.XZDim == nil {
		return [2]int{200, 200}
	}
	return *r.XZDim
}

// GetZMax returns the far edge of the BEV grid in meters.
func (r *RadarConfig) GetZMax() float64 {
	if r.ZMax == nil {
		return 25
	}
	return *r.ZMax
}
