package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// Submission formats understood by the evaluator.
const (
	FormatSubmission = "submission" // frame range angle class score
	FormatRODNet     = "rodnet"     // frame class range_bin angle_bin confidence
)

// Options are the run options for an evaluation. They are layered by viper:
// flags override RODEVAL_* environment variables, which override the config
// file, which overrides DefaultOptions.
type Options struct {
	SensorConfig string  `mapstructure:"sensor_config" json:"sensor_config"`
	ObjectConfig string  `mapstructure:"object_config" json:"object_config"`
	Format       string  `mapstructure:"format" json:"format"`
	Workers      int     `mapstructure:"workers" json:"workers"`
	DBPath       string  `mapstructure:"db" json:"db"`
	Full         bool    `mapstructure:"full" json:"full"`
	OLSMin       float64 `mapstructure:"ols_min" json:"ols_min"`
	OLSMax       float64 `mapstructure:"ols_max" json:"ols_max"`
	OLSStep      float64 `mapstructure:"ols_step" json:"ols_step"`
	LogLevel     string  `mapstructure:"log_level" json:"log_level"`
	DevLogs      bool    `mapstructure:"dev_logs" json:"dev_logs"`
	NoProgress   bool    `mapstructure:"no_progress" json:"no_progress"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() *Options {
	return &Options{
		Format:   FormatSubmission,
		Workers:  runtime.GOMAXPROCS(0),
		OLSMin:   0.5,
		OLSMax:   0.9,
		OLSStep:  0.05,
		LogLevel: "info",
	}
}

// SetDefaults registers DefaultOptions on v so that keys resolve even when
// no flag, env var or file provides them.
func SetDefaults(v *viper.Viper) {
	d := DefaultOptions()
	v.SetDefault("format", d.Format)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("ols_min", d.OLSMin)
	v.SetDefault("ols_max", d.OLSMax)
	v.SetDefault("ols_step", d.OLSStep)
	v.SetDefault("log_level", d.LogLevel)
}

// LoadOptions decodes the resolved viper settings into Options.
func LoadOptions(v *viper.Viper) (*Options, error) {
	opts := DefaultOptions()
	if err := v.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

// Validate checks option ranges.
func (o *Options) Validate() error {
	switch o.Format {
	case FormatSubmission, FormatRODNet:
	default:
		return fmt.Errorf("format must be %q or %q, got %q", FormatSubmission, FormatRODNet, o.Format)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	if o.OLSMin <= 0 || o.OLSMax > 1 || o.OLSMin > o.OLSMax {
		return fmt.Errorf("OLS threshold range must satisfy 0 < min <= max <= 1, got [%g, %g]", o.OLSMin, o.OLSMax)
	}
	if o.OLSStep <= 0 {
		return fmt.Errorf("ols_step must be positive, got %g", o.OLSStep)
	}
	return nil
}

// LoadConfigs loads the sensor and object configs named by the options,
// falling back to the ROD2021 defaults when a path is empty.
func (o *Options) LoadConfigs() (*SensorConfig, *ObjectConfig, error) {
	sensor := DefaultSensorConfig()
	if o.SensorConfig != "" {
		var err error
		if sensor, err = LoadSensorConfig(o.SensorConfig); err != nil {
			return nil, nil, err
		}
	}
	objects := DefaultObjectConfig()
	if o.ObjectConfig != "" {
		var err error
		if objects, err = LoadObjectConfig(o.ObjectConfig); err != nil {
			return nil, nil, err
		}
	}
	return sensor, objects, nil
}
