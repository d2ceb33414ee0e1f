package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	opts, err := LoadOptions(v)
	require.NoError(t, err)
	assert.Equal(t, FormatSubmission, opts.Format)
	assert.GreaterOrEqual(t, opts.Workers, 1)
	assert.Equal(t, 0.5, opts.OLSMin)
	assert.Equal(t, 0.9, opts.OLSMax)
	assert.Equal(t, 0.05, opts.OLSStep)
	assert.False(t, opts.Full)
}

func TestLoadOptionsOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("format", FormatRODNet)
	v.Set("workers", "4")
	v.Set("full", true)
	v.Set("db", "/tmp/results.db")

	opts, err := LoadOptions(v)
	require.NoError(t, err)
	assert.Equal(t, FormatRODNet, opts.Format)
	assert.Equal(t, 4, opts.Workers)
	assert.True(t, opts.Full)
	assert.Equal(t, "/tmp/results.db", opts.DBPath)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"unknown format", func(o *Options) { o.Format = "csv" }},
		{"zero workers", func(o *Options) { o.Workers = 0 }},
		{"inverted thresholds", func(o *Options) { o.OLSMin, o.OLSMax = 0.9, 0.5 }},
		{"threshold above one", func(o *Options) { o.OLSMax = 1.5 }},
		{"zero step", func(o *Options) { o.OLSStep = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestOptionsLoadConfigsDefaults(t *testing.T) {
	sensor, objects, err := DefaultOptions().LoadConfigs()
	require.NoError(t, err)
	assert.Equal(t, "ROD2021", sensor.Dataset)
	assert.Equal(t, []string{"pedestrian", "cyclist", "car"}, objects.Classes)
}
