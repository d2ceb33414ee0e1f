package config

import (
	"fmt"
)

// ObjectConfig lists the object classes and their size priors. Class ids are
// indices into Classes. Sizes are stored scaled by 100; Kappa undoes that.
type ObjectConfig struct {
	NClasses int                `json:"n_classes"`
	Classes  []string           `json:"classes"`
	Sizes    map[string]float64 `json:"sizes"`
}

// DefaultObjectConfig returns the ROD2021 object classes.
func DefaultObjectConfig() *ObjectConfig {
	return &ObjectConfig{
		NClasses: 3,
		Classes:  []string{"pedestrian", "cyclist", "car"},
		Sizes: map[string]float64{
			"pedestrian": 0.5,
			"cyclist":    1.0,
			"car":        3.0,
		},
	}
}

// LoadObjectConfig loads an ObjectConfig from a JSON file. Unlike the sensor
// config there are no per-field defaults: the class list is the contract
// between ground truth and submissions.
func LoadObjectConfig(path string) (*ObjectConfig, error) {
	cfg := &ObjectConfig{}
	if err := loadJSONFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.NClasses == 0 {
		cfg.NClasses = len(cfg.Classes)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid object configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the class list and size priors are consistent.
func (c *ObjectConfig) Validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("classes must not be empty")
	}
	if c.NClasses != len(c.Classes) {
		return fmt.Errorf("n_classes (%d) does not match %d listed classes", c.NClasses, len(c.Classes))
	}
	seen := make(map[string]bool, len(c.Classes))
	for _, name := range c.Classes {
		if seen[name] {
			return fmt.Errorf("duplicate class %q", name)
		}
		seen[name] = true
		size, ok := c.Sizes[name]
		if !ok {
			return fmt.Errorf("missing size prior for class %q", name)
		}
		if size <= 0 {
			return fmt.Errorf("size prior for class %q must be positive, got %g", name, size)
		}
	}
	return nil
}

// ClassID returns the index of name in the class list.
func (c *ObjectConfig) ClassID(name string) (int, bool) {
	for i, cls := range c.Classes {
		if cls == name {
			return i, true
		}
	}
	return -1, false
}

// ClassName returns the class name for id, or "" when out of range.
func (c *ObjectConfig) ClassName(id int) string {
	if id < 0 || id >= len(c.Classes) {
		return ""
	}
	return c.Classes[id]
}

// Kappa returns the OLS size constant for a class id (size prior / 100).
func (c *ObjectConfig) Kappa(id int) float64 {
	return c.Sizes[c.ClassName(id)] / 100
}
