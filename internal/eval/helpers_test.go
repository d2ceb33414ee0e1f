package eval

import (
	"strings"
	"testing"

	"github.com/banshee-data/rodeval/internal/config"
)

// carOnly is a single-class config whose size prior gives kappa = 1.
func carOnly() *config.ObjectConfig {
	return &config.ObjectConfig{
		NClasses: 1,
		Classes:  []string{"car"},
		Sizes:    map[string]float64{"car": 100},
	}
}

func mustParseGT(t *testing.T, objects *config.ObjectConfig, text string) *Buckets {
	t.Helper()
	b, err := ParseGroundTruth(strings.NewReader(text), objects)
	if err != nil {
		t.Fatalf("ParseGroundTruth failed: %v", err)
	}
	return b
}

func mustParseSub(t *testing.T, objects *config.ObjectConfig, text string) *Buckets {
	t.Helper()
	b, err := ParseSubmission(strings.NewReader(text), objects)
	if err != nil {
		t.Fatalf("ParseSubmission failed: %v", err)
	}
	return b
}

func obj(id int, rng, agl, score float64) Object {
	return Object{ID: id, Range: rng, Angle: agl, Score: score, RangeBin: -1, AngleBin: -1}
}
