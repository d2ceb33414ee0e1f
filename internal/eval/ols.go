package eval

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/rodeval/internal/config"
	"github.com/banshee-data/rodeval/internal/mapping"
)

// OLS is the Object Location Similarity for a pair separated by dist meters,
// where scale is the ground truth's distance from the sensor and kappa the
// class size prior:
//
//	exp(-dist² / (2·scale²·kappa))
//
// It is 1 when dist is 0 and decays toward 0 as dist grows.
func OLS(dist, scale, kappa float64) float64 {
	e := dist * dist / 2 / (scale * scale * kappa)
	return math.Exp(-e)
}

// Scorer computes OLS between objects using the per-class size priors of an
// object config. It is safe for concurrent use.
type Scorer struct {
	objects *config.ObjectConfig
}

// NewScorer returns a Scorer for the given classes.
func NewScorer(objects *config.ObjectConfig) *Scorer {
	return &Scorer{objects: objects}
}

// kappa returns the size prior for a pair. When the classes disagree the
// larger class id is used.
func (s *Scorer) kappa(gtClass, dtClass int) float64 {
	return s.objects.Kappa(max(gtClass, dtClass))
}

// Similarity returns the OLS between a ground-truth object and a detection.
// Both are projected onto the BEV plane with the RAMap convention and the
// ground truth's own range sets the tolerance.
func (s *Scorer) Similarity(gt, dt Object) float64 {
	gx, gy := mapping.Pol2CartRAMap(gt.Range, gt.Angle)
	dx, dy := mapping.Pol2CartRAMap(dt.Range, dt.Angle)
	return s.SimilarityXY(gx, gy, gt.ClassID, dx, dy, dt.ClassID)
}

// SimilarityXY is Similarity for positions already on the BEV plane.
func (s *Scorer) SimilarityXY(gx, gy float64, gtClass int, dx, dy float64, dtClass int) float64 {
	dist := math.Hypot(gx-dx, gy-dy)
	scale := math.Hypot(gx, gy)
	return OLS(dist, scale, s.kappa(gtClass, dtClass))
}

// Matrix returns the D x G similarity matrix between detections (rows, in
// the order given) and ground-truth objects (columns). It returns nil when
// either side is empty.
func (s *Scorer) Matrix(gts, dts []Object) *mat.Dense {
	if len(gts) == 0 || len(dts) == 0 {
		return nil
	}
	m := mat.NewDense(len(dts), len(gts), nil)
	for j, g := range gts {
		for i, d := range dts {
			m.Set(i, j, s.Similarity(g, d))
		}
	}
	return m
}
