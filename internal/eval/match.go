package eval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DefaultThresholds returns the OLS thresholds 0.50, 0.55, ..., 0.90.
func DefaultThresholds() []float64 {
	return Thresholds(0.5, 0.9, 0.05)
}

// RecallLevels returns the 101 recall levels 0.00, 0.01, ..., 1.00 at which
// precision is resampled.
func RecallLevels() []float64 {
	return Thresholds(0, 1, 0.01)
}

// Thresholds returns round((hi-lo)/step)+1 evenly spaced values from lo to
// hi inclusive, each rounded to two decimals.
func Thresholds(lo, hi, step float64) []float64 {
	n := int(math.Round((hi-lo)/step)) + 1
	if n < 1 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		v := lo
		if n > 1 {
			v = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		out[i] = math.Round(v*100) / 100
	}
	return out
}

// MatchRecord is the outcome of matching one (frame, class) bucket.
// Detection-indexed slices follow descending score order. Match entries
// hold the counterpart's id, or 0 when unmatched.
type MatchRecord struct {
	FrameID   int
	ClassID   int
	DtIDs     []int
	GtIDs     []int
	DtMatches [][]int // [threshold][detection]
	GtMatches [][]int // [threshold][ground truth]
	DtScores  []float64
}

// SortByScore returns a copy of dts ordered by descending score. The sort
// is stable: detections with equal scores keep their input order.
func SortByScore(dts []Object) []Object {
	sorted := make([]Object, len(dts))
	copy(sorted, dts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// maxSeed caps the per-threshold seed so a threshold of 1 can still match a
// perfect OLS.
const maxSeed = 1 - 1e-10

// EvaluateFrame scores and matches one (frame, class) bucket. It returns nil
// when the bucket has neither ground truth nor detections.
func EvaluateFrame(frame, class int, gts, dts []Object, scorer *Scorer, thresholds []float64) *MatchRecord {
	if len(gts) == 0 && len(dts) == 0 {
		return nil
	}
	sorted := SortByScore(dts)
	rec := Match(gts, sorted, scorer.Matrix(gts, sorted), thresholds)
	rec.FrameID = frame
	rec.ClassID = class
	return rec
}

// Match greedily assigns detections to ground truth independently at each
// threshold. dts must already be in descending score order and olss must be
// the len(dts) x len(gts) similarity matrix (nil if either is empty).
//
// For each detection in turn, the unmatched ground truth with the highest
// OLS wins, provided that OLS reaches min(t, 1-1e-10). Equal OLS values go
// to the ground truth that comes first. A ground truth is matched at most
// once per threshold.
func Match(gts, dts []Object, olss *mat.Dense, thresholds []float64) *MatchRecord {
	T, G, D := len(thresholds), len(gts), len(dts)
	rec := &MatchRecord{
		DtIDs:     make([]int, D),
		GtIDs:     make([]int, G),
		DtMatches: make([][]int, T),
		GtMatches: make([][]int, T),
		DtScores:  make([]float64, D),
	}
	for i, d := range dts {
		rec.DtIDs[i] = d.ID
		rec.DtScores[i] = d.Score
	}
	for j, g := range gts {
		rec.GtIDs[j] = g.ID
	}

	for ti, t := range thresholds {
		dtm := make([]int, D)
		gtm := make([]int, G)
		rec.DtMatches[ti] = dtm
		rec.GtMatches[ti] = gtm
		if olss == nil {
			continue
		}

		for di, d := range dts {
			best := math.Min(t, maxSeed)
			m := -1
			for gi := range gts {
				if gtm[gi] > 0 {
					continue
				}
				o := olss.At(di, gi)
				// On equal OLS the first ground truth wins.
				if o < best || (m >= 0 && o == best) {
					continue
				}
				best = o
				m = gi
			}
			if m < 0 {
				continue
			}
			dtm[di] = gts[m].ID
			gtm[m] = d.ID
		}
	}
	return rec
}
