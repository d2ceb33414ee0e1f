package eval

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// eps keeps precision and recall finite when a class has no detections or
// no ground truth. It is the float64 machine epsilon.
const eps = 2.220446049250313e-16

// Absent marks a precision, score or recall cell with no data. Valid cells
// lie in [0, 1].
const Absent = -1.0

// Stats holds the accumulated precision/recall arrays for one run.
type Stats struct {
	Thresholds   []float64
	RecallLevels []float64

	Precision [][][]float64 // [threshold][recall level][class]
	Scores    [][][]float64 // [threshold][recall level][class]
	Recall    [][]float64   // [threshold][class]

	ObjectCounts []int // ground-truth objects per class
	Detections   []int // detections per class
}

// NumClasses returns the number of classes in s.
func (s *Stats) NumClasses() int {
	return len(s.ObjectCounts)
}

func newStats(nClass int, thresholds, recallLevels []float64) *Stats {
	s := &Stats{
		Thresholds:   thresholds,
		RecallLevels: recallLevels,
		Precision:    make([][][]float64, len(thresholds)),
		Scores:       make([][][]float64, len(thresholds)),
		Recall:       make([][]float64, len(thresholds)),
		ObjectCounts: make([]int, nClass),
		Detections:   make([]int, nClass),
	}
	for t := range thresholds {
		s.Precision[t] = filled(len(recallLevels), nClass)
		s.Scores[t] = filled(len(recallLevels), nClass)
		s.Recall[t] = make([]float64, nClass)
		for k := range s.Recall[t] {
			s.Recall[t][k] = Absent
		}
	}
	return s
}

func filled(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
		for c := range out[r] {
			out[r][c] = Absent
		}
	}
	return out
}

// Accumulate reduces per-bucket match records into precision/recall arrays.
// Records may come from any number of frames and sequences; nil records are
// ignored. Within each class the detections of every record are merged and
// stably re-sorted by descending score, so equal scores keep record order.
// Classes without records stay Absent everywhere with a zero object count.
func Accumulate(records []*MatchRecord, nClass int, thresholds, recallLevels []float64) *Stats {
	stats := newStats(nClass, thresholds, recallLevels)

	byClass := make([][]*MatchRecord, nClass)
	for _, r := range records {
		if r == nil || r.ClassID < 0 || r.ClassID >= nClass {
			continue
		}
		byClass[r.ClassID] = append(byClass[r.ClassID], r)
	}

	for k, recs := range byClass {
		if len(recs) == 0 {
			continue
		}
		accumulateClass(stats, k, recs)
	}
	return stats
}

func accumulateClass(stats *Stats, k int, recs []*MatchRecord) {
	var scores []float64
	ng := 0
	for _, r := range recs {
		scores = append(scores, r.DtScores...)
		ng += len(r.GtIDs)
	}
	nd := len(scores)
	stats.ObjectCounts[k] = ng
	stats.Detections[k] = nd

	order := make([]int, nd)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	sortedScores := make([]float64, nd)
	for i, src := range order {
		sortedScores[i] = scores[src]
	}

	tp := make([]float64, nd)
	fp := make([]float64, nd)
	rc := make([]float64, nd)
	pr := make([]float64, nd)

	for t := range stats.Thresholds {
		cumulate(tp, fp, concatMatches(recs, t), order)
		for i := range tp {
			rc[i] = tp[i] / (float64(ng) + eps)
			pr[i] = tp[i] / (tp[i] + fp[i] + eps)
		}

		if nd > 0 {
			stats.Recall[t][k] = rc[nd-1]
		} else {
			stats.Recall[t][k] = 0
		}

		// Monotonic envelope: precision never rises as recall grows.
		for i := nd - 1; i > 0; i-- {
			if pr[i] > pr[i-1] {
				pr[i-1] = pr[i]
			}
		}

		for ri, level := range stats.RecallLevels {
			pi := sort.SearchFloat64s(rc, level)
			if pi >= nd {
				break
			}
			stats.Precision[t][ri][k] = pr[pi]
			stats.Scores[t][ri][k] = sortedScores[pi]
		}
	}
}

// cumulate fills tp and fp with cumulative true and false positive counts
// along order. A detection is a true positive when its match id is nonzero.
func cumulate(tp, fp []float64, matched, order []int) {
	tps := make([]float64, len(order))
	fps := make([]float64, len(order))
	for i, src := range order {
		if matched[src] != 0 {
			tps[i] = 1
		} else {
			fps[i] = 1
		}
	}
	floats.CumSum(tp, tps)
	floats.CumSum(fp, fps)
}

// concatMatches joins the detection matches of every record at threshold t
// in record order.
func concatMatches(recs []*MatchRecord, t int) []int {
	var out []int
	for _, r := range recs {
		out = append(out, r.DtMatches[t]...)
	}
	return out
}
