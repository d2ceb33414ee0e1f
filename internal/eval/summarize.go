package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/rodeval/internal/config"
)

// ReportThresholds are the individual thresholds broken out in a full
// report.
var ReportThresholds = []float64{0.5, 0.6, 0.7, 0.8, 0.9}

// Report indices.
const (
	APTotal = 0 // AP over all thresholds
	ARTotal = 6 // AR over all thresholds in a full report

	CompactAPTotal = 0
	CompactARTotal = 1
)

// AllThresholds selects every evaluated threshold in AveragePrecision and
// AverageRecall.
const AllThresholds = -1

// ThresholdIndex returns the index of threshold v in s.Thresholds.
func (s *Stats) ThresholdIndex(v float64) (int, error) {
	for i, t := range s.Thresholds {
		if math.Abs(t-v) < 1e-9 {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %g", ErrThresholdNotFound, v)
}

// AveragePrecision returns the count-weighted mean precision over recall
// levels at threshold index t, or over all thresholds for AllThresholds.
// Absent cells are excluded; classes with no valid cells add nothing.
func (s *Stats) AveragePrecision(t int) float64 {
	return s.weighted(func(k int) []float64 {
		var vals []float64
		for _, ti := range s.thresholdRows(t) {
			for _, row := range s.Precision[ti] {
				vals = append(vals, row[k])
			}
		}
		return vals
	})
}

// AverageRecall returns the count-weighted recall at threshold index t, or
// the mean over all thresholds for AllThresholds.
func (s *Stats) AverageRecall(t int) float64 {
	return s.weighted(func(k int) []float64 {
		var vals []float64
		for _, ti := range s.thresholdRows(t) {
			vals = append(vals, s.Recall[ti][k])
		}
		return vals
	})
}

func (s *Stats) thresholdRows(t int) []int {
	if t != AllThresholds {
		return []int{t}
	}
	rows := make([]int, len(s.Thresholds))
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// weighted combines per-class means as sum(count_k / total * mean_k). It is
// 0 when there are no ground-truth objects.
func (s *Stats) weighted(cells func(k int) []float64) float64 {
	total := 0
	for _, n := range s.ObjectCounts {
		total += n
	}
	if total == 0 {
		return 0
	}
	var out float64
	for k, n := range s.ObjectCounts {
		vals := valid(cells(k))
		if len(vals) == 0 {
			continue
		}
		out += float64(n) / float64(total) * stat.Mean(vals, nil)
	}
	return out
}

func valid(vals []float64) []float64 {
	out := vals[:0:0]
	for _, v := range vals {
		if v > Absent {
			out = append(out, v)
		}
	}
	return out
}

// Summarize returns the full 12-element report: AP over all thresholds, AP
// at 0.5, 0.6, 0.7, 0.8 and 0.9, then AR in the same layout. Every report
// threshold must have been evaluated.
func Summarize(s *Stats) ([]float64, error) {
	out := make([]float64, 0, 2+2*len(ReportThresholds))
	idx := make([]int, len(ReportThresholds))
	for i, v := range ReportThresholds {
		ti, err := s.ThresholdIndex(v)
		if err != nil {
			return nil, err
		}
		idx[i] = ti
	}

	out = append(out, s.AveragePrecision(AllThresholds))
	for _, ti := range idx {
		out = append(out, s.AveragePrecision(ti))
	}
	out = append(out, s.AverageRecall(AllThresholds))
	for _, ti := range idx {
		out = append(out, s.AverageRecall(ti))
	}
	return out, nil
}

// SummarizeCompact returns the 2-element report [AP, AR] over all
// thresholds.
func SummarizeCompact(s *Stats) []float64 {
	return []float64{s.AveragePrecision(AllThresholds), s.AverageRecall(AllThresholds)}
}

// ClassSummary is the per-class breakdown over all thresholds.
type ClassSummary struct {
	Class      string  `json:"class"`
	Objects    int     `json:"objects"`
	Detections int     `json:"detections"`
	AP         float64 `json:"ap"`
	AR         float64 `json:"ar"`
	HasAP      bool    `json:"has_ap"`
	HasAR      bool    `json:"has_ar"`
}

// Breakdown returns unweighted per-class AP and AR over all thresholds.
// HasAP and HasAR are false when the class has no valid cells.
func Breakdown(s *Stats, objects *config.ObjectConfig) []ClassSummary {
	out := make([]ClassSummary, s.NumClasses())
	for k := range out {
		cs := ClassSummary{
			Class:      objects.ClassName(k),
			Objects:    s.ObjectCounts[k],
			Detections: s.Detections[k],
		}

		var pr, rc []float64
		for t := range s.Thresholds {
			for _, row := range s.Precision[t] {
				pr = append(pr, row[k])
			}
			rc = append(rc, s.Recall[t][k])
		}
		if vals := valid(pr); len(vals) > 0 {
			cs.AP, cs.HasAP = stat.Mean(vals, nil), true
		}
		if vals := valid(rc); len(vals) > 0 {
			cs.AR, cs.HasAR = stat.Mean(vals, nil), true
		}
		out[k] = cs
	}
	return out
}
