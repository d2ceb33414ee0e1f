package eval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulateGlobalSort(t *testing.T) {
	thresholds := []float64{0.5, 0.9}
	recs := []*MatchRecord{
		{
			FrameID: 0, ClassID: 0,
			DtIDs: []int{1, 2}, GtIDs: []int{1},
			DtMatches: [][]int{{1, 0}, {0, 0}},
			GtMatches: [][]int{{1}, {0}},
			DtScores:  []float64{0.9, 0.3},
		},
		nil,
		{
			FrameID: 1, ClassID: 0,
			DtIDs: []int{3}, GtIDs: []int{3},
			DtMatches: [][]int{{3}, {3}},
			GtMatches: [][]int{{3}, {3}},
			DtScores:  []float64{0.6},
		},
	}

	s := Accumulate(recs, 2, thresholds, RecallLevels())
	assert.Equal(t, []int{2, 0}, s.ObjectCounts)
	assert.Equal(t, []int{3, 0}, s.Detections)

	// t=0.5: sorted matches [hit, hit, miss], full recall.
	assert.InDelta(t, 1.0, s.Recall[0][0], 1e-12)
	for ri := range s.RecallLevels {
		assert.InDelta(t, 1.0, s.Precision[0][ri][0], 1e-12, "level %d", ri)
	}
	assert.Equal(t, 0.9, s.Scores[0][50][0])
	assert.Equal(t, 0.6, s.Scores[0][51][0])
	assert.Equal(t, 0.6, s.Scores[0][100][0])

	// t=0.9: sorted matches [miss, hit, miss], half recall.
	assert.InDelta(t, 0.5, s.Recall[1][0], 1e-12)
	assert.InDelta(t, 0.5, s.Precision[1][0][0], 1e-12, "envelope lifts the leading miss")
	assert.Equal(t, 0.9, s.Scores[1][0][0])
	assert.InDelta(t, 0.5, s.Precision[1][50][0], 1e-12)
	assert.Equal(t, 0.6, s.Scores[1][50][0])
	assert.Equal(t, Absent, s.Precision[1][51][0])
	assert.Equal(t, Absent, s.Scores[1][100][0])

	// Class 1 has no records at all.
	for ti := range thresholds {
		assert.Equal(t, Absent, s.Recall[ti][1])
		for ri := range s.RecallLevels {
			assert.Equal(t, Absent, s.Precision[ti][ri][1])
			assert.Equal(t, Absent, s.Scores[ti][ri][1])
		}
	}
}

func TestAccumulateNoDetections(t *testing.T) {
	recs := []*MatchRecord{{
		ClassID:   0,
		GtIDs:     []int{1, 2},
		DtMatches: [][]int{{}},
		GtMatches: [][]int{{0, 0}},
	}}

	s := Accumulate(recs, 1, []float64{0.5}, RecallLevels())
	assert.Equal(t, []int{2}, s.ObjectCounts)
	assert.Equal(t, 0.0, s.Recall[0][0])
	for ri := range s.RecallLevels {
		assert.Equal(t, Absent, s.Precision[0][ri][0])
	}
}

func TestAccumulateNoGroundTruth(t *testing.T) {
	recs := []*MatchRecord{{
		ClassID:   0,
		DtIDs:     []int{1},
		DtMatches: [][]int{{0}},
		GtMatches: [][]int{{}},
		DtScores:  []float64{0.7},
	}}

	s := Accumulate(recs, 1, []float64{0.5}, RecallLevels())
	assert.Equal(t, []int{0}, s.ObjectCounts)
	assert.Equal(t, 0.0, s.Recall[0][0])
	assert.Equal(t, 0.0, s.Precision[0][0][0])
	assert.Equal(t, Absent, s.Precision[0][1][0])
}

func TestCumulateCountsEveryDetectionOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(30)
		matched := make([]int, n)
		order := rng.Perm(n)
		for i := range matched {
			if rng.Intn(2) == 0 {
				matched[i] = 1 + rng.Intn(5)
			}
		}

		tp := make([]float64, n)
		fp := make([]float64, n)
		cumulate(tp, fp, matched, order)
		for i := range tp {
			require.Equal(t, float64(i+1), tp[i]+fp[i], "trial %d index %d", trial, i)
		}
	}
}

func TestAccumulatePrecisionNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	thresholds := DefaultThresholds()
	scorer := NewScorer(carOnly())

	var recs []*MatchRecord
	id := 1
	for frame := 0; frame < 40; frame++ {
		var gts, dts []Object
		nGT, nDT := rng.Intn(4), rng.Intn(5)
		for i := 0; i < nGT; i++ {
			gts = append(gts, obj(id, 2+rng.Float64()*20, rng.Float64()-0.5, 1))
			id++
		}
		for i := 0; i < nDT; i++ {
			dts = append(dts, obj(id, 2+rng.Float64()*20, rng.Float64()-0.5, rng.Float64()))
			id++
		}
		if r := EvaluateFrame(frame, 0, gts, dts, scorer, thresholds); r != nil {
			recs = append(recs, r)
		}
	}

	s := Accumulate(recs, 1, thresholds, RecallLevels())
	for ti := range thresholds {
		prev := 2.0
		for ri := range s.RecallLevels {
			p := s.Precision[ti][ri][0]
			if p == Absent {
				// Once a level is unreached, every higher level is too.
				for rj := ri; rj < len(s.RecallLevels); rj++ {
					assert.Equal(t, Absent, s.Precision[ti][rj][0])
				}
				break
			}
			assert.LessOrEqual(t, p, prev, "t=%g level=%g", thresholds[ti], s.RecallLevels[ri])
			prev = p
		}
	}
}
