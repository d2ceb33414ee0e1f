package eval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rodeval/internal/config"
	"github.com/banshee-data/rodeval/internal/fsutil"
	"github.com/banshee-data/rodeval/internal/mapping"
)

func newTestEvaluator(objects *config.ObjectConfig) *Evaluator {
	e := NewEvaluator(objects, mapping.NewGrids(config.DefaultSensorConfig()))
	e.Workers = 4
	return e
}

func TestEndToEndPerfectMatch(t *testing.T) {
	e := newTestEvaluator(carOnly())
	gts := mustParseGT(t, e.Objects, "0 10.0 0.0 car\n")
	dts := mustParseSub(t, e.Objects, "0 10.0 0.0 car 1.0\n")

	records, err := e.EvaluateFrames(context.Background(), gts, dts)
	require.NoError(t, err)
	require.Len(t, records, 1)
	for ti := range e.Thresholds {
		assert.Equal(t, []int{1}, records[0].DtMatches[ti])
	}

	stats := e.Accumulate(records)
	compact := SummarizeCompact(stats)
	assert.InDelta(t, 100.0, compact[CompactAPTotal]*100, 1e-9)
	assert.InDelta(t, 100.0, compact[CompactARTotal]*100, 1e-9)

	full, err := Summarize(stats)
	require.NoError(t, err)
	for i, v := range full {
		assert.InDelta(t, 1.0, v, 1e-9, "report[%d]", i)
	}
}

func TestEndToEndFilteredDetection(t *testing.T) {
	e := newTestEvaluator(carOnly())
	gts := mustParseGT(t, e.Objects, "0 10.0 0.0 car\n")
	dts := mustParseSub(t, e.Objects, "0 35.0 0.0 car 1.0\n")
	require.Equal(t, 0, dts.Len(), "out-of-range detection must be dropped")

	records, err := e.EvaluateFrames(context.Background(), gts, dts)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []int{1}, records[0].GtIDs)
	assert.Empty(t, records[0].DtIDs)

	stats := e.Accumulate(records)
	assert.Equal(t, []int{1}, stats.ObjectCounts)
	for ti := range e.Thresholds {
		assert.Equal(t, 0.0, stats.Recall[ti][0])
		for ri := range stats.RecallLevels {
			assert.Equal(t, Absent, stats.Precision[ti][ri][0])
		}
	}
	assert.Equal(t, []float64{0, 0}, SummarizeCompact(stats))
}

func TestEvaluateFramesSkipsEmptyBuckets(t *testing.T) {
	e := newTestEvaluator(config.DefaultObjectConfig())
	gts := mustParseGT(t, e.Objects, "0 10.0 0.0 car\n3 12.0 0.1 pedestrian\n")
	dts := mustParseSub(t, e.Objects, "0 10.2 0.0 car 0.7\n5 6.0 0.0 cyclist 0.2\n")

	records, err := e.EvaluateFrames(context.Background(), gts, dts)
	require.NoError(t, err)

	var keys []string
	for _, r := range records {
		keys = append(keys, fmt.Sprintf("%d/%d", r.FrameID, r.ClassID))
	}
	assert.Equal(t, []string{"0/2", "3/0", "5/1"}, keys)

	stats := e.Accumulate(records)
	assert.Equal(t, []int{1, 0, 1}, stats.ObjectCounts)
	assert.Equal(t, []int{0, 1, 1}, stats.Detections)
}

func TestEvaluateFramesDeterministicAcrossWorkers(t *testing.T) {
	objects := config.DefaultObjectConfig()
	var gtText, subText strings.Builder
	for frame := 0; frame < 30; frame++ {
		fmt.Fprintf(&gtText, "%d %.2f %.2f car\n", frame, 5+float64(frame%7), 0.1*float64(frame%5-2))
		fmt.Fprintf(&gtText, "%d %.2f 0.0 pedestrian\n", frame, 3+float64(frame%4))
		fmt.Fprintf(&subText, "%d %.2f %.2f car 0.5\n", frame, 5.3+float64(frame%7), 0.1*float64(frame%5-2))
		fmt.Fprintf(&subText, "%d %.2f 0.0 car 0.5\n", frame, 9+float64(frame%3))
		fmt.Fprintf(&subText, "%d %.2f 0.02 pedestrian 0.%d\n", frame, 3+float64(frame%4), frame%10)
	}
	gts := mustParseGT(t, objects, gtText.String())
	dts := mustParseSub(t, objects, subText.String())

	serial := newTestEvaluator(objects)
	serial.Workers = 1
	parallel := newTestEvaluator(objects)
	parallel.Workers = 16

	want, err := serial.EvaluateFrames(context.Background(), gts, dts)
	require.NoError(t, err)
	got, err := parallel.EvaluateFrames(context.Background(), gts, dts)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records differ between worker counts (-serial +parallel):\n%s", diff)
	}

	if diff := cmp.Diff(serial.Accumulate(want), parallel.Accumulate(got)); diff != "" {
		t.Errorf("stats differ (-serial +parallel):\n%s", diff)
	}
}

func TestEvaluateFramesCancelled(t *testing.T) {
	e := newTestEvaluator(carOnly())
	gts := mustParseGT(t, e.Objects, "0 10.0 0.0 car\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.EvaluateFrames(ctx, gts, NewBuckets(1))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPairFiles(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/sub/b.txt", nil)
	fs.WriteFile("/sub/a.txt", nil)
	fs.WriteFile("/sub/nested/ignored.txt", nil)
	fs.WriteFile("/gt/a.txt", nil)
	fs.WriteFile("/gt/b.txt", nil)
	fs.WriteFile("/short/a.txt", nil)
	fs.WriteFile("/renamed/a.txt", nil)
	fs.WriteFile("/renamed/c.txt", nil)

	names, err := PairFiles(fs, "/sub", "/gt")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)

	_, err = PairFiles(fs, "/short", "/gt")
	assert.True(t, errors.Is(err, ErrFileCountMismatch), "got %v", err)

	_, err = PairFiles(fs, "/renamed", "/gt")
	assert.True(t, errors.Is(err, ErrFileNameMismatch), "got %v", err)

	_, err = PairFiles(fs, "/missing", "/gt")
	assert.Error(t, err)
}

func TestEvaluateDirs(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/gt/2019_04_09_bms1000.txt", []byte("0 10.0 0.0 car\n1 10.0 0.0 car\n"))
	fs.WriteFile("/gt/2019_05_28_cm1s013.txt", []byte("0 8.0 0.2 pedestrian\n"))
	fs.WriteFile("/sub/2019_04_09_bms1000.txt", []byte("0 10.0 0.0 car 0.9\n1 14.0 0.4 car 0.8\n"))
	fs.WriteFile("/sub/2019_05_28_cm1s013.txt", []byte(""))

	e := newTestEvaluator(config.DefaultObjectConfig())
	e.FS = fs
	var progress []string
	e.Progress = func(done, total int, name string) {
		progress = append(progress, fmt.Sprintf("%d/%d %s", done, total, name))
	}

	res, err := e.EvaluateDirs(context.Background(), "/sub", "/gt", FormatSubmission)
	require.NoError(t, err)
	assert.Equal(t, []string{"2019_04_09_bms1000.txt", "2019_05_28_cm1s013.txt"}, res.Sequences)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, []string{"1/2 2019_04_09_bms1000.txt", "2/2 2019_05_28_cm1s013.txt"}, progress)

	assert.Equal(t, []int{1, 0, 2}, res.Stats.ObjectCounts)
	// Car: one of two found at every threshold.
	for ti := range e.Thresholds {
		assert.InDelta(t, 0.5, res.Stats.Recall[ti][2], 1e-12)
		assert.Equal(t, 0.0, res.Stats.Recall[ti][0])
	}
}

func TestEvaluateDirsMismatchIsFatal(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/gt/a.txt", []byte("0 10.0 0.0 car\n"))
	fs.WriteFile("/sub/b.txt", []byte("not even parsed\n"))

	e := newTestEvaluator(config.DefaultObjectConfig())
	e.FS = fs
	called := false
	e.Progress = func(int, int, string) { called = true }

	res, err := e.EvaluateDirs(context.Background(), "/sub", "/gt", FormatSubmission)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrFileNameMismatch))
	assert.False(t, called)
}

func TestEvaluateSequenceGridFormat(t *testing.T) {
	objects := config.DefaultObjectConfig()
	e := newTestEvaluator(objects)
	grids := e.Grids

	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/gt/seq.txt", []byte(fmt.Sprintf("0 %.17g %.17g car\n", grids.Range[40], grids.Angle[64])))
	fs.WriteFile("/res/seq.txt", []byte("0 car 40 64 1.3\n0 car 10 100 0.2\n"))
	e.FS = fs

	records, nFrame, err := e.EvaluateSequence(context.Background(), "/res/seq.txt", "/gt/seq.txt", FormatGrid)
	require.NoError(t, err)
	assert.Equal(t, 1, nFrame)
	require.Len(t, records, 1)
	assert.Equal(t, []float64{1, 0.2}, records[0].DtScores)
	for ti := range e.Thresholds {
		assert.Equal(t, []int{1, 0}, records[0].DtMatches[ti])
	}

	_, _, err = e.EvaluateSequence(context.Background(), "/res/seq.txt", "/gt/seq.txt", "csv")
	assert.Error(t, err)
}
