package eval

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/rodeval/internal/config"
	"github.com/banshee-data/rodeval/internal/fsutil"
	"github.com/banshee-data/rodeval/internal/mapping"
	"github.com/banshee-data/rodeval/internal/monitoring"
)

// Submission file formats.
const (
	FormatSubmission = config.FormatSubmission
	FormatGrid       = config.FormatRODNet
)

// Evaluator runs the scoring pipeline: per-bucket similarity and matching
// in parallel, then a single accumulation per class. An Evaluator holds only
// read-only configuration and may be reused across runs.
type Evaluator struct {
	Objects      *config.ObjectConfig
	Grids        *mapping.Grids
	Thresholds   []float64
	RecallLevels []float64

	// Workers bounds the goroutines used for the per-bucket map step.
	Workers int

	// FS reads ground-truth and submission files. Defaults to the OS.
	FS fsutil.FileSystem

	// Progress, when set, is called after each sequence of a directory run.
	Progress func(done, total int, name string)

	scorer *Scorer
}

// NewEvaluator returns an Evaluator with the default thresholds, recall
// levels and one worker per CPU.
func NewEvaluator(objects *config.ObjectConfig, grids *mapping.Grids) *Evaluator {
	return &Evaluator{
		Objects:      objects,
		Grids:        grids,
		Thresholds:   DefaultThresholds(),
		RecallLevels: RecallLevels(),
		Workers:      runtime.GOMAXPROCS(0),
		FS:           fsutil.OSFileSystem{},
		scorer:       NewScorer(objects),
	}
}

// Result is the outcome of a directory evaluation.
type Result struct {
	Stats     *Stats
	Sequences []string
	Frames    int
	Records   int
}

// EvaluateFrames matches every (frame, class) bucket of one sequence. The
// frame count is the larger of the two inputs'. Records come back in
// frame-major, class-minor order with empty buckets omitted.
func (e *Evaluator) EvaluateFrames(ctx context.Context, gts, dts *Buckets) ([]*MatchRecord, error) {
	nClass := e.Objects.NClasses
	nFrame := max(gts.NumFrames(), dts.NumFrames())
	slots := make([]*MatchRecord, nFrame*nClass)
	scorer := e.getScorer()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Workers, 1))
scheduling:
	for frame := 0; frame < nFrame; frame++ {
		for class := 0; class < nClass; class++ {
			if gctx.Err() != nil {
				break scheduling
			}
			g.Go(func() error {
				slots[frame*nClass+class] = EvaluateFrame(
					frame, class, gts.Get(frame, class), dts.Get(frame, class), scorer, e.Thresholds)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := slots[:0]
	for _, r := range slots {
		if r != nil {
			records = append(records, r)
		}
	}
	return records, nil
}

// EvaluateSequence loads one ground-truth file and one result file in the
// given format and matches them.
func (e *Evaluator) EvaluateSequence(ctx context.Context, resultPath, truthPath, format string) ([]*MatchRecord, int, error) {
	gts, err := LoadGroundTruth(e.fs(), truthPath, e.Objects)
	if err != nil {
		return nil, 0, err
	}

	var dts *Buckets
	switch format {
	case FormatSubmission, "":
		dts, err = LoadSubmission(e.fs(), resultPath, e.Objects)
	case FormatGrid:
		if e.Grids == nil {
			return nil, 0, fmt.Errorf("grid-indexed results need sensor grids")
		}
		dts, err = LoadGridResults(e.fs(), resultPath, e.Objects, e.Grids)
	default:
		return nil, 0, fmt.Errorf("unknown result format %q", format)
	}
	if err != nil {
		return nil, 0, err
	}

	records, err := e.EvaluateFrames(ctx, gts, dts)
	if err != nil {
		return nil, 0, err
	}
	return records, max(gts.NumFrames(), dts.NumFrames()), nil
}

// PairFiles lists both directories and pairs their files by sorted name.
// Any difference in count or names fails the whole run.
func PairFiles(fsys fsutil.FileSystem, submitDir, truthDir string) ([]string, error) {
	subNames, err := fsutil.ListFiles(fsys, submitDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission dir: %w", err)
	}
	gtNames, err := fsutil.ListFiles(fsys, truthDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list ground truth dir: %w", err)
	}
	if len(subNames) != len(gtNames) {
		return nil, fmt.Errorf("%w: %d submission files, %d ground truth files",
			ErrFileCountMismatch, len(subNames), len(gtNames))
	}
	for i := range subNames {
		if subNames[i] != gtNames[i] {
			return nil, fmt.Errorf("%w: %q vs %q", ErrFileNameMismatch, subNames[i], gtNames[i])
		}
	}
	return gtNames, nil
}

// EvaluateDirs scores every sequence of a submission directory against the
// ground-truth directory and accumulates them into one set of statistics.
func (e *Evaluator) EvaluateDirs(ctx context.Context, submitDir, truthDir, format string) (*Result, error) {
	names, err := PairFiles(e.fs(), submitDir, truthDir)
	if err != nil {
		return nil, err
	}

	res := &Result{Sequences: names}
	var all []*MatchRecord
	for i, name := range names {
		records, nFrame, err := e.EvaluateSequence(ctx,
			filepath.Join(submitDir, name), filepath.Join(truthDir, name), format)
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %w", name, err)
		}
		monitoring.Logf("evaluated sequence %s: %d frames, %d records", name, nFrame, len(records))
		all = append(all, records...)
		res.Frames += nFrame
		if e.Progress != nil {
			e.Progress(i+1, len(names), name)
		}
	}

	res.Records = len(all)
	res.Stats = e.Accumulate(all)
	return res, nil
}

// Accumulate reduces records with the evaluator's thresholds and logs the
// per-class totals.
func (e *Evaluator) Accumulate(records []*MatchRecord) *Stats {
	stats := Accumulate(records, e.Objects.NClasses, e.Thresholds, e.RecallLevels)
	for k := 0; k < stats.NumClasses(); k++ {
		monitoring.Debugf("%10s: %4d dets, %4d gts",
			e.Objects.ClassName(k), stats.Detections[k], stats.ObjectCounts[k])
	}
	return stats
}

func (e *Evaluator) fs() fsutil.FileSystem {
	if e.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return e.FS
}

func (e *Evaluator) getScorer() *Scorer {
	if e.scorer == nil || e.scorer.objects != e.Objects {
		return NewScorer(e.Objects)
	}
	return e.scorer
}
