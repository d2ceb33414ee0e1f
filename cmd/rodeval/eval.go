package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/banshee-data/rodeval/internal/config"
	"github.com/banshee-data/rodeval/internal/db"
	"github.com/banshee-data/rodeval/internal/eval"
	"github.com/banshee-data/rodeval/internal/mapping"
	"github.com/banshee-data/rodeval/internal/monitoring"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		note   string
	)
	cmd := &cobra.Command{
		Use:   "eval <submission-dir> <ground-truth-dir>",
		Short: "Evaluate a submission directory against ground truth",
		Long: `Evaluate pairs every file in the submission directory with the
identically named ground-truth file, matches detections per frame and class,
and prints AP and AR (as percentages) over the configured OLS thresholds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			run, err := a.evaluate(ctx, args[0], args[1], note)
			if err != nil {
				return err
			}
			if a.opts.DBPath != "" {
				if err := a.saveRun(run); err != nil {
					return err
				}
				printSuccess("saved run %s to %s", run.RunID, a.opts.DBPath)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}

	d := config.DefaultOptions()
	f := cmd.Flags()
	f.String("sensor-config", "", "sensor config JSON (default ROD2021 radar)")
	f.String("object-config", "", "object class config JSON (default ROD2021 classes)")
	f.String("format", d.Format, "result format: submission or rodnet")
	f.Int("workers", d.Workers, "goroutines for per-frame matching")
	f.Bool("full", false, "print the 12-value report instead of AP and AR")
	f.Float64("ols-min", d.OLSMin, "lowest OLS threshold")
	f.Float64("ols-max", d.OLSMax, "highest OLS threshold")
	f.Float64("ols-step", d.OLSStep, "OLS threshold step")
	f.Bool("no-progress", false, "hide the progress bar")
	f.BoolVar(&asJSON, "json", false, "print the run as JSON")
	f.StringVar(&note, "note", "", "free-form note stored with the run")
	bindFlags(a.v, f, map[string]string{
		"sensor_config": "sensor-config",
		"object_config": "object-config",
		"format":        "format",
		"workers":       "workers",
		"full":          "full",
		"ols_min":       "ols-min",
		"ols_max":       "ols-max",
		"ols_step":      "ols-step",
		"no_progress":   "no-progress",
	})
	return cmd
}

// evaluate runs a directory evaluation with the resolved options and
// packages the outcome as a Run.
func (a *app) evaluate(ctx context.Context, submitDir, truthDir, note string) (*db.Run, error) {
	opts := a.opts
	sensor, objects, err := opts.LoadConfigs()
	if err != nil {
		return nil, err
	}

	e := eval.NewEvaluator(objects, mapping.NewGrids(sensor))
	e.Workers = opts.Workers
	e.Thresholds = eval.Thresholds(opts.OLSMin, opts.OLSMax, opts.OLSStep)

	var bar *progressbar.ProgressBar
	if !opts.NoProgress {
		e.Progress = func(done, total int, name string) {
			if bar == nil {
				bar = newProgressBar(total)
			}
			bar.Describe(fmt.Sprintf("[cyan][eval][reset] %s", name))
			_ = bar.Set(done)
		}
	}

	start := a.clock.Now()
	res, err := e.EvaluateDirs(ctx, submitDir, truthDir, opts.Format)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}
	elapsed := a.clock.Since(start)
	monitoring.Logf("evaluated %d sequences in %s", len(res.Sequences), elapsed)

	var summary []float64
	if opts.Full {
		if summary, err = eval.Summarize(res.Stats); err != nil {
			return nil, fmt.Errorf("full report: %w", err)
		}
	} else {
		summary = eval.SummarizeCompact(res.Stats)
	}

	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	return &db.Run{
		SubmitDir:  submitDir,
		TruthDir:   truthDir,
		Format:     opts.Format,
		Sequences:  len(res.Sequences),
		Frames:     res.Frames,
		Records:    res.Records,
		Full:       opts.Full,
		Summary:    summary,
		Breakdown:  eval.Breakdown(res.Stats, objects),
		Options:    optionsJSON,
		DurationMs: elapsed.Milliseconds(),
		Note:       note,
	}, nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func (a *app) saveRun(run *db.Run) error {
	database, err := db.NewDB(a.opts.DBPath)
	if err != nil {
		return fmt.Errorf("open results db: %w", err)
	}
	defer database.Close()
	return db.NewRunStore(database.DB).WithClock(a.clock).Insert(run)
}
