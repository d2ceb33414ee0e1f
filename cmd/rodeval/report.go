package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/banshee-data/rodeval/internal/db"
	"github.com/banshee-data/rodeval/internal/eval"
)

func printInfo(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(os.Stderr, "[*] "+format+"\n", args...)
}

func printSuccess(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(os.Stderr, "[+] "+format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "[!] "+format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "[-] "+format+"\n", args...)
}

// summaryLabels names the entries of a full or compact summary vector.
func summaryLabels(n int) []string {
	if n == 2 {
		return []string{"AP", "AR"}
	}
	labels := make([]string, 0, n)
	for _, kind := range []string{"AP", "AR"} {
		labels = append(labels, kind+"_total")
		for _, t := range eval.ReportThresholds {
			labels = append(labels, fmt.Sprintf("%s_%.1f", kind, t))
		}
	}
	return labels
}

// headline returns the overall AP and AR of a summary vector.
func headline(summary []float64) (ap, ar float64) {
	if len(summary) == 0 {
		return 0, 0
	}
	return summary[0], summary[len(summary)/2]
}

// printRun writes the summary as percentages followed by the per-class
// breakdown.
func printRun(w io.Writer, run *db.Run) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Run %s\n", run.RunID)
	fmt.Fprintf(w, "  submission: %s (%s)\n", run.SubmitDir, run.Format)
	fmt.Fprintf(w, "  truth:      %s\n", run.TruthDir)
	fmt.Fprintf(w, "  sequences:  %d, frames: %d, records: %d\n", run.Sequences, run.Frames, run.Records)
	if run.CreatedAt != 0 {
		fmt.Fprintf(w, "  created:    %s (%dms)\n",
			time.Unix(0, run.CreatedAt).Format(time.RFC3339), run.DurationMs)
	}
	if run.Note != "" {
		fmt.Fprintf(w, "  note:       %s\n", run.Note)
	}
	fmt.Fprintln(w)

	labels := summaryLabels(len(run.Summary))
	half := len(run.Summary) / 2
	for i, v := range run.Summary {
		c := color.New(color.FgGreen)
		if i >= half {
			c = color.New(color.FgCyan)
		}
		c.Fprintf(w, "  %-9s %7.2f\n", labels[i], v*100)
	}

	if len(run.Breakdown) == 0 {
		return
	}
	fmt.Fprintln(w)
	bold.Fprintf(w, "  %-12s %8s %8s %7s %7s\n", "class", "objects", "dets", "AP", "AR")
	for _, cs := range run.Breakdown {
		fmt.Fprintf(w, "  %-12s %8d %8d %7s %7s\n",
			cs.Class, cs.Objects, cs.Detections, percent(cs.AP, cs.HasAP), percent(cs.AR, cs.HasAR))
	}
}

func percent(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v*100)
}

// printRunList writes one line per run, newest first.
func printRunList(w io.Writer, runs []*db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	color.New(color.Bold).Fprintf(w, "%-36s  %-20s  %7s  %7s  %s\n", "run id", "created", "AP", "AR", "submission")
	for _, r := range runs {
		ap, ar := headline(r.Summary)
		created := time.Unix(0, r.CreatedAt).Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%-36s  %-20s  %7.2f  %7.2f  %s\n",
			r.RunID, created, ap*100, ar*100, strings.TrimSpace(r.SubmitDir))
	}
}
