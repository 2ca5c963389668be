package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/dlp3d-ai/subdocs/internal/aggregate"
	"github.com/dlp3d-ai/subdocs/internal/assetcheck"
	"github.com/dlp3d-ai/subdocs/internal/history"
	"github.com/dlp3d-ai/subdocs/internal/metrics"
	"github.com/dlp3d-ai/subdocs/internal/navindex"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func printAggregateReport(w io.Writer, r *aggregate.Report) {
	if r == nil {
		return
	}
	for _, s := range r.Subrepos {
		state := "updated"
		switch {
		case s.Cloned:
			state = "cloned"
		case !s.Changed:
			state = "up to date"
		}
		_, _ = fmt.Fprintf(w, "%s %s %s\n", okColor.Sprint(s.Name), dimColor.Sprint(shortCommit(s.Commit)), state)
		for _, l := range s.Locales {
			if l.Outcome == metrics.OutcomeSkipped {
				_, _ = fmt.Fprintf(w, "  %s %s\n", l.Locale, warnColor.Sprint("skipped (no docs)"))
				continue
			}
			_, _ = fmt.Fprintf(w, "  %s %d files, %d references rewritten\n", l.Locale, l.Files, l.References)
		}
		if s.Static {
			_, _ = fmt.Fprintf(w, "  _static %d files\n", s.StaticFiles)
		}
	}
	for _, p := range r.Pruned {
		_, _ = fmt.Fprintf(w, "%s %s\n", warnColor.Sprint("pruned"), p)
	}
	copied, skipped := r.Counts()
	_, _ = fmt.Fprintf(w, "%s %d copied, %d skipped in %s\n", okColor.Sprint("aggregated"), copied, skipped, r.Duration.Round(time.Millisecond))
}

func printIndexResults(w io.Writer, results []*navindex.Result) {
	for _, res := range results {
		state := dimColor.Sprint("unchanged")
		if res.Written {
			state = okColor.Sprint("written")
		}
		_, _ = fmt.Fprintf(w, "%s %s %s (%d entries)\n", res.Locale, res.Path, state, len(res.Included))
		if len(res.Missing) > 0 {
			_, _ = fmt.Fprintf(w, "  %s %s\n", warnColor.Sprint("missing entry point:"), strings.Join(res.Missing, ", "))
		}
	}
}

func printCheckReport(w io.Writer, r *assetcheck.Report) {
	for _, p := range r.Problems {
		_, _ = fmt.Fprintf(w, "%s %s: %s (%s)\n", failColor.Sprint("missing"), p.File, p.Destination, p.Kind)
	}
	summary := okColor.Sprint("ok")
	if !r.OK() {
		summary = failColor.Sprintf("%d unresolved", len(r.Problems))
	}
	_, _ = fmt.Fprintf(w, "%s %d files, %d references, %s\n", r.Locale, r.Files, r.References, summary)
}

func printRuns(w io.Writer, runs []history.RunSummary) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, run := range runs {
		status := okColor.Sprint(run.Status)
		switch run.Status {
		case history.StatusFailed:
			status = failColor.Sprint(run.Status)
		case history.StatusRunning:
			status = warnColor.Sprint(run.Status)
		}
		_, _ = fmt.Fprintf(w, "%s %s %s synced=%d copied=%d skipped=%d unchanged=%d",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.RunID, status,
			run.Synced, run.Copied, run.Skipped, run.Unchanged)
		if run.Duration > 0 {
			_, _ = fmt.Fprintf(w, " %s", run.Duration.Round(time.Millisecond))
		}
		if run.Error != "" {
			_, _ = fmt.Fprintf(w, " failed_on=%s error=%q", run.FailedOn, run.Error)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func shortCommit(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
