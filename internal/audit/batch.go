package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"vpxmerge/internal/assets"
	"vpxmerge/internal/logging"
)

// Run is the result of a batch audit.
type Run struct {
	ID      string   `json:"run_id"`
	Reports []Report `json:"reports"`
	Summary Summary  `json:"summary"`
}

// Summary aggregates a batch.
type Summary struct {
	Tables    int                 `json:"tables"`
	Extracted int                 `json:"extracted"`
	Failed    int                 `json:"failed"`
	Resolved  int                 `json:"resolved"`
	Patches   int                 `json:"patches"`
	NeedsFix  int                 `json:"needs_fix"`
	Found     map[assets.Kind]int `json:"found"`
	Missing   map[assets.Kind]int `json:"missing"`
	Tracks    int                 `json:"music_tracks"`
	Errors    []string            `json:"errors,omitempty"`
	Elapsed   time.Duration       `json:"elapsed_ns"`
}

// Batch audits paths with a bounded worker pool. Reports keep the input
// order and a per-table failure never stops the run. When ctx is cancelled,
// tables that were not started carry the context error.
func (a *Auditor) Batch(ctx context.Context, paths []string) Run {
	start := time.Now()
	run := Run{ID: uuid.NewString(), Reports: make([]Report, len(paths))}
	ctx = logging.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, a.logger)
	logger.Info("audit started",
		logging.String(logging.FieldEventType, "audit_start"),
		logging.Int("tables", len(paths)),
		logging.Int("workers", a.workers),
	)

	// Load once up front so workers do not race to report the same failure.
	_, _ = a.Catalog(logging.WithStage(ctx, "metadata"))

	jobs := make(chan int)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		done    int
		sampler = logging.NewProgressSampler(10)
	)
	for range min(a.workers, max(len(paths), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				run.Reports[idx] = a.Table(ctx, paths[idx])
				mu.Lock()
				done++
				if sampler.ShouldLog(done, len(paths), "audit") {
					logger.Info("audit progress",
						logging.Int("processed", done),
						logging.Int("tables", len(paths)),
						logging.Float64("progress", logging.CompletionPercent(done, len(paths))),
					)
				}
				mu.Unlock()
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(paths); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()
	for idx := next; idx < len(paths); idx++ {
		report := Report{Path: paths[idx]}
		report.fail(ctx.Err())
		run.Reports[idx] = report
	}

	run.Summary = Summarize(run.Reports)
	run.Summary.Elapsed = time.Since(start)
	logger.Info("audit finished",
		logging.String(logging.FieldEventType, "audit_complete"),
		logging.Int("tables", run.Summary.Tables),
		logging.Int("failed", run.Summary.Failed),
		logging.Duration("elapsed", run.Summary.Elapsed),
	)
	return run
}

// Summarize aggregates reports.
func Summarize(reports []Report) Summary {
	summary := Summary{
		Tables:  len(reports),
		Found:   make(map[assets.Kind]int, len(assets.Kinds)),
		Missing: make(map[assets.Kind]int, len(assets.Kinds)),
	}
	for _, report := range reports {
		if report.Err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, report.Path)
		}
		if report.HasScript() {
			summary.Extracted++
		}
		if report.Metadata != nil {
			summary.Resolved++
		}
		if report.Patch != nil {
			summary.Patches++
		}
		if len(report.Fixes) > 0 {
			summary.NeedsFix++
		}
		for _, finding := range report.Assets {
			if finding.Found {
				summary.Found[finding.Kind]++
				if finding.Kind == assets.KindMusic {
					summary.Tracks += len(finding.Files)
				}
			} else {
				summary.Missing[finding.Kind]++
			}
		}
	}
	return summary
}
