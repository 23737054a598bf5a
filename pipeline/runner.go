package pipeline

// Region orchestration.
//
// Regions are independent processing units: one region's bad network or
// missing grid must never block the other six. The runner fans regions out
// over a bounded worker pool, gives each region its own timeout, and
// collects per-region outcomes into an end-of-run summary instead of failing
// fast.

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mdobak/go-xerrors"

	"tidal-atlas/config"
	"tidal-atlas/utils"
)

// Stage is one named per-region pass.
type Stage struct {
	Name string
	Run  func(ctx context.Context, region string) error
}

// Result is the outcome of one region's run through the stages.
type Result struct {
	Region      string
	Completed   []string
	FailedStage string
	Err         error
	Elapsed     time.Duration
}

// OK reports whether the region completed every stage.
func (r Result) OK() bool {
	return r.Err == nil
}

// Runner executes stages per region with bounded parallelism.
type Runner struct {
	cfg    config.Config
	stages []Stage
	logger *slog.Logger
}

// NewRunner builds a runner over an ordered stage list.
func NewRunner(cfg config.Config, stages []Stage) *Runner {
	return &Runner{cfg: cfg, stages: stages, logger: utils.GetLogger()}
}

// RunAll processes the regions concurrently and returns results sorted by
// region code. A failed region stops at its failing stage; the rest proceed.
func (r *Runner) RunAll(ctx context.Context, regions []string) []Result {
	workers := r.cfg.RegionWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(regions) {
		workers = len(regions)
	}

	jobs := make(chan string)
	resultsCh := make(chan Result, len(regions))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for region := range jobs {
				resultsCh <- r.runRegion(ctx, region)
			}
		}()
	}

	for _, region := range regions {
		jobs <- region
	}
	close(jobs)
	wg.Wait()
	close(resultsCh)

	results := make([]Result, 0, len(regions))
	for res := range resultsCh {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Region < results[j].Region })

	r.logSummary(results)
	return results
}

func (r *Runner) runRegion(ctx context.Context, region string) Result {
	regionCtx, cancel := context.WithTimeout(ctx, r.cfg.RegionTimeout)
	defer cancel()

	start := time.Now()
	result := Result{Region: region}

	for _, stage := range r.stages {
		if err := regionCtx.Err(); err != nil {
			result.FailedStage = stage.Name
			result.Err = xerrors.New(err)
			break
		}

		r.logger.Info("stage starting",
			slog.String("region", region),
			slog.String("stage", stage.Name))

		if err := stage.Run(regionCtx, region); err != nil {
			result.FailedStage = stage.Name
			result.Err = xerrors.New(err)
			r.logger.ErrorContext(regionCtx, "stage failed",
				slog.String("region", region),
				slog.String("stage", stage.Name),
				slog.Any("error", result.Err))
			break
		}

		result.Completed = append(result.Completed, stage.Name)
	}

	result.Elapsed = time.Since(start)
	return result
}

func (r *Runner) logSummary(results []Result) {
	ok, failed := 0, 0
	for _, res := range results {
		if res.OK() {
			ok++
			r.logger.Info("region complete",
				slog.String("region", res.Region),
				slog.Duration("elapsed", res.Elapsed))
		} else {
			failed++
			r.logger.Error("region failed",
				slog.String("region", res.Region),
				slog.String("stage", res.FailedStage),
				slog.Duration("elapsed", res.Elapsed),
				slog.Any("error", res.Err))
		}
	}
	r.logger.Info("run summary",
		slog.Int("regions_ok", ok),
		slog.Int("regions_failed", failed))
}
