package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tidal-atlas/area"
	"tidal-atlas/config"
)

func testConfig() config.Config {
	return config.Config{RegionWorkers: 2, RegionTimeout: time.Minute}
}

func TestRunAllRunsStagesInOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := make(map[string][]string)

	record := func(name string) Stage {
		return Stage{
			Name: name,
			Run: func(ctx context.Context, region string) error {
				mu.Lock()
				calls[region] = append(calls[region], name)
				mu.Unlock()
				return nil
			},
		}
	}

	runner := NewRunner(testConfig(), []Stage{record("first"), record("second")})
	results := runner.RunAll(context.Background(), []string{"EU", "AF", "NA"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Sorted by region code.
	if results[0].Region != "AF" || results[1].Region != "EU" || results[2].Region != "NA" {
		t.Errorf("results out of order: %v", results)
	}
	for _, res := range results {
		if !res.OK() {
			t.Errorf("region %s failed: %v", res.Region, res.Err)
		}
		if len(res.Completed) != 2 {
			t.Errorf("region %s completed %v", res.Region, res.Completed)
		}
	}
	for region, seq := range calls {
		if len(seq) != 2 || seq[0] != "first" || seq[1] != "second" {
			t.Errorf("region %s stage order = %v", region, seq)
		}
	}
}

func TestRunAllStopsRegionAtFailingStage(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad network")
	var laterRan bool

	runner := NewRunner(testConfig(), []Stage{
		{Name: "extract", Run: func(ctx context.Context, region string) error {
			if region == "EU" {
				return boom
			}
			return nil
		}},
		{Name: "predict", Run: func(ctx context.Context, region string) error {
			if region == "EU" {
				laterRan = true
			}
			return nil
		}},
	})

	results := runner.RunAll(context.Background(), []string{"AF", "EU"})

	var eu Result
	for _, res := range results {
		if res.Region == "EU" {
			eu = res
		} else if !res.OK() {
			t.Errorf("region %s should not be affected by EU's failure: %v", res.Region, res.Err)
		}
	}

	if eu.OK() {
		t.Fatal("EU should have failed")
	}
	if eu.FailedStage != "extract" {
		t.Errorf("failed stage = %s, want extract", eu.FailedStage)
	}
	if !errors.Is(eu.Err, boom) {
		t.Errorf("error lost its cause: %v", eu.Err)
	}
	if laterRan {
		t.Error("stages after a failure must not run for that region")
	}
}

func TestRunAllCollectsEveryRegionSummary(t *testing.T) {
	t.Parallel()

	// Enough regions per worker that a lost append would show up.
	regions := make([]string, 64)
	for i := range regions {
		regions[i] = fmt.Sprintf("R%02d", i)
	}

	collector := &SummaryCollector{}
	runner := NewRunner(config.Config{RegionWorkers: 4, RegionTimeout: time.Minute}, []Stage{{
		Name: "surface_areas",
		Run: func(ctx context.Context, region string) error {
			collector.Add(area.Summary{Region: region, Segments: 1})
			return nil
		},
	}})

	results := runner.RunAll(context.Background(), regions)
	for _, res := range results {
		if !res.OK() {
			t.Fatalf("region %s failed: %v", res.Region, res.Err)
		}
	}

	summaries := collector.Summaries()
	if len(summaries) != len(regions) {
		t.Fatalf("collected %d summaries for %d regions", len(summaries), len(regions))
	}
	seen := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		seen[s.Region] = true
	}
	for _, region := range regions {
		if !seen[region] {
			t.Errorf("region %s missing from the rollup input", region)
		}
	}
	// Sorted by region code, same as the runner's results.
	for i := 1; i < len(summaries); i++ {
		if summaries[i-1].Region > summaries[i].Region {
			t.Fatalf("summaries out of order at %d: %s > %s", i, summaries[i-1].Region, summaries[i].Region)
		}
	}
}

func TestRunAllHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	runner := NewRunner(testConfig(), []Stage{
		{Name: "extract", Run: func(ctx context.Context, region string) error {
			ran = true
			return nil
		}},
	})

	results := runner.RunAll(ctx, []string{"EU"})
	if results[0].OK() {
		t.Error("cancelled context should fail the region")
	}
	if ran {
		t.Error("no stage should run under a cancelled context")
	}
}
