package pipeline

import (
	"sort"
	"sync"

	"tidal-atlas/area"
)

// SummaryCollector gathers per-region area summaries from stage closures.
// Stages run on the runner's worker pool, so Add must be safe to call from
// multiple goroutines at once.
type SummaryCollector struct {
	mu        sync.Mutex
	summaries []area.Summary
}

// Add records one region's summary.
func (c *SummaryCollector) Add(s area.Summary) {
	c.mu.Lock()
	c.summaries = append(c.summaries, s)
	c.mu.Unlock()
}

// Summaries returns the collected summaries sorted by region code.
func (c *SummaryCollector) Summaries() []area.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]area.Summary, len(c.summaries))
	copy(out, c.summaries)
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}
