package engine

// Reporter is an explicit sink for per-package progress lines, replacing
// the mutable-global output channel design note in spec.md §9: the engine
// is testable without touching process globals, and the CLI's sync command
// supplies a CollectingReporter.
type Reporter interface {
	PackageDone(result JobResult)
	RunDone(report Report)
}

// NopReporter discards everything; useful for tests that only care about
// the returned Report.
type NopReporter struct{}

func (NopReporter) PackageDone(JobResult) {}
func (NopReporter) RunDone(Report)        {}

// CollectingReporter accumulates results in memory, used by the sync
// command, which prints the returned Report rather than incremental output.
type CollectingReporter struct {
	Results []JobResult
}

func (c *CollectingReporter) PackageDone(result JobResult) {
	c.Results = append(c.Results, result)
}

func (c *CollectingReporter) RunDone(Report) {}
