package engine

import (
	"sort"

	"github.com/ai-fdocs/fdocs"
)

// ReportSummary is the top-level tally in the stable JSON report contract
// (spec.md §6).
type ReportSummary struct {
	Total     int `json:"total"`
	Synced    int `json:"synced"`
	Missing   int `json:"missing"`
	Outdated  int `json:"outdated"`
	Corrupted int `json:"corrupted"`
}

// PackageStatus is one entry of the report's statuses[] array.
type PackageStatus struct {
	Name        string         `json:"name"`
	LockVersion string         `json:"lock_version"`
	DocsVersion string         `json:"docs_version"`
	Status      Status         `json:"status"`
	Reason      string         `json:"reason"`
	Mode        fdocs.SyncMode `json:"mode"`
	SourceKind  SourceKind     `json:"source_kind"`
	ReasonCode  ReasonCode     `json:"reason_code"`
}

// SourceStat counts per-source outcomes for the "fallback absorbed but
// logged" scenario in spec.md §8 scenario 2.
type SourceStat struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// Report is the full stable JSON contract produced after a run, consumed by
// `sync --report-format json`, `status --format json`, and `check --format
// json`.
type Report struct {
	Summary     ReportSummary            `json:"summary"`
	Statuses    []PackageStatus          `json:"statuses"`
	SourceStats map[string]SourceStat    `json:"sourceStats,omitempty"`
	ErrorCodes  map[fdocs.Kind]int       `json:"errorCodes,omitempty"`
}

// BuildReport assembles the stable report from a run's terminal JobResults,
// in lexicographic order per spec.md §5's tie-break rule.
func BuildReport(results []JobResult) Report {
	r := Report{SourceStats: map[string]SourceStat{}, ErrorCodes: map[fdocs.Kind]int{}}
	sorted := append([]JobResult(nil), results...)
	sortJobResults(sorted)

	for _, res := range sorted {
		r.Summary.Total++
		switch res.Status {
		case StatusSynced, StatusSyncedFallback:
			r.Summary.Synced++
		case StatusOutdated:
			r.Summary.Outdated++
		case StatusCorrupted:
			r.Summary.Corrupted++
		default:
			r.Summary.Missing++
		}

		r.Statuses = append(r.Statuses, PackageStatus{
			Name: res.Name, LockVersion: res.LockVersion, DocsVersion: res.DocsVersion,
			Status: res.Status, Reason: res.Reason, Mode: res.Mode,
			SourceKind: res.SourceKind, ReasonCode: res.ReasonCode,
		})

		if res.SourceKind != "" {
			stat := r.SourceStats[string(res.SourceKind)]
			if res.Status == StatusSynced || res.Status == StatusSyncedFallback {
				stat.Synced++
			} else {
				stat.Failed++
			}
			r.SourceStats[string(res.SourceKind)] = stat
		}
		if res.ErrorKind != "" {
			r.ErrorCodes[res.ErrorKind]++
		}
	}
	return r
}

// ExitCodeForCheck implements spec.md §6's check exit discipline: 0 iff
// every configured package is Synced or SyncedFallback, else 1.
func (r Report) ExitCodeForCheck() int {
	for _, s := range r.Statuses {
		if s.Status != StatusSynced && s.Status != StatusSyncedFallback {
			return 1
		}
	}
	return 0
}

func sortJobResults(results []JobResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
}
