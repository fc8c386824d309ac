package review

import (
	"time"

	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/diffparse"
	"github.com/sanix-darker/localreview/internal/filter"
)

// Outcome is what happened to one change record during a run.
type Outcome struct {
	Record   diffparse.ChangeRecord
	Decision filter.Decision

	// Parsed is the interpreted model reply. Set only when Decision is
	// filter.Analyze and Err is nil.
	Parsed core.Parsed

	// Err is the analysis failure for this file, if any.
	Err error

	// SizeLimit is the byte ceiling the record was checked against.
	SizeLimit int64

	Elapsed time.Duration
}

// Failed reports whether the analysis of the record was attempted and failed.
func (o Outcome) Failed() bool {
	return o.Decision == filter.Analyze && o.Err != nil
}

// Summary counts findings per severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Total is the number of findings counted.
func (s Summary) Total() int {
	return s.Errors + s.Warnings + s.Info
}

// Report is the ordered result of a run.
type Report struct {
	Findings []core.Finding `json:"findings"`
	Summary  Summary        `json:"summary"`

	// Files is the number of change records submitted to the run; Processed
	// how many of them produced an outcome.
	Files     int `json:"files"`
	Processed int `json:"processed"`
	Analyzed  int `json:"analyzed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	// Interrupted is set when the run was canceled before every record was
	// processed. The findings collected so far are still valid.
	Interrupted bool `json:"interrupted"`
}

// HasErrors reports whether any finding has severity error.
func (r Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// FileFindings are the findings of a single file, in report order.
type FileFindings struct {
	Path     string
	Findings []core.Finding
}

// ByFile groups the findings by file, keeping the report order.
func (r Report) ByFile() []FileFindings {
	var out []FileFindings
	index := map[string]int{}
	for _, f := range r.Findings {
		i, ok := index[f.FilePath]
		if !ok {
			i = len(out)
			index[f.FilePath] = i
			out = append(out, FileFindings{Path: f.FilePath})
		}
		out[i].Findings = append(out[i].Findings, f)
	}
	return out
}

// Progress is handed to an Observer after each outcome.
type Progress struct {
	// Done is the number of outcomes produced so far, Total the number of
	// records in the run.
	Done, Total int
	Outcome     Outcome
	// Next is the record processed after this one, nil at the end.
	Next *diffparse.ChangeRecord
}

// Observer receives progress between pipeline iterations. It must not block
// for long: the next request waits for it.
type Observer func(Progress)
