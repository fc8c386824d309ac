package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/filter"
)

// Synthetic finding texts.
const (
	MsgBinarySkipped = "binary file skipped"
	maxRawInFinding  = 500
)

// Aggregate turns outcomes into an ordered report. Findings are grouped by
// file in first-seen order and, within a file, sorted error before warning
// before info; equal severities keep the model's order. Aggregate does not
// mutate its input.
func Aggregate(outcomes []Outcome) Report {
	var rep Report
	var order []string
	byFile := map[string][]core.Finding{}

	add := func(path string, fs ...core.Finding) {
		if _, seen := byFile[path]; !seen {
			order = append(order, path)
			byFile[path] = nil
		}
		byFile[path] = append(byFile[path], fs...)
	}

	for _, out := range outcomes {
		path := out.Record.Path
		rep.Processed++

		switch out.Decision {
		case filter.SkipPattern:
			rep.Skipped++
			continue

		case filter.SkipBinary:
			rep.Skipped++
			add(path, core.Finding{
				FilePath: path,
				Severity: core.SeverityInfo,
				Message:  MsgBinarySkipped,
			})
			continue

		case filter.SkipTooLarge:
			rep.Skipped++
			var size int64
			if out.Record.SizeBytes != nil {
				size = *out.Record.SizeBytes
			}
			add(path, core.Finding{
				FilePath: path,
				Severity: core.SeverityWarning,
				Message:  fmt.Sprintf("file skipped: %d bytes exceeds the %d byte limit", size, out.SizeLimit),
			})
			continue
		}

		if out.Err != nil {
			rep.Failed++
			add(path, core.Finding{
				FilePath: path,
				Severity: core.SeverityError,
				Message:  fmt.Sprintf("analysis of %s failed: %s", path, failureCause(out.Err)),
			})
			continue
		}

		rep.Analyzed++
		switch parsed := out.Parsed.(type) {
		case core.ParsedOK:
			add(path, parsed.Findings...)
		case core.ParsedMalformed:
			add(path, core.Finding{
				FilePath: path,
				Severity: core.SeverityInfo,
				Message:  "model reply did not contain a findings list: " + clip(parsed.OriginalText, maxRawInFinding),
				Category: "malformed",
			})
		}
	}

	for _, path := range order {
		group := byFile[path]
		sort.SliceStable(group, func(i, j int) bool {
			return core.SeverityRank(group[i].Severity) < core.SeverityRank(group[j].Severity)
		})
		for _, f := range group {
			switch f.Severity {
			case core.SeverityError:
				rep.Summary.Errors++
			case core.SeverityWarning:
				rep.Summary.Warnings++
			default:
				rep.Summary.Info++
			}
		}
		rep.Findings = append(rep.Findings, group...)
	}
	return rep
}

// failureCause drops the path prefix a *core.Error adds, since the finding
// already names the file.
func failureCause(err error) string {
	if e, ok := err.(*core.Error); ok && e.Path != "" {
		c := *e
		c.Path = ""
		return c.Error()
	}
	return err.Error()
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
