package core

import "strings"

// Severity is the closed set of finding levels.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity coerces free text into a Severity. Anything unrecognized
// becomes SeverityInfo.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityError:
		return SeverityError
	case SeverityWarning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// SeverityRank orders severities for sorting: lower sorts first.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Finding is one reported issue tied to a file.
type Finding struct {
	FilePath   string   `json:"file"`
	Severity   Severity `json:"severity"`
	Line       int      `json:"line,omitempty"` // 0 when the model gave no line
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Category   string   `json:"category,omitempty"`
}
