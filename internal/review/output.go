package review

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sanix-darker/localreview/internal/core"
)

// Output formats accepted by Write.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// String renders the summary as "1 error, 2 warnings, 0 info".
func (s Summary) String() string {
	return fmt.Sprintf("%s, %s, %d info",
		plural(s.Errors, "error"), plural(s.Warnings, "warning"), s.Info)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// FormatReport formats a Report into CLI-friendly markdown.
func FormatReport(rep Report) string {
	var sb strings.Builder

	sb.WriteString("# Review Report\n\n")

	if rep.Interrupted {
		sb.WriteString(fmt.Sprintf("> Review interrupted: %d of %d files processed.\n\n", rep.Processed, rep.Files))
	}

	groups := rep.ByFile()
	if len(groups) == 0 {
		sb.WriteString("No significant issues found.\n\n")
	}

	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("## %s\n\n", g.Path))
		for _, f := range g.Findings {
			sb.WriteString(formatFindingMarkdown(f))
		}
	}

	sb.WriteString("## Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- Files reviewed: %d (%d analyzed, %d skipped, %d failed)\n",
		rep.Processed, rep.Analyzed, rep.Skipped, rep.Failed))
	sb.WriteString(fmt.Sprintf("- Findings: %s\n", rep.Summary))

	return sb.String()
}

func formatFindingMarkdown(f core.Finding) string {
	var sb strings.Builder

	location := f.FilePath
	if f.Line > 0 {
		location = fmt.Sprintf("%s:%d", f.FilePath, f.Line)
	}
	sb.WriteString(fmt.Sprintf("**%s** [%s]", location, strings.ToUpper(string(f.Severity))))
	if f.Category != "" {
		sb.WriteString(fmt.Sprintf(" _%s_", f.Category))
	}
	sb.WriteString(": ")
	sb.WriteString(f.Message)
	sb.WriteString("\n")

	if f.Suggestion != "" {
		sb.WriteString("```suggestion\n")
		sb.WriteString(f.Suggestion)
		sb.WriteString("\n```\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// FormatPlain renders one line per finding, like a compiler diagnostic, and
// a trailing summary line.
func FormatPlain(rep Report) string {
	var sb strings.Builder
	for _, f := range rep.Findings {
		location := f.FilePath
		if f.Line > 0 {
			location = fmt.Sprintf("%s:%d", f.FilePath, f.Line)
		}
		sb.WriteString(fmt.Sprintf("%s: %s: %s\n", location, f.Severity, f.Message))
	}
	if rep.Interrupted {
		sb.WriteString(fmt.Sprintf("interrupted after %d of %d files\n", rep.Processed, rep.Files))
	}
	sb.WriteString(rep.Summary.String())
	sb.WriteString("\n")
	return sb.String()
}

// WriteJSON encodes rep as indented JSON. Findings is never null.
func WriteJSON(w io.Writer, rep Report) error {
	if rep.Findings == nil {
		rep.Findings = []core.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// ValidFormat reports whether format is one of the supported output formats.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatMarkdown, FormatJSON:
		return true
	}
	return false
}
