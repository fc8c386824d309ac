package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PlaceholderMessage replaces a missing message so that a finding is never
// dropped for lack of text.
const PlaceholderMessage = "(the model gave no description for this finding)"

var (
	jsonFencePattern = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n?(.*?)```")
	anyFencePattern  = regexp.MustCompile("(?s)```[^\\n`]*\\r?\\n?(.*?)```")
)

// findingsKeys are the object keys accepted as the list of findings, in
// priority order.
var findingsKeys = []string{"reviews", "findings", "issues", "comments"}

// Parsed is the result of recovering findings from a model reply. It is
// either ParsedOK or ParsedMalformed.
type Parsed interface {
	isParsed()
}

// ParsedOK holds the findings recovered from a reply. An empty list is a
// valid result (the model found nothing, or nothing could be recovered).
type ParsedOK struct {
	Findings []Finding
}

// ParsedMalformed means the reply was structured data without a findings
// list. OriginalText is the untouched reply.
type ParsedMalformed struct {
	OriginalText string
}

func (ParsedOK) isParsed()        {}
func (ParsedMalformed) isParsed() {}

// ParseReviewReply extracts findings for filePath from a raw model reply.
// It never fails: unrecoverable text yields an empty ParsedOK, and a
// structured reply without a findings list yields ParsedMalformed.
//
// Recovery order:
//  1. pick the JSON payload (```json fence, any fence, first {...} span)
//  2. parse it, closing an unterminated trailing string once if needed
//  3. fall back to the longest prefix that parses once its brackets are closed
func ParseReviewReply(raw, filePath string) Parsed {
	payload := extractJSONPayload(raw)

	doc, ok := recoverJSON(payload)
	if !ok {
		return ParsedOK{}
	}

	items, ok := pickFindings(doc)
	if !ok {
		return ParsedMalformed{OriginalText: raw}
	}

	return ParsedOK{Findings: toFindings(items, filePath)}
}

func extractJSONPayload(content string) string {
	if m := jsonFencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := anyFencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed[0] == '{' {
		return trimmed
	}
	if trimmed[0] == '[' && isFindingsArray(trimmed) {
		return trimmed
	}

	start := strings.Index(trimmed, "{")
	if start < 0 {
		return trimmed
	}
	if end := strings.LastIndex(trimmed, "}"); end > start {
		return trimmed[start : end+1]
	}
	// No closing brace at all: the reply was cut off, keep the tail so the
	// truncation recovery can work on it.
	return trimmed[start:]
}

// isFindingsArray reports whether s, possibly truncated, is a non-empty JSON
// array. A prose prefix such as "[Review of a.go]" only recovers to "[]".
func isFindingsArray(s string) bool {
	v, ok := recoverJSON(s)
	if !ok {
		return false
	}
	items, ok := v.([]any)
	return ok && len(items) > 0
}

func recoverJSON(payload string) (any, bool) {
	if strings.TrimSpace(payload) == "" {
		return nil, false
	}
	if v, err := decodeJSON(payload); err == nil {
		return v, true
	}

	cuts, openString := scanCutPoints(payload)
	if openString {
		if v, err := decodeJSON(payload + `"`); err == nil {
			return v, true
		}
	}

	for i := len(cuts) - 1; i >= 0; i-- {
		c := cuts[i]
		if v, err := decodeJSON(payload[:c.end] + c.closers); err == nil && isContainer(v) {
			return v, true
		}
	}
	return nil, false
}

// isContainer rejects prefixes that parse only as a bare literal, such as the
// "2" of "2 issues found".
func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func decodeJSON(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// cutPoint is a position where the payload may be truncated, together with
// the brackets (and quote) needed to close everything still open there.
type cutPoint struct {
	end     int
	closers string
}

// scanCutPoints walks the payload once, tracking string state and the bracket
// stack. It records a cut point after every complete value or opening bracket.
// openString reports whether the payload ends inside a string; in that case
// the last cut point closes the string first.
func scanCutPoints(s string) (cuts []cutPoint, openString bool) {
	var stack []byte
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				cuts = append(cuts, cutPoint{end: i + 1, closers: closersFor(stack)})
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
			cuts = append(cuts, cutPoint{end: i + 1, closers: closersFor(stack)})
		case '[':
			stack = append(stack, ']')
			cuts = append(cuts, cutPoint{end: i + 1, closers: closersFor(stack)})
		case '}', ']':
			if n := len(stack); n > 0 && stack[n-1] == c {
				stack = stack[:n-1]
			}
			cuts = append(cuts, cutPoint{end: i + 1, closers: closersFor(stack)})
		default:
			if isLiteralByte(c) && (i+1 == len(s) || !isLiteralByte(s[i+1])) {
				cuts = append(cuts, cutPoint{end: i + 1, closers: closersFor(stack)})
			}
		}
	}

	if inString && !escaped {
		cuts = append(cuts, cutPoint{end: len(s), closers: `"` + closersFor(stack)})
		return cuts, true
	}
	return cuts, false
}

func closersFor(stack []byte) string {
	out := make([]byte, len(stack))
	for i := range stack {
		out[i] = stack[len(stack)-1-i]
	}
	return string(out)
}

func isLiteralByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		c == '-' || c == '+' || c == '.'
}

func pickFindings(doc any) ([]any, bool) {
	switch t := doc.(type) {
	case []any:
		return t, true
	case map[string]any:
		for _, k := range findingsKeys {
			raw, ok := t[k]
			if !ok {
				continue
			}
			switch items := raw.(type) {
			case []any:
				return items, true
			case nil:
				return nil, true
			}
		}
	}
	return nil, false
}

func toFindings(items []any, filePath string) []Finding {
	out := make([]Finding, 0, len(items))
	for _, it := range items {
		switch m := it.(type) {
		case map[string]any:
			if len(m) == 0 {
				continue
			}
			msg := strings.TrimSpace(firstString(m, "message", "description", "comment", "issue", "title"))
			if msg == "" {
				msg = PlaceholderMessage
			}
			line := firstInt(m, "line", "line_number", "lineNumber", "startLine")
			if line < 0 {
				line = 0
			}
			out = append(out, Finding{
				FilePath:   filePath,
				Severity:   ParseSeverity(firstString(m, "severity", "level", "priority")),
				Line:       line,
				Message:    msg,
				Suggestion: trimBlankEdgesString(firstString(m, "suggestion", "fix", "recommendation")),
				Category:   strings.ToLower(strings.TrimSpace(firstString(m, "category", "type"))),
			})
		case string:
			if msg := strings.TrimSpace(m); msg != "" {
				out = append(out, Finding{FilePath: filePath, Severity: SeverityInfo, Message: msg})
			}
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case string:
				if strings.TrimSpace(t) != "" {
					return t
				}
			case float64, bool:
				return fmt.Sprint(t)
			}
		}
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return int(t)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(t))
			if err == nil {
				return n
			}
		}
	}
	return 0
}

func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start >= end {
		return nil
	}
	return lines[start:end]
}

func trimBlankEdgesString(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return strings.Join(trimBlankEdges(lines), "\n")
}
