package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/sanix-darker/localreview/internal/diffparse"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// MaxPromptDiffChars bounds the diff body embedded in a single prompt.
const MaxPromptDiffChars = 12000

// TruncationMarker is appended to a diff body cut at MaxPromptDiffChars.
const TruncationMarker = "\n... [diff truncated]"

// DefaultPromptTemplate is the review instruction block used when the
// configuration does not provide one.
const DefaultPromptTemplate = `You are an expert code reviewer. Review the following change to a single file.
Focus on bugs, security problems, performance issues, readability and architecture.
Only report concrete problems introduced or exposed by the change.

Respond with JSON only, using exactly this shape:
{"reviews":[{"severity":"error|warning|info","line":<line number>,"message":"<what is wrong>","suggestion":"<how to fix it>","category":"bugs|performance|security|style|architecture"}]}
If there is nothing to report, respond with {"reviews":[]}.`

// BuildAnalysisPrompt builds the prompt sent to the model for one change
// record: the review instructions, the file identity and the diff body,
// truncated to MaxPromptDiffChars.
func BuildAnalysisPrompt(template string, rec diffparse.ChangeRecord) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}

	status := "modified"
	switch {
	case rec.IsNewFile:
		status = "new file"
	case rec.IsDeletedFile:
		status = "deleted file"
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(template, "\n"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "File: %s (%s, +%d/-%d)\n\n", rec.Path, status, rec.AddedLines, rec.RemovedLines)
	sb.WriteString("```diff\n")
	sb.WriteString(TruncateDiff(rec.RawChangeText, MaxPromptDiffChars))
	sb.WriteString("\n```\n")
	return sb.String()
}

// TruncateDiff cuts body to at most limit bytes, backing off to a rune
// boundary, and appends TruncationMarker when anything was dropped.
func TruncateDiff(body string, limit int) string {
	body = strings.TrimRight(body, "\n")
	if limit <= 0 || len(body) <= limit {
		return body
	}
	cut := limit
	for cut > 0 && !isRuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + TruncationMarker
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// BuildFileDiff produces a unified-style diff between two files outside of
// version control, reported under newPath.
func BuildFileDiff(oldPath, newPath string) (string, error) {
	oldContent, err := os.ReadFile(oldPath)
	if err != nil {
		return "", err
	}
	newContent, err := os.ReadFile(newPath)
	if err != nil {
		return "", err
	}
	return diffText(oldPath, newPath, string(oldContent), string(newContent)), nil
}

func diffText(oldPath, newPath, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", oldPath, newPath)
	fmt.Fprintf(&sb, "--- a/%s\n", oldPath)
	fmt.Fprintf(&sb, "+++ b/%s\n", newPath)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
