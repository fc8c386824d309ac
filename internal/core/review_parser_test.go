package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOK(t *testing.T, p Parsed) []Finding {
	t.Helper()
	ok, isOK := p.(ParsedOK)
	require.True(t, isOK, "expected ParsedOK, got %#v", p)
	return ok.Findings
}

func TestParseReviewReply_RoundTrip(t *testing.T) {
	findings := requireOK(t, ParseReviewReply(`{"reviews":[{"severity":"error","message":"x"}]}`, "src/a.go"))

	require.Len(t, findings, 1)
	assert.Equal(t, Finding{FilePath: "src/a.go", Severity: SeverityError, Message: "x"}, findings[0])
	assert.Zero(t, findings[0].Line)
	assert.Empty(t, findings[0].Suggestion)
	assert.Empty(t, findings[0].Category)
}

func TestParseReviewReply_AllFields(t *testing.T) {
	raw := `{"reviews":[{"severity":"Warning","line":12,"message":"unsafe eval","suggestion":"use JSON.parse","category":"Security"}]}`
	findings := requireOK(t, ParseReviewReply(raw, "src/auth.js"))

	require.Len(t, findings, 1)
	assert.Equal(t, Finding{
		FilePath:   "src/auth.js",
		Severity:   SeverityWarning,
		Line:       12,
		Message:    "unsafe eval",
		Suggestion: "use JSON.parse",
		Category:   "security",
	}, findings[0])
}

func TestParseReviewReply_Extraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "json fence inside prose",
			raw:  "Here is my review:\n```json\n{\"reviews\":[{\"severity\":\"info\",\"message\":\"m\"}]}\n```\nLet me know.",
		},
		{
			name: "unlabeled fence",
			raw:  "```\n{\"reviews\":[{\"severity\":\"info\",\"message\":\"m\"}]}\n```",
		},
		{
			name: "json fence wins over an earlier plain fence",
			raw:  "```go\nfmt.Println()\n```\n```json\n{\"reviews\":[{\"message\":\"m\"}]}\n```",
		},
		{
			// The greedy span runs to the last '}', so only the prefix
			// recovery finds the complete object.
			name: "object wrapped in prose",
			raw:  "Sure! {\"reviews\":[{\"message\":\"m\"}]} Hope it helps {smile}.",
		},
		{
			name: "bracketed title before the object",
			raw:  "[Review of f.go]\n{\"reviews\":[{\"severity\":\"info\",\"message\":\"m\"}]}",
		},
		{
			name: "array root",
			raw:  "[{\"severity\":\"info\",\"message\":\"m\"}]",
		},
		{
			name: "leading whitespace",
			raw:  "\n\n   {\"reviews\":[{\"message\":\"m\"}]}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := requireOK(t, ParseReviewReply(tt.raw, "f.go"))
			require.Len(t, findings, 1)
			assert.Equal(t, "m", findings[0].Message)
			assert.Equal(t, SeverityInfo, findings[0].Severity)
		})
	}
}

func TestParseReviewReply_ListKeys(t *testing.T) {
	for _, raw := range []string{
		`[{"severity":"error","message":"root array"}]`,
		`{"findings":[{"severity":"error","message":"alias"}]}`,
		`{"issues":[{"severity":"error","message":"alias"}]}`,
		`{"comments":[{"severity":"error","message":"alias"}]}`,
	} {
		findings := requireOK(t, ParseReviewReply(raw, "f.go"))
		require.Len(t, findings, 1, raw)
		assert.Equal(t, SeverityError, findings[0].Severity)
	}
}

func TestParseReviewReply_EmptyLists(t *testing.T) {
	for _, raw := range []string{`{"reviews":[]}`, `{"reviews":null}`, `[]`} {
		findings := requireOK(t, ParseReviewReply(raw, "f.go"))
		assert.Empty(t, findings, raw)
	}
}

func TestParseReviewReply_TruncatedString(t *testing.T) {
	raw := `{"reviews":[{"severity":"warning","message":"ab`

	var p Parsed
	require.NotPanics(t, func() { p = ParseReviewReply(raw, "f.go") })

	findings := requireOK(t, p)
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
	assert.Equal(t, "ab", findings[0].Message)
}

func TestParseReviewReply_TruncatedInsideKey(t *testing.T) {
	raw := `{"reviews":[{"severity":"error","message":"a"},{"sev`
	findings := requireOK(t, ParseReviewReply(raw, "f.go"))

	require.Len(t, findings, 1, "the empty second object is dropped")
	assert.Equal(t, "a", findings[0].Message)
}

func TestParseReviewReply_TruncatedNumber(t *testing.T) {
	raw := `{"reviews":[{"severity":"error","line":1`
	findings := requireOK(t, ParseReviewReply(raw, "f.go"))

	require.Len(t, findings, 1)
	assert.Equal(t, 1, findings[0].Line)
	assert.Equal(t, PlaceholderMessage, findings[0].Message)
}

func TestParseReviewReply_TruncatedFence(t *testing.T) {
	raw := "```json\n{\"reviews\":[{\"message\":\"x\"}"
	findings := requireOK(t, ParseReviewReply(raw, "f.go"))

	require.Len(t, findings, 1)
	assert.Equal(t, "x", findings[0].Message)
}

func TestParseReviewReply_EveryPrefixIsSafe(t *testing.T) {
	full := `{"reviews":[{"severity":"error","line":3,"message":"nil \"deref\"","suggestion":"check err"},{"severity":"info","message":"naming"}]}`
	for i := 0; i <= len(full); i++ {
		prefix := full[:i]
		require.NotPanics(t, func() {
			switch p := ParseReviewReply(prefix, "f.go").(type) {
			case ParsedOK:
				for _, f := range p.Findings {
					assert.NotEmpty(t, f.Message)
					assert.Equal(t, "f.go", f.FilePath)
				}
			case ParsedMalformed:
				assert.Equal(t, prefix, p.OriginalText)
			}
		}, "prefix %d", i)
	}
}

func TestParseReviewReply_Unrecoverable(t *testing.T) {
	for _, raw := range []string{"", "   \n", "I cannot review this change.", "2 issues found", "```json\n```"} {
		findings := requireOK(t, ParseReviewReply(raw, "f.go"))
		assert.Empty(t, findings, "%q", raw)
	}
}

func TestParseReviewReply_MissingList(t *testing.T) {
	for _, raw := range []string{
		`{"summary":"looks fine"}`,
		`{"reviews":"none"}`,
		"```json\n{\"verdict\":\"ok\"}\n```",
	} {
		p := ParseReviewReply(raw, "f.go")
		malformed, ok := p.(ParsedMalformed)
		require.True(t, ok, "%q gave %#v", raw, p)
		assert.Equal(t, raw, malformed.OriginalText)
	}
}

func TestParseReviewReply_Coercion(t *testing.T) {
	raw := `{"reviews":[
		{"severity":"CRITICAL","message":"  spaced  "},
		{"level":"Error","line":"7","description":"from aliases"},
		{"severity":"warning","line":-4},
		{},
		"plain string item",
		42,
		{"severity":"info","message":"","title":"title fallback"}
	]}`
	findings := requireOK(t, ParseReviewReply(raw, "f.go"))

	require.Len(t, findings, 5)

	assert.Equal(t, SeverityInfo, findings[0].Severity)
	assert.Equal(t, "spaced", findings[0].Message)

	assert.Equal(t, SeverityError, findings[1].Severity)
	assert.Equal(t, 7, findings[1].Line)
	assert.Equal(t, "from aliases", findings[1].Message)

	assert.Equal(t, SeverityWarning, findings[2].Severity)
	assert.Zero(t, findings[2].Line)
	assert.Equal(t, PlaceholderMessage, findings[2].Message)

	assert.Equal(t, Finding{FilePath: "f.go", Severity: SeverityInfo, Message: "plain string item"}, findings[3])

	assert.Equal(t, "title fallback", findings[4].Message)
}

func TestParseReviewReply_SuggestionKeepsIndentation(t *testing.T) {
	raw := `{"reviews":[{"message":"m","suggestion":"\n\n    if err != nil {\n        return err\n    }\n\n"}]}`
	findings := requireOK(t, ParseReviewReply(raw, "f.go"))

	require.Len(t, findings, 1)
	assert.Equal(t, "    if err != nil {\n        return err\n    }", findings[0].Suggestion)
}

func TestParseReviewReply_Deterministic(t *testing.T) {
	raw := "noise ```json\n{\"reviews\":[{\"severity\":\"warning\",\"message\":\"a\"},{\"severity\":\"error\",\"message\":\"b"
	first := ParseReviewReply(raw, "f.go")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ParseReviewReply(raw, "f.go"))
	}
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityError, ParseSeverity(" ERROR "))
	assert.Equal(t, SeverityWarning, ParseSeverity("warning"))
	assert.Equal(t, SeverityInfo, ParseSeverity("info"))
	assert.Equal(t, SeverityInfo, ParseSeverity("high"))
	assert.Equal(t, SeverityInfo, ParseSeverity(""))

	assert.Less(t, SeverityRank(SeverityError), SeverityRank(SeverityWarning))
	assert.Less(t, SeverityRank(SeverityWarning), SeverityRank(SeverityInfo))
}
