package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/localreview/internal/config"
	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/printers"
	"github.com/sanix-darker/localreview/internal/provider"
	"github.com/sanix-darker/localreview/internal/review"
)

// setupAuthRepo creates a repository holding src/auth.js and rewrites the
// file to call eval, leaving the change unstaged.
func setupAuthRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=Test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v failed: %s", args, string(out))
	}

	run("init")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	auth := filepath.Join(dir, "src", "auth.js")
	require.NoError(t, os.WriteFile(auth, []byte("function login(input) {\n  return JSON.parse(input);\n}\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "initial commit")

	require.NoError(t, os.WriteFile(auth, []byte("function login(input) {\n  return eval(input);\n}\n"), 0o644))
	return dir
}

func testConfig() config.Config {
	conf := config.NewDefaultConfig()
	conf.ErrWriter = &bytes.Buffer{}
	conf.OutWriter = &bytes.Buffer{}
	return conf
}

func TestRunReview_WorkingTree(t *testing.T) {
	dir := setupAuthRepo(t)
	client := &stubClient{
		health: provider.Health{Healthy: true},
		reply:  `{"reviews":[{"severity":"error","line":12,"message":"unsafe eval","category":"security"}]}`,
	}

	rep, err := runReview(context.Background(), testConfig(), client, reviewOptions{format: review.FormatMarkdown, dir: dir})
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, review.Summary{Errors: 1}, rep.Summary)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "src/auth.js", rep.Findings[0].FilePath)
	assert.True(t, rep.HasErrors())
}

func TestRunReview_NothingToReview(t *testing.T) {
	dir := setupAuthRepo(t)
	cmd := exec.Command("git", "-C", dir, "checkout", "--", ".")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	client := &stubClient{health: provider.Health{Healthy: true}}
	_, err = runReview(context.Background(), testConfig(), client, reviewOptions{format: review.FormatText, dir: dir})
	assert.True(t, errors.Is(err, errNothingToReview))
	assert.Zero(t, client.calls)
}

func TestRunReview_UnhealthyServiceIsFatal(t *testing.T) {
	dir := setupAuthRepo(t)
	client := &stubClient{health: provider.Health{Error: "connection refused"}}

	_, err := runReview(context.Background(), testConfig(), client, reviewOptions{format: review.FormatText, dir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrServiceUnavailable))
	assert.Zero(t, client.calls)

	// The probe can be skipped.
	client.reply = `{"reviews":[]}`
	rep, err := runReview(context.Background(), testConfig(), client, reviewOptions{format: review.FormatText, dir: dir, noHealthCheck: true})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	assert.False(t, rep.HasErrors())
}

func TestRunReview_NotARepository(t *testing.T) {
	_, err := runReview(context.Background(), testConfig(), &stubClient{}, reviewOptions{format: review.FormatText, dir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRepositoryUnavailable))
}

func TestRunReview_FilePair(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.py")
	newPath := filepath.Join(dir, "new.py")
	require.NoError(t, os.WriteFile(oldPath, []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(newPath, []byte("x = 2\nprint(x)\n"), 0o644))

	client := &stubClient{health: provider.Health{Healthy: true}, reply: `{"reviews":[{"severity":"info","message":"fine"}]}`}
	rep, err := runReview(context.Background(), testConfig(), client, reviewOptions{format: review.FormatText, files: oldPath + "," + newPath})
	require.NoError(t, err)

	require.Len(t, rep.Findings, 1)
	assert.Equal(t, filepath.Clean(newPath), rep.Findings[0].FilePath)
	assert.Equal(t, review.Summary{Info: 1}, rep.Summary)
}

func TestReviewOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    reviewOptions
		wantErr bool
	}{
		{"default", reviewOptions{format: "markdown"}, false},
		{"staged", reviewOptions{format: "text", staged: true}, false},
		{"range", reviewOptions{format: "json", from: "main", to: "HEAD"}, false},
		{"bad format", reviewOptions{format: "xml"}, true},
		{"two modes", reviewOptions{format: "text", staged: true, from: "main"}, true},
		{"to without from", reviewOptions{format: "text", to: "HEAD"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReviewOptions_ChangeRequest(t *testing.T) {
	assert.Equal(t, core.ChangeRequest{Mode: core.ModeWorkingTree}, reviewOptions{}.changeRequest())
	assert.Equal(t, core.ChangeRequest{Mode: core.ModeStaged}, reviewOptions{staged: true}.changeRequest())
	assert.Equal(t,
		core.ChangeRequest{Mode: core.ModeCommitRange, From: "main", To: "feat"},
		reviewOptions{from: "main", to: "feat"}.changeRequest())
}

func TestWriteReport(t *testing.T) {
	rep := review.Report{
		Findings: []core.Finding{{FilePath: "a.go", Line: 3, Severity: core.SeverityWarning, Message: "m"}},
		Summary:  review.Summary{Warnings: 1},
	}

	var out bytes.Buffer
	require.NoError(t, writeReport(&out, rep, review.FormatText))
	assert.Equal(t, "a.go:3: warning: m\n0 errors, 1 warning, 0 info\n", out.String())

	out.Reset()
	require.NoError(t, writeReport(&out, rep, review.FormatMarkdown))
	assert.Contains(t, out.String(), "# Review Report")
	assert.Contains(t, out.String(), "**a.go:3** [WARNING]: m")

	out.Reset()
	require.NoError(t, writeReport(&out, rep, review.FormatJSON))
	var decoded review.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, rep.Findings, decoded.Findings)
}

func TestProgressObserver_NoTerminal(t *testing.T) {
	observer, done := progressObserver(&bytes.Buffer{}, nil)
	assert.Nil(t, observer)
	done()
}

func TestRunReview_RepositoryGuidelines(t *testing.T) {
	dir := setupAuthRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".localreview.md"), []byte("Flag every use of eval."), 0o644))

	client := &stubClient{health: provider.Health{Healthy: true}, reply: `{"reviews":[]}`}
	_, err := runReview(context.Background(), testConfig(), client, reviewOptions{format: review.FormatText, dir: dir})
	require.NoError(t, err)
	assert.Contains(t, client.prompt, "Flag every use of eval.")
	assert.Contains(t, client.prompt, `{"reviews":[`)

	_, err = runReview(context.Background(), testConfig(), client, reviewOptions{format: review.FormatText, dir: dir, noGuidelines: true})
	require.NoError(t, err)
	assert.NotContains(t, client.prompt, "Flag every use of eval.")
}

func TestRunReview_LargeReviewWithoutTerminal(t *testing.T) {
	dir := setupAuthRepo(t)
	for i := 0; i < confirmAbove; i++ {
		name := filepath.Join(dir, "src", fmt.Sprintf("mod%02d.js", i))
		require.NoError(t, os.WriteFile(name, []byte("module.exports = 1;\n"), 0o644))
	}
	out, err := exec.Command("git", "-C", dir, "add", "-N", ".").CombinedOutput()
	require.NoError(t, err, string(out))

	conf := testConfig()
	conf.Printers = printers.AutoConfirm(false)
	conf.InReader = strings.NewReader("")

	client := &stubClient{health: provider.Health{Healthy: true}, reply: `{"reviews":[]}`}
	rep, err := runReview(context.Background(), conf, client, reviewOptions{format: review.FormatText, dir: dir})
	require.NoError(t, err)
	assert.Equal(t, confirmAbove+1, client.calls)
	assert.Equal(t, confirmAbove+1, rep.Analyzed)
}
