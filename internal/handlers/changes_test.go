package handlers

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/localreview/internal/core"
)

func initRepo(t *testing.T) string {
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
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "initial commit")
	return dir
}

func TestExtractChangesHandler_WorkingTree(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	records, root, err := ExtractChangesHandler(context.Background(), dir, core.ChangeRequest{Mode: core.ModeWorkingTree})
	require.NoError(t, err)
	assert.NotEmpty(t, root)
	require.Len(t, records, 1)
	assert.Equal(t, "main.go", records[0].Path)
	assert.Equal(t, 2, records[0].AddedLines)
	require.NotNil(t, records[0].SizeBytes)
	assert.Equal(t, int64(len("package main\n\nfunc main() {}\n")), *records[0].SizeBytes)
}

func TestExtractChangesHandler_CleanTree(t *testing.T) {
	dir := initRepo(t)

	records, _, err := ExtractChangesHandler(context.Background(), dir, core.ChangeRequest{Mode: core.ModeWorkingTree})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractChangesHandler_NotARepository(t *testing.T) {
	_, _, err := ExtractChangesHandler(context.Background(), t.TempDir(), core.ChangeRequest{Mode: core.ModeWorkingTree})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRepositoryUnavailable))
}

func TestExtractFilePairHandler(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.txt")
	newPath := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(oldPath, []byte("a\nb\n"), 0o644))
	require.NoError(t, os.WriteFile(newPath, []byte("a\nc\n"), 0o644))

	records, err := ExtractFilePairHandler(oldPath + "," + newPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, newPath, records[0].Path)
	assert.Equal(t, 1, records[0].AddedLines)
	assert.Equal(t, 1, records[0].RemovedLines)

	records, err = ExtractFilePairHandler(oldPath + "," + oldPath)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = ExtractFilePairHandler(oldPath)
	assert.Error(t, err)
}
