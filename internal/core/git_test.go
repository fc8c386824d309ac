package core

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/localreview/internal/diffparse"
)

// setupGitRepo creates a temporary git repo with two commits: the second one
// edits hello.go and adds new_file.go and a binary logo.png.
func setupGitRepo(t *testing.T) (repoPath string) {
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

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.go"), []byte("package main\n\nfunc hello() {}\n"), 0644))
	run("add", "hello.go")
	run("commit", "-m", "initial commit")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.go"), []byte("package main\n\nfunc hello() { println(\"hi\") }\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new_file.go"), []byte("package main\n\nfunc newFunc() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02}, 0644))
	run("add", "hello.go", "new_file.go", "logo.png")
	run("commit", "-m", "add greeting, new file and logo")

	return dir
}

func sameDir(t *testing.T, want, got string) {
	t.Helper()
	w, err := filepath.EvalSymlinks(want)
	require.NoError(t, err)
	g, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, w, g)
}

func paths(files []diffparse.FileDiff) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestOpenRepository_FromSubdirectory(t *testing.T) {
	repoPath := setupGitRepo(t)
	sub := filepath.Join(repoPath, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0755))

	src, err := OpenRepository(sub)
	require.NoError(t, err)
	sameDir(t, repoPath, src.Root)
}

func TestOpenRepository_NotARepository(t *testing.T) {
	_, err := OpenRepository(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRepositoryUnavailable))
	assert.NotEmpty(t, Remedy(err))
}

func TestChanges_WorkingTree(t *testing.T) {
	repoPath := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "hello.go"), []byte("package main\n\nfunc hello() { eval() }\n"), 0644))

	src := &Source{Root: repoPath}
	files, err := src.Changes(context.Background(), ChangeRequest{Mode: ModeWorkingTree})
	require.NoError(t, err)
	require.Equal(t, []string{"hello.go"}, paths(files))
	assert.Contains(t, files[0].Raw, "+func hello() { eval() }")
	assert.Nil(t, files[0].Stats)
}

func TestChanges_Staged(t *testing.T) {
	repoPath := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "staged.go"), []byte("package main\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "hello.go"), []byte("package main\n// unstaged\n"), 0644))

	cmd := exec.Command("git", "-C", repoPath, "add", "staged.go")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	src := &Source{Root: repoPath}
	files, err := src.Changes(context.Background(), ChangeRequest{Mode: ModeStaged})
	require.NoError(t, err)
	require.Equal(t, []string{"staged.go"}, paths(files))

	rec, ok := diffparse.Extract(files[0].Path, files[0].Raw, files[0].Stats, nil)
	require.True(t, ok)
	assert.True(t, rec.IsNewFile)
	assert.Equal(t, 1, rec.AddedLines)
}

func TestChanges_CommitRange(t *testing.T) {
	repoPath := setupGitRepo(t)

	src := &Source{Root: repoPath}
	files, err := src.Changes(context.Background(), ChangeRequest{Mode: ModeCommitRange, From: "HEAD~1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hello.go", "new_file.go", "logo.png"}, paths(files))

	byPath := map[string]diffparse.FileDiff{}
	for _, f := range files {
		byPath[f.Path] = f
	}

	require.NotNil(t, byPath["hello.go"].Stats)
	assert.Equal(t, diffparse.Stats{Insertions: 1, Deletions: 1}, *byPath["hello.go"].Stats)
	require.NotNil(t, byPath["new_file.go"].Stats)
	assert.Equal(t, diffparse.Stats{Insertions: 3}, *byPath["new_file.go"].Stats)
	require.NotNil(t, byPath["logo.png"].Stats)
	assert.True(t, byPath["logo.png"].Stats.Binary)
}

func TestChanges_CommitRangeRename(t *testing.T) {
	repoPath := setupGitRepo(t)

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", repoPath}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=Test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v failed: %s", args, string(out))
	}

	run("mv", "hello.go", "greet.go")
	f, err := os.OpenFile(filepath.Join(repoPath, "greet.go"), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("// extra\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	run("add", "greet.go")
	run("commit", "-m", "rename hello.go")

	src := &Source{Root: repoPath}
	files, err := src.Changes(context.Background(), ChangeRequest{Mode: ModeCommitRange, From: "HEAD~1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hello.go", "greet.go"}, paths(files))

	for _, fd := range files {
		require.NotNil(t, fd.Stats, fd.Path)
		rec, ok := diffparse.Extract(fd.Path, fd.Raw, nil, nil)
		require.True(t, ok)
		assert.Equal(t, fd.Stats.Insertions, rec.AddedLines, fd.Path)
		assert.Equal(t, fd.Stats.Deletions, rec.RemovedLines, fd.Path)
	}
}

func TestChanges_CommitRangeNeedsFrom(t *testing.T) {
	src := &Source{Root: t.TempDir()}
	_, err := src.Changes(context.Background(), ChangeRequest{Mode: ModeCommitRange})
	assert.Error(t, err)
}

func TestChanges_BadRevision(t *testing.T) {
	repoPath := setupGitRepo(t)

	src := &Source{Root: repoPath}
	_, err := src.Changes(context.Background(), ChangeRequest{Mode: ModeCommitRange, From: "no-such-ref"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeRepositoryUnavailable, CodeOf(err))
}

func TestParseNumstat(t *testing.T) {
	out := "3\t1\tsrc/a.go\n-\t-\tassets/logo.png\n0\t7\tdocs/old.md\ngarbage line\n\n"
	stats := ParseNumstat(out)

	assert.Equal(t, map[string]diffparse.Stats{
		"src/a.go":        {Insertions: 3, Deletions: 1},
		"assets/logo.png": {Binary: true},
		"docs/old.md":     {Deletions: 7},
	}, stats)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeWorkingTree, false},
		{"working-tree", ModeWorkingTree, false},
		{"STAGED", ModeStaged, false},
		{" commit-range ", ModeCommitRange, false},
		{"index", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
