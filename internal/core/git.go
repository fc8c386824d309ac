package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sanix-darker/localreview/internal/diffparse"
	git "gopkg.in/src-d/go-git.v4"
)

// Mode selects which changes a Source reports.
type Mode string

const (
	ModeWorkingTree Mode = "working-tree"
	ModeStaged      Mode = "staged"
	ModeCommitRange Mode = "commit-range"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWorkingTree, ModeStaged, ModeCommitRange:
		return m, nil
	case "":
		return ModeWorkingTree, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected working-tree, staged or commit-range)", s)
	}
}

// ChangeRequest describes the changes to collect. From and To are only used
// in commit-range mode; an empty To means HEAD.
type ChangeRequest struct {
	Mode Mode
	From string
	To   string
}

// Source reads changes from a git repository through the git CLI.
type Source struct {
	// Root is the top-level directory of the worktree.
	Root string
}

// OpenRepository locates the git repository containing path and returns a
// Source rooted at its worktree. A missing repository is reported as
// ErrRepositoryUnavailable.
func OpenRepository(path string) (*Source, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeRepositoryUnavailable,
			Message: fmt.Sprintf("no git repository found at %s", path),
			Cause:   err,
		}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeRepositoryUnavailable,
			Message: "repository has no worktree",
			Cause:   err,
		}
	}
	return &Source{Root: wt.Filesystem.Root()}, nil
}

// Changes returns one FileDiff per changed file for the requested mode. In
// commit-range mode each FileDiff also carries numstat statistics.
func (s *Source) Changes(ctx context.Context, req ChangeRequest) ([]diffparse.FileDiff, error) {
	var args []string
	switch req.Mode {
	case ModeWorkingTree, "":
		args = []string{"diff"}
	case ModeStaged:
		args = []string{"diff", "--cached"}
	case ModeCommitRange:
		if req.From == "" {
			return nil, fmt.Errorf("commit-range mode needs a starting commit")
		}
		to := req.To
		if to == "" {
			to = "HEAD"
		}
		// Renames are split into a deletion and an addition so the diff
		// sections line up with the numstat entries.
		args = []string{"diff", "--no-renames", req.From, to}
	default:
		return nil, fmt.Errorf("unknown mode %q", req.Mode)
	}

	raw, err := s.git(ctx, append(args, "--no-color", "--no-ext-diff")...)
	if err != nil {
		return nil, err
	}
	files := diffparse.SplitMultiFileDiff(raw)

	if req.Mode != ModeCommitRange {
		return files, nil
	}

	numstat, err := s.git(ctx, append(args, "--numstat")...)
	if err != nil {
		return nil, err
	}
	stats := ParseNumstat(numstat)
	for i := range files {
		if st, ok := stats[files[i].Path]; ok {
			st := st
			files[i].Stats = &st
		}
	}
	return files, nil
}

// ParseNumstat parses `git diff --numstat` output into per-path statistics.
// Binary entries ("-\t-\tpath") are flagged as binary with zero counts.
func ParseNumstat(out string) map[string]diffparse.Stats {
	stats := make(map[string]diffparse.Stats)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		path := strings.TrimSpace(parts[2])
		if path == "" {
			continue
		}
		if parts[0] == "-" && parts[1] == "-" {
			stats[path] = diffparse.Stats{Binary: true}
			continue
		}
		ins, err1 := strconv.Atoi(parts[0])
		del, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			continue
		}
		stats[path] = diffparse.Stats{Insertions: ins, Deletions: del}
	}
	return stats
}

func (s *Source) git(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", s.Root}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(stderr.String()))
		}
		return "", &Error{Code: ErrCodeRepositoryUnavailable, Message: msg, Cause: err}
	}
	return string(out), nil
}
