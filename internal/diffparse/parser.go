package diffparse

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ChangeRecord is one changed file in a diff.
type ChangeRecord struct {
	Path          string
	AddedLines    int
	RemovedLines  int
	RawChangeText string
	IsNewFile     bool
	IsDeletedFile bool
	IsBinary      bool
	// SizeBytes is nil unless the file exists on disk and is not deleted.
	SizeBytes *int64
}

// Stats holds precomputed change counts, as reported by `git diff --numstat`.
type Stats struct {
	Insertions int
	Deletions  int
	Binary     bool
}

// FileDiff is the diff section of a single file inside a multi-file diff.
type FileDiff struct {
	Path  string
	Raw   string
	Stats *Stats
}

// FileProber answers filesystem questions for Extract.
type FileProber interface {
	Exists(path string) bool
	Size(path string) (int64, error)
}

// OSProber resolves paths relative to Root on the local filesystem.
type OSProber struct {
	Root string
}

func (p OSProber) resolve(path string) string {
	if p.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}

func (p OSProber) Exists(path string) bool {
	_, err := os.Stat(p.resolve(path))
	return err == nil
}

func (p OSProber) Size(path string) (int64, error) {
	info, err := os.Stat(p.resolve(path))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Extract builds the ChangeRecord for one file. It returns false when raw is
// empty or only whitespace, meaning there is nothing to report.
//
// Counts come from stats when given. Otherwise they are approximated from
// the diff text: lines starting with a single '+' or '-', excluding the
// '+++' and '---' file headers. Context lines and hunk headers are ignored.
// probe may be nil, in which case SizeBytes stays nil.
func Extract(path, raw string, stats *Stats, probe FileProber) (ChangeRecord, bool) {
	if strings.TrimSpace(raw) == "" {
		return ChangeRecord{}, false
	}

	rec := ChangeRecord{Path: path, RawChangeText: raw}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "new file mode"):
			if !rec.IsDeletedFile {
				rec.IsNewFile = true
			}
		case strings.HasPrefix(line, "deleted file mode"):
			if !rec.IsNewFile {
				rec.IsDeletedFile = true
			}
		case strings.HasPrefix(line, "GIT binary patch"):
			rec.IsBinary = true
		case strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, " differ"):
			rec.IsBinary = true
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			rec.AddedLines++
		case strings.HasPrefix(line, "-"):
			rec.RemovedLines++
		}
	}

	if stats != nil {
		rec.AddedLines = stats.Insertions
		rec.RemovedLines = stats.Deletions
		if stats.Binary {
			rec.IsBinary = true
		}
	}

	if !rec.IsDeletedFile && probe != nil && probe.Exists(path) {
		if size, err := probe.Size(path); err == nil {
			rec.SizeBytes = &size
		}
	}

	return rec, true
}

// SplitMultiFileDiff splits `git diff` output into per-file sections. Each
// section keeps its full text, headers included, so Extract can read the
// new/deleted/binary markers.
func SplitMultiFileDiff(raw string) []FileDiff {
	var (
		out     []FileDiff
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		section := strings.Join(current, "\n")
		current = nil
		if strings.TrimSpace(section) == "" {
			return
		}
		if !strings.HasSuffix(section, "\n") {
			section += "\n"
		}
		path := sectionPath(section)
		if path == "" {
			return
		}
		out = append(out, FileDiff{Path: path, Raw: section})
	}

	for _, line := range strings.Split(strings.TrimRight(raw, "\n"), "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return out
}

// sectionPath resolves the logical path of a single-file diff: the new name,
// or the old name when the file was deleted.
func sectionPath(section string) string {
	if fd, err := diff.ParseFileDiff([]byte(section)); err == nil && fd != nil {
		if p := pickName(fd.OrigName, fd.NewName); p != "" {
			return p
		}
	}
	header, _, _ := strings.Cut(section, "\n")
	return headerPath(header)
}

func pickName(orig, updated string) string {
	if updated != "" && updated != "/dev/null" {
		return cleanPath(updated)
	}
	if orig != "" && orig != "/dev/null" {
		return cleanPath(orig)
	}
	return ""
}

// headerPath reads the b/ side of a "diff --git a/x b/y" line.
func headerPath(header string) string {
	rest, ok := strings.CutPrefix(header, "diff --git ")
	if !ok {
		return ""
	}
	// Paths with spaces are quoted by git: "a/my file.go" "b/my file.go".
	if i := strings.LastIndex(rest, ` "b/`); i >= 0 {
		return cleanPath(rest[i+1:])
	}
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return cleanPath(rest[i+1:])
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return cleanPath(fields[len(fields)-1])
}

func cleanPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"`)
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}
