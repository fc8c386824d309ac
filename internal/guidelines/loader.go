// Package guidelines reads repository-local review rules so they can be
// prepended to the review instructions.
package guidelines

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local models have small context windows; the budget stays well under the
// diff budget of a prompt.
const (
	maxFiles        = 4
	maxBytesPerFile = 1200
	maxBytesTotal   = 3000
)

const truncatedMarker = "\n...[truncated]"

var explicitCandidates = []string{
	".localreview.md",
	"REVIEW.md",
	".github/REVIEW.md",
	"AGENTS.md",
}

// rulesDir holds any number of extra markdown rule files.
const rulesDir = ".localreview"

// BuildPromptSection discovers guideline files under repoRoot and formats
// them for the prompt. Empty string means none were found.
func BuildPromptSection(repoRoot string) string {
	root := strings.TrimSpace(repoRoot)
	if root == "" {
		return ""
	}

	paths := discoverGuidelinePaths(root)
	if len(paths) == 0 {
		return ""
	}

	var (
		sb    strings.Builder
		total int
		used  int
	)
	sb.WriteString("Repository review rules (apply them, but correctness and security come first):\n\n")

	for _, p := range paths {
		if used >= maxFiles || total >= maxBytesTotal {
			break
		}

		b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			continue
		}
		content := strings.TrimSpace(string(b))
		if content == "" {
			continue
		}

		content = clip(content, maxBytesPerFile)
		content = clip(content, maxBytesTotal-total)

		fmt.Fprintf(&sb, "From %s:\n%s\n\n", p, content)
		total += len(content)
		used++
	}

	if used == 0 {
		return ""
	}
	return strings.TrimSpace(sb.String())
}

// Prepend puts the guideline section of repoRoot in front of template. The
// template is returned unchanged when there are no guidelines.
func Prepend(repoRoot, template string) string {
	section := BuildPromptSection(repoRoot)
	if section == "" {
		return template
	}
	return section + "\n\n" + template
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + truncatedMarker
}

func discoverGuidelinePaths(root string) []string {
	seen := map[string]struct{}{}
	var out []string

	addIfFile := func(rel string) {
		if _, ok := seen[rel]; ok {
			return
		}
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			return
		}
		seen[rel] = struct{}{}
		out = append(out, rel)
	}

	for _, rel := range explicitCandidates {
		addIfFile(rel)
	}
	for _, rel := range listMarkdownFiles(root, rulesDir) {
		addIfFile(rel)
	}
	return out
}

func listMarkdownFiles(root, relDir string) []string {
	entries, err := os.ReadDir(filepath.Join(root, relDir))
	if err != nil {
		return nil
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		files = append(files, relDir+"/"+e.Name())
	}
	sort.Strings(files)
	return files
}
