// Package filter decides which changed files are sent to the model.
package filter

import (
	"fmt"
	"regexp"

	"github.com/sanix-darker/localreview/internal/diffparse"
)

// Decision is the eligibility verdict for one change record.
type Decision int

const (
	Analyze Decision = iota
	SkipBinary
	SkipTooLarge
	SkipPattern
)

func (d Decision) String() string {
	switch d {
	case Analyze:
		return "analyze"
	case SkipBinary:
		return "skip-binary"
	case SkipTooLarge:
		return "skip-too-large"
	case SkipPattern:
		return "skip-pattern"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Rules holds compiled include/exclude patterns and the size ceiling.
// A Rules value is never modified after NewRules returns.
type Rules struct {
	include     []*regexp.Regexp
	exclude     []*regexp.Regexp
	maxFileSize int64
}

// NewRules compiles the pattern lists. maxFileSize <= 0 disables the size
// ceiling.
func NewRules(include, exclude []string, maxFileSize int64) (Rules, error) {
	inc, err := compileAll("include", include)
	if err != nil {
		return Rules{}, err
	}
	exc, err := compileAll("exclude", exclude)
	if err != nil {
		return Rules{}, err
	}
	return Rules{include: inc, exclude: exc, maxFileSize: maxFileSize}, nil
}

func compileAll(kind string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", kind, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// MaxFileSize returns the configured size ceiling in bytes.
func (r Rules) MaxFileSize() int64 {
	return r.maxFileSize
}

// Decide classifies rec. The first matching rule wins: exclude patterns,
// include patterns, binary content, then size.
func (r Rules) Decide(rec diffparse.ChangeRecord) Decision {
	if matchesAny(r.exclude, rec.Path) {
		return SkipPattern
	}
	if len(r.include) > 0 && !matchesAny(r.include, rec.Path) {
		return SkipPattern
	}
	if rec.IsBinary {
		return SkipBinary
	}
	if r.maxFileSize > 0 && rec.SizeBytes != nil && *rec.SizeBytes > r.maxFileSize {
		return SkipTooLarge
	}
	return Analyze
}

func matchesAny(patterns []*regexp.Regexp, path string) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
