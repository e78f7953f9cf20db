// Package textutil holds the small line-oriented string helpers shared by the
// skeleton deriver, the evolve-block parser and the bundle writer.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

// blankRunRe matches three or more consecutive newlines.
var blankRunRe = regexp.MustCompile(`\n{3,}`)

// NormalizeLF converts CRLF line endings to LF. Lone CR characters are left
// untouched so column offsets in the remaining text stay stable.
func NormalizeLF(s string) string {
	if !strings.Contains(s, "\r\n") {
		return s
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// TrimEnd removes trailing whitespace (including newlines).
func TrimEnd(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// CollapseBlankRuns squeezes every run of 3+ newlines down to exactly two,
// leaving at most one blank line between non-blank lines.
func CollapseBlankRuns(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}

// Tidy is the finishing step applied to reconstructed sources: collapse
// blank runs, then strip trailing whitespace.
func Tidy(s string) string {
	return TrimEnd(CollapseBlankRuns(s))
}

// SplitLines splits on '\n'. An empty string yields a single empty line,
// matching how editors count lines.
func SplitLines(s string) []string {
	return strings.Split(s, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// IsBlank reports whether s contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// EnsureTrailingLF appends a single '\n' if not already present.
func EnsureTrailingLF(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// HeadLines returns the first max lines of s. When lines were dropped the
// marker line is appended.
func HeadLines(s string, max int, marker string) string {
	lines := SplitLines(s)
	if max < 0 || len(lines) <= max {
		return s
	}
	head := JoinLines(lines[:max])
	if marker == "" {
		return head
	}
	return head + "\n" + marker
}
