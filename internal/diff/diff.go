// Package diff renders line diffs between a skeleton and the code a cut
// produces. It uses github.com/pmezard/go-difflib/difflib to emit classic
// unified patches (---/+++ headers, @@ hunks, ' ', '-', '+' prefixes).
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is used when Options.Context is not positive.
const DefaultContext = 3

// Options controls patch generation.
type Options struct {
	// MaxBytes caps len(a)+len(b). Above it a placeholder patch is returned
	// and oversize is reported. 0 means no limit.
	MaxBytes int

	// Context is the number of context lines around each hunk.
	Context int
}

func (o Options) context() int {
	if o.Context <= 0 {
		return DefaultContext
	}
	return o.Context
}

// Unified produces a unified patch for a -> b. Identical inputs give "".
func Unified(aName, bName, a, b string, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	if a == b {
		return "", false
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  opt.context(),
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(aName, bName), false
	}
	return s, false
}

// Stats counts added and removed lines in a unified patch body.
func Stats(body string) (added, removed int) {
	for _, ln := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(ln, "+++"), strings.HasPrefix(ln, "---"):
		case strings.HasPrefix(ln, "+"):
			added++
		case strings.HasPrefix(ln, "-"):
			removed++
		}
	}
	return added, removed
}

// splitLinesKeepNL splits into lines and keeps the newline on each, which
// difflib needs to print well-formed hunks. A final line without '\n' gets
// one so the last hunk line is terminated.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else if !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}

// omitted is the placeholder used when the size limit is exceeded.
func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}
