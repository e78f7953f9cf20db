// Package skeleton recovers the base ("skeleton") source of an optimization
// model from a full source text and the cut that was inserted into it.
//
// Removal is textual and best effort. Three strategies are tried in order and
// the first one that reports success wins:
//
//	exact      contiguous substring of the normalized cut, first occurrence
//	anchored   trimmed cut lines matched in order, blank source lines skipped
//	unordered  every source line equal to a trimmed cut line is dropped
//
// The unordered strategy never fails, so Derive always returns a value.
// All functions are pure and safe for concurrent use.
package skeleton

import (
	"strings"

	"evocut/internal/textutil"
)

// Strategy names the removal strategy that produced a skeleton.
type Strategy string

const (
	// StrategyNone means nothing was removed: empty source or empty cut.
	StrategyNone      Strategy = "none"
	StrategyExact     Strategy = "exact"
	StrategyAnchored  Strategy = "anchored"
	StrategyUnordered Strategy = "unordered"
)

// cut is the normalized form of a cut shared by all strategies.
type cut struct {
	text string   // CRLF-normalized and trimmed
	sig  []string // trimmed, non-blank lines in order
}

func newCut(raw string) cut {
	text := strings.TrimSpace(textutil.NormalizeLF(raw))
	var sig []string
	for _, ln := range textutil.SplitLines(text) {
		if s := strings.TrimSpace(ln); s != "" {
			sig = append(sig, s)
		}
	}
	return cut{text: text, sig: sig}
}

// remover is one removal strategy. ok=false means "try the next one".
type remover func(full string, c cut) (out string, ok bool)

type step struct {
	name Strategy
	run  remover
}

// pipeline is evaluated top to bottom.
var pipeline = []step{
	{StrategyExact, removeExact},
	{StrategyAnchored, removeAnchored},
	{StrategyUnordered, removeUnordered},
}

// Derive returns fullCode with cutText removed. See DeriveWithStrategy.
func Derive(fullCode, cutText string) string {
	out, _ := DeriveWithStrategy(fullCode, cutText)
	return out
}

// DeriveWithStrategy is Derive that also reports which strategy was used.
func DeriveWithStrategy(fullCode, cutText string) (string, Strategy) {
	if fullCode == "" {
		return "", StrategyNone
	}
	full := textutil.NormalizeLF(fullCode)
	c := newCut(cutText)
	if c.text == "" || len(c.sig) == 0 {
		return textutil.TrimEnd(full), StrategyNone
	}
	for _, s := range pipeline {
		if out, ok := s.run(full, c); ok {
			return out, s.name
		}
	}
	// unreachable: removeUnordered always succeeds
	return textutil.TrimEnd(full), StrategyNone
}

// removeExact splices out the first contiguous occurrence of the cut.
func removeExact(full string, c cut) (string, bool) {
	i := strings.Index(full, c.text)
	if i < 0 {
		return "", false
	}
	return textutil.Tidy(full[:i] + full[i+len(c.text):]), true
}

// removeAnchored looks for the cut signature as an ordered run of source
// lines. Blank source lines inside the run are absorbed; any other mismatch
// abandons the anchor.
func removeAnchored(full string, c cut) (string, bool) {
	lines := textutil.SplitLines(full)
	for i, ln := range lines {
		if strings.TrimSpace(ln) != c.sig[0] {
			continue
		}
		if end, ok := matchFrom(lines, i, c.sig); ok {
			kept := make([]string, 0, len(lines)-(end-i))
			kept = append(kept, lines[:i]...)
			kept = append(kept, lines[end:]...)
			return textutil.Tidy(textutil.JoinLines(kept)), true
		}
	}
	return "", false
}

// matchFrom walks lines from anchor and returns the exclusive end of the
// span once every signature line has been consumed.
func matchFrom(lines []string, anchor int, sig []string) (int, bool) {
	j, k := 0, anchor
	for j < len(sig) && k < len(lines) {
		cur := strings.TrimSpace(lines[k])
		switch {
		case cur == sig[j]:
			j++
			k++
		case cur == "":
			k++
		default:
			return 0, false
		}
	}
	return k, j == len(sig)
}

// removeUnordered drops every line that equals some signature line after
// trimming. Blank lines are always kept.
func removeUnordered(full string, c cut) (string, bool) {
	set := make(map[string]struct{}, len(c.sig))
	for _, s := range c.sig {
		set[s] = struct{}{}
	}
	lines := textutil.SplitLines(full)
	kept := lines[:0:0]
	for _, ln := range lines {
		t := strings.TrimSpace(ln)
		if t != "" {
			if _, drop := set[t]; drop {
				continue
			}
		}
		kept = append(kept, ln)
	}
	return textutil.Tidy(textutil.JoinLines(kept)), true
}
