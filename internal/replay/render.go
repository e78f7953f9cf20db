package replay

import (
	"fmt"
	"io"
	"strings"
)

// WriteFrame prints one frame as plain text.
func WriteFrame(w io.Writer, f Frame) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Generation %d ===\n", f.Gen)
	fmt.Fprintf(&b, "best=%s mean=%s std=%s  (+%d/-%d lines)\n",
		FormatNumber(f.Best, 3), FormatNumber(f.Mean, 3), FormatNumber(f.Std, 3), f.Added, f.Removed)
	fmt.Fprintf(&b, "idea: %s\n", f.Idea)
	b.WriteString(indent(f.Snippet, "  | "))
	for _, r := range f.Top {
		fmt.Fprintf(&b, "  %d. %-10s %s\n", r.Rank, FormatOptional(r.Fitness, 3), r.Idea)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary prints the final comparison against the baseline.
func WriteSummary(w io.Writer, s Summary) error {
	sign := ""
	if s.AbsImprovement >= 0 {
		sign = "+"
	}
	rel := "-"
	if s.RelImprovement != nil {
		rel = Percent(*s.RelImprovement)
	}
	_, err := fmt.Fprintf(w, "baseline=%s final=%s delta=%s%s (%s)\n",
		FormatNumber(s.Baseline, 3), FormatNumber(s.FinalBest, 3), sign, FormatNumber(s.AbsImprovement, 3), rel)
	return err
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = prefix + ln
	}
	return strings.Join(lines, "\n") + "\n"
}
