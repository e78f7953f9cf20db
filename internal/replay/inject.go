package replay

import (
	"strings"

	"evocut/internal/textutil"
)

// Insertion markers recognised in problem templates. The first one present
// wins.
var insertMarkers = []string{
	"# <EVOCUT_INSERT_CUT_HERE>",
	"# <ALPHAEVOLVE_INSERT_CUT_HERE>",
}

const (
	cutBlockOpen  = "# >>> EvoCut: inserted cut"
	cutBlockEmpty = "# >>> EvoCut: no cut for this generation"
	cutBlockClose = "# <<< EvoCut"
)

// InjectCut inserts a fenced cut block into template right before the
// insertion marker, keeping the marker. Without a marker the block is
// appended after one blank line.
func InjectCut(template, cut string) string {
	block := cutBlock(cut)
	for _, m := range insertMarkers {
		if strings.Contains(template, m) {
			return strings.Replace(template, m, block+m, 1)
		}
	}
	return textutil.TrimEnd(template) + "\n\n" + block
}

func cutBlock(cut string) string {
	cut = strings.TrimSpace(cut)
	if cut == "" {
		return cutBlockEmpty + "\n" + cutBlockClose + "\n"
	}
	return cutBlockOpen + "\n" + cut + "\n" + cutBlockClose + "\n"
}
