package evolve

// Marker recognition follows the same approach as region anchors: one regex
// per marker kind, case-insensitive, tolerant of inner whitespace:
//
//	<evolve>   < evolve >   <EVOLVE>
//	</evolve>  < / evolve > </ Evolve>
//
// The scan is a single forward pass driven by a two-state machine. A block
// left open at end of input is closed implicitly.

import (
	"regexp"
	"strings"

	"evocut/internal/textutil"
)

var (
	reOpen  = regexp.MustCompile(`(?i)<\s*evolve\s*>`)
	reClose = regexp.MustCompile(`(?i)<\s*/\s*evolve\s*>`)
)

type phase int

const (
	outside phase = iota
	inside
)

// scanner builds the cleaned output and records regions as it goes.
type scanner struct {
	phase   phase
	start   int // output index of the first line inside the open block
	out     []string
	regions []Region
}

func (s *scanner) emit(line string) { s.out = append(s.out, line) }

// open handles an opening marker. A second opening marker inside an open
// block keeps the original start so regions never overlap.
func (s *scanner) open() {
	s.emit(StartSentinel)
	if s.phase == inside {
		return
	}
	s.phase = inside
	s.start = len(s.out)
}

// close handles a closing marker. A stray closing marker still emits the end
// sentinel but records nothing.
func (s *scanner) close() {
	end := len(s.out)
	if s.phase == inside {
		s.regions = append(s.regions, Region{Start: s.start, End: end})
	}
	s.emit(EndSentinel)
	s.phase = outside
	s.start = 0
}

// finish closes a block still open at end of input.
func (s *scanner) finish() {
	if s.phase == inside {
		s.regions = append(s.regions, Region{Start: s.start, End: len(s.out)})
		s.phase = outside
	}
}

// Parse strips evolve markers from raw, replacing them with sentinel
// comments, and returns the cleaned code with its editable regions.
// It fails with ErrMissingEvolveTags when no block is found.
func Parse(raw string) (Document, error) {
	lines := textutil.SplitLines(textutil.NormalizeLF(raw))
	s := &scanner{out: make([]string, 0, len(lines)+4)}

	for _, line := range lines {
		justOpened := false
		if loc := reOpen.FindStringIndex(line); loc != nil {
			line = line[:loc[0]] + line[loc[1]:]
			s.open()
			justOpened = true
		}

		if loc := reClose.FindStringIndex(line); loc != nil {
			before, after := line[:loc[0]], line[loc[1]:]
			if !textutil.IsBlank(before) {
				s.emit(before)
			}
			s.close()
			if !textutil.IsBlank(after) {
				s.emit(after)
			}
			continue
		}

		if justOpened && textutil.IsBlank(line) {
			continue
		}
		s.emit(line)
	}
	s.finish()

	if len(s.regions) == 0 {
		return Document{}, &ParseError{Lines: len(lines), Err: ErrMissingEvolveTags}
	}

	code := textutil.TrimEnd(strings.Join(s.out, "\n"))
	return Document{Code: code, Regions: clamp(s.regions, len(textutil.SplitLines(code)))}, nil
}

// clamp keeps regions inside the trimmed output; trailing blank lines that
// were trimmed away can otherwise leave an implicit close past the end.
func clamp(regions []Region, n int) []Region {
	for i := range regions {
		if regions[i].End > n {
			regions[i].End = n
		}
		if regions[i].Start > regions[i].End {
			regions[i].Start = regions[i].End
		}
	}
	return regions
}
