// Package evolve parses uploaded model sources whose editable regions are
// delimited by <evolve> ... </evolve> markers.
package evolve

import (
	"errors"
	"fmt"

	"evocut/internal/textutil"
)

// Sentinel comment lines that replace the markers in cleaned output.
const (
	StartSentinel = "# >>> evolve start (only this block can change)"
	EndSentinel   = "# <<< evolve end"
)

// ErrMissingEvolveTags is returned when a document has no evolve block.
var ErrMissingEvolveTags = errors.New("missing evolve tags: wrap the editable part in <evolve> ... </evolve>")

// ParseError carries context for a failed parse. It unwraps to the sentinel.
type ParseError struct {
	Lines int // raw lines scanned
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v (scanned %d lines)", e.Err, e.Lines)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Region is a half-open [Start, End) span of 0-based line indices into the
// cleaned code.
type Region struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len is the number of lines in the region.
func (r Region) Len() int { return r.End - r.Start }

// Contains reports whether line falls inside the region.
func (r Region) Contains(line int) bool { return line >= r.Start && line < r.End }

// Document is the parse result: cleaned code plus its editable regions in
// document order.
type Document struct {
	Code    string   `json:"code"`
	Regions []Region `json:"ranges"`
}

// Lines splits the cleaned code.
func (d Document) Lines() []string { return textutil.SplitLines(d.Code) }

// Editable reports whether a cleaned-code line lies inside any region.
func (d Document) Editable(line int) bool {
	for _, r := range d.Regions {
		if r.Contains(line) {
			return true
		}
	}
	return false
}
