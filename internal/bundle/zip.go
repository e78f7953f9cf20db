package bundle

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// fixedZipTime keeps archives byte-for-byte reproducible (1980-01-01 UTC).
var fixedZipTime = time.Unix(315532800, 0).UTC()

// SanitizePath turns p into a safe entry name: forward slashes, no drive
// letter, no leading '/', and no '.' or '..' segments.
func SanitizePath(p string) string {
	s := strings.ReplaceAll(filepath.ToSlash(p), "\\", "/")
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	stack := make([]string, 0, strings.Count(s, "/")+1)
	for _, part := range strings.Split(s, "/") {
		switch part {
		case "", ".":
		case "..":
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	if len(stack) == 0 {
		return "entry"
	}
	return strings.Join(stack, "/")
}

// uniqueName appends -1, -2, ... before the extension until name is unused.
func uniqueName(name string, used map[string]struct{}) string {
	if _, ok := used[name]; !ok {
		used[name] = struct{}{}
		return name
	}
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	for n := 1; ; n++ {
		alt := fmt.Sprintf("%s-%d%s", base, n, ext)
		if _, ok := used[alt]; !ok {
			used[alt] = struct{}{}
			return alt
		}
	}
}

// entry is one file of an archive, buffered so entries can be sorted.
type entry struct {
	name string
	data []byte
}

func jsonEntry(name string, v any) (entry, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return entry{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return entry{name: name, data: append(b, '\n')}, nil
}

func writeEntry(zw *zip.Writer, e entry) error {
	h := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
	h.SetMode(0o644)
	h.Modified = fixedZipTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("create %s: %w", e.name, err)
	}
	if _, err := w.Write(e.data); err != nil {
		return fmt.Errorf("write %s: %w", e.name, err)
	}
	return nil
}
