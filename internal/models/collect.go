// Package models finds uploaded model sources in a directory tree and checks
// each one for evolve blocks.
package models

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// File is one collected model source.
type File struct {
	RelPath string `json:"path"` // forward slashes, relative to the root
	AbsPath string `json:"-"`
	Size    int64  `json:"size"`
}

// Options filters Collect. Zero values select the defaults.
type Options struct {
	Exts         []string // lowercase, with dot; default .py
	Exclude      []string // base-name prefixes skipped for files and dirs
	MaxFileBytes int64    // 0 means no limit
}

// DefaultExclude skips virtualenvs, caches and VCS metadata.
var DefaultExclude = []string{".git", ".venv", "venv", "__pycache__", ".ipynb_checkpoints", "node_modules"}

func (o Options) withDefaults() Options {
	if len(o.Exts) == 0 {
		o.Exts = []string{".py"}
	}
	if o.Exclude == nil {
		o.Exclude = DefaultExclude
	}
	return o
}

type walkState struct {
	opt   Options
	root  string
	exts  map[string]struct{}
	files []File
}

// Collect walks root and returns matching files sorted by RelPath.
// Symlinks are not followed; unreadable entries are skipped.
func Collect(root string, opt Options) ([]File, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	opt = opt.withDefaults()
	ws := &walkState{opt: opt, root: abs, exts: make(map[string]struct{}, len(opt.Exts))}
	for _, e := range opt.Exts {
		ws.exts[strings.ToLower(e)] = struct{}{}
	}
	if err := filepath.WalkDir(abs, ws.visit); err != nil {
		return nil, err
	}
	sort.Slice(ws.files, func(i, j int) bool { return ws.files[i].RelPath < ws.files[j].RelPath })
	return ws.files, nil
}

func (ws *walkState) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return nil
	}
	if path != ws.root && ws.excluded(d.Name()) {
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if d.Type()&fs.ModeSymlink != 0 || d.IsDir() {
		return nil
	}
	if _, ok := ws.exts[strings.ToLower(filepath.Ext(path))]; !ok {
		return nil
	}
	info, err := d.Info()
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if ws.opt.MaxFileBytes > 0 && info.Size() > ws.opt.MaxFileBytes {
		return nil
	}
	rel, err := filepath.Rel(ws.root, path)
	if err != nil {
		return nil
	}
	ws.files = append(ws.files, File{RelPath: filepath.ToSlash(rel), AbsPath: path, Size: info.Size()})
	return nil
}

func (ws *walkState) excluded(base string) bool {
	for _, p := range ws.opt.Exclude {
		if p != "" && strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}
