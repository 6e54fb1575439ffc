package overlay

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
)

// Stats summarizes one copy operation.
type Stats struct {
	Files       int
	Dirs        int
	Overwritten int
	Excluded    int
}

// Engine copies trees on behalf of one mapping. Engines are values: For and
// WithExclude return scoped copies and never mutate the receiver.
type Engine struct {
	sink    NoticeSink
	index   int
	name    string
	exclude []string
}

// New returns an engine reporting overwrites to sink (nil discards them).
func New(sink NoticeSink) *Engine {
	return &Engine{sink: sink, index: -1}
}

// For scopes the engine to mapping i named name.
func (e *Engine) For(i int, name string) *Engine {
	c := *e
	c.index = i
	c.name = name
	return &c
}

// WithExclude skips entries whose slash path relative to the source root
// matches any doublestar pattern. An excluded directory is skipped entirely.
func (e *Engine) WithExclude(patterns []string) *Engine {
	c := *e
	c.exclude = append([]string(nil), patterns...)
	return &c
}

// ReplaceTree copies src to dst, which must not exist. Parents of dst are created.
func (e *Engine) ReplaceTree(src, dst string) (Stats, error) {
	info, err := sourceDir(src)
	if err != nil {
		return Stats{}, err
	}
	if _, err := os.Lstat(dst); err == nil {
		return Stats{}, &CollisionError{MappingIndex: e.index, Mapping: e.name, Mode: ModeReplaceTree, Path: dst}
	} else if !stderrors.Is(err, fs.ErrNotExist) {
		return Stats{}, fsError("failed to inspect destination", dst, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return Stats{}, fsError("failed to create destination parent", dst, err)
	}
	if err := os.Mkdir(dst, dirMode(info)); err != nil {
		return Stats{}, fsError("failed to create destination", dst, err)
	}

	st, err := e.copyTree(src, dst, false)
	if err != nil {
		return st, err
	}
	slog.Debug("Replaced tree", e.attrs(logfields.Source(src), logfields.Dest(dst), slog.Int("files", st.Files))...)
	return st, nil
}

// Overlay merges src into dst, creating dst if needed. Existing files are
// overwritten and reported; nothing is removed from dst.
func (e *Engine) Overlay(src, dst string) (Stats, error) {
	info, err := sourceDir(src)
	if err != nil {
		return Stats{}, err
	}
	if err := os.MkdirAll(dst, dirMode(info)); err != nil {
		return Stats{}, fsError("failed to create destination", dst, err)
	}

	st, err := e.copyTree(src, dst, true)
	if err != nil {
		return st, err
	}
	slog.Debug("Overlaid tree", e.attrs(logfields.Source(src), logfields.Dest(dst), slog.Int("files", st.Files), slog.Int("overwritten", st.Overwritten))...)
	return st, nil
}

func (e *Engine) copyTree(src, dst string, overlay bool) (Stats, error) {
	var st Stats
	// dst may sit inside src; it is never copied into itself
	skip, err := resolve(dst)
	if err != nil {
		return st, fsError("failed to resolve destination", dst, err)
	}
	mode := ModeReplaceTree
	if overlay {
		mode = ModeOverlay
	}
	err = e.walk(src, ".", map[string]bool{}, skip, &st, func(rel, from string, info fs.FileInfo) error {
		to := filepath.Join(dst, filepath.FromSlash(rel))
		if info.IsDir() {
			if err := os.MkdirAll(to, dirMode(info)); err != nil {
				return fsError("failed to create directory", to, err)
			}
			st.Dirs++
			return nil
		}
		if !info.Mode().IsRegular() {
			return fsError(fmt.Sprintf("unsupported file type %s", info.Mode().Type()), from, nil)
		}

		existed := false
		if ti, err := os.Lstat(to); err == nil {
			if !overlay || ti.IsDir() {
				return &CollisionError{MappingIndex: e.index, Mapping: e.name, Mode: mode, Path: to}
			}
			existed = true
		}
		if err := copyFile(from, to, info.Mode().Perm(), existed); err != nil {
			return fsError("failed to copy file", to, err)
		}
		st.Files++
		if existed {
			st.Overwritten++
			e.notify(rel, to)
		}
		return nil
	})
	return st, err
}

// walk visits the entries below dir in lexical order, following symlinks.
// seen holds the resolved directories on the current path to stop cycles.
// The directory resolving to skip is left out.
func (e *Engine) walk(dir, rel string, seen map[string]bool, skip string, st *Stats, fn func(rel, from string, info fs.FileInfo) error) error {
	real, err := resolve(dir)
	if err != nil {
		return fsError("failed to resolve directory", dir, err)
	}
	if seen[real] {
		return fsError("symlink cycle", dir, nil)
	}
	seen[real] = true
	defer delete(seen, real)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fsError("failed to read directory", dir, err)
	}
	for _, ent := range entries {
		childRel := path.Join(rel, ent.Name())
		from := filepath.Join(dir, ent.Name())
		if e.excluded(childRel) {
			st.Excluded++
			continue
		}

		info, err := os.Stat(from)
		if err != nil {
			if ent.Type()&fs.ModeSymlink != 0 {
				return fsError("dangling symlink", from, err)
			}
			return fsError("failed to stat source", from, err)
		}
		if info.IsDir() {
			if r, err := resolve(from); err == nil && r == skip {
				continue
			}
		}
		if err := fn(childRel, from, info); err != nil {
			return err
		}
		if info.IsDir() {
			if err := e.walk(from, childRel, seen, skip, st, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) excluded(rel string) bool {
	for _, p := range e.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (e *Engine) notify(rel, to string) {
	slog.Warn("Overwriting file", e.attrs(logfields.Path(rel), logfields.Dest(to))...)
	if e.sink != nil {
		e.sink.Notice(Notice{MappingIndex: e.index, Mapping: e.name, Path: rel, Dest: to})
	}
}

func (e *Engine) attrs(extra ...slog.Attr) []any {
	out := make([]any, 0, len(extra)+2)
	if e.name != "" {
		out = append(out, logfields.MappingIndex(e.index), logfields.Mapping(e.name))
	}
	for _, a := range extra {
		out = append(out, a)
	}
	return out
}

// resolve returns the absolute path of p with symlinks evaluated.
func resolve(p string) (string, error) {
	r, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(r)
}

func sourceDir(src string) (fs.FileInfo, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fsError("source directory not accessible", src, err)
	}
	if !info.IsDir() {
		return nil, fsError("source is not a directory", src, nil)
	}
	return info, nil
}

// copyFile writes src to dst with perm. An existing dst is removed first so
// read-only files can be replaced.
func copyFile(src, dst string, perm fs.FileMode, replace bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if replace {
		if err := os.Remove(dst); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// the umask applies at creation time
	return os.Chmod(dst, perm)
}

// dirMode keeps source permissions but guarantees the owner can fill the directory.
func dirMode(info fs.FileInfo) fs.FileMode {
	return info.Mode().Perm() | 0o700
}

func fsError(msg, p string, cause error) error {
	b := errors.FileSystemError(fmt.Sprintf("%s: %s", msg, p)).WithContext("path", p)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}
