// Package vfs merges game archives and directories into one case-insensitive namespace.
package vfs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/binzume/zenconv/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// OverwriteBehavior decides which entry wins when a name is already mounted.
type OverwriteBehavior int

const (
	// OverwriteNone keeps the existing entry.
	OverwriteNone OverwriteBehavior = iota
	// OverwriteAll replaces the existing entry.
	OverwriteAll
	// OverwriteNewer replaces the existing entry only if it is newer than the new one.
	OverwriteNewer
	// OverwriteOlder replaces the existing entry only if it is older than the new one.
	OverwriteOlder
)

func (b OverwriteBehavior) String() string {
	switch b {
	case OverwriteNone:
		return "none"
	case OverwriteAll:
		return "all"
	case OverwriteNewer:
		return "newer"
	case OverwriteOlder:
		return "older"
	}
	return "unknown"
}

func (b OverwriteBehavior) replaces(existing, incoming *Entry) bool {
	switch b {
	case OverwriteAll:
		return true
	case OverwriteNewer:
		return existing.ModTime.After(incoming.ModTime)
	case OverwriteOlder:
		return existing.ModTime.Before(incoming.ModTime)
	}
	return false
}

// Entry is one file visible through the Vfs.
type Entry struct {
	Name    string // base name as stored
	Path    string // path inside the source
	Size    int64
	ModTime time.Time
	Source  string
	open    func() (io.ReadCloser, error)
}

func NewEntry(source, path string, size int64, modTime time.Time, open func() (io.ReadCloser, error)) *Entry {
	path = strings.ReplaceAll(path, "\\", "/")
	return &Entry{Name: baseName(path), Path: path, Size: size, ModTime: modTime, Source: source, open: open}
}

func (e *Entry) Open() (io.ReadCloser, error) {
	return e.open()
}

// Archive is a mountable source of entries.
type Archive interface {
	Name() string
	Entries() []*Entry
	Close() error
}

type Vfs struct {
	entries  map[string]*Entry
	archives []Archive
}

func New() *Vfs {
	return &Vfs{entries: map[string]*Entry{}}
}

// Key normalizes a lookup name: base name, lower case.
func Key(name string) string {
	return strings.ToLower(baseName(strings.ReplaceAll(name, "\\", "/")))
}

func baseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Mount adds every entry of a. The Vfs takes ownership of a.
func (v *Vfs) Mount(a Archive, behavior OverwriteBehavior) {
	added, replaced := 0, 0
	for _, e := range a.Entries() {
		key := Key(e.Path)
		if existing, ok := v.entries[key]; ok {
			if !behavior.replaces(existing, e) {
				continue
			}
			replaced++
		} else {
			added++
		}
		v.entries[key] = e
	}
	v.archives = append(v.archives, a)
	logger.Debug("mounted", zap.String("archive", a.Name()), zap.Stringer("overwrite", behavior),
		zap.Int("added", added), zap.Int("replaced", replaced))
}

// MountDisk mounts a directory, a VDF/MOD archive or a tar(.gz) file.
func (v *Vfs) MountDisk(path string, behavior OverwriteBehavior) error {
	st, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "mount")
	}
	var a Archive
	if st.IsDir() {
		a, err = OpenDir(path)
	} else {
		switch ext := strings.ToLower(filepath.Ext(path)); {
		case ext == ".vdf" || ext == ".mod":
			a, err = OpenVDF(path)
		case ext == ".tar" || ext == ".tgz" || strings.HasSuffix(strings.ToLower(path), ".tar.gz"):
			a, err = OpenTar(path)
		default:
			return errors.Errorf("mount %s: unknown archive type", path)
		}
	}
	if err != nil {
		return errors.Wrapf(err, "mount %s", path)
	}
	v.Mount(a, behavior)
	return nil
}

// MountGlob mounts every file matching pattern in dir, in name order.
// Matching is case-insensitive.
func (v *Vfs) MountGlob(dir, pattern string, behavior OverwriteBehavior) (int, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrap(err, "mount")
	}
	var names []string
	for _, e := range ents {
		if ok, _ := filepath.Match(strings.ToLower(pattern), strings.ToLower(e.Name())); ok && !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		if err := v.MountDisk(filepath.Join(dir, n), behavior); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

func (v *Vfs) Find(name string) *Entry {
	return v.entries[Key(name)]
}

func (v *Vfs) Exists(name string) bool {
	return v.Find(name) != nil
}

// Open returns an error matching fs.ErrNotExist if name is not mounted.
func (v *Vfs) Open(name string) (io.ReadCloser, error) {
	e := v.Find(name)
	if e == nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return e.Open()
}

func (v *Vfs) ReadFile(name string) ([]byte, error) {
	r, err := v.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// List returns all visible entries sorted by key.
func (v *Vfs) List() []*Entry {
	keys := make([]string, 0, len(v.entries))
	for k := range v.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]*Entry, len(keys))
	for i, k := range keys {
		list[i] = v.entries[k]
	}
	return list
}

func (v *Vfs) Close() error {
	var first error
	for _, a := range v.archives {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	v.archives = nil
	v.entries = map[string]*Entry{}
	return first
}
