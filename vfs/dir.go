package vfs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type dirArchive struct {
	dir     string
	temp    bool
	entries []*Entry
}

// OpenDir scans a directory tree. Entry times are file modification times.
func OpenDir(dir string) (Archive, error) {
	return scanDir(dir, false)
}

func scanDir(dir string, temp bool) (*dirArchive, error) {
	a := &dirArchive{dir: dir, temp: temp}
	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		p := path
		a.entries = append(a.entries, NewEntry(dir, filepath.ToSlash(rel), info.Size(), info.ModTime(),
			func() (io.ReadCloser, error) { return os.Open(p) }))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *dirArchive) Name() string {
	return a.dir
}

func (a *dirArchive) Entries() []*Entry {
	return a.entries
}

func (a *dirArchive) Close() error {
	if a.temp {
		return os.RemoveAll(a.dir)
	}
	return nil
}
