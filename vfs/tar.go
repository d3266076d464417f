package vfs

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type tarArchive struct {
	*dirArchive
	name string
}

// OpenTar extracts a tar or tar.gz file into a temporary directory.
// The directory is removed on Close.
func OpenTar(path string) (Archive, error) {
	tmpDir, err := os.MkdirTemp("", "zenconv_vfs_")
	if err != nil {
		return nil, err
	}
	if err := extractTar(path, tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		return nil, err
	}
	d, err := scanDir(tmpDir, true)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, err
	}
	for _, e := range d.entries {
		e.Source = path
	}
	return &tarArchive{dirArchive: d, name: path}, nil
}

func (a *tarArchive) Name() string {
	return a.name
}

func extractTar(path, dst string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if lower := strings.ToLower(path); strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".tgz") {
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gzr.Close()
		r = gzr
	}
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		case header == nil:
			continue
		}

		name := filepath.Join(dst, filepath.FromSlash(strings.ReplaceAll(header.Name, "\\", "/")))
		if !strings.HasPrefix(name, filepath.Clean(dst)+string(os.PathSeparator)) {
			return errors.Errorf("tar: illegal path %q", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(name, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
				return err
			}
			out, err := os.Create(name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
			if err := os.Chtimes(name, header.ModTime, header.ModTime); err != nil {
				return err
			}
		}
	}
}
