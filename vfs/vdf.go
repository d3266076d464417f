package vfs

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

const (
	vdfSignatureG1   = "PSVDSC_V2.00\r\n\r\n"
	vdfSignatureG2   = "PSVDSC_V2.00\n\r\n\r"
	vdfEntrySize     = 80
	vdfDirectoryFlag = 0x80000000
	vdfLastFlag      = 0x40000000
)

type vdfHeader struct {
	Comment       [256]byte
	Signature     [16]byte
	EntryCount    uint32
	FileCount     uint32
	Timestamp     uint32
	Size          uint32
	CatalogOffset uint32
	Version       uint32
}

type vdfEntry struct {
	Name       [64]byte
	Offset     uint32
	Size       uint32
	Type       uint32
	Attributes uint32
}

type vdfArchive struct {
	path    string
	f       *os.File
	comment string
	entries []*Entry
}

// OpenVDF opens a VDF (or MOD) archive. Every entry gets the archive timestamp.
func OpenVDF(path string) (Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := readVDF(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.f = f
	return a, nil
}

func readVDF(path string, r io.ReaderAt) (*vdfArchive, error) {
	var h vdfHeader
	if err := binary.Read(io.NewSectionReader(r, 0, 1<<20), binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "vdf header")
	}
	sig := string(h.Signature[:])
	if sig != vdfSignatureG1 && sig != vdfSignatureG2 {
		return nil, errors.Errorf("vdf: invalid signature %q", sig)
	}
	if h.Version != vdfEntrySize {
		return nil, errors.Errorf("vdf: unexpected entry size %d", h.Version)
	}

	catalog := make([]vdfEntry, h.EntryCount)
	cr := io.NewSectionReader(r, int64(h.CatalogOffset), int64(h.EntryCount)*vdfEntrySize)
	if err := binary.Read(cr, binary.LittleEndian, catalog); err != nil {
		return nil, errors.Wrap(err, "vdf catalog")
	}

	a := &vdfArchive{path: path, comment: decodeName(h.Comment[:])}
	modTime := dosTime(h.Timestamp)
	visited := make([]bool, len(catalog))
	var walk func(start int, dir string) error
	walk = func(start int, dir string) error {
		for i := start; i < len(catalog); i++ {
			if visited[i] {
				return errors.Errorf("vdf: catalog loop at entry %d", i)
			}
			visited[i] = true
			e := &catalog[i]
			name := decodeName(e.Name[:])
			if e.Type&vdfDirectoryFlag != 0 {
				if int(e.Offset) >= len(catalog) {
					return errors.Errorf("vdf: directory %q points outside the catalog", name)
				}
				if err := walk(int(e.Offset), dir+name+"/"); err != nil {
					return err
				}
			} else {
				off, size := int64(e.Offset), int64(e.Size)
				a.entries = append(a.entries, NewEntry(path, dir+name, size, modTime, func() (io.ReadCloser, error) {
					return io.NopCloser(io.NewSectionReader(r, off, size)), nil
				}))
			}
			if e.Type&vdfLastFlag != 0 {
				return nil
			}
		}
		return nil
	}
	if len(catalog) > 0 {
		if err := walk(0, ""); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// decodeName trims the space/NUL padding of a fixed size Windows-1252 field.
func decodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		s = b
	}
	return strings.TrimRight(string(s), " \x1a")
}

func dosTime(t uint32) time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.Date(
		int(t>>25&0x7f)+1980, time.Month(t>>21&0xf), int(t>>16&0x1f),
		int(t>>11&0x1f), int(t>>5&0x3f), int(t&0x1f)*2, 0, time.UTC)
}

func (a *vdfArchive) Name() string {
	return a.path
}

func (a *vdfArchive) Entries() []*Entry {
	return a.entries
}

func (a *vdfArchive) Close() error {
	if a.f != nil {
		return a.f.Close()
	}
	return nil
}
