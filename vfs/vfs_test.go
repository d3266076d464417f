package vfs

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestKey(t *testing.T) {
	for in, want := range map[string]string{
		"FOO.TGA":                "foo.tga",
		"_work\\data\\FOO.MRM":   "foo.mrm",
		"Meshes/_Compiled/A.MRM": "a.mrm",
		"plain":                  "plain",
	} {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMountDir(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, filepath.Join(dir, "Textures", "STONE-C.TEX"), "tex", now)
	writeFile(t, filepath.Join(dir, "Meshes", "Stone.MRM"), "mrm", now)

	v := New()
	defer v.Close()
	if err := v.MountDisk(dir, OverwriteOlder); err != nil {
		t.Fatal(err)
	}
	if !v.Exists("stone-c.tex") || !v.Exists("STONE.mrm") {
		t.Error("case-insensitive base name lookup failed")
	}
	if len(v.List()) != 2 {
		t.Error("List:", len(v.List()))
	}
	_, err := v.Open("missing.mrm")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("missing file should be fs.ErrNotExist:", err)
	}
}

func TestOverwriteBehavior(t *testing.T) {
	oldTime := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	newTime := time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		behavior OverwriteBehavior
		first    time.Time
		second   time.Time
		want     string
	}{
		{OverwriteNone, oldTime, newTime, "first"},
		{OverwriteAll, newTime, oldTime, "second"},
		// older file loses
		{OverwriteOlder, oldTime, newTime, "second"},
		{OverwriteOlder, newTime, oldTime, "first"},
		{OverwriteNewer, oldTime, newTime, "first"},
		{OverwriteNewer, newTime, oldTime, "second"},
	}
	for _, tt := range tests {
		t.Run(tt.behavior.String(), func(t *testing.T) {
			a := filepath.Join(t.TempDir(), "a")
			b := filepath.Join(t.TempDir(), "b")
			writeFile(t, filepath.Join(a, "SHARED.TXT"), "first", tt.first)
			writeFile(t, filepath.Join(b, "shared.txt"), "second", tt.second)

			v := New()
			defer v.Close()
			if err := v.MountDisk(a, tt.behavior); err != nil {
				t.Fatal(err)
			}
			if err := v.MountDisk(b, tt.behavior); err != nil {
				t.Fatal(err)
			}
			data, err := v.ReadFile("Shared.txt")
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("got %q, want %q", data, tt.want)
			}
		})
	}
}

func TestMountGlobOrder(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC)
	writeVDF(t, filepath.Join(dir, "WORLDS.VDF"), ts, []vdfFile{{name: "WORLD.ZEN", data: "base"}})
	writeVDF(t, filepath.Join(dir, "PATCH.MOD"), ts.AddDate(1, 0, 0), []vdfFile{{name: "WORLD.ZEN", data: "patched"}})
	writeVDF(t, filepath.Join(dir, "OLD.MOD"), ts.AddDate(-1, 0, 0), []vdfFile{{name: "WORLD.ZEN", data: "old"}})

	v := New()
	defer v.Close()
	for _, p := range []string{"*.VDF", "*.MOD"} {
		if _, err := v.MountGlob(dir, p, OverwriteOlder); err != nil {
			t.Fatal(err)
		}
	}
	data, err := v.ReadFile("world.zen")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "patched" {
		t.Errorf("got %q, want newest archive to win", data)
	}
}

func TestMountTarGz(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	mtime := time.Date(2004, 5, 6, 7, 8, 9, 0, time.UTC)
	content := "mesh data"
	tw.WriteHeader(&tar.Header{Name: "_work/Meshes/ARMOR.MDM", Mode: 0644, Size: int64(len(content)), ModTime: mtime, Typeflag: tar.TypeReg})
	tw.Write([]byte(content))
	tw.Close()
	gw.Close()
	f.Close()

	v := New()
	if err := v.MountDisk(path, OverwriteAll); err != nil {
		t.Fatal(err)
	}
	e := v.Find("armor.mdm")
	if e == nil {
		t.Fatal("entry not found")
	}
	if !e.ModTime.Equal(mtime) {
		t.Error("mod time:", e.ModTime)
	}
	data, err := v.ReadFile("ARMOR.MDM")
	if err != nil || string(data) != content {
		t.Error("ReadFile:", string(data), err)
	}
	if err := v.Close(); err != nil {
		t.Error(err)
	}
	if v.Exists("armor.mdm") {
		t.Error("entries should be gone after Close")
	}
}

func TestMountUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.zip")
	writeFile(t, path, "x", time.Now())
	if err := New().MountDisk(path, OverwriteAll); err == nil {
		t.Error("unknown archive type should fail")
	}
}
