package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fsys.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "scans")
	require.NoError(t, fsys.MkdirAll(dir, 0o755))

	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "1_upper.stl"), []byte("solid"), 0o644))
	w, err := fsys.Create(filepath.Join(dir, "1_lower.STL"))
	require.NoError(t, err)
	_, err = w.Write([]byte("solid"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.stl"), 0o755))

	l, err := ListSurfaces(fsys, dir, ".stl")
	require.NoError(t, err)
	assert.Equal(t, []string{"1_lower.STL", "1_upper.stl"}, l.Matched)
	assert.Empty(t, l.Other)

	f, err := fsys.Open(filepath.Join(dir, "1_upper.stl"))
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "solid", string(data))

	info, err := fsys.Stat(filepath.Join(dir, "1_lower.STL"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	require.NoError(t, mfs.WriteFile("/data/test.txt", []byte("hello, world"), 0o644))
	data, err := mfs.ReadFile("/data/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(data))

	// Returned slice is a copy.
	data[0] = 'H'
	again, _ := mfs.ReadFile("/data/test.txt")
	assert.Equal(t, "hello, world", string(again))

	assert.True(t, mfs.Exists("/data"))
	assert.True(t, mfs.Exists("/data/test.txt"))
	assert.False(t, mfs.Exists("/data/other.txt"))
}

func TestMemoryFileSystem_CreateAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/case-1.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := mfs.Open("/out/case-1.png")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "case-1.png", info.Name())
	assert.Equal(t, int64(3), info.Size())
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Open("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = mfs.ReadFile("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = mfs.Stat("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = mfs.ReadDir("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_StatDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/a/b/c", 0o755))

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		info, err := mfs.Stat(p)
		require.NoError(t, err, p)
		assert.True(t, info.IsDir(), p)
	}
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/scans/b.stl", nil, 0o644))
	require.NoError(t, mfs.WriteFile("/scans/a.stl", nil, 0o644))
	require.NoError(t, mfs.WriteFile("/scans/deep/c.stl", nil, 0o644))
	require.NoError(t, mfs.WriteFile("/elsewhere/d.stl", nil, 0o644))

	entries, err := mfs.ReadDir("/scans")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.stl", "b.stl", "deep"}, names)
	assert.True(t, entries[2].IsDir())
	assert.True(t, entries[0].Type().IsRegular())
}

func TestListSurfaces(t *testing.T) {
	mfs := NewMemoryFileSystem()
	for _, name := range []string{"3_upper.stl", "3_lower.STL", "notes.txt", "4_upper.stl", "scan.obj"} {
		require.NoError(t, mfs.WriteFile(filepath.Join("/data", name), []byte("x"), 0o644))
	}
	require.NoError(t, mfs.MkdirAll("/data/archive.stl", 0o755))

	l, err := ListSurfaces(mfs, "/data", ".stl")
	require.NoError(t, err)
	assert.Equal(t, []string{"3_lower.STL", "3_upper.stl", "4_upper.stl"}, l.Matched)
	assert.Equal(t, []string{"notes.txt", "scan.obj"}, l.Other)

	_, err = ListSurfaces(mfs, "/nope", ".stl")
	assert.Error(t, err)
}

func TestHasExt(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want bool
	}{
		{"a.stl", ".stl", true},
		{"a.STL", ".stl", true},
		{"a.stl", ".STL", true},
		{"a.stl.bak", ".stl", false},
		{"stl", ".stl", false},
		{"a.stl", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasExt(tt.name, tt.ext), "%s %s", tt.name, tt.ext)
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ FileSystem = OSFileSystem{}
	var _ FileSystem = NewMemoryFileSystem()
}
