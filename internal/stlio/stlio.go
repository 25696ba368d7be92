// Package stlio reads STL surface files into indexed meshes.
package stlio

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/jawviewer/internal/fsutil"
	"github.com/banshee-data/jawviewer/internal/mesh"
)

// Decode reads a binary or ASCII STL stream. Identical vertices are merged so
// neighbouring triangles share point indices.
func Decode(r io.Reader, name string) (*mesh.Mesh, error) {
	tris, err := model3d.ReadSTL(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("decode stl %s: %w", name, err)
	}
	return FromTriangles(name, tris), nil
}

// FromTriangles builds an indexed mesh from a triangle soup.
func FromTriangles(name string, tris []*model3d.Triangle) *mesh.Mesh {
	index := make(map[model3d.Coord3D]int, len(tris))
	points := make([]r3.Vec, 0, len(tris)/2+3)
	faces := make([][3]int, 0, len(tris))

	for _, t := range tris {
		var f [3]int
		for k, c := range t {
			i, ok := index[c]
			if !ok {
				i = len(points)
				index[c] = i
				points = append(points, r3.Vec{X: c.X, Y: c.Y, Z: c.Z})
			}
			f[k] = i
		}
		faces = append(faces, f)
	}
	return mesh.New(name, points, faces)
}

// ToTriangles is the inverse of FromTriangles.
func ToTriangles(m *mesh.Mesh) []*model3d.Triangle {
	out := make([]*model3d.Triangle, len(m.Faces))
	for i, f := range m.Faces {
		t := &model3d.Triangle{}
		for k, vi := range f {
			p := m.Points[vi]
			t[k] = model3d.Coord3D{X: p.X, Y: p.Y, Z: p.Z}
		}
		out[i] = t
	}
	return out
}

// Encode writes m as binary STL.
func Encode(w io.Writer, m *mesh.Mesh) error {
	if err := model3d.WriteSTL(w, ToTriangles(m)); err != nil {
		return fmt.Errorf("encode stl %s: %w", m.Name, err)
	}
	return nil
}

// Loader reads surfaces from a FileSystem.
type Loader struct {
	FS fsutil.FileSystem
}

// NewLoader returns a Loader over fsys. A nil fsys means the OS filesystem.
func NewLoader(fsys fsutil.FileSystem) *Loader {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Loader{FS: fsys}
}

// Load reads and decodes the STL file at path. The mesh is named after the
// file's base name.
func (l *Loader) Load(path string) (*mesh.Mesh, error) {
	f, err := l.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open surface: %w", err)
	}
	defer f.Close()

	m, err := Decode(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("surface %s: %w", path, err)
	}
	return m, nil
}

// Load reads an STL file from the OS filesystem.
func Load(path string) (*mesh.Mesh, error) {
	return NewLoader(nil).Load(path)
}
