// Package mesh turns a pixel buffer into a brightness-displaced plane.
package mesh

import (
	"errors"

	"github.com/ivlev/studio3d/internal/mathutil"
	"github.com/ivlev/studio3d/internal/pixel"
)

// ErrInvalidImageDimensions is returned for buffers with no pixels.
var ErrInvalidImageDimensions = errors.New("mesh: invalid image dimensions")

// PlaneWidth is the footprint width in scene units; height follows the
// image aspect ratio.
const PlaneWidth = 4.0

// Mesh is an indexed triangle mesh laid out as a Cols×Rows vertex grid.
// Vertex (i, j) is stored at j*Cols+i, row 0 at the top edge.
type Mesh struct {
	Cols, Rows int
	Width      float64
	Height     float64
	Positions  []mathutil.Vec3
	Normals    []mathutil.Vec3
	UVs        [][2]float64
	Indices    []uint32
}

// VertexCount returns the number of grid vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Generate builds the heightmap mesh for buf. Each vertex is displaced along
// +Z by brightness·depth of its pixel; normals are recomputed afterwards.
//
// A buffer one pixel wide or tall is widened to a single segment on that
// axis by repeating the only column or row.
func Generate(buf *pixel.Buffer, depth float64) (*Mesh, error) {
	if buf.Empty() {
		return nil, ErrInvalidImageDimensions
	}

	cols := max(buf.Width, 2)
	rows := max(buf.Height, 2)
	width := PlaneWidth
	height := PlaneWidth * float64(buf.Height) / float64(buf.Width)

	m := &Mesh{
		Cols:      cols,
		Rows:      rows,
		Width:     width,
		Height:    height,
		Positions: make([]mathutil.Vec3, cols*rows),
		UVs:       make([][2]float64, cols*rows),
		Indices:   make([]uint32, 0, (cols-1)*(rows-1)*6),
	}

	segW := width / float64(cols-1)
	segH := height / float64(rows-1)
	for j := 0; j < rows; j++ {
		y := height/2 - float64(j)*segH
		py := min(j, buf.Height-1)
		for i := 0; i < cols; i++ {
			x := -width/2 + float64(i)*segW
			px := min(i, buf.Width-1)
			v := j*cols + i
			m.Positions[v] = mathutil.V3(x, y, buf.Brightness(px, py)*depth)
			m.UVs[v] = [2]float64{float64(i) / float64(cols-1), 1 - float64(j)/float64(rows-1)}
		}
	}

	for j := 0; j < rows-1; j++ {
		for i := 0; i < cols-1; i++ {
			a := uint32(j*cols + i)
			b := uint32((j+1)*cols + i)
			c := uint32((j+1)*cols + i + 1)
			d := uint32(j*cols + i + 1)
			m.Indices = append(m.Indices, a, b, d, b, c, d)
		}
	}

	m.Normals = ComputeNormals(m.Positions, m.Indices)
	return m, nil
}

// ComputeNormals returns smooth per-vertex normals: the sum of the
// (area-weighted) normals of every face sharing the vertex, normalized.
func ComputeNormals(positions []mathutil.Vec3, indices []uint32) []mathutil.Vec3 {
	normals := make([]mathutil.Vec3, len(positions))
	for f := 0; f+2 < len(indices); f += 3 {
		ia, ib, ic := indices[f], indices[f+1], indices[f+2]
		pa, pb, pc := positions[ia], positions[ib], positions[ic]
		n := pc.Sub(pb).Cross(pa.Sub(pb))
		normals[ia] = normals[ia].Add(n)
		normals[ib] = normals[ib].Add(n)
		normals[ic] = normals[ic].Add(n)
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}
