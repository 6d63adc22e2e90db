package mesh

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ivlev/studio3d/internal/pixel"
	"github.com/ivlev/studio3d/internal/scene"
)

func randomBuffer(t *rapid.T) *pixel.Buffer {
	w := rapid.IntRange(2, 12).Draw(t, "w")
	h := rapid.IntRange(2, 12).Draw(t, "h")
	pix := rapid.SliceOfN(rapid.Byte(), w*h*4, w*h*4).Draw(t, "pix")
	buf, err := pixel.New(w, h, pix)
	if err != nil {
		t.Fatalf("pixel.New: %v", err)
	}
	return buf
}

func TestGenerateDisplacementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buf := randomBuffer(t)
		depth := rapid.Float64Range(0, 2).Draw(t, "depth")

		m, err := Generate(buf, depth)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if m.VertexCount() != buf.Width*buf.Height {
			t.Fatalf("vertex count %d, want %d", m.VertexCount(), buf.Width*buf.Height)
		}
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				want := buf.Brightness(x, y) * depth
				got := m.Positions[y*buf.Width+x][2]
				if math.Abs(got-want) > 1e-9 {
					t.Fatalf("vertex (%d,%d): z=%f, want %f", x, y, got, want)
				}
			}
		}
	})
}

func TestGenerateIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buf := randomBuffer(t)
		depth := rapid.Float64Range(0, 1).Draw(t, "depth")

		a, err := Generate(buf, depth)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Generate(buf, depth)
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, a.Positions, b.Positions)
		assert.Equal(t, a.Normals, b.Normals)
	})
}

func TestUniformBuffers(t *testing.T) {
	tests := []struct {
		name   string
		buf    *pixel.Buffer
		depth  float64
		wantZ  float64
	}{
		{"all white", pixel.Filled(6, 4, 255, 255, 255, 255), 0.3, 0.3},
		{"all black", pixel.Filled(6, 4, 0, 0, 0, 255), 0.3, 0},
		{"transparent white still displaced", pixel.Filled(3, 3, 255, 255, 255, 0), 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Generate(tt.buf, tt.depth)
			require.NoError(t, err)
			for i, p := range m.Positions {
				assert.InDelta(t, tt.wantZ, p[2], 1e-12, "vertex %d", i)
			}
			// A flat plane has every normal pointing at the viewer.
			for i, n := range m.Normals {
				assert.InDelta(t, 1.0, n[2], 1e-9, "normal %d", i)
			}
		})
	}
}

func TestFootprintAndTopology(t *testing.T) {
	m, err := Generate(pixel.Filled(5, 3, 0, 0, 0, 255), 1)
	require.NoError(t, err)

	assert.Equal(t, 4.0, m.Width)
	assert.InDelta(t, 4.0*3/5, m.Height, 1e-12)
	assert.Len(t, m.Indices, (5-1)*(3-1)*6)

	first := m.Positions[0]
	last := m.Positions[len(m.Positions)-1]
	assert.InDelta(t, -2.0, first[0], 1e-12)
	assert.InDelta(t, m.Height/2, first[1], 1e-12)
	assert.InDelta(t, 2.0, last[0], 1e-12)
	assert.InDelta(t, -m.Height/2, last[1], 1e-12)

	assert.Equal(t, [2]float64{0, 1}, m.UVs[0])
	assert.Equal(t, [2]float64{1, 0}, m.UVs[len(m.UVs)-1])
}

func TestNormalsFollowSlope(t *testing.T) {
	// Brightness rises left to right, so the surface tilts and normals lean to -X.
	buf := pixel.Filled(3, 2, 0, 0, 0, 255)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			v := uint8(x * 120)
			i := (y*3 + x) * 4
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = v, v, v
		}
	}

	m, err := Generate(buf, 1)
	require.NoError(t, err)
	for i, n := range m.Normals {
		assert.Less(t, n[0], 0.0, "normal %d", i)
		assert.InDelta(t, 1.0, n.Len(), 1e-9)
	}
}

func TestInvalidDimensions(t *testing.T) {
	empty, err := pixel.New(0, 0, nil)
	require.NoError(t, err)

	_, err = Generate(empty, 0.3)
	assert.ErrorIs(t, err, ErrInvalidImageDimensions)

	_, err = Generate(nil, 0.3)
	assert.ErrorIs(t, err, ErrInvalidImageDimensions)
}

func TestSinglePixelClampsToOneSegment(t *testing.T) {
	m, err := Generate(pixel.Filled(1, 1, 255, 255, 255, 255), 0.4)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, 2, m.Rows)
	assert.Len(t, m.Indices, 6)
	for _, p := range m.Positions {
		assert.InDelta(t, 0.4, p[2], 1e-12)
	}
}

func TestCacheKeyedByBufferAndDepth(t *testing.T) {
	c := NewCache()
	buf := pixel.Filled(4, 4, 128, 128, 128, 255)

	a, err := c.Get(buf, 0.3)
	require.NoError(t, err)
	b, err := c.Get(buf, 0.3)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, c.Builds())

	_, err = c.Get(buf, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Builds(), "depth change regenerates")

	_, err = c.Get(buf.Clone(), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Builds(), "new buffer identity regenerates")

	c.Invalidate()
	_, err = c.Get(buf, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Builds())
}

func TestWriteGLB(t *testing.T) {
	buf := pixel.Filled(4, 3, 200, 150, 100, 255)
	buf.Pix[3] = 0
	m, err := Generate(buf, 0.3)
	require.NoError(t, err)

	mat := scene.Default().Material
	mat.Emissive = "#ff00ff"
	mat.EmissiveIntensity = 0.5

	path := filepath.Join(t.TempDir(), "mesh.glb")
	require.NoError(t, WriteGLB(m, mat, buf, path))

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Materials, 1)
	assert.Equal(t, gltf.AlphaBlend, doc.Materials[0].AlphaMode)
	assert.Len(t, doc.Images, 1)

	pos := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]]
	assert.Equal(t, uint32(12), pos.Count)
}

func TestDocumentRejectsBadColor(t *testing.T) {
	m, err := Generate(pixel.Filled(2, 2, 0, 0, 0, 255), 0.1)
	require.NoError(t, err)

	mat := scene.Default().Material
	mat.Color = "not-a-color"
	_, err = Document(m, mat, nil)
	assert.Error(t, err)
}
