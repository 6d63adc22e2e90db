package mesh

import (
	"sync"

	"github.com/ivlev/studio3d/internal/pixel"
)

type cacheKey struct {
	bufferID uint64
	depth    float64
}

// Cache memoizes the mesh of the currently displayed buffer. It holds a
// single entry: asking for a different (buffer, depth) pair regenerates
// the mesh and drops the previous one.
type Cache struct {
	mu     sync.Mutex
	key    cacheKey
	mesh   *Mesh
	builds int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the mesh for (buf, depth), generating it on a key change.
func (c *Cache) Get(buf *pixel.Buffer, depth float64) (*Mesh, error) {
	if buf == nil {
		return nil, ErrInvalidImageDimensions
	}
	key := cacheKey{bufferID: buf.ID, depth: depth}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mesh != nil && c.key == key {
		return c.mesh, nil
	}

	m, err := Generate(buf, depth)
	if err != nil {
		return nil, err
	}
	c.key = key
	c.mesh = m
	c.builds++
	return m, nil
}

// Invalidate drops the cached mesh.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.mesh = nil
	c.key = cacheKey{}
	c.mu.Unlock()
}

// Builds reports how many times a mesh was generated.
func (c *Cache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
