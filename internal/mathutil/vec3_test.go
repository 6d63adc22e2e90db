package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossOrientation(t *testing.T) {
	x := V3(1, 0, 0)
	y := V3(0, 1, 0)
	assert.Equal(t, V3(0, 0, 1), x.Cross(y))
	assert.Equal(t, V3(0, 0, -1), y.Cross(x))
}

func TestNormalize(t *testing.T) {
	n := V3(3, 0, 4).Normalize()
	assert.InDelta(t, 0.6, n[0], 1e-12)
	assert.InDelta(t, 0.8, n[2], 1e-12)
	assert.InDelta(t, 1.0, n.Len(), 1e-12)

	assert.Equal(t, Vec3{}, Vec3{}.Normalize(), "zero vector stays zero")
}
