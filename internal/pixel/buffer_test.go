package pixel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, target int
		wantW, wantH int
	}{
		{"landscape", 200, 100, 50, 50, 25},
		{"portrait", 100, 400, 50, 12, 50},
		{"square", 640, 640, 50, 50, 50},
		{"upscale small source", 10, 5, 50, 50, 25},
		{"extreme aspect keeps one row", 1000, 2, 50, 50, 1},
		{"zero size", 0, 10, 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TargetSize(tt.w, tt.h, tt.target)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestFromImageKeepsColorAndAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 120, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 120; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	buf, err := FromImage(src, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, buf.Width)
	assert.Equal(t, 20, buf.Height)
	assert.Len(t, buf.Pix, 40*20*4)

	r, g, b, a := buf.At(10, 10)
	assert.Equal(t, []uint8{200, 100, 50, 255}, []uint8{r, g, b, a})
}

func TestBrightness(t *testing.T) {
	assert.InDelta(t, 1.0, Filled(2, 2, 255, 255, 255, 0).Brightness(1, 1), 1e-12)
	assert.InDelta(t, 0.0, Filled(2, 2, 0, 0, 0, 255).Brightness(0, 0), 1e-12)
	assert.InDelta(t, 1.0/3.0, Filled(1, 1, 255, 0, 0, 255).Brightness(0, 0), 1e-12)
}

func TestIdentityIsFreshPerBuffer(t *testing.T) {
	a := Filled(2, 2, 1, 2, 3, 4)
	b := a.Clone()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Pix, b.Pix)

	b.Pix[0] = 99
	assert.Equal(t, uint8(1), a.Pix[0], "clone must not share pixels")
}

func TestPNGRoundTrip(t *testing.T) {
	src := Filled(3, 2, 10, 20, 30, 255)
	data, err := src.EncodePNG()
	require.NoError(t, err)

	back, err := DecodePNG(data)
	require.NoError(t, err)
	assert.Equal(t, src.Width, back.Width)
	assert.Equal(t, src.Height, back.Height)
	assert.Equal(t, src.Pix, back.Pix)
}

func TestNewRejectsWrongLength(t *testing.T) {
	_, err := New(2, 2, make([]uint8, 3))
	assert.Error(t, err)

	buf, err := New(0, 0, nil)
	require.NoError(t, err)
	assert.True(t, buf.Empty())
}

func TestPNGRoundTripKeepsTransparentColor(t *testing.T) {
	src := Filled(2, 2, 255, 0, 0, 255)
	src.Pix[3] = 0

	data, err := src.EncodePNG()
	require.NoError(t, err)
	back, err := DecodePNG(data)
	require.NoError(t, err)

	r, _, _, a := back.At(0, 0)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), a)
}
