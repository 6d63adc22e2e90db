// Package pixel holds the decoded bitmap that flows from ingestion to the
// mesh generator.
package pixel

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync/atomic"

	"golang.org/x/image/draw"
)

var lastID atomic.Uint64

// Buffer is a non-premultiplied RGBA bitmap, row-major, 4 bytes per pixel.
// ID identifies the buffer for caching: buffers are never mutated after
// construction, any transformation yields a new Buffer with a new ID.
type Buffer struct {
	ID     uint64
	Width  int
	Height int
	Pix    []uint8 // len = Width*Height*4
}

// New wraps pix without copying. len(pix) must be w*h*4.
func New(w, h int, pix []uint8) (*Buffer, error) {
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("pixel: negative size %dx%d", w, h)
	}
	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("pixel: %d bytes for %dx%d buffer, want %d", len(pix), w, h, w*h*4)
	}
	return &Buffer{ID: lastID.Add(1), Width: w, Height: h, Pix: pix}, nil
}

// Filled returns a w×h buffer where every pixel has the given color.
func Filled(w, h int, r, g, b, a uint8) *Buffer {
	pix := make([]uint8, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, a
	}
	return &Buffer{ID: lastID.Add(1), Width: w, Height: h, Pix: pix}
}

// TargetSize returns the size that makes the longer edge equal to target
// while keeping the aspect ratio. Dimensions are floored and never below 1.
func TargetSize(w, h, target int) (int, int) {
	if w <= 0 || h <= 0 || target <= 0 {
		return 0, 0
	}
	scale := min(float64(target)/float64(w), float64(target)/float64(h))
	tw := max(int(float64(w)*scale), 1)
	th := max(int(float64(h)*scale), 1)
	return tw, th
}

// FromImage resamples img so that its longer edge equals target.
func FromImage(img image.Image, target int) (*Buffer, error) {
	b := img.Bounds()
	tw, th := TargetSize(b.Dx(), b.Dy(), target)
	if tw == 0 || th == 0 {
		return nil, fmt.Errorf("pixel: cannot resample %dx%d image to %d", b.Dx(), b.Dy(), target)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return &Buffer{ID: lastID.Add(1), Width: tw, Height: th, Pix: dst.Pix}, nil
}

// At returns the channels of pixel (x, y).
func (b *Buffer) At(x, y int) (r, g, bl, a uint8) {
	i := (y*b.Width + x) * 4
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Brightness is the unweighted channel mean in [0, 1]. Alpha is ignored.
func (b *Buffer) Brightness(x, y int) float64 {
	i := (y*b.Width + x) * 4
	return (float64(b.Pix[i]) + float64(b.Pix[i+1]) + float64(b.Pix[i+2])) / 3 / 255
}

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width == 0 || b.Height == 0
}

// Clone copies the pixels into a new buffer with a fresh ID.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{ID: lastID.Add(1), Width: b.Width, Height: b.Height, Pix: pix}
}

// Image exposes the pixels as an *image.NRGBA sharing the same memory.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// EncodePNG encodes the buffer as a PNG still.
func (b *Buffer) EncodePNG() ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, b.Image()); err != nil {
		return nil, fmt.Errorf("pixel: encode png: %w", err)
	}
	return out.Bytes(), nil
}

// DecodePNG decodes a PNG still back into a buffer without resampling.
func DecodePNG(data []byte) (*Buffer, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pixel: decode png: %w", err)
	}
	bounds := img.Bounds()
	// NRGBA keeps the colour of fully transparent pixels; going through
	// draw would premultiply them to black.
	if n, ok := img.(*image.NRGBA); ok && n.Stride == bounds.Dx()*4 && bounds.Min == (image.Point{}) {
		return &Buffer{ID: lastID.Add(1), Width: bounds.Dx(), Height: bounds.Dy(), Pix: n.Pix}, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{ID: lastID.Add(1), Width: bounds.Dx(), Height: bounds.Dy(), Pix: dst.Pix}, nil
}
