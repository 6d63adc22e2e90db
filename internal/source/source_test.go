package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writeTestImages(t *testing.T, dir string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, color.NRGBA{B: 80, A: 255})
		}
	}
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})

	f, err := os.Create(filepath.Join(dir, "b.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	f, err = os.Create(filepath.Join(dir, "a.bmp"))
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, img))
	require.NoError(t, f.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
}

func TestImageSourceFolder(t *testing.T) {
	dir := t.TempDir()
	writeTestImages(t, dir)

	src, err := Open(dir)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 2, src.PageCount())
	assert.Equal(t, filepath.Join(dir, "a.bmp"), src.(*ImageSource).Path(0))

	for i := 0; i < src.PageCount(); i++ {
		w, h, err := src.PageSize(i)
		require.NoError(t, err)
		assert.Equal(t, 6.0, w)
		assert.Equal(t, 3.0, h)

		img, err := src.RenderPage(i, 0)
		require.NoError(t, err)
		r, _, _, _ := img.At(1, 1).RGBA()
		assert.Equal(t, uint32(0xffff), r)
	}

	_, err = src.RenderPage(2, 0)
	assert.Error(t, err)
}

func TestImageSourceErrors(t *testing.T) {
	_, err := NewImageSource(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	_, err = NewImageSource(t.TempDir())
	assert.Error(t, err, "empty folder")
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("x.PNG"))
	assert.True(t, IsImage("x.webp"))
	assert.False(t, IsImage("x.mp4"))
	assert.False(t, IsImage("pdf"))
}
