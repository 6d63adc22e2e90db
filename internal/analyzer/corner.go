package analyzer

import (
	"errors"

	"github.com/ivlev/studio3d/internal/pixel"
)

// CornerRemover takes the mean of the four corner pixels as the background
// color and clears every pixel closer to it than Threshold (RGB distance).
// It fails on images whose corners are not background.
type CornerRemover struct {
	Threshold float64
}

func NewCornerRemover() *CornerRemover {
	return &CornerRemover{Threshold: 50}
}

func (r *CornerRemover) Remove(buf *pixel.Buffer) (*pixel.Buffer, error) {
	if buf.Empty() {
		return nil, errors.New("analyzer: empty buffer")
	}
	bg := cornerMean(buf)
	out := buf.Clone()
	limit := r.Threshold * r.Threshold
	for i := 0; i < len(out.Pix); i += 4 {
		dr := float64(out.Pix[i]) - bg[0]
		dg := float64(out.Pix[i+1]) - bg[1]
		db := float64(out.Pix[i+2]) - bg[2]
		if dr*dr+dg*dg+db*db < limit {
			out.Pix[i+3] = 0
		}
	}
	return out, nil
}

func cornerMean(buf *pixel.Buffer) [3]float64 {
	w, h := buf.Width-1, buf.Height-1
	var sum [3]float64
	for _, p := range [4][2]int{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		r, g, b, _ := buf.At(p[0], p[1])
		sum[0] += float64(r)
		sum[1] += float64(g)
		sum[2] += float64(b)
	}
	return [3]float64{sum[0] / 4, sum[1] / 4, sum[2] / 4}
}
