package analyzer

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/ivlev/studio3d/internal/pixel"
)

// EdgeRemover treats everything reachable from the image border without
// crossing an edge as background. Edges come from a Sobel pass, dilated to
// close small gaps in the subject outline.
type EdgeRemover struct {
	EdgeThreshold float64 // Gradient magnitude threshold
	DilateSize    int     // Kernel size of the closing dilation
}

// NewEdgeRemover creates an edge-based remover with default settings
func NewEdgeRemover() *EdgeRemover {
	return &EdgeRemover{
		EdgeThreshold: 30.0,
		DilateSize:    3,
	}
}

func (r *EdgeRemover) Remove(buf *pixel.Buffer) (*pixel.Buffer, error) {
	if buf.Empty() {
		return nil, errors.New("analyzer: empty buffer")
	}

	gray := toGrayscale(buf)
	edges := sobelEdgeDetection(gray, r.EdgeThreshold)
	if r.DilateSize > 1 {
		edges = dilate(edges, r.DilateSize, 1)
	}
	background := floodFromBorder(edges)

	out := buf.Clone()
	for i, bg := range background {
		if bg {
			out.Pix[i*4+3] = 0
		}
	}
	return out, nil
}

// toGrayscale converts a buffer to grayscale
func toGrayscale(buf *pixel.Buffer) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, buf.Width, buf.Height))
	src := buf.Image()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.NRGBAAt(x, y)))
		}
	}
	return gray
}

// sobelEdgeDetection applies Sobel operator to detect edges
func sobelEdgeDetection(gray *image.Gray, threshold float64) *image.Gray {
	bounds := gray.Bounds()
	edges := image.NewGray(bounds)

	gx := [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	gy := [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(gray.GrayAt(x+kx, y+ky).Y)
					sumX += v * float64(gx[ky+1][kx+1])
					sumY += v * float64(gy[ky+1][kx+1])
				}
			}
			if math.Sqrt(sumX*sumX+sumY*sumY) > threshold {
				edges.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return edges
}

// dilate performs morphological dilation to connect nearby edges
func dilate(img *image.Gray, kernelSize, iterations int) *image.Gray {
	bounds := img.Bounds()
	result := img
	half := kernelSize / 2

	for iter := 0; iter < iterations; iter++ {
		temp := image.NewGray(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				maxVal := uint8(0)
				for ky := -half; ky <= half; ky++ {
					for kx := -half; kx <= half; kx++ {
						p := image.Pt(x+kx, y+ky)
						if !p.In(bounds) {
							continue
						}
						maxVal = max(maxVal, result.GrayAt(p.X, p.Y).Y)
					}
				}
				temp.SetGray(x, y, color.Gray{Y: maxVal})
			}
		}
		result = temp
	}
	return result
}

// floodFromBorder marks the non-edge pixels connected to the border.
// The result is indexed y*width+x.
func floodFromBorder(edges *image.Gray) []bool {
	bounds := edges.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	visited := make([]bool, w*h)

	var stack []image.Point
	for x := 0; x < w; x++ {
		stack = append(stack, image.Pt(x, 0), image.Pt(x, h-1))
	}
	for y := 0; y < h; y++ {
		stack = append(stack, image.Pt(0, y), image.Pt(w-1, y))
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		i := p.Y*w + p.X
		if visited[i] || edges.GrayAt(p.X, p.Y).Y > 128 {
			continue
		}
		visited[i] = true

		stack = append(stack,
			image.Point{X: p.X + 1, Y: p.Y},
			image.Point{X: p.X - 1, Y: p.Y},
			image.Point{X: p.X, Y: p.Y + 1},
			image.Point{X: p.X, Y: p.Y - 1},
		)
	}
	return visited
}
