// Package ingest turns user media into pixel buffers: images directly,
// videos as a short sequence of sampled stills, and the soundtrack of a
// video as a recorded clip.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/studio3d/internal/pixel"
	"github.com/ivlev/studio3d/internal/source"
	"github.com/ivlev/studio3d/internal/storage"
	"github.com/ivlev/studio3d/internal/video"
)

const (
	SampleRate = 10 // frames per second of source video
	MaxFrames  = 30
)

// DecodeError means the file could not be read as an image or video.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Path, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// ExtractionError means the soundtrack of a video could not be captured.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract audio from %s: %v", e.Path, e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// FrameCount is the number of stills sampled from a video of length d.
func FrameCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return min(MaxFrames, int(d*SampleRate/time.Second))
}

// FrameTime is the source timestamp of sampled frame i.
func FrameTime(i int) time.Duration {
	return time.Duration(i) * time.Second / SampleRate
}

type Pipeline struct {
	Prober   video.Prober
	Grabber  video.Grabber
	Recorder video.Recorder
	Store    storage.Store
	Logger   *zap.Logger
}

// New returns a pipeline backed by ffmpeg. store may be nil.
func New(store storage.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	ff := &video.FFmpeg{}
	return &Pipeline{Prober: ff, Grabber: ff, Recorder: ff, Store: store, Logger: logger}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// LoadImage decodes an image (or the first page of a PDF) and downsamples
// it so the longer edge equals resolution.
func (p *Pipeline) LoadImage(ctx context.Context, path string, resolution int) (*pixel.Buffer, error) {
	return p.LoadPage(ctx, path, 0, resolution)
}

// LoadPage is LoadImage for a given page of a multi-page source.
func (p *Pipeline) LoadPage(ctx context.Context, path string, page, resolution int) (*pixel.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := source.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer src.Close()

	img, err := src.RenderPage(page, source.DefaultDPI)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	buf, err := pixel.FromImage(img, resolution)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	p.logger().Debug("image loaded",
		zap.String("path", path), zap.Int("width", buf.Width), zap.Int("height", buf.Height))
	return buf, nil
}

// Frames samples the video at SampleRate, up to MaxFrames stills. Frames
// are grabbed strictly one after another. The sequence stops at the first
// error, which is yielded with a nil buffer.
func (p *Pipeline) Frames(ctx context.Context, path string, resolution int) iter.Seq2[*pixel.Buffer, error] {
	return func(yield func(*pixel.Buffer, error) bool) {
		d, err := p.Prober.Duration(ctx, path)
		if err != nil {
			yield(nil, &DecodeError{Path: path, Err: err})
			return
		}
		n := FrameCount(d)
		p.logger().Debug("sampling video",
			zap.String("path", path), zap.Duration("duration", d), zap.Int("frames", n))

		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			data, err := p.Grabber.FrameAt(ctx, path, FrameTime(i))
			if err != nil {
				yield(nil, &DecodeError{Path: path, Err: fmt.Errorf("frame %d: %w", i, err)})
				return
			}
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				yield(nil, &DecodeError{Path: path, Err: fmt.Errorf("frame %d: %w", i, err)})
				return
			}
			buf, err := pixel.FromImage(img, resolution)
			if err != nil {
				yield(nil, &DecodeError{Path: path, Err: fmt.Errorf("frame %d: %w", i, err)})
				return
			}
			if !yield(buf, nil) {
				return
			}
		}
	}
}

// LoadVideo samples every frame and encodes each as PNG. The first frame
// becomes active. A video too short to yield a frame gives an empty set.
func (p *Pipeline) LoadVideo(ctx context.Context, path string, resolution int) (*FrameSet, error) {
	fs := &FrameSet{Path: path, Resolution: resolution, pipeline: p}
	for buf, err := range p.Frames(ctx, path, resolution) {
		if err != nil {
			return nil, err
		}
		data, err := buf.EncodePNG()
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		if fs.Active == nil {
			fs.Active = buf
		}
		fs.Frames = append(fs.Frames, data)
	}
	return fs, nil
}

// FrameSet holds the stills sampled from one video at one resolution.
type FrameSet struct {
	Path        string
	Resolution  int
	Frames      [][]byte // PNG
	ActiveIndex int
	Active      *pixel.Buffer

	pipeline *Pipeline
}

func (fs *FrameSet) Len() int { return len(fs.Frames) }

// Select makes frame i active. The stored still is decoded as is: the
// resolution stays the one the set was sampled at.
func (fs *FrameSet) Select(i int) (*pixel.Buffer, error) {
	if i < 0 || i >= len(fs.Frames) {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", i, len(fs.Frames))
	}
	buf, err := pixel.DecodePNG(fs.Frames[i])
	if err != nil {
		return nil, &DecodeError{Path: fs.Path, Err: err}
	}
	fs.ActiveIndex, fs.Active = i, buf
	return buf, nil
}

// Resample samples the source video again at a new resolution and keeps
// the active index when it still exists.
func (fs *FrameSet) Resample(ctx context.Context, resolution int) (*FrameSet, error) {
	if fs.pipeline == nil {
		return nil, errors.New("frame set has no pipeline")
	}
	next, err := fs.pipeline.LoadVideo(ctx, fs.Path, resolution)
	if err != nil {
		return nil, err
	}
	if fs.ActiveIndex > 0 && fs.ActiveIndex < next.Len() {
		if _, err := next.Select(fs.ActiveIndex); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// AudioClip is a recorded soundtrack.
type AudioClip struct {
	Data     []byte
	MIME     string
	Filename string
}

// DataURI encodes the clip the way it is persisted.
func (c *AudioClip) DataURI() string {
	return "data:" + c.MIME + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// ExtractAudio records up to video.MaxAudioCapture of the soundtrack. The
// clip is persisted under storage.KeyExtractedAudio, replacing any previous
// one; persistence failures are logged and do not fail the call.
func (p *Pipeline) ExtractAudio(ctx context.Context, path string) (*AudioClip, error) {
	data, err := p.Recorder.RecordAudio(ctx, path, video.MaxAudioCapture)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	base := filepath.Base(path)
	clip := &AudioClip{
		Data:     data,
		MIME:     video.AudioMIME,
		Filename: strings.TrimSuffix(base, filepath.Ext(base)) + "-audio.webm",
	}
	p.persist(clip)
	return clip, nil
}

func (p *Pipeline) persist(clip *AudioClip) {
	if p.Store == nil {
		return
	}
	if err := p.Store.Set(storage.KeyExtractedAudio, clip.DataURI()); err != nil {
		p.logger().Warn("persist extracted audio", zap.Int("bytes", len(clip.Data)), zap.Error(err))
		return
	}
	if err := p.Store.Set(storage.KeyAudioFilename, clip.Filename); err != nil {
		p.logger().Warn("persist audio filename", zap.Error(err))
	}
}
