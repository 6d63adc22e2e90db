// Package video wraps the ffmpeg tools used to sample stills and capture
// the soundtrack of a video file.
package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MaxAudioCapture caps how much of a soundtrack is recorded.
const MaxAudioCapture = 30 * time.Second

// AudioMIME is the container/codec pair produced by the recorder.
const AudioMIME = "audio/webm"

type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Grabber returns the still at time t encoded as PNG.
type Grabber interface {
	FrameAt(ctx context.Context, path string, t time.Duration) ([]byte, error)
}

// Recorder captures the audio track of path, stopping at the end of the
// source or at limit, whichever comes first.
type Recorder interface {
	RecordAudio(ctx context.Context, path string, limit time.Duration) ([]byte, error)
}

// FFmpeg implements Prober, Grabber and Recorder with the ffmpeg and
// ffprobe binaries found on PATH.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
}

func (f *FFmpeg) ffmpeg() string {
	if f.FFmpegPath != "" {
		return f.FFmpegPath
	}
	return "ffmpeg"
}

func (f *FFmpeg) ffprobe() string {
	if f.FFprobePath != "" {
		return f.FFprobePath
	}
	return "ffprobe"
}

func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %w", err)
	}
	return ParseDuration(string(out))
}

// ParseDuration reads the seconds value printed by ffprobe.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("no duration reported")
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", s, err)
	}
	if sec < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (f *FFmpeg) FrameAt(ctx context.Context, path string, t time.Duration) ([]byte, error) {
	// -ss перед -i: быстрый поиск по ключевым кадрам с точной дорезкой
	cmd := exec.CommandContext(ctx, f.ffmpeg(),
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", t.Seconds()),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg frame error: %v, output: %s", err, stderr.String())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg returned no frame at %s", t)
	}
	return out, nil
}

func (f *FFmpeg) RecordAudio(ctx context.Context, path string, limit time.Duration) ([]byte, error) {
	if limit <= 0 || limit > MaxAudioCapture {
		limit = MaxAudioCapture
	}
	cmd := exec.CommandContext(ctx, f.ffmpeg(),
		"-v", "error",
		"-i", path,
		"-vn",
		"-t", fmt.Sprintf("%.3f", limit.Seconds()),
		"-c:a", "libopus",
		"-f", "webm",
		"-",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	stop := StopOnce(stdin)
	// -t ограничивает сам ffmpeg, таймер страхует на случай зависшего входа
	timer := time.AfterFunc(limit+2*time.Second, stop)
	err = cmd.Wait()
	timer.Stop()
	stop()

	if err != nil {
		return nil, fmt.Errorf("ffmpeg audio error: %v, output: %s", err, stderr.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("no audio track in %s", path)
	}
	return out.Bytes(), nil
}

// StopOnce returns a function that asks ffmpeg to finish gracefully by
// sending "q" on its stdin and closing it. Calls after the first are
// no-ops, so the end of input and the time ceiling can race safely.
func StopOnce(stdin io.WriteCloser) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			io.WriteString(stdin, "q")
			stdin.Close()
		})
	}
}
