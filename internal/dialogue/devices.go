package dialogue

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/ivlev/studio3d/internal/audio"
)

// ExecSpeaker speaks through espeak-ng. A voice that espeak-ng does not
// know is dropped so the default voice is used instead.
type ExecSpeaker struct {
	Binary string

	once   sync.Once
	voices map[string]bool
}

func (s *ExecSpeaker) binary() string {
	if s.Binary != "" {
		return s.Binary
	}
	return "espeak-ng"
}

func (s *ExecSpeaker) Speak(ctx context.Context, text string, v audio.VoiceSettings) error {
	args := SpeakArgs(text, v, s.knownVoice(ctx, v.Voice))
	cmd := exec.CommandContext(ctx, s.binary(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("espeak error: %v, output: %s", err, string(out))
	}
	return nil
}

func (s *ExecSpeaker) knownVoice(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	s.once.Do(func() {
		out, err := exec.CommandContext(ctx, s.binary(), "--voices").Output()
		if err == nil {
			s.voices = ParseVoices(out)
		}
	})
	return s.voices[strings.ToLower(name)]
}

// SpeakArgs maps voice settings onto espeak-ng flags: pitch 1.0 is 50,
// rate 1.0 is 175 words per minute, volume 1.0 is amplitude 100.
func SpeakArgs(text string, v audio.VoiceSettings, useVoice bool) []string {
	pitch := clamp(int(v.Pitch*50), 0, 99)
	speed := clamp(int(v.Rate*175), 80, 450)
	amp := clamp(int(v.Volume*100), 0, 200)

	args := []string{
		"-p", strconv.Itoa(pitch),
		"-s", strconv.Itoa(speed),
		"-a", strconv.Itoa(amp),
	}
	if useVoice {
		args = append(args, "-v", v.Voice)
	}
	return append(args, "--", text)
}

// ParseVoices reads the table printed by `espeak-ng --voices`. Both the
// language and the voice name columns are accepted, lower-cased.
func ParseVoices(out []byte) map[string]bool {
	voices := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		f := strings.Fields(sc.Text())
		if len(f) < 4 {
			continue
		}
		voices[strings.ToLower(f[1])] = true
		voices[strings.ToLower(f[3])] = true
	}
	return voices
}

// ExecClipPlayer plays clips with ffplay, without a window.
type ExecClipPlayer struct {
	Binary string
	Volume float64 // 0..1, 0 means full volume
}

func (p *ExecClipPlayer) PlayClip(ctx context.Context, url string) error {
	bin := p.Binary
	if bin == "" {
		bin = "ffplay"
	}
	args := ClipArgs(url, p.Volume)
	if out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("ffplay error: %v, output: %s", err, string(out))
	}
	return nil
}

// ClipArgs builds the ffplay command line. volume is 0..1; 0 leaves
// ffplay at full volume.
func ClipArgs(url string, volume float64) []string {
	args := []string{"-nodisp", "-autoexit", "-loglevel", "error"}
	if volume > 0 {
		args = append(args, "-volume", strconv.Itoa(clamp(int(volume*100), 0, 100)))
	}
	return append(args, url)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
