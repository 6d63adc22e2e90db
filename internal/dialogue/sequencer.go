// Package dialogue plays the lines of a dialogue config one after another,
// through pre-recorded clips or speech synthesis.
package dialogue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/studio3d/internal/audio"
)

const (
	DefaultAdvancePause = 500 * time.Millisecond
	progressSteps       = 100
)

// Speaker synthesizes text and returns when speech has finished or ctx is
// cancelled.
type Speaker interface {
	Speak(ctx context.Context, text string, voice audio.VoiceSettings) error
}

// ClipPlayer plays a pre-recorded clip to its end.
type ClipPlayer interface {
	PlayClip(ctx context.Context, url string) error
}

// State is what a player UI shows. Progress is a percentage over the
// declared line duration and is not tied to the real audio length.
type State struct {
	Index    int
	Playing  bool
	Progress int
}

type Options struct {
	Speaker      Speaker
	Clips        ClipPlayer
	AdvancePause time.Duration
	// After schedules every wait of the sequencer; time.After when nil.
	After func(time.Duration) <-chan time.Time
	// OnChange receives every state change from the sequencer goroutine.
	// It must not call back into the Sequencer.
	OnChange func(State)
	Logger   *zap.Logger
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Sequencer is safe for concurrent use. At most one line plays at a time;
// stopping waits for the playing goroutine, so no callback fires after
// Pause, Update or Close has returned.
type Sequencer struct {
	opts Options

	mu     sync.Mutex
	cfg    audio.Dialogues
	state  State
	cur    *run
	closed bool
}

func New(cfg audio.Dialogues, opts Options) *Sequencer {
	if opts.AdvancePause <= 0 {
		opts.AdvancePause = DefaultAdvancePause
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Sequencer{opts: opts, cfg: cfg}
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the sequencer has anything to show: dialogues
// enabled with at least one line.
func (s *Sequencer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled && len(s.cfg.Lines) > 0
}

// Play starts the current line after its delay. It is a no-op while a
// line is already scheduled or playing.
func (s *Sequencer) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(false)
}

// Pause cancels the current line. The index is kept.
func (s *Sequencer) Pause() {
	s.stop()
	s.set(func(st *State) { st.Playing = false })
}

// Next skips to the following line, or wraps to the first and stops.
// With autoPlay the next line starts after the advance pause.
func (s *Sequencer) Next() {
	s.stop()
	s.mu.Lock()
	if len(s.cfg.Lines) == 0 || s.closed {
		s.mu.Unlock()
		return
	}
	resume := s.advanceLocked() && s.cfg.AutoPlay && s.cfg.Enabled
	st := s.state
	s.mu.Unlock()
	s.notify(st)

	if resume {
		s.mu.Lock()
		s.startLocked(true)
		s.mu.Unlock()
	}
}

// Update swaps in a new dialogue config. Disabling cancels playback;
// enabling with autoPlay starts it.
func (s *Sequencer) Update(cfg audio.Dialogues) {
	s.stop()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cfg = cfg
	if s.state.Index >= len(cfg.Lines) {
		s.state.Index = 0
	}
	s.state.Playing, s.state.Progress = false, 0
	st := s.state
	s.mu.Unlock()
	s.notify(st)

	if cfg.Enabled && cfg.AutoPlay {
		s.Play()
	}
}

// Close stops playback for good.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop()
}

// Wait blocks until the current playback run finishes on its own or is
// stopped.
func (s *Sequencer) Wait() {
	s.mu.Lock()
	r := s.cur
	s.mu.Unlock()
	if r != nil {
		<-r.done
	}
}

func (s *Sequencer) startLocked(pauseFirst bool) {
	if s.closed || s.cur != nil || !s.cfg.Enabled || len(s.cfg.Lines) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, done: make(chan struct{})}
	s.cur = r
	go s.loop(ctx, r, s.cfg, pauseFirst)
}

func (s *Sequencer) stop() {
	s.mu.Lock()
	r := s.cur
	s.cur = nil
	s.mu.Unlock()
	if r != nil {
		r.cancel()
		<-r.done
	}
}

// advanceLocked moves to the next line. It returns false when it wrapped
// back to the first line.
func (s *Sequencer) advanceLocked() bool {
	s.state.Progress = 0
	if s.state.Index < len(s.cfg.Lines)-1 {
		s.state.Index++
		return true
	}
	s.state.Index = 0
	s.state.Playing = false
	return false
}

func (s *Sequencer) loop(ctx context.Context, r *run, cfg audio.Dialogues, pauseFirst bool) {
	defer func() {
		s.mu.Lock()
		if s.cur == r {
			s.cur = nil
		}
		s.mu.Unlock()
		r.cancel()
		close(r.done)
	}()

	if pauseFirst && !s.wait(ctx, s.opts.AdvancePause) {
		return
	}
	for {
		idx := s.State().Index
		if idx >= len(cfg.Lines) {
			return
		}
		if !s.playLine(ctx, cfg.Lines[idx], cfg.Voice()) {
			return
		}

		more := false
		if !s.setCtx(ctx, func(st *State) {
			st.Playing = false
			more = st.Index < len(cfg.Lines)-1
			st.Progress = 0
			if more {
				st.Index++
			} else {
				st.Index = 0
			}
		}) {
			return
		}
		if !more || !cfg.AutoPlay {
			return
		}
		if !s.wait(ctx, s.opts.AdvancePause) {
			return
		}
	}
}

// playLine waits for the line delay, plays it and reports whether it ran
// to completion.
func (s *Sequencer) playLine(ctx context.Context, line audio.DialogueLine, voice audio.VoiceSettings) bool {
	if !s.wait(ctx, seconds(line.EffectiveDelay())) {
		return false
	}
	if !s.setCtx(ctx, func(st *State) { st.Playing, st.Progress = true, 0 }) {
		return false
	}

	lineCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.progress(lineCtx, seconds(line.EffectiveDuration()))
	}()

	var err error
	if line.AudioURL != "" {
		err = s.playClip(ctx, line.AudioURL)
	} else {
		err = s.speak(ctx, line.Text, voice)
	}
	cancel()
	wg.Wait()

	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		s.opts.Logger.Warn("dialogue line failed", zap.String("line", line.ID), zap.Error(err))
	}
	return s.setCtx(ctx, func(st *State) { st.Progress = 100 })
}

func (s *Sequencer) progress(ctx context.Context, total time.Duration) {
	step := total / progressSteps
	for i := 1; i <= progressSteps; i++ {
		if !s.wait(ctx, step) {
			return
		}
		if !s.setCtx(ctx, func(st *State) { st.Progress = i }) {
			return
		}
	}
}

func (s *Sequencer) speak(ctx context.Context, text string, voice audio.VoiceSettings) error {
	if s.opts.Speaker == nil {
		return nil
	}
	return s.opts.Speaker.Speak(ctx, text, voice)
}

func (s *Sequencer) playClip(ctx context.Context, url string) error {
	if s.opts.Clips == nil {
		return nil
	}
	return s.opts.Clips.PlayClip(ctx, url)
}

func (s *Sequencer) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.opts.After(d):
		return true
	}
}

// setCtx applies fn unless ctx has been cancelled, then notifies.
func (s *Sequencer) setCtx(ctx context.Context, fn func(*State)) bool {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	st := s.state
	s.mu.Unlock()
	s.notify(st)
	return true
}

func (s *Sequencer) set(fn func(*State)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fn(&s.state)
	st := s.state
	s.mu.Unlock()
	s.notify(st)
}

func (s *Sequencer) notify(st State) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(st)
	}
}

func seconds(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
