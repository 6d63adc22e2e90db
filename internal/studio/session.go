package studio

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/studio3d/internal/audio"
	"github.com/ivlev/studio3d/internal/scene"
	"github.com/ivlev/studio3d/internal/storage"
)

// Session owns the active configuration. Readers always receive clones;
// every accepted change replaces a whole subtree, is persisted and is
// broadcast to subscribers.
type Session struct {
	// commitMu orders commits so the stored document is always the
	// latest accepted one.
	commitMu sync.Mutex
	mu       sync.RWMutex
	cfg      UnifiedConfig
	store    storage.Store
	logger   *zap.Logger

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(UnifiedConfig)
}

// Open rehydrates the last saved configuration from store. A missing,
// unreadable or invalid document silently yields Default().
func Open(store storage.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{cfg: Default(), store: store, logger: logger, subs: make(map[int]func(UnifiedConfig))}
	if store == nil {
		return s
	}

	raw, err := store.Get(storage.KeyConfig)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		logger.Debug("saved config unreadable", zap.Error(err))
	default:
		if cfg, err := Parse([]byte(raw)); err == nil {
			s.cfg = cfg
		} else {
			logger.Debug("saved config ignored", zap.Error(err))
		}
	}
	return s
}

// Config returns a snapshot of the active configuration.
func (s *Session) Config() UnifiedConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

func (s *Session) Replace(c UnifiedConfig) error {
	if err := c.Validate(); err != nil {
		return &ConfigParseError{Scope: "unified", Err: err}
	}
	s.commit(func(cur *UnifiedConfig) { *cur = c.Clone() })
	return nil
}

func (s *Session) ReplaceScene(c scene.Config) error {
	if err := c.Validate(); err != nil {
		return &ConfigParseError{Scope: "scene", Err: err}
	}
	s.commit(func(cur *UnifiedConfig) { cur.Scene = c.Clone() })
	return nil
}

func (s *Session) ReplaceAudio(c audio.Config) error {
	if err := c.Validate(); err != nil {
		return &ConfigParseError{Scope: "audio", Err: err}
	}
	s.commit(func(cur *UnifiedConfig) { cur.Audio = c.Clone() })
	return nil
}

// ApplyJSON replaces the whole configuration with the document in data.
// On error the active configuration is unchanged.
func (s *Session) ApplyJSON(data []byte) error {
	c, err := Parse(data)
	if err != nil {
		return err
	}
	s.commit(func(cur *UnifiedConfig) { *cur = c })
	return nil
}

func (s *Session) ApplySceneJSON(data []byte) error {
	c, err := ParseScene(data)
	if err != nil {
		return err
	}
	s.commit(func(cur *UnifiedConfig) { cur.Scene = c })
	return nil
}

func (s *Session) ApplyAudioJSON(data []byte) error {
	c, err := ParseAudio(data)
	if err != nil {
		return err
	}
	s.commit(func(cur *UnifiedConfig) { cur.Audio = c })
	return nil
}

// ApplyPreset looks the name up among unified presets first, then scene,
// music and dialogue presets, and replaces the matching subtree.
func (s *Session) ApplyPreset(name string) error {
	if c, err := Preset(name); err == nil {
		s.commit(func(cur *UnifiedConfig) { *cur = c })
		return nil
	}
	if c, err := scene.Preset(name); err == nil {
		s.commit(func(cur *UnifiedConfig) { cur.Scene = c })
		return nil
	}
	cur := s.Config()
	if a, err := cur.Audio.WithMusicPreset(name); err == nil {
		s.commit(func(cur *UnifiedConfig) { cur.Audio.Music = a.Music })
		return nil
	}
	a, err := cur.Audio.WithDialoguePreset(name)
	if err != nil {
		return &ConfigParseError{Scope: "preset", Err: err}
	}
	s.commit(func(cur *UnifiedConfig) { cur.Audio.Dialogues = a.Dialogues })
	return nil
}

func (s *Session) Reset() {
	s.commit(func(cur *UnifiedConfig) { *cur = Default() })
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unregisters it.
func (s *Session) Subscribe(fn func(UnifiedConfig)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) commit(mutate func(*UnifiedConfig)) {
	s.commitMu.Lock()
	s.mu.Lock()
	mutate(&s.cfg)
	snapshot := s.cfg.Clone()
	s.mu.Unlock()
	s.persist(snapshot)
	s.commitMu.Unlock()

	s.subMu.Lock()
	fns := make([]func(UnifiedConfig), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snapshot.Clone())
	}
}

func (s *Session) persist(c UnifiedConfig) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(c)
	if err != nil {
		s.logger.Warn("encode config", zap.Error(err))
		return
	}
	if err := s.store.Set(storage.KeyConfig, string(data)); err != nil {
		s.logger.Warn("persist config", zap.String("key", storage.KeyConfig), zap.Error(err))
	}
}
