package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/studio3d/internal/analyzer"
	"github.com/ivlev/studio3d/internal/ingest"
	"github.com/ivlev/studio3d/internal/logging"
	"github.com/ivlev/studio3d/internal/mesh"
	"github.com/ivlev/studio3d/internal/pixel"
	"github.com/ivlev/studio3d/internal/scene"
	"github.com/ivlev/studio3d/internal/studio"
	"github.com/ivlev/studio3d/internal/vision"
)

var ErrNoImage = errors.New("no image loaded")

// ImageAnalyzer is the part of the vision client the project uses.
type ImageAnalyzer interface {
	AnalyzeBuffer(ctx context.Context, buf *pixel.Buffer, model string) vision.Result
}

// Project owns the displayed image: the active pixel buffer, the frames of
// the loaded video and the mesh built from them. Loads replace that state
// as a whole and only when they succeed.
type Project struct {
	Pipeline *ingest.Pipeline
	Session  *studio.Session
	Vision   ImageAnalyzer // nil disables analysis
	Model    string
	Remover  analyzer.Remover
	Logger   *zap.Logger

	mu         sync.Mutex
	buffer     *pixel.Buffer
	frames     *ingest.FrameSet
	source     string
	depth      float64 // UI units
	resolution int
	analysis   *vision.Result
	cache      *mesh.Cache

	// set once detached; the session is then neither read nor written
	// for scene state
	sceneOverride *scene.Config
}

// NewProject creates a project with the given depth (UI units) and
// sampling resolution.
func NewProject(p *ingest.Pipeline, session *studio.Session, depth float64, resolution int, logger *zap.Logger) *Project {
	logger = logging.Or(logger)
	return &Project{
		Pipeline:   p,
		Session:    session,
		Logger:     logger,
		depth:      depth,
		resolution: resolution,
		cache:      mesh.NewCache(),
	}
}

func (p *Project) LoadImage(ctx context.Context, path string) error {
	p.mu.Lock()
	res := p.resolution
	p.mu.Unlock()

	buf, err := p.Pipeline.LoadImage(ctx, path, res)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.buffer, p.frames, p.source, p.analysis = buf, nil, path, nil
	p.mu.Unlock()
	return nil
}

// LoadPage loads one page of a multi-page document.
func (p *Project) LoadPage(ctx context.Context, path string, page int) error {
	p.mu.Lock()
	res := p.resolution
	p.mu.Unlock()

	buf, err := p.Pipeline.LoadPage(ctx, path, page, res)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.buffer, p.frames, p.source, p.analysis = buf, nil, path, nil
	p.mu.Unlock()
	return nil
}

// LoadVideo samples the video and activates its first frame. A video too
// short to sample reports 0 frames and leaves the project as it was.
func (p *Project) LoadVideo(ctx context.Context, path string) (int, error) {
	p.mu.Lock()
	res := p.resolution
	p.mu.Unlock()

	fs, err := p.Pipeline.LoadVideo(ctx, path, res)
	if err != nil {
		return 0, err
	}

	if fs.Len() == 0 {
		p.Logger.Debug("video too short, keeping current image", zap.String("path", path))
		return 0, nil
	}

	p.mu.Lock()
	p.buffer, p.frames, p.source, p.analysis = fs.Active, fs, path, nil
	p.mu.Unlock()
	p.Logger.Debug("video loaded", zap.String("path", path), zap.Int("frames", fs.Len()))
	return fs.Len(), nil
}

// SelectFrame activates frame i of the loaded video without resampling.
func (p *Project) SelectFrame(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames == nil {
		return errors.New("no video loaded")
	}
	buf, err := p.frames.Select(i)
	if err != nil {
		return err
	}
	p.buffer, p.analysis = buf, nil
	return nil
}

// Resample samples the loaded video again at the current resolution.
func (p *Project) Resample(ctx context.Context) error {
	p.mu.Lock()
	fs, res := p.frames, p.resolution
	p.mu.Unlock()
	if fs == nil {
		return errors.New("no video loaded")
	}

	next, err := fs.Resample(ctx, res)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.frames, p.buffer, p.analysis = next, next.Active, nil
	p.mu.Unlock()
	return nil
}

// SetDepth changes the displacement in UI units (0..100).
func (p *Project) SetDepth(depth float64) error {
	if depth < 0 || depth > 100 {
		return fmt.Errorf("depth %g out of [0,100]", depth)
	}
	p.mu.Lock()
	p.depth = depth
	p.mu.Unlock()
	return nil
}

func (p *Project) Depth() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth
}

// SetResolution applies to images and videos loaded afterwards. Frames of
// an already sampled video keep their resolution until Resample.
func (p *Project) SetResolution(res int) error {
	if res < 2 {
		return fmt.Errorf("resolution %d too small", res)
	}
	p.mu.Lock()
	p.resolution = res
	p.mu.Unlock()
	return nil
}

func (p *Project) Buffer() *pixel.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer
}

func (p *Project) Frames() *ingest.FrameSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Mesh returns the heightmap of the active buffer at the current depth.
func (p *Project) Mesh() (*mesh.Mesh, error) {
	p.mu.Lock()
	buf, depth := p.buffer, p.depth
	p.mu.Unlock()
	if buf == nil {
		return nil, ErrNoImage
	}
	return p.cache.Get(buf, depth/100)
}

// Detach snapshots the session scene into the project. Afterwards scene
// changes such as AutoTune stay local to the project.
func (p *Project) Detach() {
	sc := studio.Default().Scene
	if p.Session != nil {
		sc = p.Session.Config().Scene
	}
	p.mu.Lock()
	p.sceneOverride = &sc
	p.mu.Unlock()
}

// Scene returns the scene the project exports with.
func (p *Project) Scene() scene.Config {
	p.mu.Lock()
	local := p.sceneOverride
	p.mu.Unlock()
	switch {
	case local != nil:
		return local.Clone()
	case p.Session != nil:
		return p.Session.Config().Scene
	}
	return studio.Default().Scene
}

func (p *Project) setScene(c scene.Config) error {
	if err := c.Validate(); err != nil {
		return &studio.ConfigParseError{Scope: "scene", Err: err}
	}
	p.mu.Lock()
	detached := p.sceneOverride != nil
	if detached {
		p.sceneOverride = &c
	}
	p.mu.Unlock()
	if detached || p.Session == nil {
		return nil
	}
	return p.Session.ReplaceScene(c)
}

// MeshBuilds reports how many meshes were generated so far.
func (p *Project) MeshBuilds() int {
	return p.cache.Builds()
}

// Analyze runs image analysis on the active buffer, once per buffer.
func (p *Project) Analyze(ctx context.Context) (vision.Result, error) {
	p.mu.Lock()
	buf, cached := p.buffer, p.analysis
	p.mu.Unlock()
	if buf == nil {
		return vision.Result{}, ErrNoImage
	}
	if cached != nil {
		return *cached, nil
	}

	r := vision.Fallback()
	if p.Vision != nil {
		r = p.Vision.AnalyzeBuffer(ctx, buf, p.Model)
	}

	p.mu.Lock()
	if p.buffer == buf {
		p.analysis = &r
	}
	p.mu.Unlock()
	return r, nil
}

// AutoTune applies the analysis suggestion to the scene and the depth.
func (p *Project) AutoTune(ctx context.Context) (vision.Suggestion, error) {
	r, err := p.Analyze(ctx)
	if err != nil {
		return vision.Suggestion{}, err
	}
	s := vision.Suggest(r)
	if err := p.setScene(s.Apply(p.Scene())); err != nil {
		return vision.Suggestion{}, err
	}
	if err := p.SetDepth(s.Depth); err != nil {
		return vision.Suggestion{}, err
	}
	return s, nil
}

// RemoveBackground replaces the active buffer with a copy whose background
// is transparent. Sampled video frames are left as they were.
func (p *Project) RemoveBackground(ctx context.Context) error {
	r, err := p.Analyze(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	buf := p.buffer
	p.mu.Unlock()

	out, err := vision.RemoveBackground(buf, r, p.Remover)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.buffer == buf {
		p.buffer = out
		if out != buf {
			p.analysis = &r
		}
	}
	p.mu.Unlock()
	return nil
}

// ExtractAudio records the soundtrack of the loaded video. Frames are not
// affected by a failure.
func (p *Project) ExtractAudio(ctx context.Context) (*ingest.AudioClip, error) {
	p.mu.Lock()
	fs := p.frames
	p.mu.Unlock()
	if fs == nil {
		return nil, errors.New("no video loaded")
	}
	return p.Pipeline.ExtractAudio(ctx, fs.Path)
}

// Export writes the current mesh as GLB, textured with the active buffer
// and shaded with the project material.
func (p *Project) Export(path string) error {
	m, err := p.Mesh()
	if err != nil {
		return err
	}
	return mesh.WriteGLB(m, p.Scene().Material, p.Buffer(), path)
}
