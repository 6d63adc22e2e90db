package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/studio3d/internal/analyzer"
	"github.com/ivlev/studio3d/internal/config"
	"github.com/ivlev/studio3d/internal/source"
	"github.com/ivlev/studio3d/internal/system"
)

// BenchmarkLog collects one line per run when stats are enabled.
var BenchmarkLog = "benchmark.log"

// Report holds the timings of one Run.
type Report struct {
	Input  string
	Frames int
	Load   time.Duration
	Tune   time.Duration
	Build  time.Duration
	Export time.Duration
	Total  time.Duration
}

// OutputPath derives the GLB path for input when none is configured.
func OutputPath(input, configured string) string {
	if configured != "" {
		return configured
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join("output", base+".glb")
}

// Run loads cfg.InputPath, applies the configured adjustments and writes
// the mesh as GLB.
func (p *Project) Run(ctx context.Context, cfg config.Config) (Report, error) {
	start := time.Now()
	rep := Report{Input: cfg.InputPath}

	if err := p.SetResolution(cfg.Resolution); err != nil {
		return rep, err
	}
	if err := p.SetDepth(cfg.Depth); err != nil {
		return rep, err
	}

	switch {
	case system.IsVideo(cfg.InputPath):
		n, err := p.LoadVideo(ctx, cfg.InputPath)
		if err != nil {
			return rep, err
		}
		rep.Frames = n
		fmt.Printf("[*] Видео: %s | Кадров: %d\n", cfg.InputPath, n)
		if n == 0 {
			return rep, errors.New("видео слишком короткое: нет ни одного кадра")
		}
		if cfg.Frame > 0 {
			if err := p.SelectFrame(cfg.Frame); err != nil {
				return rep, err
			}
		}
		if cfg.ExtractAudio {
			if clip, err := p.ExtractAudio(ctx); err != nil {
				log.Printf("[!] Не удалось извлечь аудио: %v", err)
			} else {
				fmt.Printf("[*] Аудио извлечено: %s (%d байт)\n", clip.Filename, len(clip.Data))
			}
		}
	case strings.EqualFold(filepath.Ext(cfg.InputPath), ".pdf"):
		if err := p.LoadPage(ctx, cfg.InputPath, cfg.Page); err != nil {
			return rep, err
		}
		rep.Frames = 1
	default:
		if err := p.LoadImage(ctx, cfg.InputPath); err != nil {
			return rep, err
		}
		rep.Frames = 1
	}
	buf := p.Buffer()
	fmt.Printf("[*] Разрешение сетки: %dx%d | Глубина: %.0f\n", buf.Width, buf.Height, p.Depth())
	rep.Load = time.Since(start)

	tuneStart := time.Now()
	if cfg.AutoTune {
		s, err := p.AutoTune(ctx)
		if err != nil {
			return rep, err
		}
		fmt.Printf("[*] Автонастройка: глубина %.0f, освещение %s\n", s.Depth, s.Lighting)
	}
	if cfg.Background != "" {
		r, err := analyzer.NewRemover(cfg.Background)
		if err != nil {
			return rep, err
		}
		p.Remover = r
		if err := p.RemoveBackground(ctx); err != nil {
			return rep, err
		}
	}
	rep.Tune = time.Since(tuneStart)

	buildStart := time.Now()
	m, err := p.Mesh()
	if err != nil {
		return rep, err
	}
	rep.Build = time.Since(buildStart)
	p.Logger.Debug("mesh built",
		zap.Int("vertices", len(m.Positions)), zap.Int("indices", len(m.Indices)))

	exportStart := time.Now()
	out := OutputPath(cfg.InputPath, cfg.OutputPath)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return rep, err
	}
	if err := p.Export(out); err != nil {
		return rep, fmt.Errorf("ошибка экспорта GLB: %w", err)
	}
	rep.Export = time.Since(exportStart)
	rep.Total = time.Since(start)

	if cfg.ShowStats {
		printReport(cfg.BuildVersion, rep)
	}
	return rep, nil
}

func printReport(build string, rep Report) {
	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Loading: %.2fs\n"+
			"Analysis: %.2fs\n"+
			"Mesh: %.3fs\n"+
			"Export: %.3fs\n"+
			"%s\n"+
			"----------------------------\n",
		build, rep.Total.Seconds(), rep.Load.Seconds(), rep.Tune.Seconds(),
		rep.Build.Seconds(), rep.Export.Seconds(), system.MemoryReport(),
	)

	entry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | Mesh: %.3fs | Export: %.3fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(rep.Input),
		rep.Frames,
		rep.Total.Seconds(),
		rep.Build.Seconds(),
		rep.Export.Seconds(),
	)
	f, err := os.OpenFile(BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Printf("[!] Не удалось записать %s: %v\n", BenchmarkLog, err)
		return
	}
	defer f.Close()
	f.WriteString(entry)
}

// ProjectFactory returns a fresh project for one batch item.
type ProjectFactory func() *Project

// RunBatch converts every image of a folder into a GLB file under outDir,
// cfg.Workers at a time. It returns the written paths in folder order.
// Items are detached: their tuning never reaches the shared session.
func RunBatch(ctx context.Context, cfg config.Config, dir, outDir string, newProject ProjectFactory) ([]string, error) {
	src, err := source.NewImageSource(dir)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	total := src.PageCount()
	results := make([]string, total)
	var ready atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range total {
		in := src.Path(i)
		g.Go(func() error {
			item := cfg
			item.InputPath = in
			item.OutputPath = filepath.Join(outDir, filepath.Base(OutputPath(in, "")))
			item.ShowStats = false

			proj := newProject()
			proj.Detach()
			if _, err := proj.Run(ctx, item); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(in), err)
			}
			results[i] = item.OutputPath
			fmt.Printf("[>] Ready: %d/%d\n", ready.Add(1), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
