package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ivlev/studio3d/internal/audio"
	"github.com/ivlev/studio3d/internal/config"
	"github.com/ivlev/studio3d/internal/dialogue"
	"github.com/ivlev/studio3d/internal/engine"
	"github.com/ivlev/studio3d/internal/ingest"
	"github.com/ivlev/studio3d/internal/logging"
	"github.com/ivlev/studio3d/internal/scene"
	"github.com/ivlev/studio3d/internal/share"
	"github.com/ivlev/studio3d/internal/storage"
	"github.com/ivlev/studio3d/internal/studio"
	"github.com/ivlev/studio3d/internal/system"
	"github.com/ivlev/studio3d/internal/vision"
)

var buildVersion = "dev"

const usage = `studio3d <команда> [флаги]

Команды:
  mesh      изображение или PDF -> GLB
  video     кадр видео -> GLB (+ аудио)
  batch     папка изображений -> GLB
  analyze   анализ изображения через Ollama
  config    показать, сбросить или изменить конфигурацию сцены
  dialogue  воспроизвести диалоги
  share     QR-код с конфигурацией
`

// app is what every command works with once flags and the config file
// are resolved.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   storage.Store
	session *studio.Session
}

type commonFlags struct {
	configPath *string
	flags      config.Flags
}

func bindCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	c.configPath = fs.String("config", "", "YAML-файл с настройками")
	fs.StringVar(&c.flags.StateDir, "state-dir", "", "Папка состояния (по умолчанию .studio3d)")
	fs.StringVar(&c.flags.Storage, "storage", "", "Хранилище: file, sqlite, memory")
	fs.BoolVar(&c.flags.Debug, "debug", false, "Подробные логи")
	fs.BoolVar(&c.flags.ShowStats, "stats", false, "Показать отчет производительности")
	return c
}

func bindMesh(fs *flag.FlagSet, f *config.Flags) {
	fs.StringVar(&f.Output, "output", "", "Путь к GLB (по умолчанию output/<имя>.glb)")
	fs.Func("depth", "Глубина рельефа 0..100 (по умолчанию 30)", func(v string) error {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		f.Depth = &d
		return nil
	})
	fs.IntVar(&f.Resolution, "resolution", 0, "Разрешение сетки по длинной стороне (по умолчанию 50)")
	fs.StringVar(&f.Preset, "preset", "", "Пресет: cinematic, natural, neon, vitigni")
	fs.StringVar(&f.VisionURL, "vision-url", "", "Адрес Ollama")
	fs.StringVar(&f.VisionModel, "vision-model", "", "Модель анализа изображений")
	fs.BoolVar(&f.AutoTune, "auto", false, "Автонастройка сцены по анализу изображения")
	fs.StringVar(&f.Background, "background", "", "Удаление фона: corner, edge")
}

func (c *commonFlags) open() *app {
	var cfg config.Config
	if *c.configPath != "" {
		loaded, err := config.Load(*c.configPath)
		if err != nil {
			log.Fatalf("[-] %v", err)
		}
		cfg = loaded
	}
	cfg.Resolve(c.flags)
	cfg.BuildVersion = buildVersion
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Некорректная конфигурация: %v", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("[-] Логгер: %v", err)
	}
	store, err := storage.Open(cfg.Storage, cfg.StateDir)
	if err != nil {
		log.Fatalf("[-] Хранилище: %v", err)
	}
	session := studio.Open(store, logger)
	if cfg.Preset != "" {
		if err := session.ApplyPreset(cfg.Preset); err != nil {
			log.Fatalf("[-] %v", err)
		}
		fmt.Printf("[*] Применен пресет: %s\n", cfg.Preset)
	}
	return &app{cfg: cfg, logger: logger, store: store, session: session}
}

func (a *app) close() {
	a.logger.Sync()
	if c, ok := a.store.(interface{ Close() error }); ok {
		c.Close()
	}
}

func (a *app) project() *engine.Project {
	p := engine.NewProject(ingest.New(a.store, a.logger), a.session, a.cfg.Depth, a.cfg.Resolution, a.logger)
	if a.cfg.AutoTune || a.cfg.Background != "" {
		p.Vision = vision.NewClient(a.cfg.VisionURL, a.logger)
		p.Model = a.cfg.VisionModel
	}
	return p
}

func main() {
	system.InitResourceLimits()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "mesh":
		runMesh(ctx, args)
	case "video":
		runVideo(ctx, args)
	case "batch":
		runBatch(ctx, args)
	case "analyze":
		runAnalyze(ctx, args)
	case "config":
		runConfig(args)
	case "dialogue":
		runDialogue(ctx, args)
	case "share":
		runShare(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Print(usage)
		log.Fatalf("[-] Неизвестная команда: %s", cmd)
	}
}

func runMesh(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	common := bindCommon(fs)
	bindMesh(fs, &common.flags)
	fs.StringVar(&common.flags.Input, "input", "", "Изображение или PDF (по умолчанию: самый свежий файл в input/images/)")
	fs.IntVar(&common.flags.Page, "page", 0, "Страница PDF (с нуля)")
	fs.Parse(args)

	a := common.open()
	defer a.close()

	if a.cfg.InputPath == "" {
		latest, err := system.FindLatestMedia("input/images", system.ImageExts)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите изображение в input/images/", err)
		}
		a.cfg.InputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", latest)
	}

	if _, err := a.project().Run(ctx, a.cfg); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", engine.OutputPath(a.cfg.InputPath, a.cfg.OutputPath))
}

func runVideo(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("video", flag.ExitOnError)
	common := bindCommon(fs)
	bindMesh(fs, &common.flags)
	fs.StringVar(&common.flags.Input, "input", "", "Видео (по умолчанию: самый свежий файл в input/video/)")
	fs.IntVar(&common.flags.Frame, "frame", 0, "Номер кадра (10 кадров в секунду, не больше 30)")
	fs.BoolVar(&common.flags.ExtractAudio, "audio", false, "Извлечь звуковую дорожку (до 30 секунд)")
	fs.Parse(args)

	a := common.open()
	defer a.close()

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if err := system.CheckTool(tool); err != nil {
			log.Fatalf("[-] %v", err)
		}
	}
	if a.cfg.InputPath == "" {
		latest, err := system.FindLatestMedia("input/video", system.VideoExts)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите видео в input/video/", err)
		}
		a.cfg.InputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", latest)
	}
	if !system.IsVideo(a.cfg.InputPath) {
		log.Fatalf("[-] Не видеофайл: %s", a.cfg.InputPath)
	}

	if _, err := a.project().Run(ctx, a.cfg); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", engine.OutputPath(a.cfg.InputPath, a.cfg.OutputPath))
}

func runBatch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	common := bindCommon(fs)
	bindMesh(fs, &common.flags)
	fs.StringVar(&common.flags.Input, "input", "input/images", "Папка с изображениями")
	fs.IntVar(&common.flags.Workers, "workers", runtime.NumCPU(), "Потоки")
	fs.Parse(args)

	a := common.open()
	defer a.close()

	outDir := a.cfg.OutputPath
	if outDir == "" {
		outDir = "output"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("[-] %v", err)
	}
	a.cfg.OutputPath = ""

	fmt.Printf("[*] Папка: %s | Потоки: %d\n", a.cfg.InputPath, a.cfg.Workers)
	paths, err := engine.RunBatch(ctx, a.cfg, a.cfg.InputPath, outDir, a.project)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
	fmt.Printf("[+++] Успех! Создано файлов: %d в %s\n", len(paths), outDir)
}

func runAnalyze(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	common := bindCommon(fs)
	fs.StringVar(&common.flags.Input, "input", "", "Изображение")
	fs.StringVar(&common.flags.VisionURL, "vision-url", "", "Адрес Ollama")
	fs.StringVar(&common.flags.VisionModel, "vision-model", "", "Модель анализа изображений")
	textModel := fs.String("text-model", "", "Модель для подбора музыки")
	music := fs.Bool("music", false, "Подобрать музыку по настроению и сохранить в конфигурацию")
	apply := fs.Bool("apply", false, "Применить рекомендации к сцене")
	fs.Parse(args)

	a := common.open()
	defer a.close()
	if *textModel != "" {
		a.cfg.TextModel = *textModel
	}

	client := vision.NewClient(a.cfg.VisionURL, a.logger)
	if !client.CheckAvailability(ctx) {
		fmt.Printf("[!] Ollama недоступна по адресу %s, используются значения по умолчанию\n", a.cfg.VisionURL)
	} else if models := client.ListModels(ctx); len(models) > 0 {
		fmt.Printf("[*] Модели: %s\n", strings.Join(models, ", "))
	}

	if a.cfg.InputPath != "" {
		p := a.project()
		p.Vision, p.Model = client, a.cfg.VisionModel
		if err := p.LoadImage(ctx, a.cfg.InputPath); err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		r, err := p.Analyze(ctx)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		printJSON(r)
		if *apply {
			s, err := p.AutoTune(ctx)
			if err != nil {
				log.Fatalf("[-] Ошибка: %v", err)
			}
			fmt.Printf("[*] Сцена обновлена: освещение %s, металличность %.1f, шероховатость %.1f\n",
				s.Lighting, s.Metalness, s.Roughness)
		}
	}

	if *music {
		mood := client.AnalyzeMood(ctx, a.cfg.TextModel)
		cfg, err := a.session.Config().Audio.WithMusicPreset(mood.MusicPreset())
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		if err := a.session.ReplaceAudio(cfg); err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		fmt.Printf("[*] Настроение: %s -> музыка %s\n", mood.Mood, mood.MusicPreset())
	}
}

func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	common := bindCommon(fs)
	fs.StringVar(&common.flags.Preset, "preset", "", "Применить пресет")
	apply := fs.String("apply", "", "Применить JSON-файл (scene+audio, только scene или только audio)")
	scope := fs.String("scope", "", "Часть конфигурации для -apply: scene, audio (по умолчанию обе)")
	reset := fs.Bool("reset", false, "Сбросить к значениям по умолчанию")
	list := fs.Bool("list", false, "Список пресетов")
	save := fs.String("save", "", "Сохранить параметры запуска в YAML")
	fs.Parse(args)

	a := common.open()
	defer a.close()

	if *list {
		fmt.Printf("[*] Пресеты студии: %s\n", strings.Join(studio.PresetNames(), ", "))
		fmt.Printf("[*] Сцены: %s\n", strings.Join(scene.PresetNames(), ", "))
		fmt.Printf("[*] Музыка: %s\n", strings.Join(audio.MusicPresetNames(), ", "))
		fmt.Printf("[*] Диалоги: %s\n", strings.Join(audio.DialoguePresetNames(), ", "))
		return
	}
	if *reset {
		a.session.Reset()
		fmt.Println("[*] Конфигурация сброшена")
	}
	if *apply != "" {
		data, err := os.ReadFile(*apply)
		if err != nil {
			log.Fatalf("[-] %v", err)
		}
		switch *scope {
		case "":
			err = a.session.ApplyJSON(data)
		case "scene":
			err = a.session.ApplySceneJSON(data)
		case "audio":
			err = a.session.ApplyAudioJSON(data)
		default:
			log.Fatalf("[-] Неизвестная часть конфигурации: %s", *scope)
		}
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		fmt.Printf("[*] Применен файл: %s\n", *apply)
	}
	if *save != "" {
		if err := a.cfg.Save(*save); err != nil {
			log.Fatalf("[-] %v", err)
		}
		fmt.Printf("[*] Параметры сохранены: %s\n", *save)
	}

	data, err := studio.Marshal(a.session.Config())
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	fmt.Println(string(data))
}

func runDialogue(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("dialogue", flag.ExitOnError)
	common := bindCommon(fs)
	fs.StringVar(&common.flags.Preset, "preset", "", "Пресет диалогов: motivational, vitigni")
	espeak := fs.String("espeak", "espeak-ng", "Синтезатор речи")
	ffplay := fs.String("ffplay", "ffplay", "Проигрыватель клипов")
	fs.Parse(args)

	a := common.open()
	defer a.close()

	cfg := a.session.Config().Audio.Dialogues
	if len(cfg.Lines) == 0 {
		log.Fatalf("[-] Нет реплик. Используйте -preset или studio3d config -apply")
	}
	if err := system.CheckTool(*espeak); err != nil {
		fmt.Printf("[!] %v\n", err)
	}
	cfg.Enabled, cfg.AutoPlay = true, true

	seq := dialogue.New(cfg, dialogue.Options{
		Speaker: &dialogue.ExecSpeaker{Binary: *espeak},
		Clips:   &dialogue.ExecClipPlayer{Binary: *ffplay, Volume: cfg.Voice().Volume},
		Logger:  a.logger,
		OnChange: func(st dialogue.State) {
			if st.Playing && st.Progress == 0 {
				line := cfg.Lines[st.Index]
				fmt.Printf("[>] %d/%d %s: %s\n", st.Index+1, len(cfg.Lines), line.Speaker, line.Text)
			}
		},
	})
	go func() {
		<-ctx.Done()
		seq.Close()
	}()

	seq.Play()
	seq.Wait()
	seq.Close()
	fmt.Println("[+++] Диалог завершен")
}

func runShare(args []string) {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	common := bindCommon(fs)
	fs.StringVar(&common.flags.Preset, "preset", "", "Применить пресет перед экспортом")
	out := fs.String("output", "output/config-qr.png", "PNG с QR-кодом")
	size := fs.Int("size", 512, "Размер QR-кода в пикселях")
	fs.Parse(args)

	a := common.open()
	defer a.close()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("[-] %v", err)
	}
	if err := share.WriteQR(a.session.Config(), *out, *size); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
	fmt.Printf("[+++] Успех! QR-код: %s\n", *out)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	fmt.Println(string(data))
}
