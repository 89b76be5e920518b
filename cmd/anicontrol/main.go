package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/anicontrol/internal/analyzer"
	"github.com/ivlev/anicontrol/internal/config"
	"github.com/ivlev/anicontrol/internal/display"
	"github.com/ivlev/anicontrol/internal/engine"
	"github.com/ivlev/anicontrol/internal/export"
	"github.com/ivlev/anicontrol/internal/playback"
	"github.com/ivlev/anicontrol/internal/session"
	"github.com/ivlev/anicontrol/internal/source"
	"github.com/ivlev/anicontrol/internal/system"
)

var buildVersion = "dev"

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Использование: anicontrol [флаги] <info|export|play|describe>\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	def := config.Default()

	configPtr := flag.String("config", "", "Путь к YAML-конфигурации")
	inputPtr := flag.String("input", "", "Путь к GIF/APNG (по умолчанию: самый свежий файл в input/)")
	workersPtr := flag.Int("workers", def.Workers, "Потоки декодирования APNG")
	speedPtr := flag.Float64("speed", def.Speed, "Скорость воспроизведения (0.1-4.0)")
	tickPtr := flag.Duration("tick", def.TickInterval, "Интервал тактов планировщика")
	widthPtr := flag.Int("width", 0, "Ширина поверхности (0 - по размеру анимации)")
	heightPtr := flag.Int("height", 0, "Высота поверхности (0 - по размеру анимации)")
	bgPtr := flag.String("background", def.Display.Background, "Цвет фона поверхности")
	scalePtr := flag.Bool("scale", false, "Уменьшать кадры, не помещающиеся в поверхность")
	surfacePtr := flag.String("surface", def.Display.Surface, "Поверхность отображения: none, png, mqtt")
	displayDirPtr := flag.String("display-dir", def.Display.Dir, "Папка для поверхности png")
	brokerPtr := flag.String("mqtt-broker", "", "MQTT-брокер для поверхности mqtt (tcp://host:1883)")
	topicPtr := flag.String("mqtt-topic", def.MQTT.Topic, "MQTT-топик кадров")
	analyzerPtr := flag.String("analyzer", def.Analysis.Variant, "Анализатор: motion, gemini")
	modelPtr := flag.String("model", def.Analysis.Model, "Модель Gemini")
	promptPtr := flag.String("prompt", def.Analysis.Prompt, "Запрос к анализатору")
	exportDirPtr := flag.String("export-dir", def.Export.Dir, "Папка для экспорта кадров")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности и записать benchmark.log")
	logLevelPtr := flag.String("log-level", def.LogLevel, "Уровень логирования: debug, info, warn, error")

	flag.Parse()

	cfg := def
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка конфигурации: %v", err)
		}
		cfg = loaded
	}

	// Явно заданные флаги перекрывают файл конфигурации.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "speed":
			cfg.Speed = *speedPtr
		case "tick":
			cfg.TickInterval = *tickPtr
		case "width":
			cfg.Display.Width = *widthPtr
		case "height":
			cfg.Display.Height = *heightPtr
		case "background":
			cfg.Display.Background = *bgPtr
		case "scale":
			cfg.Display.Scale = *scalePtr
		case "surface":
			cfg.Display.Surface = *surfacePtr
		case "display-dir":
			cfg.Display.Dir = *displayDirPtr
		case "mqtt-broker":
			cfg.MQTT.Broker = *brokerPtr
		case "mqtt-topic":
			cfg.MQTT.Topic = *topicPtr
		case "analyzer":
			cfg.Analysis.Variant = *analyzerPtr
		case "model":
			cfg.Analysis.Model = *modelPtr
		case "prompt":
			cfg.Analysis.Prompt = *promptPtr
		case "export-dir":
			cfg.Export.Dir = *exportDirPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		case "log-level":
			cfg.LogLevel = *logLevelPtr
		}
	})
	cfg.BuildVersion = buildVersion

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	command := "info"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	switch command {
	case "info", "export", "play", "describe":
	default:
		usage()
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	inputPath := cfg.InputPath
	if inputPath == "" {
		latest, err := latestInput(cfg.InputDir)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		inputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", inputPath)
	}

	in, err := source.ReadFile(inputPath)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения файла: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	an, err := analyzer.NewAnalyzer(cfg.Analysis.Variant, analyzer.Options{
		APIKey: os.Getenv(cfg.Analysis.APIKeyEnv),
		Model:  cfg.Analysis.Model,
	})
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации анализатора: %v", err)
	}

	eng := engine.New(cfg.Workers, logger)
	sched := playback.NewScheduler(playback.NewTickerClock(cfg.TickInterval))
	sched.SetSpeed(cfg.Speed)

	sess := session.New(eng, sched, an, session.Options{
		Prompt:  cfg.Analysis.Prompt,
		Samples: cfg.Analysis.Frames,
		Timeout: cfg.Analysis.Timeout,
		Log:     logger,
	})
	defer sess.Close()

	var disp *display.Display
	if command == "play" {
		disp, err = newDisplay(cfg, logger)
		if err != nil {
			log.Fatalf("[-] Ошибка инициализации поверхности: %v", err)
		}
		defer disp.Close()
		sched.OnChange(disp.Show)
	}

	res, err := sess.Load(ctx, in)
	if err != nil {
		log.Fatalf("[-] Ошибка декодирования: %v", err)
	}

	if cfg.ShowStats {
		fmt.Print(res.Report(cfg.BuildVersion))
		if err := engine.AppendBenchmark("benchmark.log", res, cfg.BuildVersion); err != nil {
			fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
		}
	}

	switch command {
	case "info":
		printInfo(res)
	case "export":
		dir := exportDir(cfg.Export.Dir, inputPath)
		fmt.Printf("[*] Экспорт %d кадров в %s...\n", res.Animation.FrameCount(), dir)
		if _, err := export.Frames(ctx, res.Animation, dir, res.ID, cfg.Workers); err != nil {
			log.Fatalf("[-] Ошибка экспорта: %v", err)
		}
		fmt.Printf("[+++] Успех! Результат: %s\n", dir)
	case "describe":
		fmt.Println("[*] " + session.ProcessingMessage)
		text, err := sess.Analyze(ctx)
		if err != nil {
			fmt.Printf("[!] %v\n", err)
		}
		fmt.Println(text)
	case "play":
		play(ctx, sess, disp, os.Stdin)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func newDisplay(cfg *config.Config, logger *slog.Logger) (*display.Display, error) {
	r, err := display.NewRenderer(cfg.Display.Width, cfg.Display.Height, cfg.Display.Background, cfg.Display.Scale)
	if err != nil {
		return nil, err
	}

	var surface display.Surface
	switch cfg.Display.Surface {
	case "png":
		surface, err = display.NewPNGDirSurface(cfg.Display.Dir)
	case "mqtt":
		surface, err = display.DialMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, cfg.MQTT.QoS, logger)
	default:
		surface = display.NopSurface{}
	}
	if err != nil {
		return nil, err
	}
	return display.New(r, surface, logger), nil
}

func printInfo(res *engine.Result) {
	a := res.Animation
	fmt.Println("--- [ANIMATION] ---")
	fmt.Printf("[*] Источник: %s | Формат: %s\n", a.Source, strings.ToUpper(string(a.Format)))
	fmt.Printf("[*] Разрешение: %dx%d | Кадров: %d | Длительность цикла: %s\n", a.Width, a.Height, a.FrameCount(), a.Duration())
	switch {
	case a.LoopCount == 0:
		fmt.Println("[*] Повтор: бесконечно")
	case a.LoopCount < 0:
		fmt.Println("[*] Повтор: один раз")
	default:
		fmt.Printf("[*] Повтор: %d раз(а) после первого показа\n", a.LoopCount)
	}
	for i, f := range a.Frames {
		fmt.Printf("    кадр %3d: %v\n", i, f.Delay)
	}
	fmt.Println("-------------------")
}

// latestInput returns the newest animation in dir, creating dir first.
func latestInput(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("не удалось создать папку входных файлов: %w", err)
	}
	path, err := system.FindLatestAnimation(dir, source.Extensions)
	if err != nil {
		return "", fmt.Errorf("%w. Положите GIF или APNG в %s/", err, dir)
	}
	return path, nil
}

// exportDir builds output/<name>_<timestamp> for an input file.
func exportDir(base, inputPath string) string {
	name := filepath.Base(inputPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(base, fmt.Sprintf("%s_%s", name, timestamp))
}
