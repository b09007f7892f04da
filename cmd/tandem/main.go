package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tandem/engine/internal/app"
	"github.com/tandem/engine/internal/component"
	"github.com/tandem/engine/internal/config"
	"github.com/tandem/engine/internal/data"
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name, backend string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               Tandem  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     simulation · render sync engine       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s \033[90m(backend: %s)\033[0m\n\n", name, backend)
}

func printSection(title string) {
	lineLen := 46 - render.StringWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - render.StringWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main engine logic ─────────────────────────────────────────────

func run() error {
	cfgPath := flag.String("config", "", "path to a TOML config file (default: $TANDEM_CONFIG or built-in defaults)")
	backend := flag.String("backend", "", "override render.backend (term or headless)")
	frames := flag.Int("frames", 0, "stop after this many frames (0 = until quit)")
	flag.Parse()

	// 1. Load config
	if *cfgPath == "" {
		*cfgPath = os.Getenv("TANDEM_CONFIG")
	}
	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if *backend != "" {
		cfg.Render.Backend = *backend
	}

	// 2. Init logger. The terminal backend owns stdout, so logs go to a file.
	log, err := newLogger(cfg.Logging, cfg.Render.Backend == "term")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Engine.Name, cfg.Render.Backend)

	// 3. Scripts and component types
	printSection("scripting")
	scripts, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	printStat("lua behaviors", len(scripts.Behaviors()))

	registry := component.NewRegistry(log)
	component.RegisterBuiltins(registry, scripts)
	printStat("component types", len(registry.Names()))
	fmt.Println()

	// 4. Scene
	printSection("scene")
	scene, err := data.LoadScene(cfg.Scene.Path)
	if err != nil {
		scripts.Close()
		return fmt.Errorf("load scene: %w", err)
	}
	printStat("scene entities", scene.Count())

	// 5. World, renderer and backend
	open, err := app.BackendFor(cfg.Render, log)
	if err != nil {
		scripts.Close()
		return err
	}
	a, err := app.New(cfg, open, log)
	if err != nil {
		scripts.Close()
		return fmt.Errorf("init app: %w", err)
	}
	a.OnClose("scripts", scripts)
	a.SetFrameLimit(*frames)

	roots, err := scene.Spawn(a.World(), registry)
	for _, e := range multierr.Errors(err) {
		log.Warn("scene component skipped", zap.Error(e))
	}
	printStat("root entities", len(roots))
	printStat("live entities", a.World().EntityCount())
	printOK(fmt.Sprintf("scene %q spawned", scene.Name))
	a.World().PrintObjects()
	fmt.Println()

	// 6. Run until quit or signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printSection("running")
	printReady(fmt.Sprintf("fixed step %s, frame rate %d", cfg.Engine.FixedTimestep, cfg.Engine.FrameRate))
	if cfg.Render.Backend == "term" {
		printReady(fmt.Sprintf("logging to %s; Ctrl-C to quit", cfg.Logging.File))
	}
	fmt.Println()

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return err
	}
	log.Info("engine stopped", zap.Duration("uptime", a.World().Uptime()))
	return nil
}

func newLogger(cfg config.LoggingConfig, toFile bool) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if toFile && cfg.File != "" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zapCfg.Build()
}
