package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Render    RenderConfig    `toml:"render"`
	Scripting ScriptingConfig `toml:"scripting"`
	Scene     SceneConfig     `toml:"scene"`
	Logging   LoggingConfig   `toml:"logging"`
}

type EngineConfig struct {
	Name          string        `toml:"name"`
	FixedTimestep time.Duration `toml:"fixed_timestep"`
	MaxFixedSteps int           `toml:"max_fixed_steps"` // cap per frame so a stall cannot spiral
	FrameRate     int           `toml:"frame_rate"`      // 0 = uncapped, paced by the rendezvous only
	Strict        bool          `toml:"strict"`          // logic errors abort the frame instead of being logged
	StartTime     int64         // set at boot, not from config
}

type RenderConfig struct {
	Backend     string         `toml:"backend"` // "term" or "headless"
	PickTimeout time.Duration  `toml:"pick_timeout"`
	Viewport    ViewportConfig `toml:"viewport"`
}

// ViewportConfig sizes the headless backend. The terminal backend uses the
// terminal's own size.
type ViewportConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type SceneConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // optional output path; the terminal backend owns stdout
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Engine.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := defaults()
	cfg.Engine.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.Engine.FixedTimestep <= 0 {
		return fmt.Errorf("engine.fixed_timestep must be positive, got %s", c.Engine.FixedTimestep)
	}
	if c.Engine.MaxFixedSteps <= 0 {
		return fmt.Errorf("engine.max_fixed_steps must be positive, got %d", c.Engine.MaxFixedSteps)
	}
	switch c.Render.Backend {
	case "term", "headless":
	default:
		return fmt.Errorf("render.backend %q: want term or headless", c.Render.Backend)
	}
	if c.Render.Viewport.Width < 0 || c.Render.Viewport.Height < 0 {
		return fmt.Errorf("render.viewport size must not be negative")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:          "Tandem",
			FixedTimestep: time.Second / 50,
			MaxFixedSteps: 5,
			FrameRate:     60,
		},
		Render: RenderConfig{
			Backend:     "term",
			PickTimeout: 250 * time.Millisecond,
			Viewport: ViewportConfig{
				Width:  80,
				Height: 24,
			},
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Scene: SceneConfig{
			Path: "scenes/demo.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "tandem.log",
		},
	}
}
