// Package app wires a world and a renderer together and runs them on
// their own goroutines until either side stops.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tandem/engine/internal/config"
	"github.com/tandem/engine/internal/core/event"
	"github.com/tandem/engine/internal/core/system"
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/render/term"
	"github.com/tandem/engine/internal/world"
)

// BackendFactory opens a presentation backend. Backends that produce input
// push it on replies.
type BackendFactory func(replies *render.Queue[render.Reply]) (render.Backend, error)

// Headless returns a factory for an off-screen backend of the given size.
func Headless(width, height int) BackendFactory {
	return func(*render.Queue[render.Reply]) (render.Backend, error) {
		return render.NewHeadless(width, height), nil
	}
}

// Terminal returns a factory for the tcell backend.
func Terminal(log *zap.Logger) BackendFactory {
	return func(replies *render.Queue[render.Reply]) (render.Backend, error) {
		b, err := term.Open(replies, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// BackendFor picks the factory named by cfg.Backend.
func BackendFor(cfg config.RenderConfig, log *zap.Logger) (BackendFactory, error) {
	switch cfg.Backend {
	case "term":
		return Terminal(log), nil
	case "headless":
		return Headless(cfg.Viewport.Width, cfg.Viewport.Height), nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", cfg.Backend)
	}
}

type closer struct {
	name string
	c    io.Closer
}

// App owns both queues, the world with its phase runner, and the renderer.
type App struct {
	cfg      *config.Config
	out      *render.Queue[render.Msg]
	replies  *render.Queue[render.Reply]
	world    *world.World
	runner   *system.Runner
	renderer *render.Renderer
	closers  []closer

	frameLimit int
	frames     int
	log        *zap.Logger
}

// New builds the world and opens the backend. Nothing runs until Run.
func New(cfg *config.Config, open BackendFactory, log *zap.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		out:     render.NewQueue[render.Msg](),
		replies: render.NewQueue[render.Reply](),
		runner:  system.NewRunner(),
		log:     log.Named("app"),
	}
	backend, err := open(a.replies)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	a.renderer = render.NewRenderer(backend, a.replies, cfg.Render.PickTimeout, log)
	a.world = world.New(cfg.Engine, a.out, a.replies, log)
	a.world.RegisterSystems(a.runner)

	events := a.world.Events()
	event.Subscribe(events, func(ev event.ViewportResized) {
		a.log.Info("viewport resized", zap.Uint32("viewport", ev.Viewport), zap.Int("width", ev.Width), zap.Int("height", ev.Height))
	})
	event.Subscribe(events, func(ev event.EntityFinalized) {
		a.log.Debug("entity finalized", zap.String("name", ev.Name), zap.Uint64("id", uint64(ev.ID)))
	})
	return a, nil
}

func (a *App) World() *world.World        { return a.world }
func (a *App) Renderer() *render.Renderer { return a.renderer }
func (a *App) Runner() *system.Runner     { return a.runner }
func (a *App) Frames() int                { return a.frames }

// SetFrameLimit stops the simulation after n frames. Zero runs until quit.
func (a *App) SetFrameLimit(n int) { a.frameLimit = n }

// OnClose registers c to be closed after both loops have stopped, in
// registration order.
func (a *App) OnClose(name string, c io.Closer) {
	a.closers = append(a.closers, closer{name: name, c: c})
}

// Run drives both loops until the user quits, the frame limit is reached,
// ctx is cancelled or either side fails. The world is torn down and every
// registered closer runs before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer a.out.Close()
		err := a.simulate(gctx)
		// Teardown removals still reach the renderer if it is alive.
		return multierr.Append(err, a.world.Shutdown())
	})
	g.Go(func() error {
		defer a.replies.Close()
		err := a.renderer.Run(gctx, a.out)
		if cerr := gctx.Err(); cerr != nil && errors.Is(err, cerr) {
			return nil
		}
		return err
	})

	err := g.Wait()
	err = multierr.Append(err, a.renderer.Close())
	for _, c := range a.closers {
		if cerr := c.c.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, cerr))
		}
	}

	stats := a.renderer.Stats()
	diag := a.world.Diagnostics()
	a.log.Info("stopped",
		zap.Int("frames", a.frames),
		zap.Uint64("rendered", stats.Frames),
		zap.Uint64("callback_errors", diag.CallbackErrors),
		zap.Error(err),
	)
	return err
}

// simulate is the world goroutine: one frame, then the rendezvous, then
// optional pacing.
func (a *App) simulate(ctx context.Context) error {
	var tick <-chan time.Time
	if rate := a.cfg.Engine.FrameRate; rate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	a.log.Info("simulation started",
		zap.Duration("fixed_timestep", a.cfg.Engine.FixedTimestep),
		zap.Int("frame_rate", a.cfg.Engine.FrameRate),
	)
	for {
		if err := a.world.Frame(a.runner); err != nil {
			if errors.Is(err, render.ErrQueueClosed) {
				return nil
			}
			return fmt.Errorf("frame %d: %w", a.frames, err)
		}
		if err := a.world.SignalFrameEnd(ctx, render.PrimaryViewport); err != nil {
			if errors.Is(err, render.ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		a.frames++

		if a.world.Input().QuitRequested() {
			a.log.Info("quit requested", zap.Int("frames", a.frames))
			return nil
		}
		if a.frameLimit > 0 && a.frames >= a.frameLimit {
			return nil
		}

		if tick == nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
}
