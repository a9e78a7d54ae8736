package app

import (
	"context"
	"fmt"
	"io"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/config"
	"github.com/dshills/contextlets/internal/config/loader"
	"github.com/dshills/contextlets/internal/event"
	"github.com/dshills/contextlets/internal/federation"
	"github.com/dshills/contextlets/internal/helper"
	"github.com/dshills/contextlets/internal/host/memhost"
	"github.com/dshills/contextlets/internal/host/termhost"
	"github.com/dshills/contextlets/internal/router"
	"github.com/dshills/contextlets/internal/script"
)

// bootstrapper initializes components in dependency order and tears the
// initialized ones down again if a later step fails.
type bootstrapper struct {
	app *Application
}

func newBootstrapper(a *Application) *bootstrapper {
	return &bootstrapper{app: a}
}

func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"event bus", b.initBus},
		{"config", b.initConfig},
		{"network", b.initNetwork},
		{"script engine", b.initEngine},
		{"tabs", b.initTabs},
		{"surface", b.initSurface},
		{"pipeline", b.initPipeline},
		{"config watcher", b.initWatcher},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			b.app.Shutdown()
			return &ComponentError{Component: step.name, Action: "init", Err: err}
		}
	}
	return nil
}

func (b *bootstrapper) initBus() error {
	b.app.bus = event.NewBus()
	return nil
}

// initConfig loads the settings before anything subscribes to them, so the
// first load does not count as a storage change. A settings file that
// cannot be read leaves the defaults in place.
func (b *bootstrapper) initConfig() error {
	a := b.app
	var source loader.Loader
	if a.opts.ConfigPath != "" {
		l, err := loader.New(a.opts.ConfigPath)
		if err != nil {
			return err
		}
		source = l
	}

	a.store = config.NewStore(source,
		config.WithEnv(loader.NewEnvLoader(config.EnvMapping)),
		config.WithChecker(script.Check),
		config.WithLogger(a.logger))

	if _, err := a.store.Load(context.Background()); err != nil {
		a.logger.Warn("using default settings", "path", a.opts.ConfigPath, "error", err)
	}
	return nil
}

func (b *bootstrapper) initNetwork() error {
	a := b.app
	a.network = memhost.NewNetwork()

	err := a.network.Register(a.opts.AgentID, func(ctx context.Context, sender string, payload []byte) error {
		msg := event.Message{Sender: sender, Payload: payload}
		return event.Publish(ctx, a.bus, event.TopicExternalMessage, msg, "network")
	})
	if err != nil {
		return err
	}

	for _, id := range a.opts.Helpers {
		surface := memhost.NewSurface()
		agent := helper.New(id, a.opts.AgentID, surface, a.network.Endpoint(id),
			helper.WithLogger(a.logger.With("helper", id)))
		if err := a.network.Register(id, agent.Receive); err != nil {
			return err
		}
		a.helpers[id] = &helperAgent{agent: agent, surface: surface}
	}
	return nil
}

func (b *bootstrapper) initEngine() error {
	a := b.app
	engine, err := script.NewEngine(
		script.WithName(string(bridge.ScopeBackground)),
		script.WithErrorHandler(func(err error) {
			a.logger.Warn("background script failed", "error", err)
		}),
		script.WithStateOptions(script.WithOutput(a.opts.Output)))
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

func (b *bootstrapper) initTabs() error {
	a := b.app
	a.tabs = memhost.NewTabs(a.opts.AgentID,
		func(ctx context.Context, msg event.Message) error {
			return event.Publish(ctx, a.bus, event.TopicMessage, msg, "content")
		},
		memhost.WithTabsLogger(a.logger),
		memhost.WithTabOutput(func(int) io.Writer { return a.opts.Output }))

	_, err := a.tabs.Open(a.opts.Tab)
	return err
}

func (b *bootstrapper) initSurface() error {
	a := b.app
	if !a.opts.Terminal {
		a.surface = memhost.NewSurface()
		return nil
	}

	onClick := func(ctx context.Context, info bridge.ClickInfo, tab *bridge.Tab) error {
		return event.Publish(ctx, a.bus, event.TopicMenuClicked, event.MenuClick{Info: info, Tab: tab}, "terminal")
	}

	var term *termhost.Surface
	if a.opts.Screen != nil {
		term = termhost.New(a.opts.Screen, a.opts.Tab, onClick)
	} else {
		var err error
		if term, err = termhost.NewTerminal(a.opts.Tab, onClick); err != nil {
			return err
		}
	}
	if err := term.Init(); err != nil {
		return err
	}
	a.terminal = term
	a.surface = term
	return nil
}

func (b *bootstrapper) initPipeline() error {
	a := b.app

	a.bridge = bridge.NewBackground(a.engine, a.tabs, a.store)
	a.materializer = federation.New(a.opts.AgentID, a.surface, a.network.Endpoint(a.opts.AgentID),
		federation.WithDelegationTimeout(a.opts.DelegationTimeout))
	a.router = router.New(a.opts.AgentID, a.store, a.materializer, a.bridge,
		router.WithLogger(a.logger))
	if err := a.router.Attach(a.bus); err != nil {
		return err
	}

	a.storeSub = a.store.Subscribe(func(changes []config.Change) {
		fields := make([]string, len(changes))
		for i, c := range changes {
			fields[i] = c.Field
		}
		change := event.StorageChange{Area: "local", Fields: fields}
		if err := event.Publish(context.Background(), a.bus, event.TopicStorageChanged, change, "config"); err != nil {
			a.logger.Warn("storage change handling failed", "fields", fields, "error", err)
		}
	})
	return nil
}

func (b *bootstrapper) initWatcher() error {
	a := b.app
	if !a.opts.Watch || a.opts.ConfigPath == "" {
		return nil
	}
	w, err := config.NewWatcher(a.store, a.opts.ConfigPath, config.WithWatchLogger(a.logger))
	if err != nil {
		return fmt.Errorf("watching %s: %w", a.opts.ConfigPath, err)
	}
	a.watcher = w
	return nil
}
