package app

import (
	"context"
	"fmt"
	"io"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/config"
	"github.com/five82/summit/internal/history"
	"github.com/five82/summit/internal/kvstore"
	"github.com/five82/summit/internal/logging"
	"github.com/five82/summit/internal/prefs"
	"github.com/five82/summit/internal/tracker"
)

// Options configure the summit application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/summit/prefs.toml
	EnvFile    string // empty loads ./.env when present
	APIURL     string // overrides config and environment when set
	LogLevel   string // overrides config when set
	LogWriter  io.Writer
}

// App holds every wired component. Close releases the store and log file.
type App struct {
	Config  config.Config
	Prefs   prefs.Prefs
	Logger  *logging.Logger
	Store   *kvstore.Store
	Session *tracker.Session
	Client  *api.Client
	Engine  *tracker.Engine
}

// Open loads configuration and wires the tracking engine.
func Open(ctx context.Context, opts Options) (*App, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load summit config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, err := openLogger(cfg, opts.LogWriter)
	if err != nil {
		return nil, err
	}

	store, err := kvstore.Open(cfg.StorePath())
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}

	a := &App{Config: cfg, Prefs: userPrefs, Logger: logger, Store: store}
	if err := a.wire(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, opts Options) error {
	session, err := tracker.LoadSession(ctx, a.Store, a.Config.APIURL, a.Config.APIKey)
	if err != nil {
		return err
	}
	client, err := api.NewClient(a.Config.APIURL, session, api.WithTimeout(a.Config.Poll.RequestTimeout))
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	policy := tracker.Policy{
		Base:             a.Config.Poll.Base,
		Growth:           a.Config.Poll.Growth,
		Max:              a.Config.Poll.Max,
		FailureMax:       a.Config.Poll.FailureMax,
		FailureThreshold: a.Config.Poll.FailureThreshold,
	}
	reconciler := history.NewReconciler(client, a.Store, session.LoggedIn,
		history.WithCapacity(a.Config.HistoryCapacity),
		history.WithLogger(a.Logger))

	engine, err := tracker.NewEngine(tracker.Options{
		Backend: client,
		Session: session,
		History: reconciler,
		Policy:  policy,
		Logger:  a.Logger,
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	a.Session = session
	a.Client = client
	a.Engine = engine
	a.Logger.Debug("wired client for %s (store %s)", client.BaseURL(), a.Config.StorePath())
	return nil
}

// Close stops tracking and releases resources.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
	_ = a.Logger.Close()
}

func openLogger(cfg config.Config, w io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return logging.New(w, level), nil
	}
	logger, err := logging.OpenFile(cfg.LogPath(), level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return logger, nil
}
