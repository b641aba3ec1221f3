// Package main is the entry point for the voxshelld desktop shell daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/voxshell/internal/config"
	"github.com/jmylchreest/voxshell/internal/daemon"
	"github.com/jmylchreest/voxshell/internal/dbus"
	"github.com/jmylchreest/voxshell/internal/display"
	"github.com/jmylchreest/voxshell/internal/permission"
	"github.com/jmylchreest/voxshell/internal/store"
	"github.com/jmylchreest/voxshell/internal/theme"
	"github.com/jmylchreest/voxshell/internal/window"
)

const (
	appID   = "io.github.jmylchreest.voxshelld"
	appName = "voxshelld"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to voxshelld.toml (default ~/.config/voxshell/voxshelld.toml)")
	debug := flag.Bool("debug", false, "Force debug logging regardless of config")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("voxshelld version", version)
		os.Exit(0)
	}

	// Level is held in a LevelVar so hot reload can change it.
	var level slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &level,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			logger.Error("failed to get config path", "error", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}
	applyLogLevel(&level, cfg, *debug)

	os.Exit(run(logger, &level, path, cfg, *debug))
}

func applyLogLevel(level *slog.LevelVar, cfg *config.Config, debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(cfg.SlogLevel())
}

// descriptors returns the built-in windows adjusted by config.
func descriptors(cfg *config.Config) map[string]window.Descriptor {
	ds := window.DefaultDescriptors()
	floating := ds[window.NameFloating]
	floating.OnDemand = !cfg.Windows.RequireFloating
	ds[window.NameFloating] = floating
	return ds
}

func microphoneBackend(cfg *config.Config) permission.Requester {
	return permission.Static{Granted: cfg.MicrophoneGranted()}
}

// run starts the GTK application and returns the process exit status.
func run(logger *slog.Logger, level *slog.LevelVar, configPath string, cfg *config.Config, debug bool) int {
	logger.Info("starting voxshelld", "version", version, "config", configPath)

	app := adw.NewApplication(appID, 0)

	// Shared state between GTK main loop and signal handlers
	var (
		host          *display.Host
		controller    *window.Controller
		themeLoader   *theme.Loader
		kv            *store.KV
		storeWatcher  *store.FileWatcher
		shellServer   *dbus.ShellServer
		configWatcher *daemon.ConfigWatcher
		notifier      *daemon.InternalNotifier
		running       atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopAll := func() {
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if storeWatcher != nil {
			_ = storeWatcher.Stop()
		}
		if shellServer != nil {
			_ = shellServer.Stop()
		}
		if kv != nil {
			if err := kv.Save(); err != nil {
				logger.Warn("failed to save store on shutdown", "error", err)
			}
		}
		running.Store(false)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		// Surfaces and the registry live on the GTK main loop.
		loop := window.LoopFunc(func(fn func()) {
			glib.IdleAdd(fn)
		})

		themesDir, err := theme.ThemesDir()
		if err != nil {
			logger.Warn("failed to get themes directory", "error", err)
		}
		themeLoader = theme.NewLoader(themesDir, logger)
		themeLoader.LoadTheme(cfg.Windows.Theme)
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(ctx, loop)

		host = display.NewHost(&app.Application, cfg.Windows.Monitor, logger)
		controller = window.NewController(host, loop,
			window.WithDescriptors(descriptors(cfg)),
			window.WithBaseURL(cfg.Frontend.BaseURL),
			window.WithLogger(logger),
		)

		broker := permission.NewBroker(logger)
		broker.Register(permission.CapabilityMicrophone, microphoneBackend(cfg))

		dataDir, err := store.DataDir()
		if err != nil {
			logger.Error("failed to get data directory", "error", err)
			app.Quit()
			return
		}
		storePath := cfg.StorePath(dataDir)
		kv, err = store.Open(storePath, cfg.Store.Autosave, logger)
		if err != nil {
			logger.Error("failed to open store", "path", storePath, "error", err)
			app.Quit()
			return
		}
		logger.Info("store opened", "path", storePath, "keys", kv.Len())

		shellServer = dbus.NewShellServer(controller, broker, kv, logger)
		shellServer.SetServerInfo(dbus.ServerInfo{Name: appName, Version: version})
		if err := shellServer.Start(ctx); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			app.Quit()
			return
		}

		notifier = daemon.NewInternalNotifier(daemon.DesktopSender(shellServer.Connection()), logger)

		if cfg.Store.Watch {
			storeWatcher = store.NewFileWatcher(kv, func(keys []string) {
				if err := shellServer.EmitStoreChanged(keys); err != nil {
					logger.Warn("failed to emit store change", "error", err)
				}
			}, logger)
			if err := storeWatcher.Start(); err != nil {
				logger.Warn("failed to watch store", "path", storePath, "error", err)
				notifier.NotifyStoreError(err)
			}
		}

		// Controller calls block on the main loop, so they must not run on it.
		go func() {
			err := controller.OnChange(ctx, func(info window.Info) {
				if err := shellServer.EmitWindowStateChanged(info.Name, info.State.String()); err != nil {
					logger.Warn("failed to emit window state", "window", info.Name, "error", err)
				}
			})
			if err != nil {
				logger.Warn("failed to register window state callback", "error", err)
			}

			if cfg.Windows.PrepareFloating {
				if err := controller.Prepare(ctx, window.NameFloating); err != nil {
					logger.Error("failed to prepare floating widget", "error", err)
					notifier.NotifyWindowError(window.NameFloating, err)
				}
			}
		}()

		configWatcher = daemon.NewConfigWatcher(configPath, logger)
		configWatcher.SetReloadCallback(func(newConfig *config.Config, changed []string) {
			applyLogLevel(level, newConfig, debug)
			broker.Register(permission.CapabilityMicrophone, microphoneBackend(newConfig))

			glib.IdleAdd(func() {
				if slices.Contains(changed, "windows.theme") {
					themeLoader.LoadTheme(newConfig.Windows.Theme)
					themeLoader.StartHotReload(ctx, loop)
				}
				host.SetMonitor(newConfig.Windows.Monitor)
				if keys := config.RestartRequired(changed); len(keys) > 0 {
					logger.Warn("settings changed that apply on restart", "keys", keys)
				}
				cfg = newConfig
				notifier.NotifyConfigReloaded()
			})
		})
		configWatcher.SetErrorCallback(func(err error) {
			notifier.NotifyConfigError(err)
		})
		if err := configWatcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}

		logger.Info("voxshelld ready", "dbus_name", dbus.BusName, "frontend", cfg.Frontend.BaseURL)

		// GTK apps quit when all windows are closed; keep one hidden window around.
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		stopAll()
	})

	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("voxshelld stopped")
	return 0
}
