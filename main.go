// better-bar is a live status bar for Hyprland desktops.
//
// It polls CPU, memory, battery, network and the clock, follows the volume
// and the compositor through event streams, and draws everything either as
// an interactive terminal bar or as an i3bar/swaybar status line.
//
// Usage:
//
//	better-bar [flags]
//
// Flags:
//
//	-config string    Path to configuration file (default: XDG search paths)
//	-mode string      Presenter: auto, tui or i3bar (overrides config)
//	-log-file string  Log file path (overrides config)
//	-status           Print the module states of the running bar and exit
//	-verbose          Enable verbose logging
//	-version          Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/better-ecosystem/better-bar/pkg/bar"
	"github.com/better-ecosystem/better-bar/pkg/config"
	"github.com/better-ecosystem/better-bar/pkg/i3bar"
	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/sink"
	"github.com/better-ecosystem/better-bar/pkg/theme"
	"github.com/better-ecosystem/better-bar/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		mode        = flag.String("mode", "", "Presenter: auto, tui or i3bar")
		logFilePath = flag.String("log-file", "", "Log file path")
		showStatus  = flag.Bool("status", false, "Print the module states of the running bar and exit")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("better-bar %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	if *showStatus {
		if err := printStatus(os.Stdout, bar.DefaultStatusPath()); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.General.Mode = strings.ToLower(*mode)
	}
	if *logFilePath != "" {
		cfg.General.LogFile = *logFilePath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	presenter := resolveMode(cfg.General.Mode, os.Stdout)

	palette, err := theme.Resolve(cfg.General.Theme)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := ensureLogDir(cfg.General.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	// The terminal bar owns the screen, so it logs to the file only.
	var logOut io.Writer = io.MultiWriter(os.Stderr, logFile)
	if presenter == config.ModeTUI {
		logOut = logFile
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel, *verbose),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting better-bar", "version", version, "mode", presenter, "config", path)

	v := bar.NewVisibility(cfg)
	app := bar.New(cfg, v, logger, bar.WithStatusFile(bar.DefaultStatusPath()))

	if path != "" {
		w := config.NewWatcher(path, cfg.General.ReloadDebounce.Duration, logger)
		go func() {
			if err := w.Run(ctx, app.Reload); err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	switch presenter {
	case config.ModeTUI:
		err = runTUI(ctx, cfg, palette, v, app)
	default:
		err = runI3bar(ctx, cfg, palette, v, app, logger)
	}
	if err != nil {
		logger.Error("bar exited", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// runTUI runs the bar and the terminal UI until either ends.
func runTUI(ctx context.Context, cfg *config.Config, palette theme.Theme, v *sink.Visibility, app *bar.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tui.NewPresenter(v)
	m := tui.NewModel(v, app,
		tui.WithScrollStep(cfg.Volume.ScrollStep),
		tui.WithTheme(palette),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Run(gctx, p) })
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, m, p)
	})
	return g.Wait()
}

// runI3bar writes the status line to stdout and reads clicks from stdin.
func runI3bar(ctx context.Context, cfg *config.Config, palette theme.Theme, v *sink.Visibility, app *bar.App, logger *slog.Logger) error {
	p := i3bar.NewPresenter(os.Stdout, v, logger, i3bar.WithTheme(palette))
	if err := p.Start(); err != nil {
		return err
	}
	clicks := i3bar.NewClicks(app, cfg.Volume.ScrollStep, logger)
	go func() {
		if err := clicks.Run(ctx, os.Stdin); err != nil {
			logger.Warn("click events unavailable", "error", err)
		}
	}()
	if err := app.Run(ctx, p); err != nil {
		return err
	}
	return p.Err()
}

func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFromFile(path)
	return cfg, path, err
}

// resolveMode picks the presenter. Auto uses the terminal bar when stdout
// is a terminal and the i3bar protocol otherwise.
func resolveMode(mode string, out *os.File) string {
	if mode != config.ModeAuto && mode != "" {
		return mode
	}
	fd := out.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return config.ModeTUI
	}
	return config.ModeI3Bar
}

func logLevel(name string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func ensureLogDir(logFile string) error {
	return os.MkdirAll(filepath.Dir(logFile), 0o755)
}

func printStatus(w io.Writer, path string) error {
	st, err := bar.ReadStatusFile(path)
	if err != nil {
		return fmt.Errorf("no running bar found: %w", err)
	}
	fmt.Fprintf(w, "better-bar pid %d, up since %s, updated %s\n\n",
		st.PID, st.StartedAt.Format("15:04:05"), st.UpdatedAt.Format("15:04:05"))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tSTATE\tHEALTHY\tRUNS\tLAST ERROR")
	for _, m := range sample.Modules {
		ms, ok := st.Modules[m]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\n", m, ms.State, ms.Healthy, ms.RunCount, ms.LastError)
	}
	return tw.Flush()
}
