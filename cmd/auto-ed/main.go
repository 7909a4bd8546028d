package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/logging"
	intOtel "github.com/autoed/companion/internal/otel"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "auto-ed"
)

// ErrUnknownCommand is returned for an unrecognised subcommand.
var ErrUnknownCommand = errors.New("unknown command")

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager = logging.NewSlogManager()

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger = slog.Default()

	// ZeroLogger is handed to the infrastructure managers
	ZeroLogger zerolog.Logger = zerolog.Nop()

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()
)

type options struct {
	ConfigDir  string
	JournalDir string
	LogLevel   string
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var opts options
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.ConfigDir, "config-dir", "c", ".", "directory holding "+config.FileName)
	fs.StringVarP(&opts.JournalDir, "journal-dir", "j", "", "directory holding the game's Status.json (overrides journalDir)")
	fs.StringVarP(&opts.LogLevel, "log-level", "l", "", "log level: debug, info, warn or error (overrides logLevel)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [run | waypoints <command> [args] | keybinds [action...] | version]\n", AppName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, nil, err
	}
	return opts, fs.Args(), nil
}

// loadConfig reads the config file, creating it with defaults on first
// start, and applies the command line overrides.
func loadConfig(opts options) error {
	if err := config.LoadOrCreate(opts.ConfigDir); err != nil {
		return err
	}
	if opts.JournalDir != "" {
		viper.Set("journalDir", opts.JournalDir)
	}
	if opts.LogLevel != "" {
		viper.Set("logLevel", opts.LogLevel)
	}
	return nil
}

// initLogging sets up slog and zerolog. The daemon writes to a session log
// file, everything else writes to stderr. The returned func closes what was
// opened.
func initLogging(toFile bool, provider logging.ContextProvider) (func(), error) {
	level := config.GetString("logLevel")
	var closers []io.Closer

	var out io.Writer = os.Stderr
	logsDir := config.GetString("logsDir")
	if toFile {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return func() {}, fmt.Errorf("creating logs dir: %w", err)
		}
		f, err := os.OpenFile(logging.LogFilePath(logsDir, AppName, SessionStartTime), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return func() {}, fmt.Errorf("opening log file: %w", err)
		}
		closers = append(closers, f)
		out = f
	}

	var err error
	var otelFile *os.File
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && toFile {
		otelFile, err = os.OpenFile(logging.SessionFile(logsDir, AppName, SessionStartTime, "otel.jsonl"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closeAll(closers), fmt.Errorf("opening otel log file: %w", err)
		}
		closers = append(closers, otelFile)
	}
	var otelWriter io.Writer
	if otelFile != nil {
		otelWriter = otelFile
	}
	OTelProvider, err = intOtel.New(intOtel.FromConfig(otelCfg, otelWriter, CurrentVersion))
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenTelemetry disabled: %v\n", err)
		OTelProvider, _ = intOtel.New(intOtel.Config{})
	}

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, c, err := logging.NewGELFHandler(gl.Address, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Graylog disabled: %v\n", err)
		} else {
			extra = append(extra, h)
			closers = append(closers, c)
		}
	}

	SlogManager.SetContextProvider(provider)
	SlogManager.Setup(out, level, OTelProvider.LoggerProvider(), extra...)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)

	zlevel, err := zerolog.ParseLevel(level)
	if err != nil || zlevel == zerolog.NoLevel {
		zlevel = zerolog.InfoLevel
	}
	ZeroLogger = zerolog.New(out).Level(zlevel).With().Timestamp().Str("app", AppName).Logger()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "OpenTelemetry shutdown: %v\n", err)
		}
		closeAll(closers)()
	}, nil
}

func closeAll(closers []io.Closer) func() {
	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	command := "run"
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}
	if command == "version" {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return nil
	}

	if err := loadConfig(opts); err != nil {
		return err
	}

	switch command {
	case "run":
		return runDaemon(ctx)
	case "waypoints":
		return runWaypoints(ctx, rest, stdout)
	case "keybinds":
		return runKeybinds(ctx, rest, stdin, stdout)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, pflag.ErrHelp):
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
