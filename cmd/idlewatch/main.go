package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Veraticus/idlewatch/pkg/config"
	"github.com/Veraticus/idlewatch/pkg/status"
	flag "github.com/spf13/pflag"
)

// errUsage reports a malformed invocation
var errUsage = errors.New("exactly one command argument is required")

// options holds the parsed command line
type options struct {
	configPath string
	debug      bool
	help       bool
	command    string
}

// newFlagSet defines our flags. Parsing stops at the first positional
// argument so everything after it belongs to the command.
func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("idlewatch", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (YAML, or TOML with a .toml extension)")
	fs.BoolVar(&opts.debug, "debug", false, "Print debug diagnostics to stderr")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show help message")
	return fs
}

// parseArgs parses the arguments after the program name
func parseArgs(args []string) (options, error) {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("%w: %v", errUsage, err)
	}
	if opts.help {
		return opts, nil
	}

	rest := fs.Args()
	if len(rest) != 1 {
		return opts, errUsage
	}
	opts.command = rest[0]
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil || opts.help {
		cfg, loadErr := config.Load(opts.configPath)
		if loadErr != nil {
			cfg = config.DefaultConfig()
		}
		printUsage(os.Stdout, cfg)
		if err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = cfg.WithCommand(opts.command)

	logger := status.NewStdLogger()
	if opts.debug {
		logger.SetDebug(true)
	}

	deps, err := NewDependencies(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating dependencies: %v\n", err)
		os.Exit(1)
	}
	app := NewApplication(deps)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx)
	deps.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Exit with standard interrupt code
	os.Exit(130)
}

func printUsage(w io.Writer, cfg *config.Config) {
	var opts options
	fs := newFlagSet(&opts)

	fmt.Fprintln(w, "idlewatch - run a command while the input devices are not touched")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: idlewatch [OPTIONS] <command>")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "<command> will be called every %v after %v\n",
		cfg.TourCheckPeriod, cfg.TourCheckPeriod*time.Duration(cfg.TourThreshold))
	fmt.Fprintf(w, "if none of %v is touched.\n", cfg.Devices)
	if cfg.SleepEnabled() {
		fmt.Fprintf(w, "The display is put to sleep after %d idle checks and woken on the next touch.\n", cfg.SleepThreshold)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  IDLEWATCH_CONFIG             Path to config file")
	fmt.Fprintln(w, "  IDLEWATCH_TOUR_CHECK_PERIOD  Dwell per check in tour mode (default: 40s)")
	fmt.Fprintln(w, "  IDLEWATCH_WAKE_CHECK_PERIOD  Dwell per check while the display sleeps (default: 5s)")
	fmt.Fprintln(w, "  IDLEWATCH_TOUR_THRESHOLD     Idle checks before the command runs (default: 2)")
	fmt.Fprintln(w, "  IDLEWATCH_SLEEP_THRESHOLD    Idle checks before the display sleeps (0 disables)")
	fmt.Fprintln(w, "  IDLEWATCH_DEVICES            Input devices to watch (comma-separated)")
	fmt.Fprintln(w, "  IDLEWATCH_DISPLAY            X display for wake/sleep (default: :0)")
	fmt.Fprintln(w, "  IDLEWATCH_DISPLAY_BACKEND    command or dpms (default: command)")
	fmt.Fprintln(w, "  IDLEWATCH_WAKE_COMMAND       Display wake command")
	fmt.Fprintln(w, "  IDLEWATCH_SLEEP_COMMAND      Display sleep command")
	fmt.Fprintln(w, "  IDLEWATCH_USE_PTY            Run commands on a PTY and log their output")
	fmt.Fprintln(w, "  IDLEWATCH_SKIP_IF_RUNNING    Skip the command while its last run is alive")
	fmt.Fprintln(w, "  IDLEWATCH_DEBUG              Print debug diagnostics (1/true)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration file: ~/.config/idlewatch/config.yaml")
}
