// Package main runs the voxedit edit engine headless, advancing queued
// edits on a fixed tick until interrupted. The binary has no world view or
// input of its own: a host embeds app.Application, supplies the Tracer and
// Display through app.Options, and issues commands through
// Application.Execute.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/voxedit/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	app.SetLogger(application.Logger())
	application.Logger().Info("running headless: no tracer, display, or command input is attached")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a TOML or YAML configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload the configuration file when it changes")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.Debug, "d", false, "Enable debug logging (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.MetricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() { usage(os.Stderr, flag.CommandLine) }
	flag.Parse()

	if showVersion {
		fmt.Printf("voxedit %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}
	if opts.Watch && opts.ConfigPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -watch requires -config")
		os.Exit(1)
	}
	return opts
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "voxedit - tick-budgeted voxel edit engine\n\n")
	fmt.Fprintf(w, "Usage: voxedit [options]\n\n")
	fmt.Fprintf(w, "This binary is an embedding harness. It runs the tick loop, config\n")
	fmt.Fprintf(w, "reload and metrics, but has no world view or input: hosts provide the\n")
	fmt.Fprintf(w, "Tracer and Display and submit commands through app.Execute.\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nEnvironment variables prefixed VOXEDIT_ override the file,\n")
	fmt.Fprintf(w, "for example VOXEDIT_JOBS_UNITS_PER_TICK=4096.\n")
}
