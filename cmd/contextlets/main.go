// Package main is the entry point for the contextlets agent.
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

	"github.com/spf13/pflag"

	"github.com/dshills/contextlets/internal/app"
	"github.com/dshills/contextlets/internal/bridge"
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
	opts, outputPath, ok := parseFlags(os.Args[1:])
	if !ok {
		return 2
	}

	out, closeOut, err := openOutput(outputPath, opts.Terminal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeOut()
	opts.Output = out

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string) (app.Options, string, bool) {
	var (
		opts        app.Options
		outputPath  string
		tabURL      string
		showVersion bool
	)

	fs := pflag.NewFlagSet("contextlets", pflag.ContinueOnError)
	fs.StringVarP(&opts.ConfigPath, "config", "c", "", "settings file (json, jsonc, yaml or toml)")
	fs.BoolVarP(&opts.Watch, "watch", "w", false, "reload the settings file when it changes")
	fs.StringVar(&opts.AgentID, "agent-id", app.DefaultAgentID, "identity of this agent")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVarP(&opts.Terminal, "terminal", "t", false, "show the menu in the terminal")
	fs.StringSliceVar(&opts.Helpers, "helper", nil, "start a helper agent with this id (repeatable)")
	fs.StringVar(&tabURL, "url", "about:blank", "URL of the tab the menu is shown for")
	fs.DurationVar(&opts.DelegationTimeout, "delegation-timeout", 5*time.Second, "wait limit for helper acknowledgments")
	fs.StringVarP(&outputPath, "output", "o", "", "file for script output (default stdout, discarded in terminal mode)")
	fs.BoolVarP(&showVersion, "version", "v", false, "show version information")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "contextlets - scriptable context menu agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: contextlets [options]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		return opts, "", false
	}

	if showVersion {
		fmt.Printf("contextlets %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		return opts, "", false
	}

	opts.Tab = bridge.Tab{ID: 1, URL: tabURL, Active: true}
	return opts, outputPath, true
}

// openOutput picks the writer for script output. The terminal owns stdout
// in terminal mode.
func openOutput(path string, terminal bool) (io.Writer, func(), error) {
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening output: %w", err)
		}
		return &lockedWriter{w: f}, func() { f.Close() }, nil
	case terminal:
		return io.Discard, func() {}, nil
	default:
		return &lockedWriter{w: os.Stdout}, func() {}, nil
	}
}
