// Package main is the entry point for patchtool, a command line tool for
// recording, inspecting and combining serialized patches.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/buffercore/internal/config"
	"github.com/dshills/buffercore/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage marks errors caused by bad command line arguments.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// env carries the streams and settings shared by every command.
type env struct {
	ctx      context.Context
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	settings config.Settings
	log      *logging.Logger
}

type command struct {
	name    string
	summary string
	run     func(e *env, args []string) error
}

func commands() []command {
	return []command{
		{"record", "Record a YAML edit script as a patch", cmdRecord},
		{"show", "Print the changes of a patch", cmdShow},
		{"apply", "Apply a patch to a document", cmdApply},
		{"compose", "Combine consecutive patches into one", cmdCompose},
		{"invert", "Swap the old and new side of a patch", cmdInvert},
		{"rebalance", "Rebuild a patch as a balanced tree", cmdRebalance},
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("patchtool", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var configPath, envFile, logLevel string
	var showVersion bool
	fs.StringVar(&configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&envFile, "env-file", "", "Path to a .env file with BUFFERCORE_ variables")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "patchtool - record and transform serialized patches\n\n")
		fmt.Fprintf(stderr, "Usage: patchtool [options] <command> [arguments]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		for _, c := range commands() {
			fmt.Fprintf(stderr, "  %-10s %s\n", c.name, c.summary)
		}
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  patchtool record -o edits.patch script.yaml\n")
		fmt.Fprintf(stderr, "  patchtool show -format yaml edits.patch\n")
		fmt.Fprintf(stderr, "  patchtool compose -o all.patch first.patch second.patch\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "patchtool %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	e, err := newEnv(ctx, configPath, envFile, logLevel, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	name := fs.Arg(0)
	for _, c := range commands() {
		if c.name != name {
			continue
		}
		if err := c.run(e, fs.Args()[1:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			fmt.Fprintf(stderr, "Error: %s: %v\n", name, err)
			if errors.Is(err, errUsage) {
				return 2
			}
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "Error: unknown command %q\n", name)
	fs.Usage()
	return 2
}

func newEnv(ctx context.Context, configPath, envFile, logLevel string, stdin io.Reader, stdout, stderr io.Writer) (*env, error) {
	cfg := config.New(config.WithFile(configPath), config.WithDotEnv(envFile))
	if err := cfg.Load(ctx); err != nil {
		return nil, err
	}
	if logLevel != "" {
		if err := cfg.Set(config.PathLogLevel, logLevel); err != nil {
			return nil, err
		}
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	log := logging.New(logging.Config{
		Level:  settings.LogLevel,
		Output: stderr,
		Prefix: "patchtool",
	})
	log.Debug("configuration from %v", cfg.Sources())

	return &env{
		ctx:      ctx,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		settings: settings,
		log:      log,
	}, nil
}
