package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dalnet/summer/internal/config"
	"github.com/dalnet/summer/internal/irc"
	"github.com/dalnet/summer/internal/logfile"
	golog "github.com/go-log/log"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Command line flags
	configPath := flag.String("c", "./config.yaml", "Path to configuration file")
	interactive := flag.Bool("i", false, "Start the operator console")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	// Show version and exit
	if *showVersion || *showVersionLong {
		fmt.Printf("summer version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	// Set version info in irc package
	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	if err := run(*configPath, *interactive); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so the deferred log file close always runs.
func run(configPath string, interactive bool) error {
	// Make config path absolute
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := logfile.Open(cfg.LogFile, logfile.DefaultMaxEntries)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stderr, f)
	}
	logger := logfile.NewLogger(out)
	golog.DefaultLogger = logger

	// Create IRC client
	b := &bot{logger: logger}
	client, err := irc.NewClient(cfg, b, logger)
	if err != nil {
		return fmt.Errorf("failed to create IRC client: %w", err)
	}
	b.attach(client)

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		logger.Logf("Received signal %v, shutting down...", sig)
		client.Quit("Received shutdown signal")
	}()

	if interactive {
		go func() {
			con := newConsole(client)
			defer con.Close()
			con.Run()
			client.Quit("Console closed")
		}()
	}

	// Connect and run
	logger.Logf("Connecting to %s...", cfg.Addr())
	if err := client.Run(context.Background()); err != nil {
		logger.Logf("IRC client stopped: %v", err)
		return fmt.Errorf("IRC client stopped: %w", err)
	}
	logger.Log("Shut down")
	return nil
}
