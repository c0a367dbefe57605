package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"nexus/internal/config"
	"nexus/internal/logging"
	"nexus/internal/ollama"
	"nexus/internal/relay"
)

type RelayCommand struct {
	stderr   io.Writer
	runRelay func(addr string) error
}

func NewRelayCommand(stderr io.Writer, runRelay func(addr string) error) *RelayCommand {
	return &RelayCommand{
		stderr:   stderr,
		runRelay: runRelay,
	}
}

func (c *RelayCommand) Run(args []string) error {
	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	addr := fs.String("addr", "", "listen address (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.runRelay(strings.TrimSpace(*addr))
}

func runRelayProcess(addr, version string, stderr io.Writer) error {
	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.RelayAddress()
	}
	logger := logging.New(stderr, logging.ParseLevel(cfg.LogLevel()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("relay_starting",
		logging.F("addr", addr),
		logging.F("ollama", cfg.OllamaBaseURL()),
		logging.F("model", cfg.OllamaModel()),
		logging.F("version", version),
	)
	server := relay.New(addr, version, ollama.New(cfg, logger), logger)
	return server.Run(ctx)
}
