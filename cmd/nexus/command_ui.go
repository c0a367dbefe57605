package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"

	"nexus/internal/app"
	"nexus/internal/chatstate"
	"nexus/internal/client"
	"nexus/internal/config"
	"nexus/internal/local"
	"nexus/internal/logging"
	"nexus/internal/ollama"
	"nexus/internal/store"
)

type UICommand struct {
	stderr io.Writer
	runUI  func(local bool) error
}

func NewUICommand(stderr io.Writer, runUI func(local bool) error) *UICommand {
	return &UICommand{
		stderr: stderr,
		runUI:  runUI,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	standalone := fs.Bool("local", false, "keep sessions in a local file and talk to Ollama directly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.runUI(*standalone)
}

func runUIProcess(standalone bool) error {
	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return err
	}
	logger, closeLog := openUILogger(cfg)
	defer closeLog()

	var backend chatstate.Backend
	if standalone {
		dbPath, err := cfg.LocalDBPath()
		if err != nil {
			return err
		}
		sessions, err := store.NewBboltSessionStore(dbPath)
		if err != nil {
			return err
		}
		defer sessions.Close()
		model := ollama.New(cfg, logger)
		backend = local.New(sessions, model, model.DefaultModel(), logger)
	} else {
		backend = client.New(cfg, logger)
	}

	chats := chatstate.New(backend, logger, chatstate.WithSessionLimit(cfg.SessionLimit()))
	return app.Run(chats, app.Options{
		NewSessionTitle: cfg.NewSessionTitle(),
		Logger:          logger,
	})
}

// openUILogger writes to the UI log file since the terminal belongs to the
// program. Logging is dropped when the file cannot be opened.
func openUILogger(cfg config.CoreConfig) (logging.Logger, func()) {
	logPath, err := config.UILogPath()
	if err != nil {
		return logging.Nop(), func() {}
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return logging.Nop(), func() {}
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Nop(), func() {}
	}
	return logging.New(file, logging.ParseLevel(cfg.LogLevel())), func() { _ = file.Close() }
}
