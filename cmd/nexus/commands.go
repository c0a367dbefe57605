package main

import (
	"io"
	"os"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
	runUI     func(local bool) error
	runRelay  func(addr string) error
	version   string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	version := buildVersion()
	return commandWiring{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newBackendClient,
		runUI:     runUIProcess,
		runRelay: func(addr string) error {
			return runRelayProcess(addr, version, stderr)
		},
		version: version,
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"ls":     NewListCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"new":    NewCreateCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"show":   NewShowCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"send":   NewSendCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"rename": NewRenameCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"rm":     NewRemoveCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"models": NewModelsCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"ui":     NewUICommand(wiring.stderr, wiring.runUI),
		"relay":  NewRelayCommand(wiring.stderr, wiring.runRelay),
		"config": NewConfigCommand(wiring.stdout, wiring.stderr),
	}
}
