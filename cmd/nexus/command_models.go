package main

import (
	"context"
	"flag"
	"fmt"
	"io"
)

type ModelsCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewModelsCommand(stdout, stderr io.Writer, newClient clientFactory) *ModelsCommand {
	return &ModelsCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *ModelsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	models, err := client.ListModels(context.Background())
	if err != nil {
		return err
	}
	for _, model := range models {
		fmt.Fprintln(c.stdout, model)
	}
	return nil
}
