package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"strings"
)

type SendCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewSendCommand(stdout, stderr io.Writer, newClient clientFactory) *SendCommand {
	return &SendCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

// Run sends one message and prints the assistant reply. Without --model the
// first model the backend reports is used.
func (c *SendCommand) Run(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	model := fs.String("model", "", "model to answer with")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 2 {
		return errors.New("usage: nexus send <id> <text> [--model name]")
	}
	text := strings.Join(positional[1:], " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("message text is required")
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	selected := strings.TrimSpace(*model)
	if selected == "" {
		models, err := client.ListModels(ctx)
		if err != nil {
			return err
		}
		if len(models) > 0 {
			selected = models[0]
		}
	}
	reply, err := client.SendMessage(ctx, positional[0], text, selected)
	if err != nil {
		return err
	}
	if reply != nil {
		io.WriteString(c.stdout, strings.TrimRight(reply.Content, "\n")+"\n")
	}
	return nil
}
