package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

type ListCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewListCommand(stdout, stderr io.Writer, newClient clientFactory) *ListCommand {
	return &ListCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *ListCommand) Run(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	limit := fs.Int("limit", 10, "maximum sessions to list")
	offset := fs.Int("offset", 0, "sessions to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	sessions, err := client.ListSessions(context.Background(), *limit, *offset)
	if err != nil {
		return err
	}
	printSessions(c.stdout, sessions)
	return nil
}

type CreateCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewCreateCommand(stdout, stderr io.Writer, newClient clientFactory) *CreateCommand {
	return &CreateCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *CreateCommand) Run(args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	title := fs.String("title", "New Chat", "session title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*title) == "" {
		return errors.New("title is required")
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	session, err := client.CreateSession(context.Background(), strings.TrimSpace(*title))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, session.ID)
	return nil
}

type ShowCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewShowCommand(stdout, stderr io.Writer, newClient clientFactory) *ShowCommand {
	return &ShowCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

// Run prints a session. With --limit or --offset only that page of the
// history is printed.
func (c *ShowCommand) Run(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	limit := fs.Int("limit", 0, "messages to print (default all)")
	offset := fs.Int("offset", 0, "messages to skip")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return errors.New("usage: nexus show <id> [--limit n] [--offset n]")
	}
	if *limit < 0 || *offset < 0 {
		return errors.New("limit and offset must not be negative")
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	session, err := client.GetSession(ctx, positional[0])
	if err != nil {
		return err
	}
	if *limit > 0 || *offset > 0 {
		messages, err := client.ListMessages(ctx, positional[0], *limit, *offset)
		if err != nil {
			return err
		}
		session.Messages = messages
	}
	printSession(c.stdout, session)
	return nil
}

type RenameCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewRenameCommand(stdout, stderr io.Writer, newClient clientFactory) *RenameCommand {
	return &RenameCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *RenameCommand) Run(args []string) error {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 2 {
		return errors.New("usage: nexus rename <id> <title>")
	}
	title := strings.TrimSpace(strings.Join(positional[1:], " "))
	if title == "" {
		return errors.New("title is required")
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	session, err := client.RenameSession(context.Background(), positional[0], title)
	if err != nil {
		return err
	}
	if session != nil && strings.TrimSpace(session.Title) != "" {
		title = session.Title
	}
	fmt.Fprintln(c.stdout, title)
	return nil
}

type RemoveCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewRemoveCommand(stdout, stderr io.Writer, newClient clientFactory) *RemoveCommand {
	return &RemoveCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *RemoveCommand) Run(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	ids, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("usage: nexus rm <id> [id...]")
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, id := range ids {
		if err := client.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		fmt.Fprintln(c.stdout, id)
	}
	return nil
}
