package main

import (
	"fmt"
	"os"
)

const usageText = `nexus is a terminal client for chat sessions backed by a local model.

Usage:
  nexus <command> [flags]

Commands:
  ls       list chat sessions
  new      create a chat session
  show     print a session and its messages
  send     send a message and print the reply
  rename   change a session title
  rm       delete a session
  models   list available models
  ui       run the terminal UI
  relay    serve the /api/chat relay in front of Ollama
  config   print configuration (effective or defaults)
  help     show help

Flags:
  -h, --help   show help

Examples:
  nexus ls --limit 20
  nexus new --title "Release notes"
  nexus send <id> "summarize the last answer" --model phi4:14b
  nexus ui --local
  nexus config --default --format toml
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
