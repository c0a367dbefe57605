package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"text/tabwriter"

	"nexus/internal/types"
)

const devVersion = "dev"

// version is overridden at link time for releases.
var version = devVersion

func printSessions(output io.Writer, sessions []*types.ChatSession) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCREATED\tUPDATED\tTITLE")
	for _, session := range sessions {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			session.ID,
			orDash(session.CreatedAt),
			orDash(session.UpdatedAt),
			session.Title,
		)
	}
	_ = writer.Flush()
}

func printSession(output io.Writer, session *types.ChatSession) {
	fmt.Fprintf(output, "%s  %s\n", session.ID, session.Title)
	for _, msg := range session.Messages {
		printMessage(output, msg)
	}
}

func printMessage(output io.Writer, msg *types.ChatMessage) {
	if msg == nil {
		return
	}
	label := string(msg.Role)
	if msg.Model != "" && msg.Role == types.RoleAssistant {
		label += " (" + msg.Model + ")"
	}
	fmt.Fprintf(output, "\n[%s]\n%s\n", label, strings.TrimRight(msg.Content, "\n"))
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

// buildVersion prefers a version stamped at link time
// (-ldflags "-X main.version=v1.2.3"), then the module version, then the
// short VCS revision.
func buildVersion() string {
	if version != devVersion {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	return versionFromBuildInfo(info)
}

func versionFromBuildInfo(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return devVersion
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty {
		revision += "+dirty"
	}
	return devVersion + "-" + revision
}

// parseArgs parses flags that may appear before, between or after positional
// arguments and returns the positionals in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
