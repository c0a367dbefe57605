package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"

	"nexus/internal/types"
)

func TestListCommandPrintsSessions(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{
		sessionsResp: []*types.ChatSession{
			{ID: "s1", Title: "First", CreatedAt: "2026-01-01T00:00:00Z"},
			{ID: "s2", Title: "Second"},
		},
	}
	cmd := NewListCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"--limit", "20", "--offset", "5"}); err != nil {
		t.Fatalf("expected ls to succeed, got err=%v", err)
	}
	if fake.listLimit != 20 || fake.listOffset != 5 {
		t.Fatalf("unexpected paging: limit=%d offset=%d", fake.listLimit, fake.listOffset)
	}
	out := stdout.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "TITLE") {
		t.Fatalf("expected table header, got %q", out)
	}
	if !strings.Contains(out, "s1") || !strings.Contains(out, "Second") {
		t.Fatalf("expected sessions in output, got %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[2], "-") {
		t.Fatalf("expected dash for missing timestamps, got %q", out)
	}
}

func TestListCommandDefaults(t *testing.T) {
	fake := &fakeCommandClient{}
	cmd := NewListCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fake.listLimit != 10 || fake.listOffset != 0 {
		t.Fatalf("unexpected defaults: limit=%d offset=%d", fake.listLimit, fake.listOffset)
	}
}

func TestCreateCommandWritesSessionID(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{createResp: &types.ChatSession{ID: "new-id", Title: "Notes"}}
	cmd := NewCreateCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"--title", "  Notes  "}); err != nil {
		t.Fatalf("expected new to succeed, got err=%v", err)
	}
	if len(fake.createTitles) != 1 || fake.createTitles[0] != "Notes" {
		t.Fatalf("unexpected create titles: %#v", fake.createTitles)
	}
	if strings.TrimSpace(stdout.String()) != "new-id" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestCreateCommandRejectsBlankTitle(t *testing.T) {
	fake := &fakeCommandClient{}
	cmd := NewCreateCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"--title", "   "}); err == nil {
		t.Fatalf("expected blank title to fail")
	}
	if len(fake.createTitles) != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestShowCommandPrintsMessages(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{getResp: &types.ChatSession{
		ID:    "s1",
		Title: "Demo",
		Messages: []*types.ChatMessage{
			{Role: types.RoleUser, Content: "hello"},
			{Role: types.RoleAssistant, Content: "hi there\n", Model: "phi4:14b"},
		},
	}}
	cmd := NewShowCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"s1"}); err != nil {
		t.Fatalf("expected show to succeed, got err=%v", err)
	}
	out := stdout.String()
	for _, want := range []string{"s1  Demo", "[user]\nhello", "[assistant (phi4:14b)]\nhi there"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestShowCommandPagesMessages(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{
		getResp: &types.ChatSession{ID: "s1", Title: "Demo", Messages: []*types.ChatMessage{
			{Role: types.RoleUser, Content: "first"},
			{Role: types.RoleAssistant, Content: "second"},
		}},
		messagesResp: []*types.ChatMessage{{Role: types.RoleAssistant, Content: "second"}},
	}
	cmd := NewShowCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"s1", "--limit", "1", "--offset", "1"}); err != nil {
		t.Fatalf("expected show to succeed, got err=%v", err)
	}
	if len(fake.messageCalls) != 1 || fake.messageCalls[0] != "s1 1 1" {
		t.Fatalf("unexpected ListMessages calls: %v", fake.messageCalls)
	}
	out := stdout.String()
	if strings.Contains(out, "first") || !strings.Contains(out, "[assistant]\nsecond") {
		t.Fatalf("expected only the requested page, got %q", out)
	}
}

func TestShowCommandWithoutPagingSkipsListMessages(t *testing.T) {
	fake := &fakeCommandClient{getResp: &types.ChatSession{ID: "s1"}}
	cmd := NewShowCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"s1"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(fake.messageCalls) != 0 {
		t.Fatalf("expected no ListMessages call, got %v", fake.messageCalls)
	}
}

func TestShowCommandRequiresID(t *testing.T) {
	cmd := NewShowCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(&fakeCommandClient{}))
	if err := cmd.Run(nil); err == nil {
		t.Fatalf("expected missing id to fail")
	}
}

func TestSendCommandAcceptsFlagAfterText(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{
		sendResp: &types.ChatMessage{Role: types.RoleAssistant, Content: "pong"},
	}
	cmd := NewSendCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"s1", "ping", "again", "--model", "llama3"}); err != nil {
		t.Fatalf("expected send to succeed, got err=%v", err)
	}
	if len(fake.sends) != 1 {
		t.Fatalf("expected one send, got %d", len(fake.sends))
	}
	got := fake.sends[0]
	if got.id != "s1" || got.content != "ping again" || got.model != "llama3" {
		t.Fatalf("unexpected send: %#v", got)
	}
	if fake.listModelsCalls != 0 {
		t.Fatalf("expected explicit model to skip model lookup")
	}
	if strings.TrimSpace(stdout.String()) != "pong" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestSendCommandDefaultsToFirstModel(t *testing.T) {
	fake := &fakeCommandClient{
		modelsResp: []string{"phi4:14b", "llama3"},
		sendResp:   &types.ChatMessage{Role: types.RoleAssistant, Content: "ok"},
	}
	cmd := NewSendCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"s1", "hi"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(fake.sends) != 1 || fake.sends[0].model != "phi4:14b" {
		t.Fatalf("expected first model, got %#v", fake.sends)
	}
}

func TestSendCommandPropagatesError(t *testing.T) {
	fake := &fakeCommandClient{sendErr: errors.New("backend down")}
	cmd := NewSendCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	err := cmd.Run([]string{"s1", "hi", "--model", "m"})
	if err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestSendCommandRequiresText(t *testing.T) {
	fake := &fakeCommandClient{}
	cmd := NewSendCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"s1"}); err == nil {
		t.Fatalf("expected missing text to fail")
	}
	if err := cmd.Run([]string{"s1", "   "}); err == nil {
		t.Fatalf("expected blank text to fail")
	}
	if len(fake.sends) != 0 {
		t.Fatalf("expected no sends")
	}
}

func TestRenameCommandPrintsEchoedTitle(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{renameResp: &types.ChatSession{ID: "s1", Title: "Server Title"}}
	cmd := NewRenameCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"s1", "My", "Title"}); err != nil {
		t.Fatalf("expected rename to succeed, got err=%v", err)
	}
	if len(fake.renames) != 1 || fake.renames[0] != "s1=My Title" {
		t.Fatalf("unexpected renames: %#v", fake.renames)
	}
	if strings.TrimSpace(stdout.String()) != "Server Title" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestRenameCommandFallsBackToRequestedTitle(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{renameResp: &types.ChatSession{ID: "s1"}}
	cmd := NewRenameCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"s1", "Mine"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "Mine" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestRemoveCommandDeletesEachID(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{}
	cmd := NewRemoveCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"a", "b"}); err != nil {
		t.Fatalf("expected rm to succeed, got err=%v", err)
	}
	if strings.Join(fake.deletes, ",") != "a,b" {
		t.Fatalf("unexpected deletes: %v", fake.deletes)
	}
	if stdout.String() != "a\nb\n" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestRemoveCommandStopsOnError(t *testing.T) {
	fake := &fakeCommandClient{deleteErr: errors.New("not found")}
	cmd := NewRemoveCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	err := cmd.Run([]string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "delete a") {
		t.Fatalf("expected delete error for a, got %v", err)
	}
	if len(fake.deletes) != 1 {
		t.Fatalf("expected to stop after first failure, got %v", fake.deletes)
	}
}

func TestModelsCommandPrintsOnePerLine(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{modelsResp: []string{"phi4:14b", "llama3"}}
	cmd := NewModelsCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if stdout.String() != "phi4:14b\nllama3\n" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestClientFactoryErrorIsReturned(t *testing.T) {
	failing := func() (commandClient, error) { return nil, errors.New("bad config") }
	cmd := NewModelsCommand(&bytes.Buffer{}, &bytes.Buffer{}, failing)
	if err := cmd.Run(nil); err == nil || err.Error() != "bad config" {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestConfigCommandDefaultJSON(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NEXUS_BACKEND_URL", "")
	stdout := &bytes.Buffer{}
	cmd := NewConfigCommand(stdout, &bytes.Buffer{})

	if err := cmd.Run([]string{"--default"}); err != nil {
		t.Fatalf("expected config to succeed, got err=%v", err)
	}
	var out configOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Backend.BaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected backend url: %q", out.Backend.BaseURL)
	}
	if out.Ollama.Model != "phi4:14b" || out.Relay.Address != "127.0.0.1:3000" {
		t.Fatalf("unexpected defaults: %#v", out)
	}
	if !strings.HasSuffix(out.ConfigPath, "config.toml") || !strings.HasSuffix(out.Local.DBPath, "local.db") {
		t.Fatalf("unexpected paths: %#v", out)
	}
}

func TestConfigCommandTOMLFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	stdout := &bytes.Buffer{}
	cmd := NewConfigCommand(stdout, &bytes.Buffer{})

	if err := cmd.Run([]string{"--default", "--format", "TOML"}); err != nil {
		t.Fatalf("expected config to succeed, got err=%v", err)
	}
	var out configOutput
	if err := toml.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode toml: %v\n%s", err, stdout.String())
	}
	if out.UI.NewSessionTitle != "New Chat" || out.UI.SessionLimit != 10 || out.Logging.Level != "info" {
		t.Fatalf("unexpected toml output: %#v", out)
	}
}

func TestConfigCommandRejectsUnknownFormat(t *testing.T) {
	cmd := NewConfigCommand(&bytes.Buffer{}, &bytes.Buffer{})
	if err := cmd.Run([]string{"--format", "yaml"}); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestUICommandPassesLocalFlag(t *testing.T) {
	var got []bool
	cmd := NewUICommand(&bytes.Buffer{}, func(local bool) error {
		got = append(got, local)
		return nil
	})
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := cmd.Run([]string{"--local"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("unexpected runs: %v", got)
	}
}

func TestRelayCommandPassesAddress(t *testing.T) {
	var got []string
	cmd := NewRelayCommand(&bytes.Buffer{}, func(addr string) error {
		got = append(got, addr)
		return nil
	})
	if err := cmd.Run([]string{"--addr", " :4000 "}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Join(got, "|") != ":4000|" {
		t.Fatalf("unexpected addresses: %q", got)
	}
}

func TestBuildCommandsRegistersEverySubcommand(t *testing.T) {
	commands := buildCommands(commandWiring{
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		newClient: fixedFactory(&fakeCommandClient{}),
		runUI:     func(bool) error { return nil },
		runRelay:  func(string) error { return nil },
	})
	for _, name := range []string{"ls", "new", "show", "send", "rename", "rm", "models", "ui", "relay", "config"} {
		if commands[name] == nil {
			t.Fatalf("missing command %q", name)
		}
	}
}

func TestVersionFromBuildInfo(t *testing.T) {
	tagged := &debug.BuildInfo{Main: debug.Module{Version: "v1.4.0"}}
	if got := versionFromBuildInfo(tagged); got != "v1.4.0" {
		t.Fatalf("expected module version, got %q", got)
	}
	dirty := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	if got := versionFromBuildInfo(dirty); got != "dev-0123456789ab+dirty" {
		t.Fatalf("unexpected dirty version: %q", got)
	}
	if got := versionFromBuildInfo(&debug.BuildInfo{}); got != "dev" {
		t.Fatalf("expected dev fallback, got %q", got)
	}
}

type sendCall struct {
	id      string
	content string
	model   string
}

type fakeCommandClient struct {
	listLimit    int
	listOffset   int
	sessionsResp []*types.ChatSession

	createTitles []string
	createResp   *types.ChatSession

	getResp *types.ChatSession

	renames    []string
	renameResp *types.ChatSession

	deletes   []string
	deleteErr error

	sends    []sendCall
	sendResp *types.ChatMessage
	sendErr  error

	messageCalls []string
	messagesResp []*types.ChatMessage

	listModelsCalls int
	modelsResp      []string
}

func (f *fakeCommandClient) ListSessions(_ context.Context, limit, offset int) ([]*types.ChatSession, error) {
	f.listLimit = limit
	f.listOffset = offset
	return f.sessionsResp, nil
}

func (f *fakeCommandClient) CreateSession(_ context.Context, title string) (*types.ChatSession, error) {
	f.createTitles = append(f.createTitles, title)
	return f.createResp, nil
}

func (f *fakeCommandClient) GetSession(_ context.Context, id string) (*types.ChatSession, error) {
	if f.getResp == nil {
		return nil, errors.New("not found")
	}
	return f.getResp, nil
}

func (f *fakeCommandClient) RenameSession(_ context.Context, id, title string) (*types.ChatSession, error) {
	f.renames = append(f.renames, id+"="+title)
	return f.renameResp, nil
}

func (f *fakeCommandClient) DeleteSession(_ context.Context, id string) error {
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func (f *fakeCommandClient) SendMessage(_ context.Context, id, content, model string) (*types.ChatMessage, error) {
	f.sends = append(f.sends, sendCall{id: id, content: content, model: model})
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendResp, nil
}

func (f *fakeCommandClient) ListMessages(_ context.Context, id string, limit, offset int) ([]*types.ChatMessage, error) {
	f.messageCalls = append(f.messageCalls, fmt.Sprintf("%s %d %d", id, limit, offset))
	return f.messagesResp, nil
}

func (f *fakeCommandClient) ListModels(context.Context) ([]string, error) {
	f.listModelsCalls++
	return f.modelsResp, nil
}

func fixedFactory(client commandClient) clientFactory {
	return func() (commandClient, error) {
		return client, nil
	}
}
