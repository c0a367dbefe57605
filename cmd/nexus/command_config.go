package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"nexus/internal/config"
)

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
}

// configOutput is the effective configuration after defaults and
// environment overrides are applied.
type configOutput struct {
	ConfigPath string            `json:"config_path" toml:"config_path"`
	Backend    effectiveBackend  `json:"backend" toml:"backend"`
	Ollama     effectiveOllama   `json:"ollama" toml:"ollama"`
	Relay      effectiveRelay    `json:"relay" toml:"relay"`
	Local      effectiveLocal    `json:"local" toml:"local"`
	Logging    effectiveLogging  `json:"logging" toml:"logging"`
	UI         effectiveUIConfig `json:"ui" toml:"ui"`
}

type effectiveBackend struct {
	BaseURL string `json:"base_url" toml:"base_url"`
	Timeout string `json:"timeout,omitempty" toml:"timeout,omitempty"`
}

type effectiveOllama struct {
	BaseURL string `json:"base_url" toml:"base_url"`
	Model   string `json:"model" toml:"model"`
}

type effectiveRelay struct {
	Address string `json:"address" toml:"address"`
}

type effectiveLocal struct {
	DBPath string `json:"db_path" toml:"db_path"`
}

type effectiveLogging struct {
	Level string `json:"level" toml:"level"`
}

type effectiveUIConfig struct {
	NewSessionTitle string `json:"new_session_title" toml:"new_session_title"`
	SessionLimit    int    `json:"session_limit" toml:"session_limit"`
}

func NewConfigCommand(stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		stdout: stdout,
		stderr: stderr,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	payload, err := buildConfigOutput(*defaults)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func buildConfigOutput(defaults bool) (configOutput, error) {
	path, err := config.CoreConfigPath()
	if err != nil {
		return configOutput{}, err
	}
	var cfg config.CoreConfig
	if defaults {
		cfg = config.DefaultCoreConfig()
	} else {
		cfg, err = config.LoadCoreConfig()
		if err != nil {
			return configOutput{}, err
		}
	}
	dbPath, err := cfg.LocalDBPath()
	if err != nil {
		return configOutput{}, err
	}
	out := configOutput{
		ConfigPath: path,
		Backend: effectiveBackend{
			BaseURL: cfg.BackendBaseURL(),
		},
		Ollama: effectiveOllama{
			BaseURL: cfg.OllamaBaseURL(),
			Model:   cfg.OllamaModel(),
		},
		Relay:   effectiveRelay{Address: cfg.RelayAddress()},
		Local:   effectiveLocal{DBPath: dbPath},
		Logging: effectiveLogging{Level: cfg.LogLevel()},
		UI: effectiveUIConfig{
			NewSessionTitle: cfg.NewSessionTitle(),
			SessionLimit:    cfg.SessionLimit(),
		},
	}
	if timeout := cfg.BackendTimeout(); timeout > 0 {
		out.Backend.Timeout = timeout.String()
	}
	return out, nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}
