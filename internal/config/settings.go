package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultBackendBaseURL = "http://localhost:8080"
	defaultOllamaBaseURL  = "http://localhost:11434"
	defaultOllamaModel    = "phi4:14b"
	defaultRelayAddress   = "127.0.0.1:3000"
	defaultSessionTitle   = "New Chat"
	defaultSessionLimit   = 10

	// BackendURLEnv overrides [backend] base_url when set.
	BackendURLEnv = "NEXUS_BACKEND_URL"
)

type CoreConfig struct {
	Backend CoreBackendConfig `toml:"backend"`
	Ollama  CoreOllamaConfig  `toml:"ollama"`
	Relay   CoreRelayConfig   `toml:"relay"`
	Local   CoreLocalConfig   `toml:"local"`
	Logging CoreLoggingConfig `toml:"logging"`
	UI      CoreUIConfig      `toml:"ui"`
}

type CoreBackendConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

type CoreOllamaConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

type CoreRelayConfig struct {
	Address string `toml:"address"`
}

type CoreLocalConfig struct {
	DBPath string `toml:"db_path"`
}

type CoreLoggingConfig struct {
	Level string `toml:"level"`
}

type CoreUIConfig struct {
	NewSessionTitle string `toml:"new_session_title"`
	SessionLimit    int    `toml:"session_limit"`
}

func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Backend: CoreBackendConfig{
			BaseURL: defaultBackendBaseURL,
		},
		Ollama: CoreOllamaConfig{
			BaseURL: defaultOllamaBaseURL,
			Model:   defaultOllamaModel,
		},
		Relay: CoreRelayConfig{
			Address: defaultRelayAddress,
		},
		Logging: CoreLoggingConfig{
			Level: "info",
		},
		UI: CoreUIConfig{
			NewSessionTitle: defaultSessionTitle,
			SessionLimit:    defaultSessionLimit,
		},
	}
}

func LoadCoreConfig() (CoreConfig, error) {
	path, err := CoreConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	return loadCoreConfigFromPath(path)
}

func (c CoreConfig) BackendBaseURL() string {
	if env := strings.TrimSpace(os.Getenv(BackendURLEnv)); env != "" {
		return normalizeBaseURL(env, defaultBackendBaseURL)
	}
	return normalizeBaseURL(c.Backend.BaseURL, defaultBackendBaseURL)
}

// BackendTimeout returns the per-request timeout; zero means none.
func (c CoreConfig) BackendTimeout() time.Duration {
	raw := strings.TrimSpace(c.Backend.Timeout)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (c CoreConfig) OllamaBaseURL() string {
	return normalizeBaseURL(c.Ollama.BaseURL, defaultOllamaBaseURL)
}

func (c CoreConfig) OllamaModel() string {
	model := strings.TrimSpace(c.Ollama.Model)
	if model == "" {
		return defaultOllamaModel
	}
	return model
}

func (c CoreConfig) RelayAddress() string {
	addr := strings.TrimSpace(c.Relay.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultRelayAddress
	}
	return addr
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c CoreConfig) NewSessionTitle() string {
	title := strings.TrimSpace(c.UI.NewSessionTitle)
	if title == "" {
		return defaultSessionTitle
	}
	return title
}

// SessionLimit is how many sessions the UI loads at startup.
func (c CoreConfig) SessionLimit() int {
	if c.UI.SessionLimit <= 0 {
		return defaultSessionLimit
	}
	return c.UI.SessionLimit
}

// LocalDBPath resolves [local] db_path; relative paths live under the data dir.
func (c CoreConfig) LocalDBPath() (string, error) {
	path := strings.TrimSpace(c.Local.DBPath)
	if path == "" {
		return LocalDBPath()
	}
	return resolveConfigPath(path)
}

func loadCoreConfigFromPath(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if err := readTOML(path, &cfg); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}

func normalizeBaseURL(raw, fallback string) string {
	value := strings.TrimRight(strings.TrimSpace(raw), "/")
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		value = "http://" + value
	}
	return value
}
