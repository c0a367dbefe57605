package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".nexus"

// DataDir returns the base data directory for nexus.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// CoreConfigPath returns the path to the TOML configuration file.
func CoreConfigPath() (string, error) {
	return dataFile("config.toml")
}

// LocalDBPath returns the default bbolt file used by the standalone backend.
func LocalDBPath() (string, error) {
	return dataFile("local.db")
}

// UILogPath returns the log file written while the terminal UI owns stdout.
func UILogPath() (string, error) {
	return dataFile("ui.log")
}

func dataFile(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
