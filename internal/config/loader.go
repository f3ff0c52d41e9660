package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Loader handles loading and merging settings from multiple sources.
type Loader struct {
	// userDir is the user-level config directory (e.g., ~/.hookgate)
	userDir string

	// projectDir is the project-level config directory (e.g., .hookgate)
	projectDir string
}

// NewLoader creates a settings loader with the default directories.
func NewLoader() *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		userDir:    filepath.Join(homeDir, ".hookgate"),
		projectDir: ".hookgate",
	}
}

// NewLoaderWithOptions creates a loader with custom directories.
func NewLoaderWithOptions(userDir, projectDir string) *Loader {
	return &Loader{
		userDir:    userDir,
		projectDir: projectDir,
	}
}

// Load loads and merges settings from all sources.
// Priority (lowest to highest):
//  1. <userDir>/settings.json
//  2. <projectDir>/settings.json
//  3. <projectDir>/settings.local.json
//
// Later sources override earlier ones. Missing or unparsable files
// are skipped; hook misconfiguration must not abort the pipeline.
func (l *Loader) Load() (*Settings, error) {
	settings := NewSettings()

	sources := []string{
		filepath.Join(l.userDir, "settings.json"),
		filepath.Join(l.projectDir, "settings.json"),
		filepath.Join(l.projectDir, "settings.local.json"),
	}

	for _, src := range sources {
		if data, err := os.ReadFile(src); err == nil {
			var s Settings
			if err := json.Unmarshal(data, &s); err == nil {
				settings = MergeSettings(settings, &s)
			}
		}
	}

	return settings, nil
}

// LoadFile loads settings from a specific file.
func (l *Loader) LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// GetUserDir returns the user config directory path.
func (l *Loader) GetUserDir() string {
	return l.userDir
}

// GetProjectDir returns the project config directory path.
func (l *Loader) GetProjectDir() string {
	return l.projectDir
}
