// Package config provides configuration management for handoff projects.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dvanosdol88/ai-assistants/internal/filemanager"
)

const (
	// HandoffDir is the directory name for handoff metadata
	HandoffDir = ".handoff"
	// ConfigFile is the filename for the handoff configuration
	ConfigFile = "config.yaml"
	// ProjectRootEnv overrides project root discovery
	ProjectRootEnv = "ASSISTANT_PROJECT_ROOT"
)

// ErrNotInitialized is returned by Load when no configuration exists
var ErrNotInitialized = errors.New("handoff not initialized. Run 'handoff init' first")

// Manager handles handoff configuration
type Manager struct {
	projectRoot string
	configPath  string
}

// NewManager creates a new configuration manager
func NewManager(projectRoot string) *Manager {
	return &Manager{
		projectRoot: projectRoot,
		configPath:  filepath.Join(projectRoot, HandoffDir, ConfigFile),
	}
}

// Load reads the configuration from disk
func (m *Manager) Load() (*Config, error) {
	config, err := LoadWithValidation(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}

	// Apply defaults after validation
	applyDefaults(config)

	return config, nil
}

// Save writes the configuration to disk
func (m *Manager) Save(config *Config) error {
	if err := ValidateConfig(config); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := filemanager.WriteFileAtomic(m.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// IsInitialized checks if handoff has been initialized in the project
func (m *Manager) IsInitialized() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// GetProjectRoot returns the project root directory
func (m *Manager) GetProjectRoot() string {
	return m.projectRoot
}

// GetHandoffDir returns the .handoff directory path
func (m *Manager) GetHandoffDir() string {
	return filepath.Join(m.projectRoot, HandoffDir)
}

// GetConfigPath returns the configuration file path
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SharedDir returns the absolute mailbox directory for cfg
func (m *Manager) SharedDir(cfg *Config) string {
	return m.resolve(cfg.SharedDir, DefaultSharedDir)
}

// WorkspaceDir returns the absolute add_file root for cfg
func (m *Manager) WorkspaceDir(cfg *Config) string {
	return m.resolve(cfg.Workspace, ".")
}

func (m *Manager) resolve(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(m.projectRoot, path)
}

// FindProjectRoot searches for the project root by looking for .handoff/config.yaml
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, HandoffDir, ConfigFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("not in a handoff project (no %s directory found)", HandoffDir)
}

// ResolveProjectRoot picks the project root from, in order, an explicit
// value, the ASSISTANT_PROJECT_ROOT environment variable, and discovery
// from the working directory.
func ResolveProjectRoot(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(ProjectRootEnv)
	}
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	return FindProjectRoot()
}

// applyDefaults applies default values to the configuration
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	if cfg.SharedDir == "" {
		cfg.SharedDir = DefaultSharedDir
	}
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = DefaultPollInterval
	}
	if cfg.Poll.SettleTime == 0 {
		cfg.Poll.SettleTime = DefaultSettleTime
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.InitialBackoff == 0 {
		cfg.Retry.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.Retry.MaxBackoff == 0 {
		cfg.Retry.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Retry.MaxBackoff < cfg.Retry.InitialBackoff {
		cfg.Retry.MaxBackoff = cfg.Retry.InitialBackoff
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
}
