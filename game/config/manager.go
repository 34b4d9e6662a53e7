package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/boardsmith/game/engine"
	"github.com/wricardo/boardsmith/game/service"
)

var (
	ErrConfigNotFound    = errors.New("configuration not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidConfigName = errors.New("invalid configuration name")
	ErrUnplayableConfig  = errors.New("configuration does not describe a playable board")
)

// DefaultConfigName is the preset used when none is requested
const DefaultConfigName = "classic"

// Manager loads board presets from a directory and caches them
type Manager struct {
	configDir     string
	defaultConfig *engine.BoardConfig
	configs       map[string]*engine.BoardConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.BoardConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads a preset by name
func (m *Manager) LoadConfig(name string) (*engine.BoardConfig, error) {
	name = strings.TrimSuffix(name, ".json")
	if err := checkName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := engine.ParseBoardConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}
	if config.Name == "" {
		config.Name = name
	}

	m.configs[name] = config
	return config, nil
}

// ListConfigs returns information about all loadable presets, sorted by ID
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		config, err := m.LoadConfig(id)
		if err != nil {
			// Skip invalid configs
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			Width:       config.Width,
			Height:      config.Height,
			StartFields: len(config.StartFields),
			CheckPoints: len(config.CheckPoints),
			Walls:       len(config.Walls),
		})
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].ConfigID < configs[j].ConfigID
	})
	return configs, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *engine.BoardConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default preset by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached preset and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.BoardConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// SaveConfig writes a preset to disk. Only boards that build and pass
// reachability validation are stored.
func (m *Manager) SaveConfig(name string, config *engine.BoardConfig) error {
	name = strings.TrimSuffix(name, ".json")
	if err := checkName(name); err != nil {
		return err
	}

	board, err := config.Board()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if result := engine.Validate(board); !result.Valid {
		return fmt.Errorf("%w: %s", ErrUnplayableConfig, result.Reason)
	}

	stored := *config
	if stored.Name == "" {
		stored.Name = name
	}

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = &stored
	m.mu.Unlock()

	return nil
}

// loadDefaultConfig picks classic, then the first loadable preset, then a
// built-in board
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			m.setDefault(minimalConfig())
			return nil
		}

		config, err = m.LoadConfig(configs[0].ConfigID)
		if err != nil {
			m.setDefault(minimalConfig())
			return nil
		}
	}

	m.setDefault(config)
	return nil
}

func (m *Manager) setDefault(config *engine.BoardConfig) {
	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.configDir, name+".json")
}

// checkName keeps preset names inside the config directory
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidConfigName, name)
	}
	return nil
}

// minimalConfig is a small playable board:
//
//	S . C
//	. E .
//	. . C
func minimalConfig() *engine.BoardConfig {
	return &engine.BoardConfig{
		Name:        "default",
		Description: "Default minimal board",
		Width:       3,
		Height:      3,
		StartFields: []engine.DirectedPosition{
			{Position: engine.Position{X: 0, Y: 0}, Direction: engine.East},
		},
		CheckPoints: []engine.Position{{X: 2, Y: 0}, {X: 2, Y: 2}},
		Eye:         &engine.DirectedPosition{Position: engine.Position{X: 1, Y: 1}, Direction: engine.South},
	}
}
