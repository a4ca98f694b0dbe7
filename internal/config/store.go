package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

// Section is the INI section holding every ThreatFox setting.
const Section = "default"

// Keys of the settings section.
const (
	KeyAPIKey              = "api_key"
	KeyAPIURL              = "api_url"
	KeyProxy               = "proxy"
	KeyMaxResultConstraint = "max_result_constraint"
)

// SystemConfigPath is read before the user's file.
const SystemConfigPath = "/etc/threatfox/config.ini"

// UserConfigPath returns ~/.threatfox/config.ini, or "" when the home
// directory cannot be determined.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".threatfox", "config.ini")
}

// SearchPaths returns the files LoadStore reads when given none.
// Later files override earlier ones.
func SearchPaths() []string {
	paths := []string{SystemConfigPath}
	if p := UserConfigPath(); p != "" {
		paths = append(paths, p)
	}
	return paths
}

// Store is the persisted INI configuration. It always has a "default" section.
type Store struct {
	mu   sync.RWMutex
	file *ini.File
}

// NewStore returns an empty store.
func NewStore() *Store {
	f := ini.Empty()
	f.Section(Section)
	return &Store{file: f}
}

// LoadStore reads paths in order, or SearchPaths when none are given.
// Missing files are skipped; unreadable or malformed files are errors.
func LoadStore(paths ...string) (*Store, error) {
	if len(paths) == 0 {
		paths = SearchPaths()
	}

	sources := make([]any, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		sources = append(sources, p)
	}
	if len(sources) == 0 {
		return NewStore(), nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{Loose: true}, sources[0], sources[1:]...)
	if err != nil {
		return nil, fmt.Errorf("loading config files %v: %w", paths, err)
	}
	f.Section(Section)

	slog.Debug("loaded configuration", slog.Any("paths", paths))
	return &Store{file: f}, nil
}

// Get returns a setting and whether it is present and non-empty.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, err := s.file.Section(Section).GetKey(key)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(k.String())
	return v, v != ""
}

// Int returns an integer setting. A present value that is not an integer is an error.
func (s *Store) Int(key string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, err := s.file.Section(Section).GetKey(key)
	if err != nil || strings.TrimSpace(k.String()) == "" {
		return 0, false, nil
	}
	n, err := k.Int()
	if err != nil {
		return 0, false, fmt.Errorf("config key %s: %w", key, err)
	}
	return n, true, nil
}

// Set changes a setting in memory.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Section(Section).Key(key).SetValue(value)
}

// SaveAPIKey sets api_key and writes the store to path ("" means UserConfigPath).
func (s *Store) SaveAPIKey(key, path string) error {
	s.Set(KeyAPIKey, key)
	return s.SaveConfiguration(path)
}

// SaveAPIURL sets api_url and writes the store to path ("" means UserConfigPath).
func (s *Store) SaveAPIURL(url, path string) error {
	s.Set(KeyAPIURL, url)
	return s.SaveConfiguration(path)
}

// SaveConfiguration writes the whole store to path ("" means UserConfigPath).
// The ~/.threatfox directory is created when saving to the user path; any
// other missing parent directory is an error.
func (s *Store) SaveConfiguration(path string) error {
	userPath := UserConfigPath()
	if path == "" {
		path = userPath
	}
	if path == "" {
		return errors.New("no configuration path: home directory is unknown")
	}

	if path == userPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	var buf bytes.Buffer
	s.mu.RLock()
	_, err := s.file.WriteTo(&buf)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Error("part of the config path does not exist", slog.String("path", path))
		}
		return fmt.Errorf("saving configuration to %s: %w", path, err)
	}

	slog.Info("saved configuration", slog.String("path", path))
	return nil
}
