package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const configFile = "config.toml"

// ConfigStore keeps the configuration in a TOML file. Tables are flattened
// into dot-notation keys, so [sync] offline_enabled reads as
// "sync.offline_enabled".
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens the config file in configDir, creating the directory
// if needed. An empty configDir means ~/.feedsync.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		configDir = filepath.Join(home, ".feedsync")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, configFile),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// ==================== Getters ====================

// Get returns the raw value stored at key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	str, _ := getAs[string](s, key)
	return str
}

// GetInt accepts the int64 values TOML decodes to as well as int values set
// in memory.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (s *ConfigStore) GetBool(key string) bool {
	b, _ := getAs[bool](s, key)
	return b
}

// GetDuration reads "90s" style strings and whole seconds. Negative and
// unparsable values read as 0.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	val, _ := s.Get(key)
	var d time.Duration
	switch v := val.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0
		}
		d = parsed
	case time.Duration:
		d = v
	case int64:
		d = time.Duration(v) * time.Second
	case int:
		d = time.Duration(v) * time.Second
	}
	if d < 0 {
		return 0
	}
	return d
}

// GetTime reads TOML offset datetimes and RFC 3339 strings.
func (s *ConfigStore) GetTime(key string) time.Time {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case time.Time:
		return v.UTC()
	case toml.LocalDateTime:
		return v.AsTime(time.UTC)
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	default:
		return time.Time{}
	}
}

func getAs[T any](s *ConfigStore, key string) (T, bool) {
	val, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := val.(T)
	return v, ok
}

// ==================== Persistence ====================

// Set stores a value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Delete removes values and persists immediately.
func (s *ConfigStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data, key)
	}
	return s.save()
}

// Save persists the current configuration.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save replaces the file atomically so a watcher never reads a partial
// write. Caller must hold mu.
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing configuration: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing configuration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	return os.Rename(tmp.Name(), s.filePath)
}

// Load replaces the in-memory values with the file contents. A missing file
// loads as empty.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		raw = nil
	} else if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	var loaded map[string]any
	if err := toml.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	flat := make(map[string]any, len(loaded))
	flatten(loaded, "", flat)

	s.mu.Lock()
	s.data = flat
	s.mu.Unlock()
	return nil
}

// flatten copies m into out with nested tables joined by dots.
func flatten(m map[string]any, prefix string, out map[string]any) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(nested, key, out)
			continue
		}
		out[key] = value
	}
}

// ==================== Watching ====================

// watchSettle is how long the file must stay quiet before a reload, so a
// writer that truncates and then writes is read once it is done.
const watchSettle = 100 * time.Millisecond

// Watch reloads the configuration whenever the file changes, including
// edits by other processes, and then calls onChange, if set. An update that
// fails to parse is logged and the previous configuration is kept. Blocks
// until ctx is done.
func (s *ConfigStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	// Atomic saves replace the file, so watch the directory.
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Debug("watching configuration file %s", s.filePath)

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if filepath.Clean(event.Name) != s.filePath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				reload = time.After(watchSettle)
			}

		case <-reload:
			reload = nil
			if err := s.Load(); err != nil {
				logger.Warn("config reload failed, keeping previous values: %v", err)
				continue
			}
			logger.Debug("configuration reloaded")
			if onChange != nil {
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			logger.Warn("config watcher error: %v", err)
		}
	}
}
