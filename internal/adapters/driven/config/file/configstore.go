package file

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	storagefile "github.com/custodia-labs/xbm/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultDir is the state directory used when none is given.
const DefaultDir = ".xbm"

// FileName is the configuration file inside the state directory.
const FileName = "config.toml"

// ConfigStore keeps xbm's settings in <state-dir>/config.toml.
//
// In memory every value lives under its dotted key ("sync.page_size"); on
// disk the keys become TOML tables ([sync] page_size = ...).
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens the config file in stateDir, creating the directory.
// An empty stateDir means DefaultDir. A missing file is an empty config; the
// file is written on the first Set or Save.
func NewConfigStore(stateDir string) (*ConfigStore, error) {
	if stateDir == "" {
		stateDir = DefaultDir
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: create state directory: %w", domain.ErrStorage, err)
	}

	s := &ConfigStore{
		path:   filepath.Join(stateDir, FileName),
		values: make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// lookup returns the value under key when it has type T.
func lookup[T any](s *ConfigStore, key string) (T, bool) {
	var zero T
	raw, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// Get returns the raw value under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns key as a string, or "".
func (s *ConfigStore) GetString(key string) string {
	v, _ := lookup[string](s, key)
	return v
}

// GetInt returns key as an int, or 0. Values read from TOML are int64.
func (s *ConfigStore) GetInt(key string) int {
	raw, _ := s.Get(key)
	switch n := raw.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// GetBool returns key as a bool, or false.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := lookup[bool](s, key)
	return v
}

// GetStringSlice returns key as a list: a TOML array (non-strings dropped)
// or a comma-separated string.
func (s *ConfigStore) GetStringSlice(key string) []string {
	raw, ok := s.Get(key)
	if !ok {
		return nil
	}

	var out []string
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out = make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetDuration parses key as a Go duration ("30s"), or returns 0.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	d, err := time.ParseDuration(s.GetString(key))
	if err != nil {
		return 0
	}
	return d
}

// Set stores value under key and rewrites the file. On a write failure the
// previous value is restored.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.write(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Save rewrites the file from memory.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write replaces the file atomically with mode 0600, since it may hold the
// client secret. The caller holds mu.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nestMap(s.values))
	if err != nil {
		return fmt.Errorf("%w: encode config: %w", domain.ErrInvalidInput, err)
	}
	if err := storagefile.WriteAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrStorage, s.path, err)
	}
	return nil
}

// Load replaces the in-memory values with the file's. A missing file is empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.values = make(map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", domain.ErrStorage, s.path, err)
	}

	tables := make(map[string]any)
	if err := toml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, s.path, err)
	}

	s.values = make(map[string]any)
	flattenInto(s.values, tables, "")
	return nil
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}

// flattenInto copies tables into dst under dotted keys:
// {"sync": {"page_size": 50}} becomes {"sync.page_size": 50}.
func flattenInto(dst, tables map[string]any, prefix string) {
	for name, v := range tables {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if table, ok := v.(map[string]any); ok {
			flattenInto(dst, table, key)
			continue
		}
		dst[key] = v
	}
}

// nestMap turns dotted keys back into tables for encoding.
// Keys are visited in sorted order, so a value always precedes the keys it
// prefixes; such keys keep their dotted form.
func nestMap(flat map[string]any) map[string]any {
	result := make(map[string]any)

	for _, key := range slices.Sorted(maps.Keys(flat)) {
		parts := strings.Split(key, ".")
		node := result
		for _, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				child = make(map[string]any)
				node[part] = child
			}
			next, ok := child.(map[string]any)
			if !ok {
				node = nil
				break
			}
			node = next
		}
		if node == nil {
			result[key] = flat[key]
			continue
		}
		node[parts[len(parts)-1]] = flat[key]
	}

	return result
}
