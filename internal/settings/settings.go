/*
Package settings persists the per-user sharing preferences as a YAML file and
notifies listeners whenever they change.
*/
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/BioHazard786/rtcshare/internal/signal"
)

// Setting keys accepted by Store.Set and Store.Get.
const (
	KeyDisabled      = "disabled"
	KeyUsername      = "username"
	KeyUsercolor     = "usercolor"
	KeyRoom          = "room"
	KeyRoomPrefix    = "roomPrefix"
	KeySignalingURLs = "signalingUrls"
)

// Keys lists every setting key in display order.
var Keys = []string{KeyDisabled, KeyUsername, KeyUsercolor, KeyRoom, KeyRoomPrefix, KeySignalingURLs}

var ErrUnknownKey = errors.New("unknown setting")

// Settings is the persisted preference set. Zero values mean "not set".
type Settings struct {
	Disabled      bool     `yaml:"disabled,omitempty"`
	Username      string   `yaml:"username,omitempty"`
	Usercolor     string   `yaml:"usercolor,omitempty"`
	Room          string   `yaml:"room,omitempty"`
	RoomPrefix    string   `yaml:"roomPrefix,omitempty"`
	SignalingURLs []string `yaml:"signalingUrls,omitempty"`
}

func (s Settings) clone() Settings {
	s.SignalingURLs = slices.Clone(s.SignalingURLs)
	return s
}

// Store holds the composite settings loaded from a single file.
type Store struct {
	path string

	mu       sync.RWMutex
	settings Settings

	changed signal.Signal
}

// DefaultPath is <user config dir>/rtcshare/settings.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "rtcshare", "settings.yaml"), nil
}

// Empty returns a store with nothing set that will save to path.
func Empty(path string) *Store {
	return &Store{path: path}
}

// Load reads the settings file at path. A missing file is not an error.
func Load(path string) (*Store, error) {
	s := Empty(path)
	if err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) read() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.settings = Settings{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var loaded Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse settings %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
	return nil
}

// Path is the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Composite returns a copy of the current settings.
func (s *Store) Composite() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

// Changed fires once after every successful Set, Update or Reload.
func (s *Store) Changed() *signal.Signal {
	return &s.changed
}

// Reload re-reads the file, e.g. after another process edited it.
func (s *Store) Reload() error {
	if err := s.read(); err != nil {
		return err
	}
	s.changed.Emit()
	return nil
}

// Update applies fn to the settings, saves them and emits Changed.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	next := s.settings.clone()
	fn(&next)
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = next
	s.mu.Unlock()

	s.changed.Emit()
	return nil
}

// Set parses value for key and persists it. An empty value clears the key.
func (s *Store) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var apply func(*Settings)
	switch key {
	case KeyDisabled:
		disabled := false
		if value != "" {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			disabled = b
		}
		apply = func(st *Settings) { st.Disabled = disabled }
	case KeyUsername:
		apply = func(st *Settings) { st.Username = value }
	case KeyUsercolor:
		apply = func(st *Settings) { st.Usercolor = value }
	case KeyRoom:
		apply = func(st *Settings) { st.Room = value }
	case KeyRoomPrefix:
		apply = func(st *Settings) { st.RoomPrefix = value }
	case KeySignalingURLs:
		urls := splitList(value)
		apply = func(st *Settings) { st.SignalingURLs = urls }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	return s.Update(apply)
}

// Get returns the textual form of a single setting.
func (s *Store) Get(key string) (string, error) {
	st := s.Composite()
	switch key {
	case KeyDisabled:
		return strconv.FormatBool(st.Disabled), nil
	case KeyUsername:
		return st.Username, nil
	case KeyUsercolor:
		return st.Usercolor, nil
	case KeyRoom:
		return st.Room, nil
	case KeyRoomPrefix:
		return st.RoomPrefix, nil
	case KeySignalingURLs:
		return strings.Join(st.SignalingURLs, ","), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// write stores st atomically: a temp file in the same directory is renamed
// over the target.
func (s *Store) write(st Settings) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
