package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultCategory is the category of scenes that were never sorted
const DefaultCategory = "Uncategorized"

// Duration is a time.Duration stored as a string like "500ms"
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"500ms\": %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MIDIConfig tunes how the Launchpad is found and supervised
type MIDIConfig struct {
	Backend             string   `json:"backend" yaml:"backend"` // "rtmidi" or "coremidi"
	ClientName          string   `json:"client_name" yaml:"client_name"`
	Family              string   `json:"family" yaml:"family"`
	Qualifiers          []string `json:"qualifiers" yaml:"qualifiers"`
	DAWMarker           string   `json:"daw_marker" yaml:"daw_marker"`
	EnumerationAttempts int      `json:"enumeration_attempts" yaml:"enumeration_attempts"`
	EnumerationPause    Duration `json:"enumeration_pause" yaml:"enumeration_pause"`
	SettleDelay         Duration `json:"settle_delay" yaml:"settle_delay"`
	RetryDelay          Duration `json:"retry_delay" yaml:"retry_delay"`
}

// LogConfig selects the log level and an optional log file
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Scene is the part of a lighting scene the controller cares about: its optional
// hardware button. Everything else about a scene belongs to the show engine.
type Scene struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`

	LaunchpadButton *uint8 `json:"launchpad_btn,omitempty" yaml:"launchpad_btn,omitempty"`
	LaunchpadIsCC   bool   `json:"launchpad_is_cc" yaml:"launchpad_is_cc"`
	LaunchpadColor  *uint8 `json:"launchpad_color,omitempty" yaml:"launchpad_color,omitempty"`
}

// NewScene creates an unbound scene with a generated ID
func NewScene(name string) Scene {
	return Scene{
		ID:       uuid.New().String(),
		Name:     name,
		Category: DefaultCategory,
	}
}

// Bind assigns the scene to a pad (Note) or button (CC) with a palette color
func (s *Scene) Bind(index uint8, isCC bool, color uint8) {
	s.LaunchpadButton = &index
	s.LaunchpadIsCC = isCC
	s.LaunchpadColor = &color
}

// Config holds application configuration
type Config struct {
	MIDIEnabled     bool       `json:"midi_enabled" yaml:"midi_enabled"`
	MIDI            MIDIConfig `json:"midi" yaml:"midi"`
	Log             LogConfig  `json:"log" yaml:"log"`
	Scenes          []Scene    `json:"scenes" yaml:"scenes"`
	SelectedSceneID string     `json:"selected_scene_id,omitempty" yaml:"selected_scene_id,omitempty"`

	path string
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		MIDIEnabled: true,
		MIDI: MIDIConfig{
			Backend:             "rtmidi",
			ClientName:          "launchbridge",
			Family:              "Launchpad",
			Qualifiers:          []string{"MIDI", "LPMiniMK3 MIDI"},
			DAWMarker:           "DAW",
			EnumerationAttempts: 3,
			EnumerationPause:    Duration(500 * time.Millisecond),
			SettleDelay:         Duration(100 * time.Millisecond),
			RetryDelay:          Duration(2 * time.Second),
		},
		Log:    LogConfig{Level: "info"},
		Scenes: []Scene{},
	}
}

// configDir returns the platform-appropriate config directory
func configDir() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, "launchbridge"), nil
}

// ConfigPath returns the full path to the default config file
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the config at path, or at ConfigPath when path is empty.
// A missing file yields the defaults; keys absent from the file keep their default.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Ensure slices are not nil
	if cfg.Scenes == nil {
		cfg.Scenes = []Scene{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the MIDI service cannot run with
func (c *Config) Validate() error {
	m := c.MIDI
	switch {
	case strings.TrimSpace(m.Family) == "":
		return errors.New("midi.family must not be empty")
	case m.EnumerationAttempts < 1:
		return fmt.Errorf("midi.enumeration_attempts must be at least 1, got %d", m.EnumerationAttempts)
	case m.EnumerationPause <= 0, m.SettleDelay <= 0, m.RetryDelay <= 0:
		return errors.New("midi delays must be positive")
	}

	seen := make(map[string]bool, len(c.Scenes))
	for _, s := range c.Scenes {
		if seen[s.ID] {
			return fmt.Errorf("duplicate scene id %q", s.ID)
		}
		seen[s.ID] = true
		if s.LaunchpadButton != nil && *s.LaunchpadButton > 127 {
			return fmt.Errorf("scene %q: launchpad_btn %d out of range", s.Name, *s.LaunchpadButton)
		}
		if s.LaunchpadColor != nil && *s.LaunchpadColor > 127 {
			return fmt.Errorf("scene %q: launchpad_color %d out of range", s.Name, *s.LaunchpadColor)
		}
	}
	return nil
}

// Path returns the file the config was loaded from and is saved to
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to disk
func (c *Config) Save() error {
	if c.path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		c.path = p
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(c.path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0644)
}

// GetScene returns a scene by ID, or nil if not found
func (c *Config) GetScene(id string) *Scene {
	for i := range c.Scenes {
		if c.Scenes[i].ID == id {
			return &c.Scenes[i]
		}
	}
	return nil
}

// AddScene adds a scene to the config
func (c *Config) AddScene(scene Scene) {
	c.Scenes = append(c.Scenes, scene)
}

// RemoveScene removes a scene by ID, clearing the selection if it pointed there
func (c *Config) RemoveScene(id string) {
	for i, s := range c.Scenes {
		if s.ID == id {
			c.Scenes = append(c.Scenes[:i], c.Scenes[i+1:]...)
			break
		}
	}
	if c.SelectedSceneID == id {
		c.SelectedSceneID = ""
	}
}
