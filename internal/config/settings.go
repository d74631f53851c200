package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// ErrInvalidSettings is returned by Validate for unusable settings.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds all configuration options.
type Settings struct {
	// Paths
	RootDir  string `json:"root_dir"`
	LockPath string `json:"lock_path"`

	// Run modes
	Quiet   bool `json:"quiet"`
	Verbose bool `json:"verbose"`
	LogJSON bool `json:"log_json"`
	Unique  bool `json:"unique"`

	// Interactive forces the live progress line on or off. Nil means
	// detect whether stdout is a terminal.
	Interactive *bool `json:"interactive,omitempty"`

	// Transfer settings
	ChunkSize      int     `json:"chunk_size"`
	HTTPTimeout    float64 `json:"http_timeout"` // seconds
	UserAgent      string  `json:"user_agent"`
	CheckFreeSpace bool    `json:"check_free_space"`

	// Manifest loading
	ManifestWorkers int `json:"manifest_workers"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	rootDir, _ := os.Getwd()
	return &Settings{
		RootDir:  rootDir,
		LockPath: filepath.Join(os.TempDir(), "downloader.lock"),

		ChunkSize:      512,
		HTTPTimeout:    60,
		CheckFreeSpace: true,

		ManifestWorkers: 4,
	}
}

// Load reads settings from a JSON or YAML file.
//
// Values missing from the file keep their defaults. A missing file
// yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	return settings, nil
}

// Save writes settings to a file, as YAML for .yaml/.yml paths and as
// JSON otherwise.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks for contradictory or unusable settings.
func (s *Settings) Validate() error {
	if s.Quiet && s.Verbose {
		return errors.Wrap(ErrInvalidSettings, "quiet and verbose cannot be specified at the same time")
	}
	if s.ChunkSize <= 0 {
		return errors.Wrapf(ErrInvalidSettings, "chunk size must be positive, got %d", s.ChunkSize)
	}
	if s.ManifestWorkers <= 0 {
		return errors.Wrapf(ErrInvalidSettings, "manifest workers must be positive, got %d", s.ManifestWorkers)
	}
	if s.RootDir == "" {
		return errors.Wrap(ErrInvalidSettings, "root directory is empty")
	}
	return nil
}

// Timeout returns HTTPTimeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.HTTPTimeout * float64(time.Second))
}

// IsInteractive resolves whether progress should be rendered as a live
// line, using detect when Interactive is unset.
func (s *Settings) IsInteractive(detect func() bool) bool {
	if s.Interactive != nil {
		return *s.Interactive
	}
	return detect()
}
