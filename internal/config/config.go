// ABOUTME: Optional YAML configuration file
// ABOUTME: Holds playback, sync, storage, cache and server defaults that flags override
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/scummtools/robot-go/internal/storage"
	"github.com/scummtools/robot-go/pkg/audio/reconstruct"
	psync "github.com/scummtools/robot-go/pkg/sync"
)

// FileName is the default config file name under the user config dir
const FileName = "robot.yaml"

// Config is the file layout
type Config struct {
	Playback Playback `yaml:"playback"`
	Sync     Sync     `yaml:"sync"`
	Storage  Storage  `yaml:"storage"`
	Cache    Cache    `yaml:"cache"`
	Server   Server   `yaml:"server"`
}

type Playback struct {
	Volume   int `yaml:"volume"`
	Stride   int `yaml:"stride"`
	BufferMs int `yaml:"buffer_ms"`
}

type Sync struct {
	CheckInterval float64 `yaml:"check_interval"`
}

type Storage struct {
	Dir      string `yaml:"dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Profile  string `yaml:"profile"`

	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type Cache struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Server struct {
	Port  int    `yaml:"port"`
	Name  string `yaml:"name"`
	MDNS  bool   `yaml:"mdns"`
	Codec string `yaml:"codec"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Playback: Playback{Volume: 100, Stride: int(reconstruct.StrideQuad), BufferMs: 50},
		Sync:     Sync{CheckInterval: psync.DefaultCheckInterval},
		Server:   Server{Port: 8927, Name: "Robot Server", MDNS: true},
	}
}

// DefaultPath returns the config path under the user config directory
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "robot-go", FileName)
}

// Load reads path over the defaults. A missing file yields the defaults
// unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Playback.Volume < 0 || c.Playback.Volume > 100 {
		return fmt.Errorf("playback.volume %d out of range 0-100", c.Playback.Volume)
	}
	if _, err := reconstruct.ParseStride(c.Playback.Stride); err != nil {
		return fmt.Errorf("playback.stride: %w", err)
	}
	if c.Playback.BufferMs < 0 {
		return fmt.Errorf("playback.buffer_ms %d is negative", c.Playback.BufferMs)
	}
	if c.Sync.CheckInterval <= 0 {
		return fmt.Errorf("sync.check_interval must be positive")
	}
	switch c.Server.Codec {
	case "", "pcm", "opus":
	default:
		return fmt.Errorf("server.codec %q is not pcm or opus", c.Server.Codec)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return errors.New("cache.dir is required when the cache is enabled")
	}
	return nil
}

// StrideValue returns the configured reconstruction stride
func (c *Config) StrideValue() reconstruct.Stride {
	s, err := reconstruct.ParseStride(c.Playback.Stride)
	if err != nil {
		return reconstruct.StrideQuad
	}
	return s
}

// S3 returns the S3 settings for the storage section
func (c *Config) S3() storage.S3Config {
	return storage.S3Config{
		Bucket:   c.Storage.Bucket,
		Prefix:   c.Storage.Prefix,
		Region:   c.Storage.Region,
		Endpoint: c.Storage.Endpoint,
		Profile:  c.Storage.Profile,

		AccessKeyID:     c.Storage.AccessKeyID,
		SecretAccessKey: c.Storage.SecretAccessKey,
	}
}

// Store opens the configured resource store: S3 when a bucket is set,
// otherwise the local directory. ok is false when neither is configured.
func (c *Config) Store() (storage.FileStore, bool, error) {
	switch {
	case c.Storage.Bucket != "":
		s, err := storage.NewS3FromConfig(c.S3())
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	case c.Storage.Dir != "":
		s, err := storage.NewLocal(c.Storage.Dir)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	}
	return nil, false, nil
}
