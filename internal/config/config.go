package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the vectorizer service configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Images ImagesConfig `yaml:"images"`
	Model  ModelConfig  `yaml:"model"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port        int           `yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty"`
}

// ImagesConfig holds the image store settings
type ImagesConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	// RejectTraversal refuses paths with ".." segments before fetching.
	// Off by default: paths are appended to BaseURL as-is.
	RejectTraversal bool `yaml:"reject_traversal,omitempty"`
}

// ModelConfig holds the embedding model settings
type ModelConfig struct {
	ID         string `yaml:"id"`       // pretrained model identifier, e.g. "openai/clip-vit-base-patch32"
	Endpoint   string `yaml:"endpoint"` // inference server base URL
	Name       string `yaml:"name"`     // model name as served by the inference server
	Dimensions int    `yaml:"dimensions"`
	ImageSize  int    `yaml:"image_size"`
}

const (
	DefaultPort         = 5000
	DefaultImageBaseURL = "http://localhost:8081"
	DefaultImageTimeout = 30 * time.Second
	DefaultModelID      = "openai/clip-vit-base-patch32"
	DefaultModelName    = "clip-vit-base-patch32"
	DefaultEndpoint     = "http://localhost:8000"
	DefaultDimensions   = 512
	DefaultImageSize    = 224
)

// ErrConfigNotFound is returned by LoadFromFile when the file does not exist
var ErrConfigNotFound = errors.New("config file not found")

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultPort,
		},
		Images: ImagesConfig{
			BaseURL: DefaultImageBaseURL,
			Timeout: DefaultImageTimeout,
		},
		Model: ModelConfig{
			ID:         DefaultModelID,
			Endpoint:   DefaultEndpoint,
			Name:       DefaultModelName,
			Dimensions: DefaultDimensions,
			ImageSize:  DefaultImageSize,
		},
	}
}

// LoadFromFile reads a YAML file on top of the defaults.
// Keys missing from the file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults when path is empty, the file contents otherwise.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the image store and inference endpoints from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv("IMAGE_BASE_URL"); v != "" {
		c.Images.BaseURL = v
	}
	if v := os.Getenv("MODEL_ENDPOINT"); v != "" {
		c.Model.Endpoint = v
	}
}

// Validate checks that the configuration is complete
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := url.ParseRequestURI(c.Images.BaseURL); err != nil {
		return fmt.Errorf("images.base_url is invalid: %w", err)
	}
	if c.Images.Timeout <= 0 {
		return errors.New("images.timeout must be positive")
	}
	if c.Model.ID == "" {
		return errors.New("model.id is required")
	}
	if c.Model.Name == "" {
		return errors.New("model.name is required")
	}
	if _, err := url.ParseRequestURI(c.Model.Endpoint); err != nil {
		return fmt.Errorf("model.endpoint is invalid: %w", err)
	}
	if c.Model.Dimensions <= 0 {
		return errors.New("model.dimensions must be positive")
	}
	if c.Model.ImageSize <= 0 {
		return errors.New("model.image_size must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
