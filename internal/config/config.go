// ABOUTME: Server configuration file handling
// ABOUTME: Loads and validates YAML config for the undertone service
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

// Echo parameter bounds accepted at the service boundary. The engine
// itself allows any positive distinct delays and alpha in (0, 1];
// the service sticks to values the correlation decode handles well.
const (
	DelayMin  = 100
	DelayMax  = 500
	DelayStep = 50

	AlphaMin = 0.3
	AlphaMax = 0.8
)

// DefaultPort is the TCP port the service listens on
const DefaultPort = 8951

// DefaultMaxUploadBytes caps a single uploaded WAV file
const DefaultMaxUploadBytes = 64 << 20

// File is the on-disk server configuration
type File struct {
	Server ServerConfig `yaml:"server"`
	Echo   EchoConfig   `yaml:"echo"`
}

// ServerConfig holds the service settings
type ServerConfig struct {
	Name           string `yaml:"name"`
	Port           int    `yaml:"port"`
	EnableMDNS     bool   `yaml:"enable_mdns"`
	Debug          bool   `yaml:"debug"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// EchoConfig holds the default echo parameters offered to clients
type EchoConfig struct {
	Delay0 int     `yaml:"delay0"`
	Delay1 int     `yaml:"delay1"`
	Alpha  float64 `yaml:"alpha"`
}

// Params converts the config values to engine parameters
func (e EchoConfig) Params() stego.EchoParams {
	return stego.EchoParams{Delay0: e.Delay0, Delay1: e.Delay1, Alpha: e.Alpha}
}

// Default returns the configuration used when no file is given
func Default() File {
	return File{
		Server: ServerConfig{
			Name:           "Undertone Server",
			Port:           DefaultPort,
			EnableMDNS:     true,
			Debug:          false,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Echo: EchoConfig{
			Delay0: stego.DefaultDelay0,
			Delay1: stego.DefaultDelay1,
			Alpha:  stego.DefaultAlpha,
		},
	}
}

// Load reads a YAML configuration file. Keys absent from the file
// keep their default values. An empty path returns the defaults.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the whole file
func (f File) Validate() error {
	if f.Server.Port < 1 || f.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", f.Server.Port)
	}
	if f.Server.Name == "" {
		return fmt.Errorf("server name must not be empty")
	}
	if f.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", f.Server.MaxUploadBytes)
	}
	return ValidateEchoParams(f.Echo.Delay0, f.Echo.Delay1, f.Echo.Alpha)
}

// ValidateEchoDelays checks two delays against the service ranges
func ValidateEchoDelays(d0, d1 int) error {
	for _, d := range []int{d0, d1} {
		if d < DelayMin || d > DelayMax {
			return fmt.Errorf("echo delay %d out of range [%d, %d]", d, DelayMin, DelayMax)
		}
		if (d-DelayMin)%DelayStep != 0 {
			return fmt.Errorf("echo delay %d is not a step of %d from %d", d, DelayStep, DelayMin)
		}
	}
	if d0 == d1 {
		return fmt.Errorf("echo delays must differ, both are %d", d0)
	}
	return nil
}

// ValidateEchoParams checks delays and attenuation against the
// service ranges
func ValidateEchoParams(d0, d1 int, alpha float64) error {
	if err := ValidateEchoDelays(d0, d1); err != nil {
		return err
	}
	if alpha < AlphaMin || alpha > AlphaMax {
		return fmt.Errorf("echo alpha %v out of range [%v, %v]", alpha, AlphaMin, AlphaMax)
	}
	return nil
}
