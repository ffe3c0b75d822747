// Package config loads and validates the ridged daemon's static
// configuration: listen addresses, ACME account settings, the target
// host fleet, and Management API credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration, loaded once at startup
// from a YAML file.
type Config struct {
	// StateDir is where the State Store persists its snapshot and where
	// certificates are written. Defaults to /var/lib/ridge.
	StateDir string `yaml:"state_dir"`

	Listen  ListenConfig  `yaml:"listen"`
	ACME    ACMEConfig    `yaml:"acme"`
	API     APIConfig     `yaml:"api"`
	SSH     SSHConfig     `yaml:"ssh"`
	Health  HealthConfig  `yaml:"health"`
	Hosts   []HostConfig  `yaml:"hosts"`
}

// ListenConfig holds the edge proxy's listener addresses.
type ListenConfig struct {
	// HTTP is the plaintext listener, also serving the ACME HTTP-01
	// challenge responder and the HTTP->HTTPS redirect. Default ":80".
	HTTP string `yaml:"http"`

	// HTTPS is the TLS listener serving proxied traffic. Default ":443".
	HTTPS string `yaml:"https"`
}

// ACMEConfig configures the embedded Let's Encrypt client.
type ACMEConfig struct {
	// Email is the account contact address used at registration.
	Email string `yaml:"email"`

	// Staging routes orders through Let's Encrypt's staging directory
	// instead of production, avoiding rate limits while testing.
	Staging bool `yaml:"staging"`

	// DirectoryURL overrides the ACME directory URL entirely; when set,
	// Staging is ignored. Intended for pointing at a private CA in tests.
	DirectoryURL string `yaml:"directory_url,omitempty"`
}

// APIConfig configures the loopback-only Management API.
type APIConfig struct {
	// Addr is the bind address, expected to be loopback-scoped
	// (e.g. "127.0.0.1:8080"); spec.md §6 requires the Management API
	// never be reachable except via the loopback interface or SSH
	// tunnel from the operator.
	Addr string `yaml:"addr"`

	// Token is the bearer token required on every request. Resolved via
	// environment variable first (RIDGE_API_TOKEN), then this field.
	Token string `yaml:"token,omitempty"`
}

// SSHConfig holds defaults used when dialing target hosts.
type SSHConfig struct {
	User           string        `yaml:"user"`
	KeyPath        string        `yaml:"key_path,omitempty"`
	Port           int           `yaml:"port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// HealthConfig tunes the Health Checker's probe cadence.
type HealthConfig struct {
	Interval       time.Duration `yaml:"interval"`
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// HostConfig names one target host in the deployment fleet.
type HostConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`

	// Labels are free-form tags used by the deployment coordinator to
	// select subsets of the fleet (e.g. region, role).
	Labels map[string]string `yaml:"labels,omitempty"`
}

func defaults() Config {
	return Config{
		StateDir: "/var/lib/ridge",
		Listen: ListenConfig{
			HTTP:  ":80",
			HTTPS: ":443",
		},
		API: APIConfig{
			Addr: "127.0.0.1:8080",
		},
		SSH: SSHConfig{
			User:           "root",
			Port:           22,
			ConnectTimeout: 10 * time.Second,
		},
		Health: HealthConfig{
			Interval:       30 * time.Second,
			Timeout:        5 * time.Second,
			ConnectTimeout: 3 * time.Second,
		},
	}
}

// Load reads and parses the daemon configuration file at path, applying
// defaults for anything left unset, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	resolveSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func resolveSecrets(cfg *Config) {
	if v := os.Getenv("RIDGE_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
}
