// Package config loads mancer's version-policy file (spec.md §6): a
// YAML document giving per-tool allowed version patterns, cache sizing,
// log level, and SSH host-key policy. Loading is schema-validated, then
// overlaid with environment variables, matching the
// yaml-tag-next-to-envconfig-tag layout newrelic-infrastructure-agent's
// pkg/config uses.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const envPrefix = "mancer"

// DefaultConfigPath is used when neither an explicit override nor
// MANCER_CONFIG_PATH is set.
const DefaultConfigPath = "~/.config/mancer/config.yaml"

// CacheConfig controls the orchestrator's ResultCache sizing.
type CacheConfig struct {
	Capacity   int  `yaml:"capacity" envconfig:"capacity"`
	TTLSeconds int  `yaml:"ttl_seconds" envconfig:"ttl_seconds"`
	Disable    bool `yaml:"-" envconfig:"disable"`
}

// LoggingConfig controls internal/logx's default level and optional
// file sink. The envconfig tag on the struct field itself (rather than
// relying on the Go field name "Logging") is what makes the overlay
// variable MANCER_LOG_LEVEL instead of MANCER_LOGGING_LEVEL.
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"level"`
	File  string `yaml:"file"`
}

// SSHConfig controls RemoteBackend's default host-key policy and key
// lookup when a remote_target doesn't override them.
type SSHConfig struct {
	KnownHostsPolicy string `yaml:"known_hosts_policy"`
	DefaultKeyPath   string `yaml:"default_key_path"`
}

// Config is the typed, validated, env-overlaid form of the version-policy
// file spec.md §6 describes.
type Config struct {
	AllowedVersions map[string][]string `yaml:"allowed_versions"`
	Cache           CacheConfig         `yaml:"cache" envconfig:"cache"`
	Logging         LoggingConfig       `yaml:"logging" envconfig:"log"`
	SSH             SSHConfig           `yaml:"ssh"`
}

func defaults() Config {
	return Config{
		Cache: CacheConfig{
			Capacity:   256,
			TTLSeconds: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		SSH: SSHConfig{
			KnownHostsPolicy: "strict",
		},
	}
}

// ResolvePath implements spec.md §6's lookup order: an explicit override
// (e.g. a CLI flag) wins, then MANCER_CONFIG_PATH, then DefaultConfigPath.
func ResolvePath(override string) string {
	if override != "" {
		return expandHome(override)
	}
	if fromEnv := os.Getenv("MANCER_CONFIG_PATH"); fromEnv != "" {
		return expandHome(fromEnv)
	}
	return expandHome(DefaultConfigPath)
}

func expandHome(path string) string {
	if path != "~" && !hasHomePrefix(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func hasHomePrefix(path string) bool {
	return len(path) >= 2 && path[0] == '~' && path[1] == '/'
}

// Load reads and validates the YAML file at path, falling back to
// built-in defaults when it does not exist (a fresh install has no
// config file yet), then overlays MANCER_-prefixed environment
// variables on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := validate(raw); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// no file on disk yet: keep defaults
	default:
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: env overlay: %w", err)
	}
	return cfg, nil
}

func validate(raw []byte) error {
	var yamlDoc any
	if err := yaml.Unmarshal(raw, &yamlDoc); err != nil {
		return err
	}
	if yamlDoc == nil {
		return nil
	}

	// jsonschema validates against the types encoding/json produces
	// (float64, not int); round-trip through JSON to normalize.
	asJSON, err := json.Marshal(yamlDoc)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(asJSON, &doc); err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("mancer-config.json", bytes.NewReader([]byte(schemaJSON))); err != nil {
		return err
	}
	schema, err := compiler.Compile("mancer-config.json")
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}
