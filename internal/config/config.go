package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL      = "http://127.0.0.1:3000"
	DefaultDataDirName = ".crelay"
	DefaultDBFileName  = "relay.db"
	DefaultLogLevel    = "info"

	DefaultRelayMaxUploadBytes     int64 = 100 * 1024 * 1024
	DefaultRelayMultipartMaxMemory int64 = 8 * 1024 * 1024

	configFileName  = ".crelay.toml"
	configDirEnvKey = "CRELAY_CONFIG_DIR"

	apiURLEnvKey  = "CRELAY_API_URL"
	dataDirEnvKey = "CRELAY_DATA_DIR"
	dbPathEnvKey  = "CRELAY_DB"
)

// RelayConfig defines runtime limits for the upload surfaces.
type RelayConfig struct {
	MaxUploadBytes     int64 `toml:"max_upload_bytes"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory"`
}

// Config defines runtime configuration for crelay.
type Config struct {
	APIURL   string      `toml:"api_url"`
	DataDir  string      `toml:"data_dir"`
	DBPath   string      `toml:"db_path"`
	LogLevel string      `toml:"log_level"`
	Relay    RelayConfig `toml:"relay"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Relay: RelayConfig{
			MaxUploadBytes:     DefaultRelayMaxUploadBytes,
			MultipartMaxMemory: DefaultRelayMultipartMaxMemory,
		},
	}
}

// Load reads the global config file and applies env overrides. Missing
// files are not an error; defaults fill the gaps.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	if err := loadFileIfExists(path, &cfg); err != nil {
		return nil, err
	}

	if apiURL := strings.TrimSpace(os.Getenv(apiURLEnvKey)); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dataDir := strings.TrimSpace(os.Getenv(dataDirEnvKey)); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dbPath := strings.TrimSpace(os.Getenv(dbPathEnvKey)); dbPath != "" {
		cfg.DBPath = dbPath
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

// GlobalPath returns the path to the config file: the CRELAY_CONFIG_DIR
// override when set, the home directory otherwise.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

func loadFileIfExists(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalizeDefaults() {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, DefaultDataDirName)
		} else {
			c.DataDir = DefaultDataDirName
		}
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, DefaultDBFileName)
	}
	if c.Relay.MaxUploadBytes <= 0 {
		c.Relay.MaxUploadBytes = DefaultRelayMaxUploadBytes
	}
	if c.Relay.MultipartMaxMemory <= 0 {
		c.Relay.MultipartMaxMemory = DefaultRelayMultipartMaxMemory
	}
}

var allowedKeys = []string{
	"api_url",
	"data_dir",
	"db_path",
	"log_level",
	"relay.max_upload_bytes",
	"relay.multipart_max_memory",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "data_dir":
		return c.DataDir, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "relay.max_upload_bytes":
		return strconv.FormatInt(c.Relay.MaxUploadBytes, 10), nil
	case "relay.multipart_max_memory":
		return strconv.FormatInt(c.Relay.MultipartMaxMemory, 10), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "relay.max_upload_bytes", "relay.multipart_max_memory":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
