package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/blockforge/pkg/errors"
)

// Config is the blockforge.toml configuration file.
type Config struct {
	// Definitions is the path to the block definitions TOML file. Empty
	// selects the built-in definitions.
	Definitions string `toml:"definitions"`

	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Redis  RedisConfig  `toml:"redis"`
	Mongo  MongoConfig  `toml:"mongo"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// StoreConfig selects and configures the event store backend.
type StoreConfig struct {
	// Backend is one of: memory, file, redis, mongo.
	Backend string `toml:"backend"`

	// Dir is the base directory for the file backend. Empty uses
	// ~/.config/blockforge/events/.
	Dir string `toml:"dir"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// defaults returns the configuration used when no file is found.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Backend: "memory"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017"},
	}
}

// LoadConfig reads the configuration file. With an explicit path the
// file must exist; otherwise ./blockforge.toml and
// ~/.config/blockforge/blockforge.toml are tried in order, falling back
// to defaults when neither exists.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return readConfig(path)
	}
	for _, candidate := range configSearchPath() {
		if _, err := os.Stat(candidate); err == nil {
			return readConfig(candidate)
		}
	}
	return defaults(), nil
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config file")
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return cfg, nil
}

func configSearchPath() []string {
	paths := []string{"blockforge.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "blockforge.toml"))
	}
	return paths
}
