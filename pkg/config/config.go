// Package config holds the settings shared by the lookupdb commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultDatabase is the database the lookup schema is applied to when none
// is configured.
const DefaultDatabase = "benchmark"

// Config is the root configuration.
type Config struct {
	Mongo      MongoConfig   `yaml:"mongo" validate:"required"`
	Server     ServerConfig  `yaml:"server" validate:"required"`
	Storage    StorageConfig `yaml:"storage" validate:"required"`
	SchemaFile string        `yaml:"schema_file,omitempty" validate:"omitempty,file"`
}

// MongoConfig locates the MongoDB deployment the schema is applied to.
type MongoConfig struct {
	URI      string `yaml:"uri" validate:"required,startswith=mongodb"`
	Database string `yaml:"database" validate:"required,excludesall=/. $"`
	AppName  string `yaml:"app_name"`
	Timeout  string `yaml:"timeout" validate:"duration"`
}

// ServerConfig configures the admin API.
type ServerConfig struct {
	Port string `yaml:"port" validate:"required,numeric"`
}

// StorageConfig configures the embedded store.
type StorageConfig struct {
	DataDir        string `yaml:"data_dir" validate:"required"`
	DataFile       string `yaml:"data_file" validate:"required"`
	BackgroundSave string `yaml:"background_save" validate:"omitempty,duration"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: DefaultDatabase,
			AppName:  "lookupdb",
			Timeout:  "10s",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Storage: StorageConfig{
			DataDir:  ".",
			DataFile: "lookupdb_data.lkdb",
		},
	}
}

// Load reads path, falling back to defaults when it does not exist, and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if uri := os.Getenv("LOOKUP_MONGO_URI"); uri != "" {
		c.Mongo.URI = uri
	}
	if db := os.Getenv("LOOKUP_MONGO_DATABASE"); db != "" {
		c.Mongo.Database = db
	}
	if path := os.Getenv("LOOKUP_SCHEMA_FILE"); path != "" {
		c.SchemaFile = path
	}
	if port := os.Getenv("LOOKUP_PORT"); port != "" {
		c.Server.Port = port
	}
	if dir := os.Getenv("LOOKUP_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
}

// GetTimeout returns the MongoDB operation timeout.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Mongo.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetBackgroundSave returns the snapshot interval, zero when disabled.
func (c *Config) GetBackgroundSave() time.Duration {
	d, err := time.ParseDuration(c.Storage.BackgroundSave)
	if err != nil {
		return 0
	}
	return d
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
