package config

import (
	"reflect"
	"strings"

	"edi-exchange/core/database"
	"edi-exchange/core/logger"
	"edi-exchange/core/server"
	"edi-exchange/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the storage gateways (S3 and filesystem).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Sync holds configuration for the periodic reconciliation.
	Sync SyncConfig `mapstructure:"sync"`
}

// SyncConfig tunes the batch reconciliation driver and its scheduler.
type SyncConfig struct {
	// Workers is the number of records reconciled concurrently.
	Workers int `mapstructure:"workers" default:"4"`
	// IntervalSeconds is the period of the scheduled sweep. Zero disables it.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"60"`
	// CheckInput enables the input sweep on scheduled runs.
	CheckInput bool `mapstructure:"check_input" default:"true"`
	// CheckOutput enables the output sweep on scheduled runs.
	CheckOutput bool `mapstructure:"check_output" default:"true"`
	// LockDir holds per-record lock files shared between processes. Empty keeps locks in memory.
	LockDir string `mapstructure:"lock_dir" default:""`
	// Watch triggers a sweep when files change under fs backends.
	Watch bool `mapstructure:"watch" default:"false"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_WORKERS -> sync.workers)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
