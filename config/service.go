package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/skillsenselab/ingest/database"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/storage"
)

// Service holds process-level configuration: everything the engine needs
// that is not part of an individual pipeline definition.
type Service struct {
	// Log configures structured logging.
	Log logger.Config `mapstructure:"log"`

	// Database configures the relational store holding the target tables
	// and the pipeline_monitor table.
	Database database.Config `mapstructure:"database"`

	// Storage configures the raw/invalid payload store.
	Storage storage.Config `mapstructure:"storage"`

	// HTTP configures the trigger/monitor API server.
	HTTP HTTPConfig `mapstructure:"http"`

	// PipelineDir is the directory holding pipeline definition YAMLs,
	// used by the HTTP API to resolve pipeline names to files.
	PipelineDir string `mapstructure:"pipeline_dir"`
}

// HTTPConfig configures the trigger/monitor API server.
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ApplyDefaults fills in zero-valued fields.
func (s *Service) ApplyDefaults() {
	s.Log.ApplyDefaults()
	s.Database.ApplyDefaults()
	s.Storage.ApplyDefaults()
	if s.HTTP.Port == 0 {
		s.HTTP.Port = 8080
	}
	if s.PipelineDir == "" {
		s.PipelineDir = "configs"
	}
}

// LoadService loads service configuration from a YAML file, layering
// environment variables on top. A .env file next to the working directory
// is loaded first when present.
func LoadService(path string) (*Service, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	bindEnvOverrides(v)

	var s Service
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshal service config: %w", err)
	}

	s.ApplyDefaults()
	return &s, nil
}

// envPrefix scopes which environment variables override service config.
const envPrefix = "INGEST_"

// bindEnvOverrides layers INGEST_-prefixed environment variables over the
// file values. AutomaticEnv alone never reaches Unmarshal, so each variable
// is set explicitly under every nested key its name can spell:
// INGEST_DATABASE_DSN covers database.dsn, INGEST_PIPELINE_DIR covers
// pipeline_dir.
func bindEnvOverrides(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], envPrefix))
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// envKeyVariants spells the nesting variants of one lowercased key:
// "storage_base_path" yields itself, "storage.base.path", and
// "storage.base_path", so both flat and nested mapstructure keys match.
func envKeyVariants(key string) []string {
	parts := strings.Split(key, "_")
	if len(parts) == 1 {
		return []string{key}
	}

	variants := []string{key, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, variant := range variants {
		if !seen[variant] {
			seen[variant] = true
			out = append(out, variant)
		}
	}
	return out
}
