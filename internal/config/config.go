// Package config loads application configuration from file, environment,
// and defaults, and owns global logger initialization.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/adrata/dataops-cli/internal/resolve"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Resolve  ResolveConfig  `yaml:"resolve" mapstructure:"resolve"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// BatchConfig configures pipeline batching and write pacing.
type BatchConfig struct {
	Size            int     `yaml:"size" mapstructure:"size"`
	MaxConcurrent   int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	WritesPerSecond float64 `yaml:"writes_per_second" mapstructure:"writes_per_second"`
}

// ResolveConfig configures the entity resolution engine.
type ResolveConfig struct {
	Threshold       float64              `yaml:"threshold" mapstructure:"threshold"`
	CorrectionsFile string               `yaml:"corrections_file" mapstructure:"corrections_file"`
	Corrections     []resolve.Correction `yaml:"corrections" mapstructure:"corrections"`
}

// ClassifyConfig exposes the tunable peer-context deltas. The keyword
// tables keep their shipped defaults; see classify.DefaultConfig.
type ClassifyConfig struct {
	SoloContactBonus    int `yaml:"solo_contact_bonus" mapstructure:"solo_contact_bonus"`
	EarlierStagePenalty int `yaml:"earlier_stage_penalty" mapstructure:"earlier_stage_penalty"`
	LaterStageBonus     int `yaml:"later_stage_bonus" mapstructure:"later_stage_bonus"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DATAOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.size", 200)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("batch.writes_per_second", 25)
	v.SetDefault("resolve.threshold", resolve.DefaultThreshold)
	v.SetDefault("classify.solo_contact_bonus", 30)
	v.SetDefault("classify.earlier_stage_penalty", 20)
	v.SetDefault("classify.later_stage_bonus", 25)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// A corrections file extends (not replaces) inline corrections.
	if cfg.Resolve.CorrectionsFile != "" {
		extra, err := LoadCorrections(cfg.Resolve.CorrectionsFile)
		if err != nil {
			return nil, err
		}
		cfg.Resolve.Corrections = append(cfg.Resolve.Corrections, extra...)
	}

	return &cfg, nil
}

// LoadCorrections reads an ordered typo correction table from a YAML file
// of {pattern, replacement} entries.
func LoadCorrections(path string) ([]resolve.Correction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read corrections %s", path)
	}
	var corrections []resolve.Correction
	if err := yaml.Unmarshal(data, &corrections); err != nil {
		return nil, eris.Wrapf(err, "config: parse corrections %s", path)
	}
	return corrections, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
