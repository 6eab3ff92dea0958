package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	Guardrails GuardrailsConfig `mapstructure:"guardrails"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type OptimizerConfig struct {
	Workers         int           `mapstructure:"workers"`
	JobTimeout      time.Duration `mapstructure:"job_timeout"`
	CostPer1KTokens float64       `mapstructure:"cost_per_1k_tokens"`
	DefaultPopSize  int           `mapstructure:"default_population_size"`
}

type GuardrailsConfig struct {
	CriticalThreshold string   `mapstructure:"critical_threshold"`
	DisabledRules     []string `mapstructure:"disabled_rules"`
	PatternsFile      string   `mapstructure:"patterns_file"`
}

var globalConfig Config

// Load reads config.yaml from configPath with environment overrides.
func Load(configPath string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// no file is fine, environment and defaults apply
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.cache_ttl", time.Hour)
	viper.SetDefault("optimizer.workers", 4)
	viper.SetDefault("optimizer.job_timeout", 2*time.Minute)
	viper.SetDefault("optimizer.cost_per_1k_tokens", 0.002)
	viper.SetDefault("optimizer.default_population_size", 10)
	viper.SetDefault("guardrails.critical_threshold", "critical")
}

// GetConfig returns the loaded configuration.
func GetConfig() *Config {
	return &globalConfig
}
