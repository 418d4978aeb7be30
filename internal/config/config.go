package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/nidhogg/stratai/internal/skill"
)

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Skills   SkillsConfig   `json:"skills"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	DSN           string `json:"dsn"`
	MigrationsDir string `json:"migrations_dir"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

// SkillsConfig controls skill loading and prompt composition.
type SkillsConfig struct {
	Dir                          string `json:"dir"`
	FullInjectionThresholdTokens int    `json:"full_injection_threshold_tokens"`
	TotalBudgetTokens            int    `json:"total_budget_tokens"`
	Estimator                    string `json:"estimator"` // "heuristic" or "tiktoken"
	Encoding                     string `json:"encoding"`
	CacheTTLSeconds              int    `json:"cache_ttl_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	b := skill.DefaultBudget()
	return &Config{
		Server: ServerConfig{Port: 8080, LogLevel: "development"},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{MigrationsDir: "migrations"},
		},
		Skills: SkillsConfig{
			Dir:                          "skills",
			FullInjectionThresholdTokens: b.FullInjectionThresholdTokens,
			TotalBudgetTokens:            b.TotalBudgetTokens,
			Estimator:                    "heuristic",
			Encoding:                     "cl100k_base",
			CacheTTLSeconds:              600,
		},
	}
}

// Budget returns the prompt composition limits.
func (c *Config) Budget() skill.Budget {
	return skill.Budget{
		FullInjectionThresholdTokens: c.Skills.FullInjectionThresholdTokens,
		TotalBudgetTokens:            c.Skills.TotalBudgetTokens,
	}.Clamped()
}

// CacheTTL returns the prompt cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Skills.CacheTTLSeconds) * time.Second
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file over Default and substitutes environment
// variable references. A missing file yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	if err := json.Unmarshal([]byte(resolved), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
