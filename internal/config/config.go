package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Events     EventsConfig     `yaml:"events"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type EvaluationConfig struct {
	// ScaleTerms and ScaleValues define the fuzzy assessment scale used
	// when configurations carry expert judgments or synthetic bucketing
	// kicks in. Lengths must match; values ascend within [0, 1].
	ScaleTerms  []string  `yaml:"scale_terms"`
	ScaleValues []float64 `yaml:"scale_values"`
	// Baseline supplies the reference indicator vector for single
	// evaluations, keyed by indicator ID.
	Baseline map[string]float64 `yaml:"baseline"`
	// Buckets maps indicator family prefixes to thresholds used to turn
	// crisp simulation output into fuzzy term counts. DefaultBucket
	// covers families with no entry.
	Buckets       map[string]BucketConfig `yaml:"buckets"`
	DefaultBucket BucketConfig            `yaml:"default_bucket"`
}

type BucketConfig struct {
	Thresholds []float64 `yaml:"thresholds"`
	Descending bool      `yaml:"descending"`
}

type OptimizerConfig struct {
	PopulationSize    int     `yaml:"population_size"`
	MaxGenerations    int     `yaml:"max_generations"`
	Selection         string  `yaml:"selection"`
	TournamentSize    int     `yaml:"tournament_size"`
	Crossover         string  `yaml:"crossover"`
	CrossoverRate     float64 `yaml:"crossover_rate"`
	MutationRate      float64 `yaml:"mutation_rate"`
	MutationStdDev    float64 `yaml:"mutation_std_dev"`
	Elitism           int     `yaml:"elitism"`
	ConvergenceEps    float64 `yaml:"convergence_eps"`
	ConvergenceWindow int     `yaml:"convergence_window"`
	MaxRepairAttempts int     `yaml:"max_repair_attempts"`
	Parallelism       int     `yaml:"parallelism"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Evaluation: EvaluationConfig{
			ScaleTerms:  []string{"poor", "fair", "good", "excellent"},
			ScaleValues: []float64{0.25, 0.5, 0.75, 1.0},
			DefaultBucket: BucketConfig{
				Thresholds: []float64{0.25, 0.5, 0.75},
			},
		},
		Optimizer: OptimizerConfig{
			PopulationSize:    50,
			MaxGenerations:    100,
			Selection:         "tournament",
			TournamentSize:    3,
			Crossover:         "two_point",
			CrossoverRate:     0.9,
			MutationRate:      0.1,
			MutationStdDev:    0.1,
			Elitism:           2,
			ConvergenceEps:    1e-6,
			ConvergenceWindow: 10,
			MaxRepairAttempts: 20,
			Parallelism:       4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if len(cfg.Evaluation.ScaleTerms) != len(cfg.Evaluation.ScaleValues) {
		return nil, fmt.Errorf("config: %d scale terms vs %d values",
			len(cfg.Evaluation.ScaleTerms), len(cfg.Evaluation.ScaleValues))
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLOTILLA_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FLOTILLA_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FLOTILLA_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("FLOTILLA_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FLOTILLA_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("FLOTILLA_POPULATION_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Optimizer.PopulationSize = n
		}
	}
	if v := os.Getenv("FLOTILLA_MAX_GENERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Optimizer.MaxGenerations = n
		}
	}
	if v := os.Getenv("FLOTILLA_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Optimizer.Parallelism = n
		}
	}
	if v := os.Getenv("FLOTILLA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
