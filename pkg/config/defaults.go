package config

import "github.com/ygn-labs/ygn-brain/pkg/masking"

// defaultConfig returns the baseline configuration. User YAML is merged
// on top of it, so every field here must be a sane standalone value.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		ModelID: "default",
		Masking: masking.Config{Enabled: true},
		Guard: GuardConfig{
			Backend:            "regex",
			RateLimitPerMinute: 60,
		},
		Harness: HarnessConfig{
			MaxRounds:             3,
			MinScore:              0.8,
			Providers:             []string{"codex", "gemini"},
			CandidatesPerProvider: 2,
		},
		Compiler: CompilerConfig{
			Estimator: "heuristic",
		},
		Queue: QueueConfig{
			MaxWorkers: 4,
			QueueSize:  64,
		},
		Retention: RetentionConfig{
			MaxAgeHours:     24 * 30,
			IntervalMinutes: 60,
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        5432,
			User:        "ygn",
			PasswordEnv: "DB_PASSWORD",
			Name:        "ygn_brain",
			SSLMode:     "disable",
		},
	}
}
