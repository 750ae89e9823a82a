package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL string `yaml:"ttl"`
		// File seeds the in-memory question bank when no database is configured.
		File string `yaml:"file"`
	} `yaml:"questions"`
	Quiz   QuizConfig   `yaml:"quiz"`
	Logger LoggerConfig `yaml:"logger"`
	Import struct {
		Delimiter      string `yaml:"delimiter"`
		DefaultSubject string `yaml:"defaultSubject"`
	} `yaml:"import"`
}

// QuizConfig holds the game rules.
type QuizConfig struct {
	TimeLimit           string             `yaml:"timeLimit"`
	BasePoints          int                `yaml:"basePoints"`
	TimeBonusMultiplier int                `yaml:"timeBonusMultiplier"`
	OpponentAccuracy    map[string]float64 `yaml:"opponentAccuracy"`
	Pacing              PacingConfig       `yaml:"pacing"`
	PassThreshold       int                `yaml:"passThreshold"`
	MaxLevel            int                `yaml:"maxLevel"`
	QuestionsPerSession int                `yaml:"questionsPerSession"`
	LeaderboardSize     int                `yaml:"leaderboardSize"`
}

type PacingConfig struct {
	Think       string `yaml:"think"`
	Reveal      string `yaml:"reveal"`
	Resolved    string `yaml:"resolved"`
	Feedback    string `yaml:"feedback"`
	AutoAdvance bool   `yaml:"autoAdvance"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "10m"
	cfg.Questions.TTL = "10m"
	cfg.Import.Delimiter = ","
	cfg.Logger = LoggerConfig{Level: "info", Env: "development"}
	cfg.Quiz = QuizConfig{
		TimeLimit:  fmt.Sprintf("%ds", engine.DefaultTimeLimit),
		BasePoints: engine.DefaultBasePoints,
		Pacing: PacingConfig{
			Think:       "2s",
			Reveal:      "1.5s",
			Resolved:    "2s",
			Feedback:    "1.5s",
			AutoAdvance: true,
		},
		PassThreshold:   domain.DefaultPassThreshold,
		MaxLevel:        domain.DefaultMaxLevel,
		LeaderboardSize: 10,
	}
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// TimeLimitSeconds is the per-question countdown in whole seconds.
func (c Config) TimeLimitSeconds() int {
	d := TTLDuration(c.Quiz.TimeLimit, engine.DefaultTimeLimit*time.Second)
	if secs := int(d / time.Second); secs > 0 {
		return secs
	}
	return engine.DefaultTimeLimit
}

// EngineConfig builds the scoring and opponent settings.
func (c Config) EngineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	cfg.Scoring = engine.NewScoringPolicy(c.Quiz.BasePoints, c.Quiz.TimeBonusMultiplier)
	for raw, accuracy := range c.Quiz.OpponentAccuracy {
		d, err := domain.ParseDifficulty(raw)
		if err != nil {
			return cfg, fmt.Errorf("quiz.opponentAccuracy: %w", err)
		}
		if accuracy < 0 || accuracy > 1 {
			return cfg, fmt.Errorf("quiz.opponentAccuracy.%s: %v is outside [0,1]", raw, accuracy)
		}
		cfg.Opponent.Accuracy[d] = accuracy
	}
	return cfg, nil
}

// Pacing converts the presentation delays.
func (c Config) Pacing() engine.Pacing {
	def := engine.DefaultPacing()
	p := c.Quiz.Pacing
	return engine.Pacing{
		Think:       TTLDuration(p.Think, def.Think),
		Reveal:      TTLDuration(p.Reveal, def.Reveal),
		Resolved:    TTLDuration(p.Resolved, def.Resolved),
		Feedback:    TTLDuration(p.Feedback, def.Feedback),
		AutoAdvance: p.AutoAdvance,
	}
}

// Progression builds the pass and unlock rules.
func (c Config) Progression() domain.ProgressionPolicy {
	return domain.NewProgressionPolicy(c.Quiz.PassThreshold, c.Quiz.MaxLevel)
}
