package engine

import "quiz-arena/internal/domain"

const (
	// DefaultBasePoints matches the original arena scoring.
	DefaultBasePoints = 10
	// DefaultTimeLimit is the per-question countdown in seconds.
	DefaultTimeLimit = 30
)

// Config is the immutable configuration an Engine is built from.
type Config struct {
	Scoring  ScoringPolicy
	Opponent OpponentConfig
}

// DefaultConfig returns base points 10, no time bonus and the default
// opponent accuracy table.
func DefaultConfig() Config {
	return Config{
		Scoring:  NewScoringPolicy(DefaultBasePoints, 0),
		Opponent: DefaultOpponentConfig(),
	}
}

// DefaultOpponentConfig returns the accuracy table Easy 0.85, Medium 0.70, Hard 0.55.
func DefaultOpponentConfig() OpponentConfig {
	return OpponentConfig{
		Accuracy: map[domain.Difficulty]float64{
			domain.Easy:   0.85,
			domain.Medium: 0.70,
			domain.Hard:   0.55,
		},
	}
}
