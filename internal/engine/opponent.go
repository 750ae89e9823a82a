package engine

import (
	"math/rand"
	"sync"
	"time"

	"quiz-arena/internal/domain"
)

const (
	// fallbackWrongChoice is used when a multiple choice question has no wrong option.
	fallbackWrongChoice = "wrong"
	// InvalidChoice is what the opponent "answers" when it cannot simulate a mistake.
	InvalidChoice = "invalid"
)

// OpponentConfig holds the probability of a correct answer per difficulty.
type OpponentConfig struct {
	Accuracy map[domain.Difficulty]float64
}

// accuracy falls back to the easy entry, then to the default table.
func (c OpponentConfig) accuracy(d domain.Difficulty) float64 {
	if p, ok := c.Accuracy[d]; ok {
		return p
	}
	if p, ok := c.Accuracy[domain.Easy]; ok {
		return p
	}
	return DefaultOpponentConfig().Accuracy[domain.Easy]
}

// Decision is the simulated opponent's answer to one question.
type Decision struct {
	Correct bool
	Choice  string
}

// Decider picks the opponent's answer for a question.
type Decider interface {
	Decide(q domain.Question) Decision
}

// Opponent is a Decider driven by a per-difficulty accuracy table.
type Opponent struct {
	cfg OpponentConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewOpponent seeds the opponent from the wall clock.
func NewOpponent(cfg OpponentConfig) *Opponent {
	return NewOpponentWithSource(cfg, rand.NewSource(time.Now().UnixNano()))
}

// NewOpponentWithSource allows deterministic draws in tests.
func NewOpponentWithSource(cfg OpponentConfig, src rand.Source) *Opponent {
	return &Opponent{cfg: cfg, rnd: rand.New(src)}
}

// Decide never fails: questions it cannot reason about get InvalidChoice.
func (o *Opponent) Decide(q domain.Question) Decision {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.rnd.Float64() < o.cfg.accuracy(q.Difficulty) {
		return Decision{Correct: true, Choice: q.Answer.Canonical()}
	}

	canonical := q.Answer.Canonical()
	switch q.Type {
	case domain.MultipleChoice:
		wrong := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			if opt != canonical {
				wrong = append(wrong, opt)
			}
		}
		if len(wrong) == 0 {
			return Decision{Choice: fallbackWrongChoice}
		}
		return Decision{Choice: wrong[o.rnd.Intn(len(wrong))]}
	case domain.TrueFalse:
		if canonical == "True" {
			return Decision{Choice: "False"}
		}
		return Decision{Choice: "True"}
	default:
		return Decision{Choice: InvalidChoice}
	}
}
