package app

import (
	"math/rand"
	"time"

	"quiz-arena/internal/domain"
)

// ShuffleQuestions returns a shuffled copy (Fisher-Yates).
func ShuffleQuestions(questions []domain.Question) []domain.Question {
	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// KeepOrder is a Shuffle that leaves the bank order untouched.
func KeepOrder(questions []domain.Question) []domain.Question {
	return questions
}
