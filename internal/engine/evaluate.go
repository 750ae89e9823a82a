package engine

import (
	"strings"

	"quiz-arena/internal/domain"
)

// Evaluate judges a typed answer. Malformed questions are never correct and
// matching questions are judged through pair selection, not through Evaluate.
func Evaluate(q domain.Question, candidate string) bool {
	if q.Validate() != nil {
		return false
	}
	canonical := q.Answer.Canonical()
	switch q.Type {
	case domain.MultipleChoice, domain.TrueFalse:
		return candidate == canonical
	case domain.FillInBlank:
		return strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(canonical))
	default:
		return false
	}
}
