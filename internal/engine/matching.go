package engine

import "quiz-arena/internal/domain"

// Side is one column of a matching question.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// ParseSide accepts "left" and "right".
func ParseSide(raw string) (Side, bool) {
	switch raw {
	case "left":
		return SideLeft, true
	case "right":
		return SideRight, true
	}
	return SideLeft, false
}

// MatchingProgress tracks pair selection on the active matching question.
// Values are treated as immutable; every change returns a copy.
type MatchingProgress struct {
	Matched      []string
	PendingLeft  string
	PendingRight string
}

// IsMatched reports whether pairID is already locked in.
func (m MatchingProgress) IsMatched(pairID string) bool {
	for _, id := range m.Matched {
		if id == pairID {
			return true
		}
	}
	return false
}

// Complete reports whether every pair has been matched.
func (m MatchingProgress) Complete(pairs []domain.MatchingPair) bool {
	if len(pairs) == 0 {
		return false
	}
	for _, p := range pairs {
		if !m.IsMatched(p.ID) {
			return false
		}
	}
	return true
}

func (m MatchingProgress) pending(side Side, pairID string) MatchingProgress {
	if side == SideLeft {
		m.PendingLeft = pairID
	} else {
		m.PendingRight = pairID
	}
	return m
}

func (m MatchingProgress) lock(pairID string) MatchingProgress {
	matched := make([]string, len(m.Matched), len(m.Matched)+1)
	copy(matched, m.Matched)
	return MatchingProgress{Matched: append(matched, pairID)}
}

func (m MatchingProgress) clearPending() MatchingProgress {
	m.PendingLeft = ""
	m.PendingRight = ""
	return m
}

func hasPair(pairs []domain.MatchingPair, pairID string) bool {
	for _, p := range pairs {
		if p.ID == pairID {
			return true
		}
	}
	return false
}
