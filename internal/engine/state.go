package engine

import "quiz-arena/internal/domain"

// Phase is the lifecycle position of a session.
type Phase int

const (
	// PhasePresenting runs the countdown and accepts input.
	PhasePresenting Phase = iota
	// PhaseJudging holds a locked-in outcome.
	PhaseJudging
	// PhaseOpponentThinking, PhaseOpponentRevealing and PhaseOpponentResolved
	// pace the opponent reveal after judging.
	PhaseOpponentThinking
	PhaseOpponentRevealing
	PhaseOpponentResolved
	// PhaseCompleted is terminal; a summary was produced.
	PhaseCompleted
	// PhaseAborted is terminal; no summary exists.
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhasePresenting:
		return "presenting"
	case PhaseJudging:
		return "judging"
	case PhaseOpponentThinking:
		return "opponent_thinking"
	case PhaseOpponentRevealing:
		return "opponent_revealing"
	case PhaseOpponentResolved:
		return "opponent_resolved"
	case PhaseCompleted:
		return "completed"
	case PhaseAborted:
		return "aborted"
	}
	return "unknown"
}

// Judged reports whether the current question already has an outcome.
func (p Phase) Judged() bool {
	return p >= PhaseJudging && p <= PhaseOpponentResolved
}

// Terminal reports whether the session has ended.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

// Outcome is the locked-in result of the active question.
type Outcome struct {
	Correct  bool
	TimedOut bool
	Awarded  int
	Opponent *Decision
}

// State is one snapshot of a quiz attempt. Transitions return a new State and
// never modify the one they were given.
type State struct {
	Questions     []domain.Question
	TimeLimit     int
	OpponentMode  bool
	Index         int
	TimeRemaining int
	Phase         Phase

	PlayerScore          int
	PlayerCorrectCount   int
	OpponentScore        int
	OpponentCorrectCount int

	// Outcome is nil while the active question is unanswered.
	Outcome  *Outcome
	Matching MatchingProgress
}

// Current returns the active question, if any.
func (s State) Current() (domain.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.Index], true
}
