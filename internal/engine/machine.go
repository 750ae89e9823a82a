package engine

import (
	"errors"
	"fmt"

	"quiz-arena/internal/domain"
)

// ErrInvalidSession is returned when a session cannot be started.
var ErrInvalidSession = errors.New("invalid quiz session")

// Engine computes session transitions. It holds only immutable configuration
// and is safe to share between sessions.
type Engine struct {
	scoring  ScoringPolicy
	opponent Decider
}

// NewEngine builds an engine with a clock-seeded opponent.
func NewEngine(cfg Config) *Engine {
	return NewEngineWithDecider(cfg, NewOpponent(cfg.Opponent))
}

// NewEngineWithDecider is used when opponent draws must be controlled.
func NewEngineWithDecider(cfg Config, decider Decider) *Engine {
	return &Engine{scoring: cfg.Scoring, opponent: decider}
}

// Start initializes a session at the first question.
func (e *Engine) Start(questions []domain.Question, timeLimit int, opponentMode bool) (State, []Event, error) {
	if len(questions) == 0 {
		return State{}, nil, fmt.Errorf("%w: no questions", ErrInvalidSession)
	}
	if timeLimit <= 0 {
		return State{}, nil, fmt.Errorf("%w: time limit must be positive, got %d", ErrInvalidSession, timeLimit)
	}
	s := State{
		Questions:    questions,
		TimeLimit:    timeLimit,
		OpponentMode: opponentMode,
	}
	events := []Event{{Kind: EventSessionStarted, TimeRemaining: timeLimit}}
	s, presented := e.present(s)
	return s, append(events, presented...), nil
}

// Tick advances the countdown by one second. Reaching zero judges the
// question as timed out.
func (e *Engine) Tick(s State) (State, []Event) {
	if s.Phase != PhasePresenting {
		return s, nil
	}
	if s.TimeRemaining > 0 {
		s.TimeRemaining--
	}
	q, _ := s.Current()
	events := []Event{{
		Kind:          EventTimerTicked,
		QuestionIndex: s.Index,
		QuestionID:    q.ID,
		TimeRemaining: s.TimeRemaining,
	}}
	if s.TimeRemaining == 0 {
		var judged []Event
		s, judged = e.judge(s, false, true)
		events = append(events, judged...)
	}
	return s, events
}

// Submit judges a typed answer. It is a no-op once the question is judged
// and for well-formed matching questions.
func (e *Engine) Submit(s State, candidate string) (State, []Event) {
	if s.Phase != PhasePresenting {
		return s, nil
	}
	q, ok := s.Current()
	if !ok {
		return s, nil
	}
	if q.Validate() != nil {
		return e.judge(s, false, false)
	}
	if q.Type == domain.Matching {
		return s, nil
	}
	return e.judge(s, Evaluate(q, candidate), false)
}

// Select records a pair selection on a matching question. Selection order
// does not matter; reselecting a side replaces the pending choice.
func (e *Engine) Select(s State, side Side, pairID string) (State, []Event) {
	if s.Phase != PhasePresenting {
		return s, nil
	}
	q, ok := s.Current()
	if !ok || q.Type != domain.Matching {
		return s, nil
	}
	if !hasPair(q.MatchingPairs, pairID) || s.Matching.IsMatched(pairID) {
		return s, nil
	}

	s.Matching = s.Matching.pending(side, pairID)
	left, right := s.Matching.PendingLeft, s.Matching.PendingRight
	if left == "" || right == "" {
		return s, nil
	}

	if left != right {
		s.Matching = s.Matching.clearPending()
		return s, []Event{{
			Kind:          EventPairMismatched,
			QuestionIndex: s.Index,
			QuestionID:    q.ID,
			LeftID:        left,
			RightID:       right,
			TimeRemaining: s.TimeRemaining,
		}}
	}

	s.Matching = s.Matching.lock(left)
	events := []Event{{
		Kind:          EventPairMatched,
		QuestionIndex: s.Index,
		QuestionID:    q.ID,
		LeftID:        left,
		RightID:       right,
		TimeRemaining: s.TimeRemaining,
	}}
	if s.Matching.Complete(q.MatchingPairs) {
		var judged []Event
		s, judged = e.judge(s, true, false)
		events = append(events, judged...)
	}
	return s, events
}

// RevealOpponent shows the opponent's choice.
func (e *Engine) RevealOpponent(s State) (State, []Event) {
	if s.Phase != PhaseOpponentThinking || s.Outcome == nil || s.Outcome.Opponent == nil {
		return s, nil
	}
	s.Phase = PhaseOpponentRevealing
	q, _ := s.Current()
	return s, []Event{{
		Kind:           EventOpponentRevealed,
		QuestionIndex:  s.Index,
		QuestionID:     q.ID,
		OpponentChoice: s.Outcome.Opponent.Choice,
	}}
}

// ResolveOpponent shows whether the opponent was right.
func (e *Engine) ResolveOpponent(s State) (State, []Event) {
	if s.Phase != PhaseOpponentRevealing || s.Outcome == nil || s.Outcome.Opponent == nil {
		return s, nil
	}
	s.Phase = PhaseOpponentResolved
	q, _ := s.Current()
	correct := s.Outcome.Opponent.Correct
	return s, []Event{{
		Kind:            EventOpponentResolved,
		QuestionIndex:   s.Index,
		QuestionID:      q.ID,
		OpponentCorrect: &correct,
		OpponentChoice:  s.Outcome.Opponent.Choice,
		OpponentScore:   s.OpponentScore,
	}}
}

// Advance moves past a judged question, completing the session after the last one.
func (e *Engine) Advance(s State) (State, []Event) {
	if !s.Phase.Judged() {
		return s, nil
	}
	s.Index++
	if s.Index >= len(s.Questions) {
		s.Index = len(s.Questions)
		s.Phase = PhaseCompleted
		s.Outcome = nil
		s.Matching = MatchingProgress{}
		summary := summarize(s)
		return s, []Event{{
			Kind:          EventSessionCompleted,
			QuestionIndex: s.Index,
			PlayerScore:   s.PlayerScore,
			OpponentScore: s.OpponentScore,
			Summary:       &summary,
		}}
	}
	return e.present(s)
}

// Abort ends the session without a summary.
func (e *Engine) Abort(s State) (State, []Event) {
	if s.Phase.Terminal() {
		return s, nil
	}
	s.Phase = PhaseAborted
	return s, []Event{{
		Kind:          EventSessionAborted,
		QuestionIndex: s.Index,
		PlayerScore:   s.PlayerScore,
	}}
}

func (e *Engine) present(s State) (State, []Event) {
	s.Phase = PhasePresenting
	s.TimeRemaining = s.TimeLimit
	s.Outcome = nil
	s.Matching = MatchingProgress{}

	q, _ := s.Current()
	events := []Event{{
		Kind:          EventQuestionPresented,
		QuestionIndex: s.Index,
		QuestionID:    q.ID,
		TimeRemaining: s.TimeRemaining,
	}}
	if err := q.Validate(); err != nil {
		events = append(events, Event{
			Kind:          EventDataQualityWarning,
			QuestionIndex: s.Index,
			QuestionID:    q.ID,
			Warning:       err.Error(),
		})
	}
	return s, events
}

func (e *Engine) judge(s State, correct, timedOut bool) (State, []Event) {
	q, _ := s.Current()
	outcome := &Outcome{Correct: correct, TimedOut: timedOut}
	if correct {
		outcome.Awarded = e.scoring.ComputeScore(s.TimeRemaining)
		s.PlayerScore += outcome.Awarded
		s.PlayerCorrectCount++
	}
	s.Phase = PhaseJudging

	event := Event{
		Kind:          EventQuestionJudged,
		QuestionIndex: s.Index,
		QuestionID:    q.ID,
		TimeRemaining: s.TimeRemaining,
		Correct:       correct,
		TimedOut:      timedOut,
		Awarded:       outcome.Awarded,
	}

	if s.OpponentMode {
		decision := e.opponent.Decide(q)
		outcome.Opponent = &decision
		if decision.Correct {
			s.OpponentScore += e.scoring.BasePoints
			s.OpponentCorrectCount++
		}
		s.Phase = PhaseOpponentThinking
		opponentCorrect := decision.Correct
		event.OpponentCorrect = &opponentCorrect
		event.OpponentChoice = decision.Choice
	}

	s.Outcome = outcome
	event.PlayerScore = s.PlayerScore
	event.OpponentScore = s.OpponentScore
	return s, []Event{event}
}
