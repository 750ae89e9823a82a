//go:build cucumber

package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"quiz-arena/internal/domain"
)

// TestSessionScenarios runs the session feature scenarios.
func TestSessionScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "quiz-session",
		ScenarioInitializer: InitializeSessionScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("testdata", "session.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeSessionScenario wires steps for session scenarios.
func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	state := &sessionScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a scoring policy with base (\d+) and time bonus (\d+)$`, state.givenScoring)
	ctx.Step(`^a multiple choice question "([^"]+)" with options "([^"]+)" and answer "([^"]+)"$`, state.givenMultipleChoice)
	ctx.Step(`^a fill in the blank question "([^"]+)" with answer "([^"]+)"$`, state.givenFillInBlank)
	ctx.Step(`^a matching question "([^"]+)" with pairs "([^"]+)"$`, state.givenMatching)
	ctx.Step(`^a time limit of (\d+) seconds$`, state.givenTimeLimit)
	ctx.Step(`^an opponent that always answers correctly$`, state.givenPerfectOpponent)
	ctx.Step(`^the session starts$`, state.whenStarts)
	ctx.Step(`^(\d+) seconds elapse$`, state.whenSecondsElapse)
	ctx.Step(`^the learner submits "([^"]*)"$`, state.whenSubmits)
	ctx.Step(`^the learner selects (left|right) "([^"]+)" then (left|right) "([^"]+)"$`, state.whenSelects)
	ctx.Step(`^the learner moves on$`, state.whenAdvances)
	ctx.Step(`^the learner aborts$`, state.whenAborts)
	ctx.Step(`^the opponent is revealed$`, state.whenRevealed)
	ctx.Step(`^the opponent is resolved$`, state.whenResolved)
	ctx.Step(`^the question is judged correct$`, state.thenJudgedCorrect)
	ctx.Step(`^the question is judged incorrect after a timeout$`, state.thenTimedOut)
	ctx.Step(`^the player score is (\d+)$`, state.thenPlayerScore)
	ctx.Step(`^the opponent score is (\d+)$`, state.thenOpponentScore)
	ctx.Step(`^(\d+) pairs are matched$`, state.thenPairsMatched)
	ctx.Step(`^the phase is "([^"]+)"$`, state.thenPhase)
	ctx.Step(`^the session completes with score (\d+) and (\d+) correct out of (\d+)$`, state.thenCompleted)
	ctx.Step(`^the session is aborted without a summary$`, state.thenAborted)
}

type sessionScenarioState struct {
	cfg       Config
	decider   Decider
	opponent  bool
	questions []domain.Question
	timeLimit int
	engine    *Engine
	state     State
	events    []Event
}

// reset clears scenario state.
func (s *sessionScenarioState) reset() {
	*s = sessionScenarioState{
		cfg:     DefaultConfig(),
		decider: &fixedDecider{decision: Decision{Correct: false, Choice: InvalidChoice}},
	}
}

func (s *sessionScenarioState) record(next State, events []Event) {
	s.state = next
	s.events = append(s.events, events...)
}

func (s *sessionScenarioState) givenScoring(base, bonus int) error {
	s.cfg.Scoring = NewScoringPolicy(base, bonus)
	return nil
}

func (s *sessionScenarioState) givenMultipleChoice(id, options, answer string) error {
	s.questions = append(s.questions, domain.Question{
		ID:         id,
		Type:       domain.MultipleChoice,
		Difficulty: domain.Easy,
		Level:      1,
		Text:       id,
		Options:    strings.Split(options, ","),
		Answer:     domain.Answer{answer},
	})
	return nil
}

func (s *sessionScenarioState) givenFillInBlank(id, answer string) error {
	s.questions = append(s.questions, domain.Question{
		ID:         id,
		Type:       domain.FillInBlank,
		Difficulty: domain.Easy,
		Level:      1,
		Text:       id,
		Answer:     domain.Answer{answer},
	})
	return nil
}

func (s *sessionScenarioState) givenMatching(id, pairs string) error {
	q := domain.Question{ID: id, Type: domain.Matching, Difficulty: domain.Medium, Level: 1, Text: id}
	for _, pairID := range strings.Split(pairs, ",") {
		q.MatchingPairs = append(q.MatchingPairs, domain.MatchingPair{ID: pairID, Left: "L" + pairID, Right: "R" + pairID})
	}
	s.questions = append(s.questions, q)
	return nil
}

func (s *sessionScenarioState) givenTimeLimit(seconds int) error {
	s.timeLimit = seconds
	return nil
}

func (s *sessionScenarioState) givenPerfectOpponent() error {
	s.decider = &fixedDecider{decision: Decision{Correct: true, Choice: "A"}}
	s.opponent = true
	return nil
}

func (s *sessionScenarioState) whenStarts() error {
	s.engine = NewEngineWithDecider(s.cfg, s.decider)
	st, events, err := s.engine.Start(s.questions, s.timeLimit, s.opponent)
	if err != nil {
		return err
	}
	s.record(st, events)
	return nil
}

func (s *sessionScenarioState) whenSecondsElapse(n int) error {
	for i := 0; i < n; i++ {
		s.record(s.engine.Tick(s.state))
	}
	return nil
}

func (s *sessionScenarioState) whenSubmits(answer string) error {
	s.record(s.engine.Submit(s.state, answer))
	return nil
}

func (s *sessionScenarioState) whenSelects(firstSide, firstID, secondSide, secondID string) error {
	for _, pick := range [][2]string{{firstSide, firstID}, {secondSide, secondID}} {
		side, ok := ParseSide(pick[0])
		if !ok {
			return fmt.Errorf("unknown side %q", pick[0])
		}
		s.record(s.engine.Select(s.state, side, pick[1]))
	}
	return nil
}

func (s *sessionScenarioState) whenAdvances() error {
	s.record(s.engine.Advance(s.state))
	return nil
}

func (s *sessionScenarioState) whenAborts() error {
	s.record(s.engine.Abort(s.state))
	return nil
}

func (s *sessionScenarioState) whenRevealed() error {
	s.record(s.engine.RevealOpponent(s.state))
	return nil
}

func (s *sessionScenarioState) whenResolved() error {
	s.record(s.engine.ResolveOpponent(s.state))
	return nil
}

func (s *sessionScenarioState) thenJudgedCorrect() error {
	if s.state.Outcome == nil || !s.state.Outcome.Correct {
		return fmt.Errorf("expected a correct judgement, got %+v", s.state.Outcome)
	}
	return nil
}

func (s *sessionScenarioState) thenTimedOut() error {
	if s.state.Outcome == nil || s.state.Outcome.Correct || !s.state.Outcome.TimedOut {
		return fmt.Errorf("expected a timed out judgement, got %+v", s.state.Outcome)
	}
	return nil
}

func (s *sessionScenarioState) thenPlayerScore(score int) error {
	if s.state.PlayerScore != score {
		return fmt.Errorf("expected player score %d, got %d", score, s.state.PlayerScore)
	}
	return nil
}

func (s *sessionScenarioState) thenOpponentScore(score int) error {
	if s.state.OpponentScore != score {
		return fmt.Errorf("expected opponent score %d, got %d", score, s.state.OpponentScore)
	}
	return nil
}

func (s *sessionScenarioState) thenPairsMatched(n int) error {
	if got := len(s.state.Matching.Matched); got != n {
		return fmt.Errorf("expected %d matched pairs, got %d", n, got)
	}
	return nil
}

func (s *sessionScenarioState) thenPhase(name string) error {
	if got := s.state.Phase.String(); got != name {
		return fmt.Errorf("expected phase %s, got %s", name, got)
	}
	return nil
}

func (s *sessionScenarioState) thenCompleted(score, correct, total int) error {
	for _, ev := range s.events {
		if ev.Kind != EventSessionCompleted {
			continue
		}
		want := Summary{FinalScore: score, CorrectCount: correct, TotalQuestions: total}
		got := *ev.Summary
		if got.FinalScore != want.FinalScore || got.CorrectCount != want.CorrectCount || got.TotalQuestions != want.TotalQuestions {
			return fmt.Errorf("expected summary %+v, got %+v", want, got)
		}
		return nil
	}
	return fmt.Errorf("session did not complete")
}

func (s *sessionScenarioState) thenAborted() error {
	if s.state.Phase != PhaseAborted {
		return fmt.Errorf("expected aborted phase, got %s", s.state.Phase)
	}
	for _, ev := range s.events {
		if ev.Kind == EventSessionCompleted {
			return fmt.Errorf("aborted session produced a summary")
		}
	}
	return nil
}
