package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-arena/internal/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return kinds(r.events)
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func fastPacing() Pacing {
	return Pacing{
		Think:       5 * time.Millisecond,
		Reveal:      5 * time.Millisecond,
		Resolved:    5 * time.Millisecond,
		Feedback:    5 * time.Millisecond,
		AutoAdvance: true,
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("session did not finish, phase %s", s.Snapshot().Phase)
	}
}

func TestSessionNotStartedEmitsNothing(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newTestEngine(10, 0), []domain.Question{mcQuestion()}, 30, false, SessionOptions{Observer: rec})
	require.NoError(t, err)

	s.SubmitAnswer("4")
	assert.Empty(t, rec.kinds())
	assert.Equal(t, PhasePresenting, s.Snapshot().Phase)

	_, err = NewSession(newTestEngine(10, 0), nil, 30, false, SessionOptions{})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionAutoAdvancesToCompletion(t *testing.T) {
	rec := &recorder{}
	questions := []domain.Question{fillQuestion("a", "2"), fillQuestion("b", "25")}
	s, err := NewSession(newTestEngine(10, 0), questions, 30, false, SessionOptions{
		Observer:     rec,
		Pacing:       fastPacing(),
		TickInterval: time.Hour,
	})
	require.NoError(t, err)
	s.Start()

	s.SubmitAnswer(" 2 ")
	require.Eventually(t, func() bool { return s.Snapshot().Index == 1 }, 2*time.Second, time.Millisecond)
	s.SubmitAnswer("25")
	waitDone(t, s)

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, Summary{FinalScore: 20, CorrectCount: 2, TotalQuestions: 2}, summary)
	assert.Equal(t, 1, rec.count(EventSessionCompleted))
}

func TestSessionCountdownTimesOut(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newTestEngine(10, 0), []domain.Question{mcQuestion()}, 3, false, SessionOptions{
		Observer:     rec,
		Pacing:       Pacing{},
		TickInterval: 2 * time.Millisecond,
	})
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool { return s.Snapshot().Phase == PhaseJudging }, 2*time.Second, time.Millisecond)
	snap := s.Snapshot()
	require.NotNil(t, snap.Outcome)
	assert.True(t, snap.Outcome.TimedOut)
	assert.Equal(t, 0, snap.TimeRemaining)
	assert.Equal(t, 3, rec.count(EventTimerTicked))

	// The clock is frozen once judged.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, rec.count(EventTimerTicked))

	// Without auto advance the caller moves on.
	s.Advance()
	waitDone(t, s)
	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, 0, summary.CorrectCount)
}

func TestSessionFirstJudgementWins(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newTestEngine(10, 0), []domain.Question{mcQuestion()}, 30, false, SessionOptions{
		Observer:     rec,
		TickInterval: time.Hour,
	})
	require.NoError(t, err)
	s.Start()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.SubmitAnswer("4")
			} else {
				s.SubmitAnswer("1")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, rec.count(EventQuestionJudged))
	snap := s.Snapshot()
	assert.LessOrEqual(t, snap.PlayerScore, 10)
}

func TestSessionOpponentPacingSequence(t *testing.T) {
	rec := &recorder{}
	decider := &fixedDecider{decision: Decision{Correct: false, Choice: "1"}}
	e := NewEngineWithDecider(DefaultConfig(), decider)
	s, err := NewSession(e, []domain.Question{mcQuestion()}, 30, true, SessionOptions{
		Observer:     rec,
		Pacing:       fastPacing(),
		TickInterval: time.Hour,
	})
	require.NoError(t, err)
	s.Start()
	s.SubmitAnswer("4")
	waitDone(t, s)

	assert.Equal(t, []EventKind{
		EventSessionStarted,
		EventQuestionPresented,
		EventQuestionJudged,
		EventOpponentRevealed,
		EventOpponentResolved,
		EventSessionCompleted,
	}, rec.kinds())

	summary, _ := s.Summary()
	require.NotNil(t, summary.OpponentScore)
	assert.Equal(t, 0, *summary.OpponentScore)
	assert.Equal(t, 10, summary.FinalScore)
}

func TestSessionAbortCancelsPendingReveal(t *testing.T) {
	rec := &recorder{}
	pacing := fastPacing()
	pacing.Think = 30 * time.Millisecond
	questions := []domain.Question{mcQuestion(), mcQuestion(), mcQuestion()}
	s, err := NewSession(newTestEngine(10, 0), questions, 30, true, SessionOptions{
		Observer:     rec,
		Pacing:       pacing,
		TickInterval: time.Hour,
	})
	require.NoError(t, err)
	s.Start()

	s.SubmitAnswer("4")
	s.Abort()
	waitDone(t, s)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, rec.count(EventOpponentRevealed))
	assert.Zero(t, rec.count(EventSessionCompleted))
	assert.Equal(t, 1, rec.count(EventSessionAborted))

	_, ok := s.Summary()
	assert.False(t, ok)
	assert.Equal(t, PhaseAborted, s.Snapshot().Phase)

	// Calls after abort are ignored.
	s.SubmitAnswer("4")
	s.Advance()
	s.Abort()
	assert.Equal(t, 1, rec.count(EventSessionAborted))
}

func TestSessionManualAdvanceSkipsStalePacing(t *testing.T) {
	rec := &recorder{}
	pacing := fastPacing()
	pacing.Feedback = 30 * time.Millisecond
	questions := []domain.Question{mcQuestion(), mcQuestion(), mcQuestion()}
	s, err := NewSession(newTestEngine(10, 0), questions, 30, false, SessionOptions{
		Observer:     rec,
		Pacing:       pacing,
		TickInterval: time.Hour,
	})
	require.NoError(t, err)
	s.Start()

	s.SubmitAnswer("4")
	s.Advance()
	require.Equal(t, 1, s.Snapshot().Index)

	// The feedback timer of question 0 must not advance question 1.
	time.Sleep(60 * time.Millisecond)
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, PhasePresenting, snap.Phase)
}

func TestSessionMatchingThroughDriver(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newTestEngine(10, 0), []domain.Question{matchingQuestion()}, 30, false, SessionOptions{
		Observer:     rec,
		Pacing:       fastPacing(),
		TickInterval: time.Hour,
	})
	require.NoError(t, err)
	s.Start()

	s.SelectRight("p1")
	s.SelectLeft("p1")
	s.SelectLeft("p2")
	s.SelectRight("p2")
	waitDone(t, s)

	assert.Equal(t, 2, rec.count(EventPairMatched))
	summary, _ := s.Summary()
	assert.Equal(t, 1, summary.CorrectCount)
}
