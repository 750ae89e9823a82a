package engine

import (
	"sync"
	"time"

	"quiz-arena/internal/domain"
)

// Pacing spaces out the presentation after a question is judged. None of
// these delays affect scoring.
type Pacing struct {
	// Think is the delay between judging and revealing the opponent's choice.
	Think time.Duration
	// Reveal is the delay between revealing and resolving the opponent's choice.
	Reveal time.Duration
	// Resolved is the delay between resolving and moving on in opponent mode.
	Resolved time.Duration
	// Feedback is the delay between judging and moving on without an opponent.
	Feedback time.Duration
	// AutoAdvance moves to the next question once the delays have elapsed.
	// Without it the caller drives Advance.
	AutoAdvance bool
}

// DefaultPacing mirrors the arena client timings.
func DefaultPacing() Pacing {
	return Pacing{
		Think:       2 * time.Second,
		Reveal:      1500 * time.Millisecond,
		Resolved:    2 * time.Second,
		Feedback:    1500 * time.Millisecond,
		AutoAdvance: true,
	}
}

// SessionOptions configures a live Session.
type SessionOptions struct {
	Observer Observer
	Pacing   Pacing
	// TickInterval is the wall-clock length of one countdown second.
	TickInterval time.Duration
}

// Session drives a State in real time: a countdown ticks once per
// TickInterval and pacing steps run as cancelable timers. All entry points
// are serialized, so the first judgement of a question wins.
//
// Observers are called synchronously while the session lock is held; they
// must not block and must not call back into the same Session.
type Session struct {
	engine       *Engine
	observer     Observer
	pacing       Pacing
	tickInterval time.Duration

	mu         sync.Mutex
	state      State
	initial    []Event
	started    bool
	generation uint64
	stopTick   chan struct{}
	timers     map[*time.Timer]struct{}
	summary    *Summary
	done       chan struct{}
}

// NewSession prepares a session. Nothing runs and no event is emitted until Start.
func NewSession(engine *Engine, questions []domain.Question, timeLimit int, opponentMode bool, opts SessionOptions) (*Session, error) {
	state, events, err := engine.Start(questions, timeLimit, opponentMode)
	if err != nil {
		return nil, err
	}
	observer := opts.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Session{
		engine:       engine,
		observer:     observer,
		pacing:       opts.Pacing,
		tickInterval: tickInterval,
		state:        state,
		initial:      events,
		timers:       make(map[*time.Timer]struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Start emits the opening events and starts the countdown. Calling it twice is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.state.Phase.Terminal() {
		return
	}
	s.started = true
	events := s.initial
	s.initial = nil
	s.handleLocked(events)
}

// SubmitAnswer judges a typed answer for the active question.
func (s *Session) SubmitAnswer(candidate string) {
	s.apply(func(st State) (State, []Event) { return s.engine.Submit(st, candidate) })
}

// SelectLeft picks the left side of a matching pair.
func (s *Session) SelectLeft(pairID string) {
	s.Select(SideLeft, pairID)
}

// SelectRight picks the right side of a matching pair.
func (s *Session) SelectRight(pairID string) {
	s.Select(SideRight, pairID)
}

// Select picks one side of a matching pair.
func (s *Session) Select(side Side, pairID string) {
	s.apply(func(st State) (State, []Event) { return s.engine.Select(st, side, pairID) })
}

// Advance moves on from a judged question without waiting for pacing.
func (s *Session) Advance() {
	s.apply(s.engine.Advance)
}

// Abort ends the session early. Pending timers are canceled and no summary is produced.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase.Terminal() {
		return
	}
	next, events := s.engine.Abort(s.state)
	s.state = next
	s.handleLocked(events)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the session completes or is aborted.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Summary returns the final summary once the session has completed.
func (s *Session) Summary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return Summary{}, false
	}
	return *s.summary, true
}

func (s *Session) apply(transition func(State) (State, []Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.state.Phase.Terminal() {
		return
	}
	next, events := transition(s.state)
	s.state = next
	s.handleLocked(events)
}

// handleLocked runs the timing side effects of events, then notifies the observer.
func (s *Session) handleLocked(events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventQuestionPresented:
			s.generation++
			s.cancelTimersLocked()
			s.startCountdownLocked()
		case EventQuestionJudged:
			s.stopCountdownLocked()
			if s.state.OpponentMode {
				s.scheduleLocked(s.pacing.Think, s.engine.RevealOpponent)
			} else if s.pacing.AutoAdvance {
				s.scheduleLocked(s.pacing.Feedback, s.engine.Advance)
			}
		case EventOpponentRevealed:
			s.scheduleLocked(s.pacing.Reveal, s.engine.ResolveOpponent)
		case EventOpponentResolved:
			if s.pacing.AutoAdvance {
				s.scheduleLocked(s.pacing.Resolved, s.engine.Advance)
			}
		case EventSessionCompleted:
			summary := *ev.Summary
			s.summary = &summary
			s.finishLocked()
		case EventSessionAborted:
			s.finishLocked()
		}
		s.observer.OnEvent(ev)
	}
}

func (s *Session) finishLocked() {
	s.generation++
	s.stopCountdownLocked()
	s.cancelTimersLocked()
	close(s.done)
}

func (s *Session) startCountdownLocked() {
	s.stopCountdownLocked()
	stop := make(chan struct{})
	s.stopTick = stop
	go s.countdown(s.generation, stop)
}

func (s *Session) stopCountdownLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

func (s *Session) countdown(generation uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if generation == s.generation && !s.state.Phase.Terminal() {
				next, events := s.engine.Tick(s.state)
				s.state = next
				s.handleLocked(events)
			}
			s.mu.Unlock()
		}
	}
}

// scheduleLocked runs transition after d unless the session moved on first.
func (s *Session) scheduleLocked(d time.Duration, transition func(State) (State, []Event)) {
	generation := s.generation
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.timers, timer)
		if generation != s.generation || s.state.Phase.Terminal() {
			return
		}
		next, events := transition(s.state)
		s.state = next
		s.handleLocked(events)
	})
	s.timers[timer] = struct{}{}
}

func (s *Session) cancelTimersLocked() {
	for timer := range s.timers {
		timer.Stop()
		delete(s.timers, timer)
	}
}
