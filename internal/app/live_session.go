package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-arena/internal/engine"
	"quiz-arena/internal/logger"
)

const subscriberBuffer = 64

// LiveSession is one learner's play session registered with the service.
// It fans engine events out to subscribers.
type LiveSession struct {
	id        string
	request   SessionRequest
	service   *QuizService
	session   *engine.Session
	createdAt time.Time

	mu          sync.Mutex
	subscribers map[chan engine.Event]struct{}
	ended       bool
}

func (l *LiveSession) ID() string {
	return l.id
}

func (l *LiveSession) Request() SessionRequest {
	return l.request
}

func (l *LiveSession) CreatedAt() time.Time {
	return l.createdAt
}

// Snapshot returns the engine state.
func (l *LiveSession) Snapshot() engine.State {
	return l.session.Snapshot()
}

// Done is closed when the session completes or is aborted.
func (l *LiveSession) Done() <-chan struct{} {
	return l.session.Done()
}

// Summary returns the final summary once the session has completed.
func (l *LiveSession) Summary() (engine.Summary, bool) {
	return l.session.Summary()
}

// OnEvent is called by the engine with its lock held; it must not block.
func (l *LiveSession) OnEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventDataQualityWarning:
		logger.Get().Warn("malformed question served",
			zap.String("session_id", l.id),
			zap.String("question_id", ev.QuestionID),
			zap.String("warning", ev.Warning))
	case engine.EventQuestionPresented:
		l.service.touch(l)
	case engine.EventSessionCompleted:
		l.service.complete(l, *ev.Summary)
	case engine.EventSessionAborted:
		l.service.release(l, "aborted")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.broadcastLocked(ev)
	if ev.Kind == engine.EventSessionCompleted || ev.Kind == engine.EventSessionAborted {
		l.ended = true
		for ch := range l.subscribers {
			delete(l.subscribers, ch)
			close(ch)
		}
	}
}

func (l *LiveSession) subscribe() (<-chan engine.Event, func()) {
	ch := make(chan engine.Event, subscriberBuffer)

	l.mu.Lock()
	if l.ended {
		l.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *LiveSession) broadcastLocked(ev engine.Event) {
	for ch := range l.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop its oldest event so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
