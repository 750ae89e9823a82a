package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-arena/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Live sessions own goroutines and timers, so they stay in a local map;
// Redis holds a liveness marker per session so other instances and
// operators can see who is playing.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.LiveSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.LiveSession),
	}
}

func (s *SessionStore) Put(ctx context.Context, session *app.LiveSession) error {
	if err := s.client.Set(ctx, s.key(session.ID()), session.Request().LearnerID, s.ttl).Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*app.LiveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	// best-effort; the marker expires on its own
	_ = s.client.Del(ctx, s.key(sessionID)).Err()
}

// Touch restarts the marker's TTL. A marker that is already gone stays gone.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	return s.client.Expire(ctx, s.key(sessionID), s.ttl).Err()
}

// Live counts the session markers visible in Redis across instances.
func (s *SessionStore) Live(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, "quiz:session:*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
