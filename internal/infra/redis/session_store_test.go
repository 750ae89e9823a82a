package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/infra/memory"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	service := app.NewQuizService(app.Stores{
		Sessions:    store,
		Questions:   memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuestions()), 0),
		Results:     memory.NewResultStore(),
		Progress:    memory.NewProgressStore(),
		Leaderboard: memory.NewLeaderboard(),
	}, app.Options{})
	ctx := context.Background()

	live, err := service.StartSession(ctx, app.SessionRequest{LearnerID: "u1", Subject: "math", Difficulty: domain.Easy, Level: 1})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	key := "quiz:session:" + live.ID()
	if !mr.Exists(key) {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get(key); got != "u1" {
		t.Fatalf("expected marker to hold the learner id, got %q", got)
	}
	if n, err := store.Live(ctx); err != nil || n != 1 {
		t.Fatalf("expected one live marker, got %d (%v)", n, err)
	}
	if _, ok := store.Get(ctx, live.ID()); !ok {
		t.Fatalf("expected session present locally")
	}

	store.Delete(ctx, live.ID())
	if mr.Exists(key) {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get(ctx, live.ID()); ok {
		t.Fatalf("expected session removed locally")
	}
}

func TestSessionStoreRefreshesMarkerPerQuestion(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	service := app.NewQuizService(app.Stores{
		Sessions:    store,
		Questions:   memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuestions()), 0),
		Results:     memory.NewResultStore(),
		Progress:    memory.NewProgressStore(),
		Leaderboard: memory.NewLeaderboard(),
	}, app.Options{TickInterval: time.Hour})
	ctx := context.Background()

	live, err := service.StartSession(ctx, app.SessionRequest{LearnerID: "u1", Subject: "math", Difficulty: domain.Easy, Level: 1})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer func() {
		_ = service.Abort(ctx, live.ID())
		service.Close()
	}()
	key := "quiz:session:" + live.ID()

	mr.FastForward(40 * time.Second)
	if ttl := mr.TTL(key); ttl != 20*time.Second {
		t.Fatalf("expected 20s left before the first question, got %v", ttl)
	}
	if err := service.Begin(ctx, live.ID()); err != nil {
		t.Fatalf("begin: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for mr.TTL(key) != time.Minute {
		if time.Now().After(deadline) {
			t.Fatalf("marker TTL was not refreshed, still %v", mr.TTL(key))
		}
		time.Sleep(5 * time.Millisecond)
	}
	mr.FastForward(40 * time.Second)
	if n, err := store.Live(ctx); err != nil || n != 1 {
		t.Fatalf("expected the running session to stay visible, got %d (%v)", n, err)
	}

	if err := store.Touch(ctx, "gone"); err != nil {
		t.Fatalf("touch missing marker: %v", err)
	}
	if mr.Exists("quiz:session:gone") {
		t.Fatalf("touch must not create a marker")
	}
}
