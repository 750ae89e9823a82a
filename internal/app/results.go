package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
	"quiz-arena/internal/logger"
)

// complete hands a finished session to a writer goroutine; it runs inside the
// engine callback and must not do I/O itself.
func (s *QuizService) complete(live *LiveSession, summary engine.Summary) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		result, err := s.recordResult(ctx, live, summary)
		if err != nil {
			logger.Get().Error("persist result failed",
				zap.String("session_id", live.id),
				zap.String("learner_id", live.request.LearnerID),
				zap.Error(err))
		} else {
			logger.Get().Info("session completed",
				zap.String("session_id", live.id),
				zap.Int("score", result.Score),
				zap.Int("correct", result.CorrectCount),
				zap.Bool("passed", result.Passed),
				zap.Int("xp_gained", result.XPGained))
		}
		s.stores.Sessions.Delete(ctx, live.id)
	}()
}

// touch extends the session's lease in stores that expire entries.
func (s *QuizService) touch(live *LiveSession) {
	toucher, ok := s.stores.Sessions.(SessionToucher)
	if !ok {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := toucher.Touch(ctx, live.id); err != nil {
			logger.Get().Warn("refresh session marker failed", zap.String("session_id", live.id), zap.Error(err))
		}
	}()
}

func (s *QuizService) release(live *LiveSession, reason string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		s.stores.Sessions.Delete(ctx, live.id)
		logger.Get().Info("session released", zap.String("session_id", live.id), zap.String("reason", reason))
	}()
}

func (s *QuizService) recordResult(ctx context.Context, live *LiveSession, summary engine.Summary) (domain.QuizResult, error) {
	req := live.request
	now := s.opts.Clock()
	attempt := domain.Attempt{
		Difficulty:   req.Difficulty,
		Level:        req.Level,
		Score:        summary.FinalScore,
		CorrectCount: summary.CorrectCount,
	}
	adv, err := s.advance(ctx, req.LearnerID, attempt, now)
	if err != nil {
		return domain.QuizResult{}, err
	}

	result := domain.QuizResult{
		SessionID:     live.id,
		LearnerID:     req.LearnerID,
		DisplayName:   req.DisplayName,
		Subject:       req.Subject,
		Difficulty:    req.Difficulty,
		Level:         req.Level,
		Score:         summary.FinalScore,
		CorrectCount:  summary.CorrectCount,
		Total:         summary.TotalQuestions,
		OpponentScore: summary.OpponentScore,
		Passed:        adv.Passed,
		XPGained:      adv.XPGained,
		CompletedAt:   now,
	}
	if err := s.stores.Results.SaveResult(ctx, result); err != nil {
		return result, fmt.Errorf("save result: %w", err)
	}
	entry := domain.LeaderboardEntry{LearnerID: req.LearnerID, DisplayName: req.DisplayName, Score: result.Score}
	if err := s.stores.Leaderboard.Record(ctx, entry); err != nil {
		return result, fmt.Errorf("record leaderboard: %w", err)
	}
	return result, nil
}

// advance applies an attempt to the learner's progress. Completions for the
// same learner are serialized so concurrent sessions never drop each other's
// experience or unlocks.
func (s *QuizService) advance(ctx context.Context, learnerID string, attempt domain.Attempt, now time.Time) (domain.Advancement, error) {
	unlock := s.learners.lock(learnerID)
	defer unlock()

	var adv domain.Advancement
	apply := func(progress domain.Progress) domain.Progress {
		var next domain.Progress
		next, adv = s.opts.Progression.Apply(progress, attempt, now)
		return next
	}

	if updater, ok := s.stores.Progress.(ProgressUpdater); ok {
		if _, err := updater.UpdateProgress(ctx, learnerID, apply); err != nil {
			return adv, fmt.Errorf("update progress: %w", err)
		}
		return adv, nil
	}

	progress, err := s.progress(ctx, learnerID)
	if err != nil {
		return adv, fmt.Errorf("load progress: %w", err)
	}
	if err := s.stores.Progress.SaveProgress(ctx, apply(progress)); err != nil {
		return adv, fmt.Errorf("save progress: %w", err)
	}
	return adv, nil
}

// learnerLocks hands out one mutex per learner id and forgets it once the
// last holder releases it.
type learnerLocks struct {
	mu    sync.Mutex
	locks map[string]*learnerLock
}

type learnerLock struct {
	mu   sync.Mutex
	refs int
}

func (l *learnerLocks) lock(learnerID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*learnerLock)
	}
	entry, ok := l.locks[learnerID]
	if !ok {
		entry = &learnerLock{}
		l.locks[learnerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, learnerID)
		}
		l.mu.Unlock()
	}
}
