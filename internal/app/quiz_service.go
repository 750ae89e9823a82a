package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
	"quiz-arena/internal/logger"
)

// SessionRepository tracks live play sessions (in-memory, Redis, etc).
type SessionRepository interface {
	Put(ctx context.Context, session *LiveSession) error
	Get(ctx context.Context, sessionID string) (*LiveSession, bool)
	Delete(ctx context.Context, sessionID string)
}

// SessionToucher is implemented by session stores whose entries expire and
// must be kept alive while the session is still being played.
type SessionToucher interface {
	Touch(ctx context.Context, sessionID string) error
}

// QuestionRepository loads the questions of one level (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context, key domain.QuestionSetKey) ([]domain.Question, error)
}

// ResultStore persists completed sessions.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.QuizResult) error
	ListResults(ctx context.Context) ([]domain.QuizResult, error)
}

// ProgressStore persists learner progress. GetProgress returns
// domain.ErrLearnerNotFound for a learner that never finished a session.
type ProgressStore interface {
	GetProgress(ctx context.Context, learnerID string) (domain.Progress, error)
	SaveProgress(ctx context.Context, progress domain.Progress) error
}

// ProgressUpdater is implemented by progress stores that can apply a change
// atomically against writers in other processes.
type ProgressUpdater interface {
	UpdateProgress(ctx context.Context, learnerID string, apply func(domain.Progress) domain.Progress) (domain.Progress, error)
}

// LeaderboardStore keeps each learner's best session score.
type LeaderboardStore interface {
	Record(ctx context.Context, entry domain.LeaderboardEntry) error
	Top(ctx context.Context, limit int) (domain.Leaderboard, error)
}

// Stores groups the repositories the service depends on.
type Stores struct {
	Sessions    SessionRepository
	Questions   QuestionRepository
	Results     ResultStore
	Progress    ProgressStore
	Leaderboard LeaderboardStore
}

// Options tunes session creation.
type Options struct {
	Engine              *engine.Engine
	Pacing              engine.Pacing
	TickInterval        time.Duration
	TimeLimit           int
	QuestionsPerSession int
	Progression         domain.ProgressionPolicy
	LeaderboardSize     int
	// Shuffle orders the questions of a new session; nil shuffles randomly.
	Shuffle func([]domain.Question) []domain.Question
	Clock   func() time.Time
}

// SessionRequest describes the level a learner wants to play.
type SessionRequest struct {
	LearnerID   string
	DisplayName string
	Subject     string
	Difficulty  domain.Difficulty
	Level       int
	// TimeLimit in seconds; zero uses the configured default.
	TimeLimit int
	Opponent  bool
}

const persistTimeout = 10 * time.Second

// QuizService contains the play use cases around the session engine.
type QuizService struct {
	stores Stores
	opts   Options

	learners learnerLocks
	wg       sync.WaitGroup
}

func NewQuizService(stores Stores, opts Options) *QuizService {
	if opts.Engine == nil {
		opts.Engine = engine.NewEngine(engine.DefaultConfig())
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = engine.DefaultTimeLimit
	}
	if opts.Progression == (domain.ProgressionPolicy{}) {
		opts.Progression = domain.NewProgressionPolicy(0, 0)
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 10
	}
	if opts.Shuffle == nil {
		opts.Shuffle = ShuffleQuestions
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &QuizService{stores: stores, opts: opts}
}

// StartSession prepares a session for a learner. Events start flowing after Begin,
// so callers can Subscribe first without missing the opening question.
func (s *QuizService) StartSession(ctx context.Context, req SessionRequest) (*LiveSession, error) {
	if req.LearnerID == "" {
		return nil, fmt.Errorf("%w: learner id is required", domain.ErrInvalidRequest)
	}
	if req.Level < 1 {
		return nil, fmt.Errorf("%w: level must be at least 1", domain.ErrInvalidRequest)
	}
	difficulty, err := domain.ParseDifficulty(string(req.Difficulty))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	req.Difficulty = difficulty

	progress, err := s.progress(ctx, req.LearnerID)
	if err != nil {
		return nil, err
	}
	if req.Level > progress.Unlocked(req.Difficulty) {
		return nil, fmt.Errorf("%w: %s level %d", domain.ErrLevelLocked, req.Difficulty, req.Level)
	}

	key := domain.QuestionSetKey{Subject: req.Subject, Difficulty: req.Difficulty, Level: req.Level}
	questions, err := s.stores.Questions.GetQuestions(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuestionsNotFound, key)
	}
	questions = s.opts.Shuffle(questions)
	if n := s.opts.QuestionsPerSession; n > 0 && n < len(questions) {
		questions = questions[:n]
	}

	timeLimit := req.TimeLimit
	if timeLimit <= 0 {
		timeLimit = s.opts.TimeLimit
	}

	live := &LiveSession{
		id:          uuid.NewString(),
		request:     req,
		service:     s,
		createdAt:   s.opts.Clock(),
		subscribers: make(map[chan engine.Event]struct{}),
	}
	session, err := engine.NewSession(s.opts.Engine, questions, timeLimit, req.Opponent, engine.SessionOptions{
		Observer:     live,
		Pacing:       s.opts.Pacing,
		TickInterval: s.opts.TickInterval,
	})
	if err != nil {
		return nil, err
	}
	live.session = session

	if err := s.stores.Sessions.Put(ctx, live); err != nil {
		return nil, err
	}
	logger.Get().Info("session created",
		zap.String("session_id", live.id),
		zap.String("learner_id", req.LearnerID),
		zap.String("set", key.String()),
		zap.Int("questions", len(questions)),
		zap.Bool("opponent", req.Opponent))
	return live, nil
}

// Begin presents the first question and starts the countdown.
func (s *QuizService) Begin(ctx context.Context, sessionID string) error {
	live, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	live.session.Start()
	return nil
}

// Subscribe returns a channel of session events. It is closed once the session ends.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, sessionID string) (<-chan engine.Event, func(), error) {
	live, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := live.subscribe()
	return ch, cancel, nil
}

// SubmitAnswer judges a typed answer for the active question.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, answer string) error {
	live, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	live.session.SubmitAnswer(answer)
	return nil
}

// SelectPair picks one side of a matching pair.
func (s *QuizService) SelectPair(ctx context.Context, sessionID string, side engine.Side, pairID string) error {
	live, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	live.session.Select(side, pairID)
	return nil
}

// Advance skips the remaining feedback delay of a judged question.
func (s *QuizService) Advance(ctx context.Context, sessionID string) error {
	live, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	live.session.Advance()
	return nil
}

// Abort ends a session without recording a result.
func (s *QuizService) Abort(ctx context.Context, sessionID string) error {
	live, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	live.session.Abort()
	return nil
}

// Progress returns a learner's progress, or fresh progress for unknown learners.
func (s *QuizService) Progress(ctx context.Context, learnerID string) (domain.Progress, error) {
	if learnerID == "" {
		return domain.Progress{}, fmt.Errorf("%w: learner id is required", domain.ErrInvalidRequest)
	}
	return s.progress(ctx, learnerID)
}

// Leaderboard returns the best learners; limit <= 0 uses the configured size.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = s.opts.LeaderboardSize
	}
	return s.stores.Leaderboard.Top(ctx, limit)
}

// Stats aggregates every persisted result.
func (s *QuizService) Stats(ctx context.Context) (domain.Stats, error) {
	results, err := s.stores.Results.ListResults(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.SummarizeResults(results), nil
}

// Close waits for pending result writes. Call it once no session can finish anymore.
func (s *QuizService) Close() {
	s.wg.Wait()
}

func (s *QuizService) lookup(ctx context.Context, sessionID string) (*LiveSession, error) {
	live, ok := s.stores.Sessions.Get(ctx, sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return live, nil
}

func (s *QuizService) progress(ctx context.Context, learnerID string) (domain.Progress, error) {
	progress, err := s.stores.Progress.GetProgress(ctx, learnerID)
	if errors.Is(err, domain.ErrLearnerNotFound) {
		return domain.NewProgress(learnerID), nil
	}
	return progress, err
}
