package engine

// EventKind identifies an engine notification.
type EventKind string

const (
	EventSessionStarted     EventKind = "session_started"
	EventQuestionPresented  EventKind = "question_presented"
	EventTimerTicked        EventKind = "timer_ticked"
	EventPairMatched        EventKind = "pair_matched"
	EventPairMismatched     EventKind = "pair_mismatched"
	EventQuestionJudged     EventKind = "question_judged"
	EventOpponentRevealed   EventKind = "opponent_revealed"
	EventOpponentResolved   EventKind = "opponent_resolved"
	EventSessionCompleted   EventKind = "session_completed"
	EventSessionAborted     EventKind = "session_aborted"
	EventDataQualityWarning EventKind = "data_quality_warning"
)

// Event carries a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind          EventKind
	QuestionIndex int
	QuestionID    string
	TimeRemaining int

	Correct     bool
	TimedOut    bool
	Awarded     int
	PlayerScore int

	OpponentCorrect *bool
	OpponentChoice  string
	OpponentScore   int

	LeftID  string
	RightID string

	Warning string
	Summary *Summary
}

// Observer receives engine events in emission order.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

type noopObserver struct{}

func (noopObserver) OnEvent(Event) {}
