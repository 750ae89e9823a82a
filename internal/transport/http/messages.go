package http

import (
	"encoding/json"
	"time"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type selectPayload struct {
	Side   string `json:"side"`
	PairID string `json:"pairId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type startedPayload struct {
	SessionID      string    `json:"sessionId"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeLimit      int       `json:"timeLimit"`
	Opponent       bool      `json:"opponent"`
	CreatedAt      time.Time `json:"createdAt"`
}

// questionView is a question as the learner sees it: the answer is never sent.
type questionView struct {
	Index         int                 `json:"index"`
	ID            string              `json:"id"`
	Type          domain.QuestionType `json:"type"`
	Text          string              `json:"text"`
	Options       []string            `json:"options,omitempty"`
	Left          []sideItem          `json:"left,omitempty"`
	Right         []sideItem          `json:"right,omitempty"`
	TimeRemaining int                 `json:"timeRemaining"`
}

type sideItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type tickPayload struct {
	Index         int `json:"index"`
	TimeRemaining int `json:"timeRemaining"`
}

type judgedPayload struct {
	Index       int  `json:"index"`
	Correct     bool `json:"correct"`
	TimedOut    bool `json:"timedOut"`
	Awarded     int  `json:"awarded"`
	PlayerScore int  `json:"playerScore"`
}

type pairPayload struct {
	Index   int    `json:"index"`
	LeftID  string `json:"leftId"`
	RightID string `json:"rightId"`
}

// revealPayload carries only the choice; the score waits for resolution.
type revealPayload struct {
	Index  int    `json:"index"`
	Choice string `json:"choice,omitempty"`
}

type opponentPayload struct {
	Index         int    `json:"index"`
	Correct       *bool  `json:"correct,omitempty"`
	Choice        string `json:"choice,omitempty"`
	OpponentScore int    `json:"opponentScore"`
}

type warningPayload struct {
	Index      int    `json:"index"`
	QuestionID string `json:"questionId"`
	Message    string `json:"message"`
}

func newQuestionView(index int, q domain.Question, timeRemaining int) questionView {
	view := questionView{
		Index:         index,
		ID:            q.ID,
		Type:          q.Type,
		Text:          q.Text,
		Options:       q.Options,
		TimeRemaining: timeRemaining,
	}
	if q.Type == domain.Matching {
		view.Left = make([]sideItem, 0, len(q.MatchingPairs))
		view.Right = make([]sideItem, 0, len(q.MatchingPairs))
		for _, p := range q.MatchingPairs {
			view.Left = append(view.Left, sideItem{ID: p.ID, Text: p.Left})
			view.Right = append(view.Right, sideItem{ID: p.ID, Text: p.Right})
		}
		// Right column order must not give the pairing away.
		view.Right = rotate(view.Right)
	}
	return view
}

func rotate(items []sideItem) []sideItem {
	if len(items) < 2 {
		return items
	}
	out := make([]sideItem, 0, len(items))
	out = append(out, items[1:]...)
	return append(out, items[0])
}

// translate maps an engine event to its wire message. questions is the
// session's immutable question list.
func translate(sessionID string, createdAt time.Time, questions []domain.Question, state engine.State, ev engine.Event) (outboundMessage[any], bool) {
	switch ev.Kind {
	case engine.EventSessionStarted:
		return outboundMessage[any]{Type: "started", Payload: startedPayload{
			SessionID:      sessionID,
			TotalQuestions: len(questions),
			TimeLimit:      state.TimeLimit,
			Opponent:       state.OpponentMode,
			CreatedAt:      createdAt,
		}}, true
	case engine.EventQuestionPresented:
		if ev.QuestionIndex < 0 || ev.QuestionIndex >= len(questions) {
			return outboundMessage[any]{}, false
		}
		return outboundMessage[any]{Type: "question", Payload: newQuestionView(ev.QuestionIndex, questions[ev.QuestionIndex], ev.TimeRemaining)}, true
	case engine.EventTimerTicked:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{Index: ev.QuestionIndex, TimeRemaining: ev.TimeRemaining}}, true
	case engine.EventQuestionJudged:
		return outboundMessage[any]{Type: "judged", Payload: judgedPayload{
			Index:       ev.QuestionIndex,
			Correct:     ev.Correct,
			TimedOut:    ev.TimedOut,
			Awarded:     ev.Awarded,
			PlayerScore: ev.PlayerScore,
		}}, true
	case engine.EventPairMatched:
		return outboundMessage[any]{Type: "pairMatched", Payload: pairPayload{Index: ev.QuestionIndex, LeftID: ev.LeftID, RightID: ev.RightID}}, true
	case engine.EventPairMismatched:
		return outboundMessage[any]{Type: "pairMismatched", Payload: pairPayload{Index: ev.QuestionIndex, LeftID: ev.LeftID, RightID: ev.RightID}}, true
	case engine.EventOpponentRevealed:
		return outboundMessage[any]{Type: "opponentRevealed", Payload: revealPayload{
			Index:  ev.QuestionIndex,
			Choice: ev.OpponentChoice,
		}}, true
	case engine.EventOpponentResolved:
		return outboundMessage[any]{Type: "opponentResolved", Payload: opponentPayload{
			Index:         ev.QuestionIndex,
			Correct:       ev.OpponentCorrect,
			Choice:        ev.OpponentChoice,
			OpponentScore: ev.OpponentScore,
		}}, true
	case engine.EventSessionCompleted:
		return outboundMessage[any]{Type: "completed", Payload: ev.Summary}, true
	case engine.EventSessionAborted:
		return outboundMessage[any]{Type: "aborted", Payload: struct{}{}}, true
	case engine.EventDataQualityWarning:
		return outboundMessage[any]{Type: "warning", Payload: warningPayload{Index: ev.QuestionIndex, QuestionID: ev.QuestionID, Message: ev.Warning}}, true
	}
	return outboundMessage[any]{}, false
}
