package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
	"quiz-arena/internal/logger"
)

const writeWait = 5 * time.Second

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer of the router.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// parseSessionRequest reads the session parameters from the query string.
func parseSessionRequest(r *http.Request) (app.SessionRequest, error) {
	q := r.URL.Query()
	req := app.SessionRequest{
		LearnerID:   q.Get("learnerId"),
		DisplayName: q.Get("name"),
		Subject:     q.Get("subject"),
		Difficulty:  domain.Difficulty(q.Get("difficulty")),
		Level:       1,
	}
	if req.DisplayName == "" {
		req.DisplayName = req.LearnerID
	}
	if raw := q.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: level %q", domain.ErrInvalidRequest, raw)
		}
		req.Level = level
	}
	if raw := q.Get("timeLimit"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return req, fmt.Errorf("%w: timeLimit %q", domain.ErrInvalidRequest, raw)
		}
		req.TimeLimit = seconds
	}
	if raw := q.Get("opponent"); raw != "" {
		opponent, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("%w: opponent %q", domain.ErrInvalidRequest, raw)
		}
		req.Opponent = opponent
	}
	return req, nil
}

// ServeWS starts a session for the requesting learner and plays it over a websocket.
// Closing the socket aborts an unfinished session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	req, err := parseSessionRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	live, err := h.service.StartSession(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	sessionID := live.ID()
	// The request context is cancelled once the handler returns; session
	// commands must outlive individual reads.
	ctx := context.WithoutCancel(r.Context())
	defer func() { _ = h.service.Abort(ctx, sessionID) }()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn("ws upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	questions := live.Snapshot().Questions
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if msg.Type == "" {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				logger.Get().Debug("ws write failed", zap.String("session_id", sessionID), zap.Error(err))
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					// Session over: ask the writer to close the socket.
					push(outboundMessage[any]{})
					return
				}
				msg, ok := translate(sessionID, live.CreatedAt(), questions, live.Snapshot(), ev)
				if !ok {
					continue
				}
				if !push(msg) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if err := h.service.Begin(ctx, sessionID); err != nil {
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, sessionID, inbound); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, sessionID string, inbound inboundMessage) error {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fmt.Errorf("invalid answer payload")
		}
		return h.service.SubmitAnswer(ctx, sessionID, payload.Answer)
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fmt.Errorf("invalid select payload")
		}
		side, ok := engine.ParseSide(payload.Side)
		if !ok {
			return fmt.Errorf("unknown side %q", payload.Side)
		}
		return h.service.SelectPair(ctx, sessionID, side, payload.PairID)
	case "next":
		return h.service.Advance(ctx, sessionID)
	case "abort":
		return h.service.Abort(ctx, sessionID)
	default:
		return fmt.Errorf("unsupported message type")
	}
}
