package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/logger"
)

// ErrorResponse is the body of every failed REST call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, domain.ErrQuestionsNotFound):
		return http.StatusNotFound, "QUESTIONS_NOT_FOUND"
	case errors.Is(err, domain.ErrLearnerNotFound):
		return http.StatusNotFound, "LEARNER_NOT_FOUND"
	case errors.Is(err, domain.ErrLevelLocked):
		return http.StatusForbidden, "LEVEL_LOCKED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Get().Error("request failed", zap.Error(err))
		message = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: message, Status: status})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Get().Debug("write response failed", zap.Error(err))
	}
}
