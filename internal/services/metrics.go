package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jwebster45206/map-quest/pkg/navigator"
	"github.com/jwebster45206/map-quest/pkg/storage"
)

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapquest_sessions_created_total",
		Help: "Total number of game sessions started.",
	})

	sessionsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapquest_sessions_deleted_total",
		Help: "Total number of game sessions ended by the client.",
	})

	gamesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapquest_games_completed_total",
			Help: "Total number of choices that finished a game, by game file.",
		},
		[]string{"game"},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapquest_navigator_operations_total",
			Help: "Total number of navigator operations by operation and result.",
		},
		[]string{"operation", "result"},
	)
)

// ErrorCode maps an operation error to a short stable code, used as a
// metric label and in WebSocket error responses.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, navigator.ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, navigator.ErrJumpBackDenied):
		return "jump_back_denied"
	case errors.Is(err, navigator.ErrJumpForwardDenied):
		return "jump_forward_denied"
	case errors.Is(err, navigator.ErrWrongPrompt):
		return "wrong_prompt"
	case errors.Is(err, navigator.ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, storage.ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, storage.ErrSessionBusy):
		return "session_busy"
	default:
		return "error"
	}
}

func observe(operation string, err error) {
	operationsTotal.WithLabelValues(operation, ErrorCode(err)).Inc()
}
