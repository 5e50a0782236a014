// Package apierr maps domain errors onto HTTP statuses and stable codes shared
// by the REST and websocket surfaces.
package apierr

import (
	"context"
	"errors"
	"net/http"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/acceptance"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/coordinator"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/engine"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/queue"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
)

type mapping struct {
	err    error
	status int
	code   string
}

var table = []mapping{
	{match.ErrMalformedIdentifier, http.StatusBadRequest, "malformed_identifier"},
	{match.ErrInvalidLane, http.StatusBadRequest, "invalid_lane"},
	{match.ErrInvalidActionType, http.StatusBadRequest, "invalid_action_type"},
	{queue.ErrInvalidMMR, http.StatusBadRequest, "invalid_mmr"},
	{session.ErrUnknownEventType, http.StatusBadRequest, "unknown_event_type"},
	{session.ErrInvalidWinner, http.StatusBadRequest, "invalid_winner"},
	{session.ErrInvalidReason, http.StatusBadRequest, "invalid_reason"},

	{coordinator.ErrMatchNotFound, http.StatusNotFound, "match_not_found"},
	{queue.ErrNotQueued, http.StatusNotFound, "not_queued"},
	{store.ErrNotFound, http.StatusNotFound, "not_found"},

	{queue.ErrAlreadyQueued, http.StatusConflict, "already_queued"},
	{queue.ErrReserved, http.StatusConflict, "reserved"},
	{acceptance.ErrNotInRoster, http.StatusConflict, "not_in_roster"},
	{acceptance.ErrAlreadyResolved, http.StatusConflict, "already_resolved"},
	{engine.ErrNotDrafting, http.StatusConflict, "not_drafting"},
	{engine.ErrDraftFinished, http.StatusConflict, "draft_finished"},
	{engine.ErrWrongActionType, http.StatusConflict, "wrong_action_type"},
	{engine.ErrWrongActor, http.StatusConflict, "wrong_actor"},
	{engine.ErrIllegalChampion, http.StatusConflict, "illegal_champion"},
	{coordinator.ErrDuplicateSubmission, http.StatusConflict, "duplicate_submission"},
	{coordinator.ErrNotInProgress, http.StatusConflict, "not_in_progress"},
	{session.ErrSessionClosed, http.StatusConflict, "session_closed"},
	{store.ErrConflict, http.StatusConflict, "conflict"},
	{match.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},

	{coordinator.ErrClosed, http.StatusServiceUnavailable, "unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// Classify returns the HTTP status and code for err. Unknown errors are
// internal.
func Classify(err error) (int, string) {
	for _, m := range table {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}
