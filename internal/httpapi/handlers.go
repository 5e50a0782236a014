package httpapi

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/apierr"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/coordinator"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
)

type API struct {
	c   *coordinator.Coordinator
	log *zap.Logger
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type playerBody struct {
	Identifier string `json:"identifier"`
}

type actionBody struct {
	Identifier string `json:"identifier"`
	Action     string `json:"action"`
	ChampionID int    `json:"championId"`
}

type reasonBody struct {
	Reason string `json:"reason"`
}

type eventBody struct {
	Type    session.EventType `json:"type"`
	Payload map[string]any    `json:"payload"`
}

type finishBody struct {
	WinnerTeam      int               `json:"winnerTeam"`
	DurationSeconds int               `json:"durationSeconds"`
	EndReason       session.EndReason `json:"endReason"`
}

type botsBody struct {
	Count int `json:"count"`
}

var errBadBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadBody) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		return
	}
	status, code := apierr.Classify(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}

func (a *API) GetQueue(w http.ResponseWriter, r *http.Request) {
	status, err := a.c.QueueStatus(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) JoinQueue(w http.ResponseWriter, r *http.Request) {
	var req coordinator.JoinRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	entry, err := a.c.JoinQueue(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, errBadBody)
		return
	}
	entry, err := a.c.LeaveQueue(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) ClearQueue(w http.ResponseWriter, r *http.Request) {
	n, err := a.c.ClearQueue(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Removed int `json:"removed"`
	}{n})
}

func (a *API) AddBots(w http.ResponseWriter, r *http.Request) {
	body := botsBody{Count: 1}
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	bots, err := a.c.AddBots(r.Context(), body.Count)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bots)
}

func (a *API) GetMatch(w http.ResponseWriter, r *http.Request) {
	v, err := a.c.Match(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) Accept(w http.ResponseWriter, r *http.Request) {
	var body playerBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.c.Accept(r.Context(), chi.URLParam(r, "id"), body.Identifier); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) Decline(w http.ResponseWriter, r *http.Request) {
	var body playerBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.c.Decline(r.Context(), chi.URLParam(r, "id"), body.Identifier); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) SubmitAction(w http.ResponseWriter, r *http.Request) {
	var body actionBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	action, err := a.c.SubmitAction(r.Context(), chi.URLParam(r, "id"), body.Identifier, body.Action, body.ChampionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

func (a *API) AbortDraft(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.c.AbortDraft(r.Context(), chi.URLParam(r, "id"), body.Reason); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var body eventBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	evt, err := a.c.RecordEvent(r.Context(), chi.URLParam(r, "id"), body.Type, body.Payload)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, evt)
}

func (a *API) FinishGame(w http.ResponseWriter, r *http.Request) {
	var body finishBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	sum, err := a.c.FinishGame(r.Context(), chi.URLParam(r, "id"), session.Result{
		WinnerTeam: body.WinnerTeam,
		Duration:   time.Duration(body.DurationSeconds) * time.Second,
		EndReason:  body.EndReason,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) CancelGame(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	sum, err := a.c.CancelGame(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
