package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Runbinlin/jbn-daily/internal/catalog"
	"github.com/Runbinlin/jbn-daily/internal/config"
	"github.com/Runbinlin/jbn-daily/internal/event"
	"github.com/Runbinlin/jbn-daily/internal/game"
	"github.com/Runbinlin/jbn-daily/internal/npc"
	"github.com/Runbinlin/jbn-daily/internal/rng"
)

// App holds one live session and everything needed to build the next one.
// The engine itself is single-threaded; the mutex serializes HTTP access
// around it.
type App struct {
	Catalog *catalog.Catalog
	Balance config.Balance
	NewRNG  func() rng.Source
	Clock   game.Clock
	Log     zerolog.Logger

	mu        sync.Mutex
	session   *game.Session
	sessionID uuid.UUID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type messageResponse struct {
	Message string `json:"message"`
}

// advisory maps engine guard violations onto 200 responses with a human
// message and untouched state, per the engine's error policy.
func (a *App) advisory(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, game.ErrAlreadyChosen):
		writeJSON(w, http.StatusOK, messageResponse{Message: "Already decided today."})
	case errors.Is(err, game.ErrNoWeeklyEvent):
		writeJSON(w, http.StatusOK, messageResponse{Message: "No weekly event today."})
	case errors.Is(err, game.ErrInvalidOption):
		writeJSON(w, http.StatusOK, messageResponse{Message: "That option isn't on the table."})
	case errors.Is(err, game.ErrWeeklyPending):
		writeJSON(w, http.StatusOK, messageResponse{Message: "The weekly event still needs a decision."})
	case errors.Is(err, game.ErrPromotionPending):
		writeJSON(w, http.StatusOK, messageResponse{Message: "The promotion decision is still pending."})
	case errors.Is(err, game.ErrNoPendingPromotion):
		writeJSON(w, http.StatusOK, messageResponse{Message: "There is no promotion on the table."})
	case errors.Is(err, game.ErrNoActivePrompt):
		writeJSON(w, http.StatusOK, messageResponse{Message: "Nothing to resolve."})
	case errors.Is(err, game.ErrGameOver):
		writeJSON(w, http.StatusOK, messageResponse{Message: "The run is over. Start a new session."})
	default:
		return false
	}
	return true
}

func (a *App) withSession(w http.ResponseWriter, fn func(s *game.Session)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		writeJSON(w, http.StatusConflict, messageResponse{Message: "no active session"})
		return
	}
	fn(a.session)
}

type optionView struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
}

type eventView struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Options     []optionView `json:"options"`
	Chosen      bool         `json:"chosen"`
}

func viewOf(ev event.Event, chosen bool) eventView {
	v := eventView{Name: ev.Name, Description: ev.Description, Chosen: chosen}
	for i, opt := range ev.Presented {
		v.Options = append(v.Options, optionView{Position: i + 1, Label: opt.Label})
	}
	return v
}

type npcView struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	Interacted bool   `json:"interacted"`
}

// RegisterRoutes wires the command/query surface onto the mux.
func RegisterRoutes(mux *http.ServeMux, rr *RouteRegistry, app *App) {
	handle(mux, rr, "POST /api/session", "start or restart a run", `{"name":"Riley"}`, app.handleStartSession)
	handle(mux, rr, "GET /api/state", "player snapshot and phase", "", app.handleState)
	handle(mux, rr, "GET /api/event", "today's daily event", "", app.handleDailyEvent)
	handle(mux, rr, "GET /api/event/weekly", "this week's event, if present", "", app.handleWeeklyEvent)
	handle(mux, rr, "POST /api/choice/daily", "apply daily choice by display position", `{"position":1}`, app.handleDailyChoice)
	handle(mux, rr, "POST /api/choice/weekly", "apply weekly choice by display position", `{"position":1}`, app.handleWeeklyChoice)
	handle(mux, rr, "GET /api/npcs", "today's npc subset", "", app.handleNPCs)
	handle(mux, rr, "POST /api/npc/probe", "probe an npc by subset index", `{"index":0}`, app.handleNPCProbe)
	handle(mux, rr, "POST /api/npc/resolve", "resolve the active npc prompt", `{"decision":"accept"}`, app.handleNPCResolve)
	handle(mux, rr, "POST /api/day/next", "advance to the next day", "", app.handleNextDay)
	handle(mux, rr, "POST /api/promotion", "accept or decline a pending promotion", `{"accept":true}`, app.handlePromotion)
	handle(mux, rr, "GET /api/history", "bounded history log, oldest first", "", app.handleHistory)

	mux.HandleFunc("GET /api/routes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rr.List())
	})
}

func (a *App) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := game.NewSession(req.Name, game.Options{
		Catalog: a.Catalog,
		Balance: a.Balance,
		RNG:     a.NewRNG(),
		Clock:   a.Clock,
		Logger:  &a.Log,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
		return
	}
	a.session = sess
	a.sessionID = uuid.New()
	a.Log.Info().Str("session_id", a.sessionID.String()).Str("player", req.Name).Msg("session created")

	writeJSON(w, http.StatusOK, struct {
		SessionID string        `json:"session_id"`
		State     game.Snapshot `json:"state"`
	}{SessionID: a.sessionID.String(), State: sess.Snapshot()})
}

func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	a.withSession(w, func(s *game.Session) {
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func (a *App) handleDailyEvent(w http.ResponseWriter, r *http.Request) {
	a.withSession(w, func(s *game.Session) {
		writeJSON(w, http.StatusOK, viewOf(s.Today, s.DailyChosen))
	})
}

func (a *App) handleWeeklyEvent(w http.ResponseWriter, r *http.Request) {
	a.withSession(w, func(s *game.Session) {
		if s.WeeklyEvent == nil {
			writeJSON(w, http.StatusOK, struct {
				Present bool `json:"present"`
			}{Present: false})
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Present bool      `json:"present"`
			Event   eventView `json:"event"`
		}{Present: true, Event: viewOf(*s.WeeklyEvent, s.WeeklyChosen)})
	})
}

func (a *App) decodePosition(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req struct {
		Position int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return 0, false
	}
	return req.Position, true
}

func (a *App) handleDailyChoice(w http.ResponseWriter, r *http.Request) {
	pos, ok := a.decodePosition(w, r)
	if !ok {
		return
	}
	a.withSession(w, func(s *game.Session) {
		res, err := s.ApplyDailyChoice(pos)
		if err != nil {
			if !a.advisory(w, err) {
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: err.Error()})
			}
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func (a *App) handleWeeklyChoice(w http.ResponseWriter, r *http.Request) {
	pos, ok := a.decodePosition(w, r)
	if !ok {
		return
	}
	a.withSession(w, func(s *game.Session) {
		res, err := s.ApplyWeeklyChoice(pos)
		if err != nil {
			if !a.advisory(w, err) {
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: err.Error()})
			}
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func (a *App) handleNPCs(w http.ResponseWriter, r *http.Request) {
	a.withSession(w, func(s *game.Session) {
		views := make([]npcView, len(s.TodayNPCs))
		for i, enc := range s.TodayNPCs {
			views[i] = npcView{Index: i, Name: enc.Name, Model: enc.Model, Interacted: enc.Interacted}
		}
		writeJSON(w, http.StatusOK, views)
	})
}

func (a *App) handleNPCProbe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	a.withSession(w, func(s *game.Session) {
		msg, err := s.ProbeNPC(req.Index)
		if err != nil {
			if !a.advisory(w, err) {
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: err.Error()})
			}
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msg})
	})
}

func (a *App) handleNPCResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	decision := npc.Reject
	if req.Decision == "accept" {
		decision = npc.Accept
	}
	a.withSession(w, func(s *game.Session) {
		msg, err := s.ResolveNPC(decision)
		if err != nil {
			if !a.advisory(w, err) {
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: err.Error()})
			}
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msg})
	})
}

func (a *App) handleNextDay(w http.ResponseWriter, r *http.Request) {
	a.withSession(w, func(s *game.Session) {
		res, err := s.AdvanceDay()
		if err != nil {
			if !a.advisory(w, err) {
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: err.Error()})
			}
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func (a *App) handlePromotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	a.withSession(w, func(s *game.Session) {
		out, err := s.ResolvePromotion(req.Accept)
		if err != nil {
			if !a.advisory(w, err) {
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: err.Error()})
			}
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	a.withSession(w, func(s *game.Session) {
		writeJSON(w, http.StatusOK, struct {
			Entries []string `json:"entries"`
		}{Entries: s.HistoryEntries()})
	})
}
