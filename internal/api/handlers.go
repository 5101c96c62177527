package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sniper-duel/internal/arena"
	"sniper-duel/internal/game"
	"sniper-duel/internal/lobby"
)

// createMatchRequest is the optional host settings body for POST /api/matches.
type createMatchRequest struct {
	Settings game.Settings `json:"settings"`
}

type createMatchResponse struct {
	MatchID    string        `json:"matchId"`
	InviteCode string        `json:"inviteCode"`
	Settings   game.Settings `json:"settings"`
}

func (h *routerHandlers) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && err != io.EOF {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	m, err := h.lobby.Create(req.Settings)
	if err != nil {
		writeLobbyError(w, err)
		return
	}

	w.Header().Set("Location", "/api/matches/"+m.InviteCode())
	writeJSONStatus(w, http.StatusCreated, createMatchResponse{
		MatchID:    m.ID(),
		InviteCode: m.InviteCode(),
		Settings:   m.Settings(),
	})
}

func (h *routerHandlers) handleListMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"matches": h.lobby.List(),
	})
}

func (h *routerHandlers) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.lobby.ByCode(chi.URLParam(r, "code"))
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	writeJSON(w, m.Summary())
}

// Preview size bounds in pixels.
const (
	defaultPreviewPx = 512
	minPreviewPx     = 64
	maxPreviewPx     = 1024
)

func (h *routerHandlers) handleGetArena(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, arena.Layout{
		Name:      h.arena.Name(),
		Size:      h.arena.Size(),
		Obstacles: h.arena.Obstacles(),
		Spawns:    h.arena.Spawns(),
	})
}

func (h *routerHandlers) handleArenaPreview(w http.ResponseWriter, r *http.Request) {
	px := defaultPreviewPx
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minPreviewPx || n > maxPreviewPx {
			writeError(w, "size must be between 64 and 1024", http.StatusBadRequest)
			return
		}
		px = n
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := h.arena.WritePreviewPNG(w, px); err != nil {
		log.Printf("⚠️ Arena preview failed: %v", err)
	}
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"matches": h.lobby.Count(),
	})
}

// lobbyStatus maps lobby errors to HTTP status codes.
func lobbyStatus(err error) int {
	switch {
	case errors.Is(err, lobby.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, lobby.ErrMatchFull), errors.Is(err, lobby.ErrMatchClosed):
		return http.StatusConflict
	case errors.Is(err, lobby.ErrTooManyMatches):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeLobbyError(w http.ResponseWriter, err error) {
	code := lobbyStatus(err)
	if code == http.StatusInternalServerError {
		log.Printf("❌ Lobby error: %v", err)
	}
	writeError(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
