package handlers

import (
	"net/http"

	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/services"
)

type GameHandler struct {
	lobbyService services.LobbyService
}

func NewGameHandler(ls services.LobbyService) *GameHandler {
	return &GameHandler{lobbyService: ls}
}

// CreateHandler handles POST /games.
func (h *GameHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	game, err := h.lobbyService.Create(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /games. The open query parameter limits the
// listing to joinable games.
func (h *GameHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var (
		games []models.Game
		err   error
	)
	if r.URL.Query().Get("open") == "true" {
		games, err = h.lobbyService.ListOpen(r.Context())
	} else {
		games, err = h.lobbyService.ListAll(r.Context())
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /games/{gameID}.
func (h *GameHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	game, err := h.lobbyService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinHandler handles POST /games/{gameID}/join.
func (h *GameHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Team int `json:"team"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	game, err := h.lobbyService.Join(r.Context(), id, actor, input.Team)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// VerifyHandler handles POST /games/{gameID}/verify.
func (h *GameHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		WinnerTeam int `json:"winner_team"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	game, err := h.lobbyService.Verify(r.Context(), id, actor, input.WinnerTeam)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelHandler handles POST /games/{gameID}/cancel.
func (h *GameHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.lobbyService.Cancel(r.Context(), id, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
