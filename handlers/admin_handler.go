package handlers

import (
	"net/http"

	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/services"
)

type AdminHandler struct {
	adminService services.AdminService
	storeService services.StoreService
}

func NewAdminHandler(as services.AdminService, ss services.StoreService) *AdminHandler {
	return &AdminHandler{
		adminService: as,
		storeService: ss,
	}
}

// ListUsersHandler handles GET /admin/users.
func (h *AdminHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	users, err := h.adminService.ListUsers(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PromoteUserHandler handles PATCH /admin/users/{userID}/role.
func (h *AdminHandler) PromoteUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Role models.UserRole `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	user, err := h.adminService.PromoteUser(r.Context(), actor, id, input.Role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdjustBalanceHandler handles POST /admin/users/{userID}/balance.
func (h *AdminHandler) AdjustBalanceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	newBalance, err := h.adminService.AdjustBalance(r.Context(), actor, id, input.Delta, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"new_balance": newBalance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteUserHandler handles DELETE /admin/users/{userID}.
func (h *AdminHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListGamesHandler handles GET /admin/games.
func (h *AdminHandler) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	games, err := h.adminService.ListAllGames(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ForceSettleHandler handles POST /admin/games/{gameID}/settle.
func (h *AdminHandler) ForceSettleHandler(w http.ResponseWriter, r *http.Request) {
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

	game, err := h.adminService.ForceSettle(r.Context(), actor, id, input.WinnerTeam)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteGameHandler handles DELETE /admin/games/{gameID}.
func (h *AdminHandler) DeleteGameHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.adminService.DeleteGame(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRedemptionsHandler handles GET /admin/redemptions.
func (h *AdminHandler) ListRedemptionsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	redemptions, err := h.storeService.ListRedemptions(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"redemptions": redemptions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
