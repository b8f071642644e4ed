package handlers

import (
	"errors"
	"net/http"

	"github.com/riftarena/arena-system/repositories"
	"github.com/riftarena/arena-system/services"
)

type UserHandler struct {
	userRepo repositories.UserRepository
	ledger   services.WagerLedger
}

func NewUserHandler(userRepo repositories.UserRepository, ledger services.WagerLedger) *UserHandler {
	return &UserHandler{userRepo: userRepo, ledger: ledger}
}

// MeHandler handles GET /users/me.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), nil, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			errorResponse(w, http.StatusNotFound, "user not found")
			return
		}
		serverErrorResponse(w, r, err)
		return
	}
	user.PasswordHash = ""

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TransactionsHandler handles GET /users/me/transactions.
func (h *UserHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	transactions, err := h.ledger.History(r.Context(), actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"transactions": transactions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
