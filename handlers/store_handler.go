package handlers

import (
	"net/http"

	"github.com/riftarena/arena-system/services"
)

type StoreHandler struct {
	storeService services.StoreService
}

func NewStoreHandler(ss services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: ss}
}

// ListItemsHandler handles GET /store/items.
func (h *StoreHandler) ListItemsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.storeService.ListItems(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"items": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateItemHandler handles POST /store/items.
func (h *StoreHandler) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	var input services.CreateStoreItemInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	item, err := h.storeService.CreateItem(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RedeemHandler handles POST /store/items/{itemID}/redeem.
func (h *StoreHandler) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	redemption, newBalance, err := h.storeService.Redeem(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{
		"redemption":  redemption,
		"new_balance": newBalance,
	}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
