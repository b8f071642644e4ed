package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/riftarena/arena-system/services"
	"github.com/riftarena/arena-system/storage"
)

const maxEvidenceSize = 10 << 20 // 10MB

type MatchHandler struct {
	matchService services.MatchService
	uploader     storage.FileUploader
}

func NewMatchHandler(ms services.MatchService, uploader storage.FileUploader) *MatchHandler {
	return &MatchHandler{
		matchService: ms,
		uploader:     uploader,
	}
}

// GetByIDHandler handles GET /matches/{matchID}.
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitEvidenceHandler handles POST /matches/{matchID}/evidence.
// Accepts either a multipart screenshot upload or a JSON body carrying
// an external evidence URL.
func (h *MatchHandler) SubmitEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var evidenceRef string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		evidenceRef, err = h.uploadEvidence(r, id)
		if err != nil {
			badRequestResponse(w, err)
			return
		}
	} else {
		var input struct {
			EvidenceRef string `json:"evidence_ref"`
		}
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, err)
			return
		}
		evidenceRef = input.EvidenceRef
	}

	match, err := h.matchService.SubmitEvidence(r.Context(), id, actor, evidenceRef)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// VerifyHandler handles POST /matches/{matchID}/verify.
func (h *MatchHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		WinnerRegistrationID string `json:"winner_registration_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Verify(r.Context(), id, actor, input.WinnerRegistrationID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) uploadEvidence(r *http.Request, matchID string) (string, error) {
	if h.uploader == nil {
		return "", errors.New("file uploads are not configured, submit an evidence_ref instead")
	}

	if err := r.ParseMultipartForm(maxEvidenceSize); err != nil {
		return "", fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", errors.New("multipart form must contain a file field")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return "", fmt.Errorf("unsupported evidence content type %q", contentType)
	}

	key := storage.EvidenceKey(matchID, uuid.NewString()+filepath.Ext(header.Filename))
	result, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to store evidence file: %w", err)
	}
	return result.Location, nil
}
