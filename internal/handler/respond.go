package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/convene/internal/model"
	"github.com/Shivanand-hulikatti/convene/internal/repository"
	"github.com/Shivanand-hulikatti/convene/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeDomainError maps service and repository errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSaveFailed):
		writeError(w, http.StatusInternalServerError, "change applied but could not be saved")
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidEvent),
		errors.Is(err, repository.ErrInvalidParticipant):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, repository.ErrDuplicateID),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrEventCancelled),
		errors.Is(err, repository.ErrAlreadyCancelled),
		errors.Is(err, repository.ErrNotRegistered):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// eventID parses the {id} URL parameter, writing a 400 on failure.
func eventID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "event id must be a positive integer")
		return 0, false
	}
	return id, true
}

func nonNil(events []model.Event) []model.Event {
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		return []model.Event{}
	}
	return events
}
