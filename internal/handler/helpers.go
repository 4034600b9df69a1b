package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/lumenworks/intake-api/internal/middleware"
	"github.com/lumenworks/intake-api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, dst any) error {
	if !isJSON(r) {
		return errors.New("content type must be application/json")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	mediaType, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(mediaType) == "application/json"
}

// writeIntakeError maps pipeline errors onto the status-code contract.
// Validation messages go to the client verbatim; server-side failures are
// logged with detail and answered generically.
func writeIntakeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	var dErr *service.DispatchError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrMailNotConfigured):
		log.Printf("Error: %s: mail provider not configured", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "submission could not be processed")
	case errors.As(err, &dErr):
		log.Printf("Error: %s ip=%s: %v", r.URL.Path, middleware.ClientIP(r), dErr)
		writeError(w, http.StatusInternalServerError, "submission could not be processed")
	default:
		log.Printf("Error: %s ip=%s: %v", r.URL.Path, middleware.ClientIP(r), err)
		writeError(w, http.StatusInternalServerError, "submission could not be processed")
	}
}
