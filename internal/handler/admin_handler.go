package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lumenworks/intake-api/internal/auth"
	"github.com/lumenworks/intake-api/internal/models"
	"github.com/lumenworks/intake-api/internal/repository"
	"github.com/lumenworks/intake-api/internal/service"
)

// AdminHandler serves the operator surface: login plus read access to the
// stored submissions and resumes.
type AdminHandler struct {
	authSvc *service.AuthService
	subRepo *repository.SubmissionRepo
	blobs   *repository.BlobRepo
}

func NewAdminHandler(authSvc *service.AuthService, subRepo *repository.SubmissionRepo, blobs *repository.BlobRepo) *AdminHandler {
	return &AdminHandler{authSvc: authSvc, subRepo: subRepo, blobs: blobs}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	flow := models.Flow(r.URL.Query().Get("flow"))
	skip := clampQueryInt(r.URL.Query().Get("skip"), 0, 0, 1<<30)
	// A negative LIMIT means unbounded in SQLite, so bad input must never
	// reach the query.
	limit := clampQueryInt(r.URL.Query().Get("limit"), 20, 1, 100)

	subs, total, err := h.subRepo.List(r.Context(), flow, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"total":       total,
		"skip":        skip,
		"limit":       limit,
	})
}

// clampQueryInt parses a pagination parameter, substituting fallback when
// absent or malformed and clamping the result into [min, max].
func clampQueryInt(raw string, fallback, min, max int) int {
	n, err := strconv.Atoi(raw)
	if raw == "" || err != nil {
		n = fallback
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func (h *AdminHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subRepo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// DownloadResume streams the stored resume bytes for one submission.
func (h *AdminHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subRepo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sub == nil || sub.Attachment == nil || sub.Attachment.BlobKey == "" {
		writeError(w, http.StatusNotFound, "resume not found")
		return
	}

	data, contentType, err := h.blobs.Get(r.Context(), sub.Attachment.BlobKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "resume not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sub.Attachment.FileName+`"`)
	w.Write(data)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	contactCount, err := h.subRepo.CountByFlow(r.Context(), models.FlowContact)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recruitCount, err := h.subRepo.CountByFlow(r.Context(), models.FlowRecruit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recent, _, err := h.subRepo.List(r.Context(), "", 0, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"contactCount": contactCount,
		"recruitCount": recruitCount,
		"totalCount":   contactCount + recruitCount,
		"recent":       recent,
	}
	if op := auth.Operator(r.Context()); op != nil {
		resp["operator"] = op.Email
	}
	writeJSON(w, http.StatusOK, resp)
}
