package handler

import (
	"net/http"

	"github.com/lumenworks/intake-api/internal/middleware"
	"github.com/lumenworks/intake-api/internal/service"
)

type ContactHandler struct {
	intake *service.IntakeService
}

func NewContactHandler(intake *service.IntakeService) *ContactHandler {
	return &ContactHandler{intake: intake}
}

// Submit handles POST /api/contact. JSON only; anything else is a shape
// error.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.intake.SubmitContact(r.Context(), service.ContactInput{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		ClientIP:  middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeIntakeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Thank you for reaching out. We will get back to you soon.",
		"id":      result.Submission.ID,
	})
}
