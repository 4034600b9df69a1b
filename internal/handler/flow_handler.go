package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumenworks/intake-api/internal/flow"
	"github.com/lumenworks/intake-api/internal/middleware"
	"github.com/lumenworks/intake-api/internal/models"
	"github.com/lumenworks/intake-api/internal/service"
)

// FlowHandler exposes the recruiting wizard as server-held sessions: the
// frontend walks steps and binds fields, and the final submit runs the same
// intake pipeline as a direct POST /api/recruit.
type FlowHandler struct {
	sessions *flow.Manager
	intake   *service.IntakeService
}

func NewFlowHandler(sessions *flow.Manager, intake *service.IntakeService) *FlowHandler {
	return &FlowHandler{sessions: sessions, intake: intake}
}

func (h *FlowHandler) Create(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.sessions.Create())
}

func (h *FlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessions.Snapshot(chi.URLParam(r, "sessionId"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SetFields binds submitted values to the session's current step. Fields
// that do not belong to the step are reported back, not bound.
func (h *FlowHandler) SetFields(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields map[string]string `json:"fields"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var rejected []string
	state, ok := h.sessions.Update(chi.URLParam(r, "sessionId"), func(wz *flow.Wizard) {
		for name, value := range req.Fields {
			if !wz.SetField(name, value) {
				rejected = append(rejected, name)
			}
		}
	})
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	resp := map[string]any{"state": state}
	if len(rejected) > 0 {
		resp["rejectedFields"] = rejected
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *FlowHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*flow.Wizard).Next)
}

func (h *FlowHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*flow.Wizard).Previous)
}

func (h *FlowHandler) navigate(w http.ResponseWriter, r *http.Request, move func(*flow.Wizard) flow.Step) {
	state, ok := h.sessions.Update(chi.URLParam(r, "sessionId"), func(wz *flow.Wizard) {
		move(wz)
	})
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Submit finalizes the session: collected fields plus an optional multipart
// resume go through the recruit intake pipeline. Claiming the session
// latches it terminal before dispatch, so concurrent submits on one session
// cannot both run the pipeline; a failed attempt reopens the session on its
// current step and the error is surfaced verbatim.
func (h *FlowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	state, already, ok := h.sessions.Claim(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if already {
		writeError(w, http.StatusConflict, "application already submitted")
		return
	}
	reopen := func() {
		h.sessions.Update(sessionID, func(wz *flow.Wizard) { wz.Reopen() })
	}

	var attachment *models.Attachment
	if classifyBody(r) == bodyMultipart {
		att, err := resumeFromMultipart(r)
		if err != nil {
			reopen()
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		attachment = att
	}

	fields := state.Fields
	result, err := h.intake.SubmitRecruit(r.Context(), service.RecruitInput{
		ProjectTypes: fields["projectTypes"],
		Title:        fields["title"],
		Introduction: fields["introduction"],
		Company:      fields["company"],
		Name:         fields["name"],
		Position:     fields["position"],
		Phone:        fields["phone"],
		Email:        fields["email"],
		Attachment:   attachment,
		ClientIP:     middleware.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		reopen()
		writeIntakeError(w, r, err)
		return
	}

	resp := map[string]any{
		"message": "Thank you for applying. Our team will review your application.",
		"id":      result.Submission.ID,
		"state":   state,
	}
	if result.FileDropped {
		resp["message"] = "Thank you for applying. Your resume exceeded the size limit and was not attached; please send it separately."
		resp["fileDropped"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func resumeFromMultipart(r *http.Request) (*models.Attachment, error) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &models.Attachment{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
