package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/lumenworks/intake-api/internal/middleware"
	"github.com/lumenworks/intake-api/internal/models"
	"github.com/lumenworks/intake-api/internal/service"
)

// multipartMemoryLimit caps in-memory multipart parsing; larger files spill
// to disk and are still size-checked by the assembler.
const multipartMemoryLimit = 12 << 20

type RecruitHandler struct {
	intake *service.IntakeService
}

func NewRecruitHandler(intake *service.IntakeService) *RecruitHandler {
	return &RecruitHandler{intake: intake}
}

// recruitForm is the flow's field set independent of how the body arrived.
type recruitForm struct {
	ProjectTypes string `json:"projectTypes"`
	Title        string `json:"title"`
	Introduction string `json:"introduction"`
	Company      string `json:"company"`
	Name         string `json:"name"`
	Position     string `json:"position"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// bodyKind tags the decoded request body shape so branching on content type
// is explicit and exhaustive.
type bodyKind int

const (
	bodyJSON bodyKind = iota
	bodyMultipart
	bodyUnsupported
)

func classifyBody(r *http.Request) bodyKind {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return bodyUnsupported
	}
	switch mediaType {
	case "application/json":
		return bodyJSON
	case "multipart/form-data":
		return bodyMultipart
	default:
		return bodyUnsupported
	}
}

// Submit handles POST /api/recruit. The body is either JSON (no attachment)
// or multipart form data with an optional resume file.
func (h *RecruitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form recruitForm
	var attachment *models.Attachment

	switch classifyBody(r) {
	case bodyJSON:
		if err := readJSON(r, &form); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	case bodyMultipart:
		var err error
		form, attachment, err = decodeMultipart(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	case bodyUnsupported:
		writeError(w, http.StatusBadRequest, "unsupported content type")
		return
	}

	result, err := h.intake.SubmitRecruit(r.Context(), service.RecruitInput{
		ProjectTypes: form.ProjectTypes,
		Title:        form.Title,
		Introduction: form.Introduction,
		Company:      form.Company,
		Name:         form.Name,
		Position:     form.Position,
		Phone:        form.Phone,
		Email:        form.Email,
		Attachment:   attachment,
		ClientIP:     middleware.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		writeIntakeError(w, r, err)
		return
	}

	resp := map[string]any{
		"message": "Thank you for applying. Our team will review your application.",
		"id":      result.Submission.ID,
	}
	if result.FileDropped {
		resp["message"] = "Thank you for applying. Your resume exceeded the size limit and was not attached; please send it separately."
		resp["fileDropped"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeMultipart(r *http.Request) (recruitForm, *models.Attachment, error) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return recruitForm{}, nil, err
	}

	form := recruitForm{
		ProjectTypes: r.FormValue("projectTypes"),
		Title:        r.FormValue("title"),
		Introduction: r.FormValue("introduction"),
		Company:      r.FormValue("company"),
		Name:         r.FormValue("name"),
		Position:     r.FormValue("position"),
		Phone:        r.FormValue("phone"),
		Email:        r.FormValue("email"),
	}

	file, header, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil
	}
	if err != nil {
		return recruitForm{}, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return recruitForm{}, nil, err
	}
	return form, &models.Attachment{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
