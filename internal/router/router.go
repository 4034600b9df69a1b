package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumenworks/intake-api/internal/auth"
	"github.com/lumenworks/intake-api/internal/handler"
	mw "github.com/lumenworks/intake-api/internal/middleware"
)

func New(
	jwtSecret string,
	contactH *handler.ContactHandler,
	recruitH *handler.RecruitHandler,
	flowH *handler.FlowHandler,
	adminH *handler.AdminHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Public intake
		r.Post("/contact", contactH.Submit)
		r.Post("/recruit", recruitH.Submit)

		// Recruiting wizard sessions
		r.Route("/recruit/flow", func(r chi.Router) {
			r.Post("/", flowH.Create)
			r.Get("/{sessionId}", flowH.Get)
			r.Post("/{sessionId}/fields", flowH.SetFields)
			r.Post("/{sessionId}/next", flowH.Next)
			r.Post("/{sessionId}/previous", flowH.Previous)
			r.Post("/{sessionId}/submit", flowH.Submit)
		})

		// Operator surface
		r.Post("/admin/login", adminH.Login)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			r.Get("/admin/dashboard", adminH.Dashboard)
			r.Get("/admin/submissions", adminH.ListSubmissions)
			r.Get("/admin/submissions/{id}", adminH.GetSubmission)
			r.Get("/admin/submissions/{id}/resume", adminH.DownloadResume)
		})
	})

	return r
}
