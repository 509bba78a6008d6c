package api

import (
	"net/http"

	"github.com/tidymind/tidymind/pkg/ai"
	"github.com/tidymind/tidymind/pkg/db"
	"github.com/tidymind/tidymind/pkg/notes"
)

// NewRouter creates a new HTTP router
func NewRouter(svc *notes.Service, classifier *ai.Classifier, repo *db.Repository) *http.ServeMux {
	mux := http.NewServeMux()

	h := &Handler{
		Svc:        svc,
		Classifier: classifier,
		Repo:       repo,
	}

	mux.HandleFunc("POST /api/categorize", h.HandleCategorize)
	mux.HandleFunc("POST /api/notes", h.HandleCaptureNote)
	mux.HandleFunc("GET /api/notes", h.HandleListNotes)
	mux.HandleFunc("PATCH /api/notes/{id}", h.HandleEditNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.HandleDeleteNote)
	mux.HandleFunc("GET /api/calendar", h.HandleCalendar)
	mux.HandleFunc("GET /api/categories", h.HandleListCategories)
	mux.HandleFunc("POST /api/categories", h.HandleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{name}", h.HandleDeleteCategory)
	mux.HandleFunc("POST /api/jobs", h.HandleCreateJob)
	mux.HandleFunc("GET /api/jobs", h.HandleListJobs)
	mux.HandleFunc("PATCH /api/jobs/{id}", h.HandleUpdateJob)
	mux.HandleFunc("POST /api/jobs/{id}/run-now", h.HandleRunJobNow)

	return mux
}
