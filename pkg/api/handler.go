package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tidymind/tidymind/pkg/ai"
	"github.com/tidymind/tidymind/pkg/db"
	"github.com/tidymind/tidymind/pkg/notes"
)

// Handler holds dependencies for API handlers
type Handler struct {
	Svc        *notes.Service
	Classifier *ai.Classifier
	Repo       *db.Repository
}

// CategorizeRequest represents the payload for a one-off categorization
type CategorizeRequest struct {
	Content string `json:"content"`
}

// HandleCategorize handles POST /api/categorize. Classification never
// fails: on model errors the answer is "Other".
func (h *Handler) HandleCategorize(w http.ResponseWriter, r *http.Request) {
	var req CategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	category := h.Classifier.Classify(r.Context(), req.Content)
	writeJSON(w, http.StatusOK, map[string]string{"category": category})
}

// CaptureRequest represents the payload for capturing a note
type CaptureRequest struct {
	Content     string   `json:"content"`
	Transcript  string   `json:"transcript"`
	Attachments []string `json:"attachments"`
}

// HandleCaptureNote handles POST /api/notes. Capture only enqueues; the
// note is categorized and persisted by the next merge pass, so the
// response is 202 rather than 201.
func (h *Handler) HandleCaptureNote(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Svc.Capture(req.Content, req.Transcript, len(req.Attachments)); err != nil {
		if errors.Is(err, notes.ErrEmptyContent) || errors.Is(err, notes.ErrTooManyAttachments) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to capture note: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
}

// HandleListNotes handles GET /api/notes
func (h *Handler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		http.Error(w, "failed to list notes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []db.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": list})
}

// EditNoteRequest represents the payload for editing a note
type EditNoteRequest struct {
	Content string `json:"content"`
}

// HandleEditNote handles PATCH /api/notes/{id}
func (h *Handler) HandleEditNote(w http.ResponseWriter, r *http.Request) {
	var req EditNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.Svc.Edit(r.PathValue("id"), req.Content)
	if err != nil {
		if errors.Is(err, notes.ErrNoteNotFound) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, notes.ErrEmptyContent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to update note: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleDeleteNote handles DELETE /api/notes/{id}
func (h *Handler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.PathValue("id")); err != nil {
		if errors.Is(err, notes.ErrNoteNotFound) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete note: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleCalendar handles GET /api/calendar?year=&month=
func (h *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	days, err := h.Svc.CalendarMonth(r.Context(), year, time.Month(month))
	if err != nil {
		http.Error(w, "failed to build calendar: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []notes.DayNotes{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

// HandleListCategories handles GET /api/categories
func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Svc.Categories()
	if err != nil {
		http.Error(w, "failed to list categories: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

// CreateCategoryRequest represents the payload for adding a category
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HandleCreateCategory handles POST /api/categories
func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cat, err := h.Svc.AddCategory(req.Name, req.Color)
	if err != nil {
		if errors.Is(err, notes.ErrCategoryExists) {
			http.Error(w, "category already exists", http.StatusConflict)
			return
		}
		if errors.Is(err, notes.ErrEmptyContent) {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to create category: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// HandleDeleteCategory handles DELETE /api/categories/{name}
func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	reassigned, err := h.Svc.DeleteCategory(r.PathValue("name"))
	if err != nil {
		if errors.Is(err, notes.ErrProtectedCategory) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, notes.ErrCategoryNotFound) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete category: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "deleted",
		"reassigned": reassigned,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
