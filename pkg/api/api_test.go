package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/tidymind/tidymind/pkg/ai"
	"github.com/tidymind/tidymind/pkg/db"
	"github.com/tidymind/tidymind/pkg/notes"
)

// MockGenerator implements ai.Generator for testing
type MockGenerator struct {
	Response string
	Err      error
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return m.Response, m.Err
}

func setupRouter(t *testing.T, gen ai.Generator) *http.ServeMux {
	t.Helper()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.InitSchema(); err != nil {
		t.Fatal(err)
	}
	repo := db.NewRepository(database)
	if err := repo.SeedCategories(notes.DefaultColors); err != nil {
		t.Fatal(err)
	}

	classifier := ai.NewClassifier(gen)
	svc := notes.NewService(repo, classifier)
	return NewRouter(svc, classifier, repo)
}

func doJSON(t *testing.T, router *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCategorize(t *testing.T) {
	router := setupRouter(t, &MockGenerator{Response: "Task"})

	resp := doJSON(t, router, "POST", "/api/categorize", map[string]string{"content": "Buy milk"})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", resp.Code, resp.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["category"] != "Task" {
		t.Errorf("category = %q, want Task", out["category"])
	}

	resp = doJSON(t, router, "POST", "/api/categorize", map[string]string{"content": ""})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("empty content status = %d, want 400", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("error content type = %q, want application/json", ct)
	}
	var errBody map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if errBody["error"] == "" {
		t.Errorf("expected an error field, got %v", errBody)
	}
}

func TestCaptureThenList(t *testing.T) {
	router := setupRouter(t, &MockGenerator{Response: "Idea"})

	resp := doJSON(t, router, "POST", "/api/notes", map[string]string{"content": "An app that waters plants"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("capture status = %d body=%s", resp.Code, resp.Body.String())
	}

	// Listing triggers the merge pass that categorizes the pending note
	listResp := doJSON(t, router, "GET", "/api/notes", nil)
	if listResp.Code != http.StatusOK {
		t.Fatalf("list status = %d body=%s", listResp.Code, listResp.Body.String())
	}
	var listed struct {
		Notes []db.Note `json:"notes"`
	}
	if err := json.Unmarshal(listResp.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(listed.Notes))
	}
	if listed.Notes[0].Category != "Idea" {
		t.Errorf("category = %q, want Idea", listed.Notes[0].Category)
	}
	if listed.Notes[0].Title != "An app that waters plants" {
		t.Errorf("title = %q", listed.Notes[0].Title)
	}

	// Category filter that matches nothing returns an empty list, not null
	emptyResp := doJSON(t, router, "GET", "/api/notes?category=Task", nil)
	var empty struct {
		Notes []db.Note `json:"notes"`
	}
	if err := json.Unmarshal(emptyResp.Body.Bytes(), &empty); err != nil {
		t.Fatal(err)
	}
	if empty.Notes == nil || len(empty.Notes) != 0 {
		t.Errorf("expected empty notes array, got %v", empty.Notes)
	}
}

func TestEditAndDeleteNote(t *testing.T) {
	router := setupRouter(t, &MockGenerator{Response: "Task"})

	doJSON(t, router, "POST", "/api/notes", map[string]string{"content": "original"})
	listResp := doJSON(t, router, "GET", "/api/notes", nil)
	var listed struct {
		Notes []db.Note `json:"notes"`
	}
	if err := json.Unmarshal(listResp.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	id := listed.Notes[0].ID

	editResp := doJSON(t, router, "PATCH", "/api/notes/"+id, map[string]string{"content": "edited"})
	if editResp.Code != http.StatusOK {
		t.Fatalf("edit status = %d body=%s", editResp.Code, editResp.Body.String())
	}
	var edited db.Note
	if err := json.Unmarshal(editResp.Body.Bytes(), &edited); err != nil {
		t.Fatal(err)
	}
	if edited.Content != "edited" || edited.Title != "edited" {
		t.Errorf("edited note = %+v", edited)
	}

	if resp := doJSON(t, router, "PATCH", "/api/notes/missing", map[string]string{"content": "x"}); resp.Code != http.StatusNotFound {
		t.Errorf("edit missing status = %d, want 404", resp.Code)
	}

	if resp := doJSON(t, router, "DELETE", "/api/notes/"+id, nil); resp.Code != http.StatusOK {
		t.Errorf("delete status = %d", resp.Code)
	}
	if resp := doJSON(t, router, "DELETE", "/api/notes/"+id, nil); resp.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.Code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	router := setupRouter(t, &MockGenerator{Response: "Other"})

	listResp := doJSON(t, router, "GET", "/api/categories", nil)
	var listed struct {
		Categories []db.Category `json:"categories"`
	}
	if err := json.Unmarshal(listResp.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Categories) != len(ai.Categories) {
		t.Fatalf("expected %d seeded categories, got %d", len(ai.Categories), len(listed.Categories))
	}

	createResp := doJSON(t, router, "POST", "/api/categories", map[string]string{"name": "Recipes"})
	if createResp.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", createResp.Code, createResp.Body.String())
	}
	var created db.Category
	if err := json.Unmarshal(createResp.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Color == "" {
		t.Error("expected a palette color to be assigned")
	}

	if resp := doJSON(t, router, "POST", "/api/categories", map[string]string{"name": "Recipes"}); resp.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", resp.Code)
	}

	if resp := doJSON(t, router, "DELETE", "/api/categories/Other", nil); resp.Code != http.StatusBadRequest {
		t.Errorf("delete Other status = %d, want 400", resp.Code)
	}
	if resp := doJSON(t, router, "DELETE", "/api/categories/Recipes", nil); resp.Code != http.StatusOK {
		t.Errorf("delete Recipes status = %d", resp.Code)
	}
	if resp := doJSON(t, router, "DELETE", "/api/categories/Recipes", nil); resp.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d, want 404", resp.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	router := setupRouter(t, &MockGenerator{Response: "Thought"})

	doJSON(t, router, "POST", "/api/notes", map[string]string{"content": "calendar entry"})

	now := time.Now().UTC()
	path := "/api/calendar?year=" + strconv.Itoa(now.Year()) + "&month=" + strconv.Itoa(int(now.Month()))
	resp := doJSON(t, router, "GET", path, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("calendar status = %d body=%s", resp.Code, resp.Body.String())
	}
	var out struct {
		Year  int               `json:"year"`
		Month int               `json:"month"`
		Days  []json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Year != now.Year() || out.Month != int(now.Month()) {
		t.Errorf("calendar header = %d-%d", out.Year, out.Month)
	}
	if len(out.Days) != 1 {
		t.Errorf("expected 1 populated day, got %d", len(out.Days))
	}

	if resp := doJSON(t, router, "GET", "/api/calendar?month=13", nil); resp.Code != http.StatusBadRequest {
		t.Errorf("invalid month status = %d, want 400", resp.Code)
	}
}

func TestJobEndpoints(t *testing.T) {
	router := setupRouter(t, &MockGenerator{Response: "Other"})

	createBody := map[string]interface{}{
		"name":          "Nightly merge",
		"action_type":   "process_pending",
		"schedule_kind": "daily",
		"schedule_expr": "03:00",
		"timezone":      "UTC",
	}
	createResp := doJSON(t, router, "POST", "/api/jobs", createBody)
	if createResp.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", createResp.Code, createResp.Body.String())
	}

	var created struct {
		ID        int64      `json:"id"`
		NextRunAt *time.Time `json:"next_run_at"`
	}
	if err := json.Unmarshal(createResp.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID <= 0 {
		t.Fatalf("expected id > 0, got %d", created.ID)
	}
	if created.NextRunAt == nil {
		t.Fatal("expected next_run_at to be set")
	}

	listResp := doJSON(t, router, "GET", "/api/jobs", nil)
	if listResp.Code != http.StatusOK {
		t.Fatalf("list status = %d body=%s", listResp.Code, listResp.Body.String())
	}

	idPath := "/api/jobs/" + strconv.FormatInt(created.ID, 10)
	enabled := false
	updateResp := doJSON(t, router, "PATCH", idPath, map[string]interface{}{"enabled": &enabled})
	if updateResp.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", updateResp.Code, updateResp.Body.String())
	}
	var updated db.JobDefinition
	if err := json.Unmarshal(updateResp.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Enabled {
		t.Error("expected job to be disabled")
	}

	runNowResp := doJSON(t, router, "POST", idPath+"/run-now", nil)
	if runNowResp.Code != http.StatusOK {
		t.Fatalf("run-now status = %d body=%s", runNowResp.Code, runNowResp.Body.String())
	}

	badSchedule := map[string]interface{}{
		"name":          "Broken",
		"action_type":   "process_pending",
		"schedule_kind": "daily",
		"schedule_expr": "25:99",
	}
	if resp := doJSON(t, router, "POST", "/api/jobs", badSchedule); resp.Code != http.StatusBadRequest {
		t.Errorf("invalid schedule status = %d, want 400", resp.Code)
	}

	badAction := map[string]interface{}{
		"name":          "Bogus",
		"action_type":   "rm_rf",
		"schedule_kind": "daily",
		"schedule_expr": "03:00",
	}
	if resp := doJSON(t, router, "POST", "/api/jobs", badAction); resp.Code != http.StatusBadRequest {
		t.Errorf("unknown action_type status = %d, want 400", resp.Code)
	}

	bogus := "not_an_action"
	if resp := doJSON(t, router, "PATCH", idPath, map[string]interface{}{"action_type": &bogus}); resp.Code != http.StatusBadRequest {
		t.Errorf("update to unknown action_type status = %d, want 400", resp.Code)
	}
}
