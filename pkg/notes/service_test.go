package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tidymind/tidymind/pkg/ai"
	"github.com/tidymind/tidymind/pkg/db"
)

// stubGenerator implements ai.Generator for testing
type stubGenerator struct {
	response string
	err      error
	// perCall overrides response per invocation when non-nil
	perCall func(prompt string) (string, error)
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if s.perCall != nil {
		return s.perCall(prompt)
	}
	return s.response, s.err
}

func setupService(t *testing.T, gen ai.Generator) (*Service, *db.Repository) {
	t.Helper()
	database, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	repo := db.NewRepository(database)
	if err := repo.SeedCategories(DefaultColors); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}
	return NewService(repo, ai.NewClassifier(gen)), repo
}

func TestCaptureValidation(t *testing.T) {
	svc, repo := setupService(t, &stubGenerator{response: "Task"})

	if err := svc.Capture("   ", "", 0); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
	if err := svc.Capture("note", "", MaxAttachments+1); !errors.Is(err, ErrTooManyAttachments) {
		t.Errorf("expected ErrTooManyAttachments, got %v", err)
	}

	// Transcript alone is enough content
	if err := svc.Capture("", "dictated text", 0); err != nil {
		t.Fatalf("capture with transcript only: %v", err)
	}
	pending, err := repo.ListPendingNotes()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Content != "dictated text" {
		t.Errorf("unexpected pending queue: %+v", pending)
	}
}

func TestCaptureAppendsTranscript(t *testing.T) {
	svc, repo := setupService(t, &stubGenerator{response: "Task"})

	if err := svc.Capture("typed part", "spoken part", 2); err != nil {
		t.Fatal(err)
	}
	pending, _ := repo.ListPendingNotes()
	if len(pending) != 1 || pending[0].Content != "typed part spoken part" {
		t.Errorf("unexpected pending content: %+v", pending)
	}
}

func TestMergePrependsBatchAndClearsQueue(t *testing.T) {
	svc, repo := setupService(t, &stubGenerator{response: "Task"})
	ctx := context.Background()

	// Two already-persisted notes
	if err := svc.Capture("old one", "", 0); err != nil {
		t.Fatal(err)
	}
	if err := svc.Capture("old two", "", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Merge(ctx); err != nil {
		t.Fatal(err)
	}

	// Three new pending notes
	for _, c := range []string{"new one", "new two", "new three"} {
		if err := svc.Capture(c, "", 0); err != nil {
			t.Fatal(err)
		}
	}

	merged, err := svc.Merge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if merged != 3 {
		t.Errorf("merged = %d, want 3", merged)
	}

	list, err := repo.ListNotes("")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 5 {
		t.Fatalf("list length = %d, want 5", len(list))
	}

	// The new batch sits ahead of the old notes, in original queue order
	wantOrder := []string{"new one", "new two", "new three", "old one", "old two"}
	for i, want := range wantOrder {
		if list[i].Content != want {
			t.Errorf("position %d = %q, want %q", i, list[i].Content, want)
		}
	}

	pendingCount, err := repo.CountPendingNotes()
	if err != nil {
		t.Fatal(err)
	}
	if pendingCount != 0 {
		t.Errorf("pending queue not cleared, %d left", pendingCount)
	}
}

func TestMergeEmptyQueueIsNoop(t *testing.T) {
	svc, _ := setupService(t, &stubGenerator{response: "Task"})

	merged, err := svc.Merge(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if merged != 0 {
		t.Errorf("merged = %d, want 0", merged)
	}
}

func TestMergeFailedClassificationKeepsNote(t *testing.T) {
	// Simulated network failure for every classification call
	svc, repo := setupService(t, &stubGenerator{err: errors.New("network error")})

	if err := svc.Capture("Buy milk tomorrow", "", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Merge(context.Background()); err != nil {
		t.Fatal(err)
	}

	list, err := repo.ListNotes("")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one note, got %d", len(list))
	}
	if list[0].Content != "Buy milk tomorrow" {
		t.Errorf("content = %q", list[0].Content)
	}
	if list[0].Category != "Other" {
		t.Errorf("category = %q, want Other", list[0].Category)
	}
}

func TestMergePartialFailureIsolated(t *testing.T) {
	// One note's classification fails while the others succeed
	gen := &stubGenerator{perCall: func(prompt string) (string, error) {
		if strings.Contains(prompt, "poison") {
			return "", errors.New("timeout")
		}
		return "Idea", nil
	}}
	svc, repo := setupService(t, gen)

	for _, c := range []string{"fine one", "poison pill", "fine two"} {
		if err := svc.Capture(c, "", 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Merge(context.Background()); err != nil {
		t.Fatal(err)
	}

	list, _ := repo.ListNotes("")
	if len(list) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(list))
	}
	byContent := map[string]string{}
	for _, n := range list {
		byContent[n.Content] = n.Category
	}
	if byContent["poison pill"] != "Other" {
		t.Errorf("failed item category = %q, want Other", byContent["poison pill"])
	}
	if byContent["fine one"] != "Idea" || byContent["fine two"] != "Idea" {
		t.Errorf("healthy items miscategorized: %+v", byContent)
	}
}

func TestRoundTripPreservesNotes(t *testing.T) {
	svc, repo := setupService(t, &stubGenerator{response: "Goal"})

	if err := svc.Capture("run a marathon\nsomeday", "", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Merge(context.Background()); err != nil {
		t.Fatal(err)
	}

	before, err := repo.ListNotes("")
	if err != nil {
		t.Fatal(err)
	}

	// Reload through a fresh repository over the same connection
	after, err := repo.ListNotes("")
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 1 || len(after) != 1 {
		t.Fatalf("expected one note, got %d/%d", len(before), len(after))
	}
	b, a := before[0], after[0]
	if b.ID != a.ID || b.Content != a.Content || b.Category != a.Category {
		t.Errorf("round trip changed note: %+v vs %+v", b, a)
	}
	if !b.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("round trip changed timestamp instant: %v vs %v", b.CreatedAt, a.CreatedAt)
	}
	if a.Title != "run a marathon" {
		t.Errorf("title = %q", a.Title)
	}
}

func TestEditRecomputesTitle(t *testing.T) {
	svc, _ := setupService(t, &stubGenerator{response: "Notes"})
	ctx := context.Background()

	if err := svc.Capture("original", "", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Merge(ctx); err != nil {
		t.Fatal(err)
	}
	list, _ := svc.List(ctx, "")
	if len(list) != 1 {
		t.Fatalf("expected one note, got %d", len(list))
	}

	longLine := ""
	for i := 0; i < 60; i++ {
		longLine += "x"
	}
	updated, err := svc.Edit(list[0].ID, longLine+"\nmore")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != longLine[:50]+"..." {
		t.Errorf("title = %q", updated.Title)
	}

	if _, err := svc.Edit("missing-id", "content"); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("expected ErrNoteNotFound, got %v", err)
	}
	if _, err := svc.Edit(list[0].ID, "  "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestDeleteCategoryCascade(t *testing.T) {
	gen := &stubGenerator{perCall: func(prompt string) (string, error) {
		if strings.Contains(prompt, "chore") {
			return "Task", nil
		}
		return "Idea", nil
	}}
	svc, repo := setupService(t, gen)
	ctx := context.Background()

	for _, c := range []string{"chore one", "chore two", "an idea"} {
		if err := svc.Capture(c, "", 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Merge(ctx); err != nil {
		t.Fatal(err)
	}

	reassigned, err := svc.DeleteCategory("Task")
	if err != nil {
		t.Fatal(err)
	}
	if reassigned != 2 {
		t.Errorf("reassigned = %d, want 2", reassigned)
	}

	if c, _ := repo.GetCategory("Task"); c != nil {
		t.Error("Task still registered after deletion")
	}

	list, _ := repo.ListNotes("")
	for _, n := range list {
		if n.Category == "Task" {
			t.Errorf("note %q still carries deleted category", n.Content)
		}
	}
	others, _ := repo.ListNotes("Other")
	if len(others) != 2 {
		t.Errorf("expected 2 notes reassigned to Other, got %d", len(others))
	}
}

func TestDeleteCategoryProtections(t *testing.T) {
	svc, _ := setupService(t, &stubGenerator{response: "Task"})

	if _, err := svc.DeleteCategory("Other"); !errors.Is(err, ErrProtectedCategory) {
		t.Errorf("expected ErrProtectedCategory, got %v", err)
	}
	if _, err := svc.DeleteCategory("NoSuch"); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestAddCategory(t *testing.T) {
	svc, _ := setupService(t, &stubGenerator{response: "Task"})

	added, err := svc.AddCategory("Recipes", "")
	if err != nil {
		t.Fatal(err)
	}
	if added.Color == "" {
		t.Error("expected a palette color to be assigned")
	}
	if added.Builtin {
		t.Error("user category marked builtin")
	}

	if _, err := svc.AddCategory("Recipes", ""); !errors.Is(err, ErrCategoryExists) {
		t.Errorf("expected ErrCategoryExists, got %v", err)
	}
	if _, err := svc.AddCategory("  ", ""); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestCalendarMonthGroupsByDay(t *testing.T) {
	svc, repo := setupService(t, &stubGenerator{response: "Reminder"})

	// Insert notes with controlled timestamps directly through the repo
	mk := func(id, content string, ts time.Time) db.Note {
		return db.Note{ID: id, Content: content, Category: "Reminder", Title: DeriveTitle(content), CreatedAt: ts}
	}
	batch := []db.Note{
		mk("n1", "dentist", time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)),
		mk("n2", "call mom", time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)),
		mk("n3", "rent", time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC)),
		mk("n4", "outside month", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)),
	}
	if err := repo.MergeNotes(batch, nil); err != nil {
		t.Fatal(err)
	}

	days, err := svc.CalendarMonth(context.Background(), 2026, time.September)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 populated days, got %d", len(days))
	}
	if days[0].Day != 3 || len(days[0].Notes) != 2 {
		t.Errorf("day 3 = %+v", days[0])
	}
	if days[1].Day != 12 || len(days[1].Notes) != 1 {
		t.Errorf("day 12 = %+v", days[1])
	}
}
