package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidymind/tidymind/pkg/ai"
	"github.com/tidymind/tidymind/pkg/db"
)

// MaxAttachments is the capture-time cap on in-memory image attachments
const MaxAttachments = 5

var (
	ErrEmptyContent       = errors.New("content is required")
	ErrNoteNotFound       = errors.New("note not found")
	ErrCategoryExists     = errors.New("category already exists")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrProtectedCategory  = errors.New("the Other category cannot be deleted")
	ErrTooManyAttachments = fmt.Errorf("at most %d attachments are allowed", MaxAttachments)
)

// Service owns the capture -> categorize -> merge pipeline and the
// category registry. All note-list mutations go through here.
type Service struct {
	repo       *db.Repository
	classifier *ai.Classifier

	// Serializes merge passes so concurrent triggers (an HTTP load and a
	// scheduled job) cannot interleave claim and clear of the same queue.
	mergeMu sync.Mutex
}

// NewService creates the notes service
func NewService(repo *db.Repository, classifier *ai.Classifier) *Service {
	return &Service{repo: repo, classifier: classifier}
}

// Capture validates raw input and enqueues it as a pending note. It never
// touches the classifier: categorization happens later, in Merge, so the
// caller is not blocked on the model.
func (s *Service) Capture(content, transcript string, attachments int) error {
	content = strings.TrimSpace(content)
	transcript = strings.TrimSpace(transcript)
	if transcript != "" {
		if content == "" {
			content = transcript
		} else {
			content = content + " " + transcript
		}
	}
	if content == "" {
		return ErrEmptyContent
	}
	if attachments > MaxAttachments {
		return ErrTooManyAttachments
	}

	if _, err := s.repo.InsertPendingNote(content, time.Now().UTC()); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return nil
}

// Merge drains the pending queue: every pending note is classified
// concurrently, the batch is prepended ahead of the persisted list, and
// queue clearing commits together with the insert. A note whose
// classification fails is kept with category "Other", never dropped.
// Returns the number of notes merged.
func (s *Service) Merge(ctx context.Context) (int, error) {
	s.mergeMu.Lock()
	defer s.mergeMu.Unlock()

	pending, err := s.repo.ListPendingNotes()
	if err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	// Fire off all classifications at once and wait for the slowest one.
	// Classify is total, so there is no per-item error to collect.
	categories := make([]string, len(pending))
	var wg sync.WaitGroup
	for i, p := range pending {
		wg.Add(1)
		go func(i int, content string) {
			defer wg.Done()
			categories[i] = s.classifier.Classify(ctx, content)
		}(i, p.Content)
	}
	wg.Wait()

	merged := make([]db.Note, len(pending))
	pendingIDs := make([]int64, len(pending))
	for i, p := range pending {
		merged[i] = db.Note{
			ID:        NewNoteID(),
			Content:   p.Content,
			Category:  categories[i],
			Title:     DeriveTitle(p.Content),
			CreatedAt: p.CreatedAt,
		}
		pendingIDs[i] = p.ID
	}

	if err := s.repo.MergeNotes(merged, pendingIDs); err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	return len(merged), nil
}

// List runs a merge pass and returns the persisted notes, newest first,
// optionally filtered by category. Titles missing from older rows are
// backfilled on the way out.
func (s *Service) List(ctx context.Context, category string) ([]db.Note, error) {
	if _, err := s.Merge(ctx); err != nil {
		return nil, err
	}

	list, err := s.repo.ListNotes(category)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Title == "" {
			list[i].Title = DeriveTitle(list[i].Content)
		}
	}
	return list, nil
}

// Get returns a single note
func (s *Service) Get(id string) (*db.Note, error) {
	note, err := s.repo.GetNoteByID(id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// Edit replaces a note's content and recomputes its display title
func (s *Service) Edit(id, content string) (*db.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	ok, err := s.repo.UpdateNoteContent(id, content, DeriveTitle(content))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoteNotFound
	}
	return s.Get(id)
}

// Delete removes a note
func (s *Service) Delete(id string) error {
	ok, err := s.repo.DeleteNote(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoteNotFound
	}
	return nil
}

// DayNotes groups a calendar day's notes
type DayNotes struct {
	Day   int       `json:"day"`
	Notes []db.Note `json:"notes"`
}

// CalendarMonth runs a merge pass and returns the month's notes grouped by
// day of month, in day order.
func (s *Service) CalendarMonth(ctx context.Context, year int, month time.Month) ([]DayNotes, error) {
	if _, err := s.Merge(ctx); err != nil {
		return nil, err
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	list, err := s.repo.ListNotesBetween(start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int][]db.Note)
	for _, n := range list {
		day := n.CreatedAt.UTC().Day()
		byDay[day] = append(byDay[day], n)
	}

	var days []DayNotes
	for day := 1; day <= 31; day++ {
		if ns, ok := byDay[day]; ok {
			days = append(days, DayNotes{Day: day, Notes: ns})
		}
	}
	return days, nil
}

// Categories returns the color registry with per-category note counts
func (s *Service) Categories() ([]db.Category, error) {
	return s.repo.ListCategories()
}

// AddCategory registers a user-defined category. An empty color picks the
// next palette color in rotation.
func (s *Service) AddCategory(name, color string) (*db.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyContent
	}

	existing, err := s.repo.GetCategory(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	if color == "" {
		count, err := s.repo.CountCategories()
		if err != nil {
			return nil, err
		}
		color = PaletteColor(count)
	}

	if err := s.repo.InsertCategory(name, color); err != nil {
		return nil, err
	}
	return s.repo.GetCategory(name)
}

// DeleteCategory removes a category and reassigns its notes to "Other".
// "Other" itself is permanently protected.
func (s *Service) DeleteCategory(name string) (int64, error) {
	if name == ai.CategoryOther {
		return 0, ErrProtectedCategory
	}

	existing, err := s.repo.GetCategory(name)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, ErrCategoryNotFound
	}

	return s.repo.DeleteCategoryAndReassign(name, ai.CategoryOther)
}

// Counts reports persisted and pending note totals, for status surfaces
func (s *Service) Counts() (persisted, pending int64, err error) {
	persisted, err = s.repo.CountNotes()
	if err != nil {
		return 0, 0, err
	}
	pending, err = s.repo.CountPendingNotes()
	if err != nil {
		return 0, 0, err
	}
	return persisted, pending, nil
}
