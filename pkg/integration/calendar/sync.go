package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tidymind/tidymind/pkg/db"
	"github.com/tidymind/tidymind/pkg/notes"
)

// Syncer keeps Reminder notes and Google Calendar in step. It pushes
// Reminder notes as events (one event per note, updated when the note
// changes) and pulls upcoming events the app has never seen into the
// pending queue as captures.
type Syncer struct {
	service  CalendarAPI
	repo     *db.Repository
	svc      *notes.Service
	interval time.Duration
	horizon  time.Duration
	stopCh   chan struct{}
}

// NewSyncer creates a new calendar syncer. horizon bounds how far ahead
// the pull pass looks for events to import.
func NewSyncer(service CalendarAPI, repo *db.Repository, svc *notes.Service, interval, horizon time.Duration) *Syncer {
	return &Syncer{
		service:  service,
		repo:     repo,
		svc:      svc,
		interval: interval,
		horizon:  horizon,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sync loop.
func (s *Syncer) Start() error {
	// Run once immediately
	if err := s.syncOnce(); err != nil {
		log.Printf("Calendar initial sync error: %v", err)
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.syncOnce(); err != nil {
					log.Printf("Calendar sync error: %v", err)
				}
			case <-s.stopCh:
				return
			}
		}
	}()
	return nil
}

// Stop stops the sync loop.
func (s *Syncer) Stop() {
	close(s.stopCh)
}

func (s *Syncer) syncOnce() error {
	ctx := context.Background()

	if err := s.pushReminders(ctx); err != nil {
		return err
	}
	return s.pullUpcoming(ctx)
}

func (s *Syncer) pushReminders(ctx context.Context) error {
	reminders, err := s.repo.ListNotes("Reminder")
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}

	for _, n := range reminders {
		syncKey := buildSyncKey(n)
		rec, err := s.repo.GetCalendarSyncByNoteID(n.ID)
		if err != nil {
			log.Printf("Calendar sync: db error for note %s: %v", n.ID, err)
			continue
		}

		evt := noteToEvent(n)

		if rec == nil {
			// New reminder — create event
			eventID, err := s.service.CreateEvent(ctx, evt)
			if err != nil {
				log.Printf("Calendar sync: create event for note %s: %v", n.ID, err)
				continue
			}
			if err := s.repo.InsertCalendarSync(n.ID, eventID, syncKey, time.Now()); err != nil {
				log.Printf("Calendar sync: insert record for note %s: %v", n.ID, err)
			}
		} else if rec.SyncKey != syncKey {
			// Edited reminder — update event
			if err := s.service.UpdateEvent(ctx, rec.EventID, evt); err != nil {
				log.Printf("Calendar sync: update event for note %s: %v", n.ID, err)
				continue
			}
			if err := s.repo.UpdateCalendarSync(n.ID, rec.EventID, syncKey, time.Now()); err != nil {
				log.Printf("Calendar sync: update record for note %s: %v", n.ID, err)
			}
		}
	}

	return nil
}

// pullUpcoming captures calendar events created outside the app as
// pending notes. Events the app pushed itself, and events already
// imported, are skipped.
func (s *Syncer) pullUpcoming(ctx context.Context) error {
	events, err := s.service.FetchUpcoming(ctx, s.horizon)
	if err != nil {
		return fmt.Errorf("fetch upcoming events: %w", err)
	}

	for _, evt := range events {
		pushed, err := s.repo.GetCalendarSyncByEventID(evt.ID)
		if err != nil {
			log.Printf("Calendar pull: db error for event %s: %v", evt.ID, err)
			continue
		}
		if pushed != nil {
			continue // our own event
		}
		imported, err := s.repo.GetCalendarWatchByEventID(evt.ID)
		if err != nil {
			log.Printf("Calendar pull: db error for event %s: %v", evt.ID, err)
			continue
		}
		if imported != nil {
			continue // already captured
		}

		content := fmt.Sprintf("Imported from Google Calendar: %s\nStarts: %s\n\n%s",
			evt.Summary, evt.StartTime.Format(time.RFC3339), evt.Description)
		if err := s.svc.Capture(content, "", 0); err != nil {
			log.Printf("Calendar pull: capture event %s: %v", evt.ID, err)
			continue
		}
		if err := s.repo.InsertCalendarWatch(evt.ID, evt.Summary, time.Now()); err != nil {
			log.Printf("Calendar pull: insert watch record for event %s: %v", evt.ID, err)
		}
	}

	return nil
}

// noteToEvent schedules a one-hour event at the note's capture time
func noteToEvent(n db.Note) Event {
	return Event{
		Summary:     n.Title,
		Description: n.Content,
		StartTime:   n.CreatedAt,
		EndTime:     n.CreatedAt.Add(time.Hour),
	}
}

func buildSyncKey(n db.Note) string {
	return fmt.Sprintf("%s|%s", n.Title, n.Content)
}
