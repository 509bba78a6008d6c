package drive

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tidymind/tidymind/pkg/db"
	"github.com/tidymind/tidymind/pkg/notes"
)

// Watcher monitors a Google Drive folder and captures new text files as
// pending notes. Each file is imported once; the next merge pass
// categorizes it like any other capture.
type Watcher struct {
	service  DriveAPI
	repo     *db.Repository
	svc      *notes.Service
	interval time.Duration
	stopCh   chan struct{}
}

// NewWatcher creates a new Drive watcher.
func NewWatcher(service DriveAPI, repo *db.Repository, svc *notes.Service, interval time.Duration) *Watcher {
	return &Watcher{
		service:  service,
		repo:     repo,
		svc:      svc,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic watch loop.
func (w *Watcher) Start() error {
	// Run once immediately
	if err := w.watchOnce(); err != nil {
		log.Printf("Drive watch initial error: %v", err)
	}

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.watchOnce(); err != nil {
					log.Printf("Drive watch error: %v", err)
				}
			case <-w.stopCh:
				return
			}
		}
	}()
	return nil
}

// Stop stops the watch loop.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

func (w *Watcher) watchOnce() error {
	ctx := context.Background()
	files, err := w.service.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	for _, f := range files {
		if !importableMime(f.MimeType) {
			continue
		}
		rec, err := w.repo.GetDriveWatchByFileID(f.ID)
		if err != nil {
			log.Printf("Drive watch: db error for %s: %v", f.ID, err)
			continue
		}
		if rec != nil {
			continue // already imported
		}

		reader, err := w.service.DownloadFile(ctx, f.ID)
		if err != nil {
			log.Printf("Drive watch: download %s: %v", f.Name, err)
			continue
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			log.Printf("Drive watch: read %s: %v", f.Name, err)
			continue
		}

		content := fmt.Sprintf("Imported from Google Drive: %s\n\n%s", f.Name, string(data))
		if err := w.svc.Capture(content, "", 0); err != nil {
			log.Printf("Drive watch: capture %s: %v", f.Name, err)
			continue
		}

		if err := w.repo.InsertDriveWatch(f.ID, f.Name, time.Now()); err != nil {
			log.Printf("Drive watch: insert watch record for %s: %v", f.Name, err)
		}
	}

	return nil
}
