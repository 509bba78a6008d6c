package db

import (
	"database/sql"
	"fmt"
	"time"
)

// DriveSyncRecord tracks a file uploaded to Google Drive
type DriveSyncRecord struct {
	DriveFileID  string
	LocalPath    string
	LastSyncedAt time.Time
	Direction    string
}

// DriveWatchRecord tracks a Drive file already imported as a note
type DriveWatchRecord struct {
	DriveFileID string
	FileName    string
	ImportedAt  time.Time
}

// CalendarSyncRecord tracks a note pushed to Google Calendar
type CalendarSyncRecord struct {
	NoteID   string
	EventID  string
	SyncKey  string
	SyncedAt time.Time
}

// CalendarWatchRecord tracks a Calendar event already imported as a note
type CalendarWatchRecord struct {
	EventID    string
	Summary    string
	ImportedAt time.Time
}

// InsertDriveSync records a first upload of a local file
func (r *Repository) InsertDriveSync(driveFileID, localPath string, syncedAt time.Time, direction string) error {
	_, err := r.db.Exec(
		`INSERT INTO drive_sync (drive_file_id, local_path, last_synced_at, direction) VALUES (?, ?, ?, ?)`,
		driveFileID, localPath, syncedAt.UTC(), direction,
	)
	if err != nil {
		return fmt.Errorf("failed to insert drive sync record: %w", err)
	}
	return nil
}

// GetDriveSyncByLocalPath returns the sync record for a local file, or nil
func (r *Repository) GetDriveSyncByLocalPath(localPath string) (*DriveSyncRecord, error) {
	row := r.db.QueryRow(
		`SELECT drive_file_id, local_path, last_synced_at, direction FROM drive_sync WHERE local_path = ?`,
		localPath,
	)
	var rec DriveSyncRecord
	err := row.Scan(&rec.DriveFileID, &rec.LocalPath, &rec.LastSyncedAt, &rec.Direction)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get drive sync record: %w", err)
	}
	rec.LastSyncedAt = rec.LastSyncedAt.UTC()
	return &rec, nil
}

// UpdateDriveSync bumps the last synced time for an uploaded file
func (r *Repository) UpdateDriveSync(driveFileID string, syncedAt time.Time) error {
	_, err := r.db.Exec(
		`UPDATE drive_sync SET last_synced_at = ? WHERE drive_file_id = ?`,
		syncedAt.UTC(), driveFileID,
	)
	if err != nil {
		return fmt.Errorf("failed to update drive sync record: %w", err)
	}
	return nil
}

// InsertDriveWatch marks a Drive file as imported
func (r *Repository) InsertDriveWatch(driveFileID, fileName string, importedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO drive_watch (drive_file_id, file_name, imported_at) VALUES (?, ?, ?)`,
		driveFileID, fileName, importedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert drive watch record: %w", err)
	}
	return nil
}

// GetDriveWatchByFileID returns the import record for a Drive file, or nil
func (r *Repository) GetDriveWatchByFileID(driveFileID string) (*DriveWatchRecord, error) {
	row := r.db.QueryRow(
		`SELECT drive_file_id, file_name, imported_at FROM drive_watch WHERE drive_file_id = ?`,
		driveFileID,
	)
	var rec DriveWatchRecord
	err := row.Scan(&rec.DriveFileID, &rec.FileName, &rec.ImportedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get drive watch record: %w", err)
	}
	rec.ImportedAt = rec.ImportedAt.UTC()
	return &rec, nil
}

// InsertCalendarSync records a note pushed to Calendar
func (r *Repository) InsertCalendarSync(noteID, eventID, syncKey string, syncedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO calendar_sync (note_id, event_id, sync_key, synced_at) VALUES (?, ?, ?, ?)`,
		noteID, eventID, syncKey, syncedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert calendar sync record: %w", err)
	}
	return nil
}

// GetCalendarSyncByNoteID returns the sync record for a note, or nil
func (r *Repository) GetCalendarSyncByNoteID(noteID string) (*CalendarSyncRecord, error) {
	row := r.db.QueryRow(
		`SELECT note_id, event_id, sync_key, synced_at FROM calendar_sync WHERE note_id = ?`,
		noteID,
	)
	var rec CalendarSyncRecord
	err := row.Scan(&rec.NoteID, &rec.EventID, &rec.SyncKey, &rec.SyncedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calendar sync record: %w", err)
	}
	rec.SyncedAt = rec.SyncedAt.UTC()
	return &rec, nil
}

// UpdateCalendarSync updates the event and key for an already-pushed note
func (r *Repository) UpdateCalendarSync(noteID, eventID, syncKey string, syncedAt time.Time) error {
	_, err := r.db.Exec(
		`UPDATE calendar_sync SET event_id = ?, sync_key = ?, synced_at = ? WHERE note_id = ?`,
		eventID, syncKey, syncedAt.UTC(), noteID,
	)
	if err != nil {
		return fmt.Errorf("failed to update calendar sync record: %w", err)
	}
	return nil
}

// GetCalendarSyncByEventID returns the sync record for an event, or nil
func (r *Repository) GetCalendarSyncByEventID(eventID string) (*CalendarSyncRecord, error) {
	row := r.db.QueryRow(
		`SELECT note_id, event_id, sync_key, synced_at FROM calendar_sync WHERE event_id = ?`,
		eventID,
	)
	var rec CalendarSyncRecord
	err := row.Scan(&rec.NoteID, &rec.EventID, &rec.SyncKey, &rec.SyncedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calendar sync record: %w", err)
	}
	rec.SyncedAt = rec.SyncedAt.UTC()
	return &rec, nil
}

// InsertCalendarWatch marks a Calendar event as imported
func (r *Repository) InsertCalendarWatch(eventID, summary string, importedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO calendar_watch (event_id, summary, imported_at) VALUES (?, ?, ?)`,
		eventID, summary, importedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert calendar watch record: %w", err)
	}
	return nil
}

// GetCalendarWatchByEventID returns the import record for an event, or nil
func (r *Repository) GetCalendarWatchByEventID(eventID string) (*CalendarWatchRecord, error) {
	row := r.db.QueryRow(
		`SELECT event_id, summary, imported_at FROM calendar_watch WHERE event_id = ?`,
		eventID,
	)
	var rec CalendarWatchRecord
	err := row.Scan(&rec.EventID, &rec.Summary, &rec.ImportedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calendar watch record: %w", err)
	}
	rec.ImportedAt = rec.ImportedAt.UTC()
	return &rec, nil
}
