package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Repository handles data access
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Note is a persisted, categorized note
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingNote is a captured note awaiting categorization
type PendingNote struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Category is a display-category registry entry
type Category struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Builtin bool   `json:"builtin"`
	Count   int64  `json:"count"`
}

// InsertPendingNote appends a note to the pending queue
func (r *Repository) InsertPendingNote(content string, createdAt time.Time) (int64, error) {
	res, err := r.db.Exec(`INSERT INTO pending_notes (content, created_at) VALUES (?, ?)`, content, createdAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert pending note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending note id: %w", err)
	}
	return id, nil
}

// ListPendingNotes returns the pending queue in capture order
func (r *Repository) ListPendingNotes() ([]PendingNote, error) {
	rows, err := r.db.Query(`SELECT id, content, created_at FROM pending_notes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notes: %w", err)
	}
	defer rows.Close()

	var pending []PendingNote
	for rows.Next() {
		var p PendingNote
		if err := rows.Scan(&p.ID, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending note: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// CountPendingNotes returns the size of the pending queue
func (r *Repository) CountPendingNotes() (int64, error) {
	var n int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM pending_notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending notes: %w", err)
	}
	return n, nil
}

// MergeNotes persists a categorized batch and clears the processed pending
// rows in a single transaction. Either both happen or neither does, so a
// crash can never lose a captured note or replay one into a duplicate.
// The batch is inserted in reverse so that, listed newest-insert-first,
// notes keep their original queue order ahead of everything persisted before.
func (r *Repository) MergeNotes(notes []Note, pendingIDs []int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin merge: %w", err)
	}
	defer tx.Rollback()

	for i := len(notes) - 1; i >= 0; i-- {
		n := notes[i]
		_, err := tx.Exec(
			`INSERT INTO notes (id, content, category, title, created_at) VALUES (?, ?, ?, ?, ?)`,
			n.ID, n.Content, n.Category, n.Title, n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert note %s: %w", n.ID, err)
		}
	}

	for _, id := range pendingIDs {
		if _, err := tx.Exec(`DELETE FROM pending_notes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear pending note %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}
	return nil
}

// ListNotes returns persisted notes, most recently merged first.
// An empty category lists everything.
func (r *Repository) ListNotes(category string) ([]Note, error) {
	query := `SELECT id, content, category, title, created_at FROM notes ORDER BY seq DESC`
	args := []interface{}{}
	if category != "" {
		query = `SELECT id, content, category, title, created_at FROM notes WHERE category = ? ORDER BY seq DESC`
		args = append(args, category)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// ListNotesBetween returns notes created within [start, end), newest first
func (r *Repository) ListNotesBetween(start, end time.Time) ([]Note, error) {
	rows, err := r.db.Query(
		`SELECT id, content, category, title, created_at FROM notes
		 WHERE created_at >= ? AND created_at < ? ORDER BY seq DESC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes by range: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Content, &n.Category, &n.Title, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetNoteByID returns a note, or nil if it does not exist
func (r *Repository) GetNoteByID(id string) (*Note, error) {
	row := r.db.QueryRow(`SELECT id, content, category, title, created_at FROM notes WHERE id = ?`, id)

	var n Note
	err := row.Scan(&n.ID, &n.Content, &n.Category, &n.Title, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

// UpdateNoteContent rewrites a note's content and derived title.
// Returns false if the note does not exist.
func (r *Repository) UpdateNoteContent(id, content, title string) (bool, error) {
	res, err := r.db.Exec(`UPDATE notes SET content = ?, title = ? WHERE id = ?`, content, title, id)
	if err != nil {
		return false, fmt.Errorf("failed to update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return affected > 0, nil
}

// DeleteNote removes a note. Returns false if the note does not exist.
func (r *Repository) DeleteNote(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

// CountNotes returns the number of persisted notes
func (r *Repository) CountNotes() (int64, error) {
	var n int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}

// SeedCategories inserts builtin category colors, keeping any existing rows
func (r *Repository) SeedCategories(colors map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	for name, color := range colors {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO categories (name, color, builtin) VALUES (?, ?, 1)`,
			name, color,
		)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// ListCategories returns all registered categories with note counts
func (r *Repository) ListCategories() ([]Category, error) {
	rows, err := r.db.Query(
		`SELECT c.name, c.color, c.builtin, COUNT(n.id)
		 FROM categories c LEFT JOIN notes n ON n.category = c.name
		 GROUP BY c.name, c.color, c.builtin
		 ORDER BY c.builtin DESC, c.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.Color, &c.Builtin, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory returns a category, or nil if it is not registered
func (r *Repository) GetCategory(name string) (*Category, error) {
	row := r.db.QueryRow(`SELECT name, color, builtin FROM categories WHERE name = ?`, name)

	var c Category
	err := row.Scan(&c.Name, &c.Color, &c.Builtin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// CountCategories returns the number of registered categories
func (r *Repository) CountCategories() (int64, error) {
	var n int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return n, nil
}

// InsertCategory registers a user-defined category
func (r *Repository) InsertCategory(name, color string) error {
	_, err := r.db.Exec(`INSERT INTO categories (name, color, builtin) VALUES (?, ?, 0)`, name, color)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// DeleteCategoryAndReassign removes a category and rewrites every note that
// carried it to the fallback category, in a single transaction. Returns the
// number of reassigned notes.
func (r *Repository) DeleteCategoryAndReassign(name, fallback string) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin category delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE notes SET category = ? WHERE category = ?`, fallback, name)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign notes: %w", err)
	}
	reassigned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read reassign result: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM categories WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit category delete: %w", err)
	}
	return reassigned, nil
}
