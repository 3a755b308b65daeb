package repository

import (
	"context"
	"database/sql"
	"time"

	"thrivepath/internal/database"
	"thrivepath/internal/models"
)

// NoteRepository handles therapist session notes
type NoteRepository struct {
	db *database.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *database.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListByDate returns a therapist's notes for one date, most recently created first
func (r *NoteRepository) ListByDate(ctx context.Context, therapistID int64, date models.Date) ([]models.SessionNote, error) {
	query := `
		SELECT id, therapist_id, session_date, note_content, note_title, session_time, created_at, last_edited_at
		FROM session_notes
		WHERE therapist_id = ? AND session_date = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, therapistID, date)
	if err != nil {
		return nil, database.Classify("list notes", err)
	}
	defer rows.Close()

	notes := []models.SessionNote{}
	for rows.Next() {
		n := models.SessionNote{}
		var title sql.NullString
		if err := rows.Scan(&n.ID, &n.TherapistID, &n.SessionDate, &n.NoteContent, &title, &n.SessionTime, &n.CreatedAt, &n.LastEditedAt); err != nil {
			return nil, database.Classify("list notes", err)
		}
		n.NoteTitle = stringPtr(title)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list notes", err)
	}
	return notes, nil
}

// Create inserts a note. created_at and last_edited_at start out identical.
func (r *NoteRepository) Create(ctx context.Context, therapistID int64, create models.NoteCreate) (*models.SessionNote, error) {
	now := time.Now().UTC()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO session_notes (therapist_id, session_date, note_content, note_title, session_time, created_at, last_edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, therapistID, create.SessionDate, create.NoteContent, create.NoteTitle, create.SessionTime, now, now)
	if err != nil {
		return nil, database.Classify("create note", err)
	}

	return &models.SessionNote{
		ID:           id,
		TherapistID:  therapistID,
		SessionDate:  create.SessionDate,
		NoteContent:  create.NoteContent,
		NoteTitle:    create.NoteTitle,
		SessionTime:  create.SessionTime,
		CreatedAt:    now,
		LastEditedAt: now,
	}, nil
}

// ListDates returns the distinct dates a therapist has notes for, ascending
func (r *NoteRepository) ListDates(ctx context.Context, therapistID int64) ([]models.Date, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT session_date FROM session_notes WHERE therapist_id = ? ORDER BY session_date", therapistID)
	if err != nil {
		return nil, database.Classify("list note dates", err)
	}
	defer rows.Close()

	dates := []models.Date{}
	for rows.Next() {
		var d models.Date
		if err := rows.Scan(&d); err != nil {
			return nil, database.Classify("list note dates", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list note dates", err)
	}
	return dates, nil
}
