package service

import (
	"context"
	"strings"

	"thrivepath/internal/models"
	"thrivepath/internal/validation"
)

// NoteService manages a therapist's dated notes
type NoteService struct {
	notes NoteStore
}

// NewNoteService creates a new note service
func NewNoteService(notes NoteStore) *NoteService {
	return &NoteService{notes: notes}
}

// ListByDate returns the therapist's notes for a date, newest first
func (s *NoteService) ListByDate(ctx context.Context, therapistID int64, date models.Date) ([]models.SessionNote, error) {
	return s.notes.ListByDate(ctx, therapistID, date)
}

// Create adds a note
func (s *NoteService) Create(ctx context.Context, therapistID int64, req models.NoteCreate) (*models.SessionNote, error) {
	if req.SessionDate.IsZero() {
		return nil, validation.ValidationError{Field: "session_date", Message: "session date is required"}
	}
	if err := validation.ValidateRequired("note_content", req.NoteContent); err != nil {
		return nil, err
	}
	if req.NoteTitle != nil {
		title := strings.TrimSpace(*req.NoteTitle)
		if title == "" {
			req.NoteTitle = nil
		} else {
			req.NoteTitle = &title
		}
	}
	return s.notes.Create(ctx, therapistID, req)
}

// ListNoteDates returns the distinct dates with notes, ascending
func (s *NoteService) ListNoteDates(ctx context.Context, therapistID int64) ([]models.Date, error) {
	return s.notes.ListDates(ctx, therapistID)
}
