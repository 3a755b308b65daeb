package models

import "time"

// SessionNote is a free-text note a therapist keeps against a calendar date.
type SessionNote struct {
	ID           int64
	TherapistID  int64
	SessionDate  Date
	NoteContent  string
	NoteTitle    *string
	SessionTime  Clock
	CreatedAt    time.Time
	LastEditedAt time.Time
}

type NoteCreate struct {
	SessionDate Date
	NoteContent string
	NoteTitle   *string
	SessionTime Clock
}
