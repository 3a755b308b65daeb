package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thrivepath/internal/database"
	"thrivepath/internal/models"
)

// ErrActivityNotForStudent is returned when a catalog activity belongs to a
// different student than the session.
var ErrActivityNotForStudent = errors.New("activity does not belong to the session's student")

// SessionRepository handles sessions and the activities planned into them
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionSelect = `
	SELECT s.id, s.therapist_id, s.student_id, s.session_date, s.start_time, s.end_time, s.session_type, s.status,
	       s.total_planned_activities, s.completed_activities, s.estimated_duration_minutes, s.actual_duration_minutes,
	       s.prerequisite_completion_required, s.therapist_notes, s.parent_feedback, s.created_at, s.updated_at,
	       COALESCE(c.first_name, ''), COALESCE(c.last_name, ''), COALESCE(t.first_name, ''), COALESCE(t.last_name, '')
	FROM sessions s
	LEFT JOIN children c ON c.id = s.student_id
	LEFT JOIN therapists t ON t.user_id = s.therapist_id
`

func scanSession(row rowScanner) (*models.Session, error) {
	s := &models.Session{}
	var (
		status                                   string
		estimated, actual                        sql.NullInt64
		therapistNotes, parentFeedback           sql.NullString
		studentFirst, studentLast, tFirst, tLast string
	)
	err := row.Scan(
		&s.ID, &s.TherapistID, &s.StudentID, &s.SessionDate, &s.StartTime, &s.EndTime, &s.SessionType, &status,
		&s.TotalPlannedActivities, &s.CompletedActivities, &estimated, &actual,
		&s.PrerequisiteCompletionRequired, &therapistNotes, &parentFeedback, &s.CreatedAt, &s.UpdatedAt,
		&studentFirst, &studentLast, &tFirst, &tLast,
	)
	if err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	s.EstimatedDurationMinutes = intPtr(estimated)
	s.ActualDurationMinutes = intPtr(actual)
	s.TherapistNotes = stringPtr(therapistNotes)
	s.ParentFeedback = stringPtr(parentFeedback)
	s.StudentName = (&models.Student{FirstName: studentFirst, LastName: studentLast}).FullName()
	s.TherapistName = (&models.TherapistProfile{FirstName: tFirst, LastName: tLast}).FullName()
	return s, nil
}

func (r *SessionRepository) querySessions(ctx context.Context, op, query string, args ...interface{}) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.Classify(op, err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, database.Classify(op, err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(op, err)
	}
	return sessions, nil
}

// Create inserts a session and returns it with denormalized names
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	now := time.Now().UTC()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO sessions (therapist_id, student_id, session_date, start_time, end_time, session_type, status,
		                      total_planned_activities, completed_activities, estimated_duration_minutes,
		                      actual_duration_minutes, prerequisite_completion_required, therapist_notes,
		                      parent_feedback, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?, ?, ?, ?)
	`, s.TherapistID, s.StudentID, s.SessionDate, s.StartTime, s.EndTime, s.SessionType, string(s.Status),
		s.EstimatedDurationMinutes, s.ActualDurationMinutes, s.PrerequisiteCompletionRequired, s.TherapistNotes,
		s.ParentFeedback, now, now)
	if err != nil {
		return nil, database.Classify("create session", err)
	}

	created, err := r.GetByID(ctx, id, s.TherapistID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("session %d vanished after insert", id)
	}
	return created, nil
}

// ListByTherapist returns a page of a therapist's sessions, newest date first
func (r *SessionRepository) ListByTherapist(ctx context.Context, therapistID int64, limit, offset int) ([]models.Session, error) {
	return r.querySessions(ctx, "list sessions",
		sessionSelect+" WHERE s.therapist_id = ? ORDER BY s.session_date DESC, s.start_time DESC, s.id DESC LIMIT ? OFFSET ?",
		therapistID, limit, offset)
}

// ListCompletedByStudent returns a page of a student's completed sessions, newest date first
func (r *SessionRepository) ListCompletedByStudent(ctx context.Context, studentID int64, limit, offset int) ([]models.Session, error) {
	return r.querySessions(ctx, "list completed sessions",
		sessionSelect+" WHERE s.student_id = ? AND s.status = ? ORDER BY s.session_date DESC, s.id DESC LIMIT ? OFFSET ?",
		studentID, string(models.SessionCompleted), limit, offset)
}

// GetByID retrieves a session owned by therapistID. Sessions of other
// therapists are reported as absent.
func (r *SessionRepository) GetByID(ctx context.Context, id, therapistID int64) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, sessionSelect+" WHERE s.id = ? AND s.therapist_id = ?", id, therapistID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("get session", err)
	}
	return s, nil
}

// Update writes the mutable fields of s. Activity counters and parent
// feedback are never touched here. Returns false when the scoped row does not exist.
func (r *SessionRepository) Update(ctx context.Context, s *models.Session) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET session_date = ?, start_time = ?, end_time = ?, session_type = ?, status = ?,
		    estimated_duration_minutes = ?, actual_duration_minutes = ?, prerequisite_completion_required = ?,
		    therapist_notes = ?, updated_at = ?
		WHERE id = ? AND therapist_id = ?
	`, s.SessionDate, s.StartTime, s.EndTime, s.SessionType, string(s.Status),
		s.EstimatedDurationMinutes, s.ActualDurationMinutes, s.PrerequisiteCompletionRequired,
		s.TherapistNotes, time.Now().UTC(), s.ID, s.TherapistID)
	if err != nil {
		return false, database.Classify("update session", err)
	}
	return affected(result, "update session")
}

// Delete removes a session and its planned activities
func (r *SessionRepository) Delete(ctx context.Context, id, therapistID int64) (bool, error) {
	deleted := false
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		owned, err := sessionOwned(ctx, tx, id, therapistID)
		if err != nil || !owned {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM session_activities WHERE session_id = ?", id); err != nil {
			return database.Classify("delete session activities", err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ? AND therapist_id = ?", id, therapistID)
		if err != nil {
			return database.Classify("delete session", err)
		}
		deleted, err = affected(result, "delete session")
		return err
	})
	return deleted, err
}

// IsOwnedBy reports whether the session exists and belongs to therapistID
func (r *SessionRepository) IsOwnedBy(ctx context.Context, sessionID, therapistID int64) (bool, error) {
	return sessionOwned(ctx, r.db, sessionID, therapistID)
}

func sessionOwned(ctx context.Context, q database.DBTX, sessionID, therapistID int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ? AND therapist_id = ?", sessionID, therapistID).Scan(&count)
	if err != nil {
		return false, database.Classify("check session owner", err)
	}
	return count > 0, nil
}

// AttachParentFeedback stores feedback on any session regardless of therapist
func (r *SessionRepository) AttachParentFeedback(ctx context.Context, sessionID int64, feedback string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE sessions SET parent_feedback = ?, updated_at = ? WHERE id = ?",
		feedback, time.Now().UTC(), sessionID)
	if err != nil {
		return false, database.Classify("attach parent feedback", err)
	}
	return affected(result, "attach parent feedback")
}

// GetForParentVerification returns the minimal view of a session used to
// authorize parent feedback
func (r *SessionRepository) GetForParentVerification(ctx context.Context, sessionID int64) (*models.SessionVerification, error) {
	v := &models.SessionVerification{}
	var status string
	err := r.db.QueryRowContext(ctx, "SELECT id, student_id, session_date, status FROM sessions WHERE id = ?", sessionID).
		Scan(&v.ID, &v.StudentID, &v.SessionDate, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("get session for verification", err)
	}
	v.Status = models.SessionStatus(status)
	return v, nil
}

const sessionActivitySelect = `
	SELECT sa.id, sa.session_id, sa.student_activity_id, sa.estimated_duration, sa.actual_duration,
	       sa.prerequisites, sa.completed_prerequisites, sa.skipped_prerequisites, sa.status,
	       sa.created_at, sa.updated_at,
	       COALESCE(a.activity_name, ''), COALESCE(a.activity_description, ''), COALESCE(a.difficulty_level, 0)
	FROM session_activities sa
	LEFT JOIN student_activities a ON a.id = sa.student_activity_id
`

func scanSessionActivity(row rowScanner) (*models.SessionActivity, error) {
	a := &models.SessionActivity{}
	var (
		estimated, actual                   sql.NullInt64
		prereqs, completed, skipped, status string
	)
	err := row.Scan(
		&a.ID, &a.SessionID, &a.StudentActivityID, &estimated, &actual,
		&prereqs, &completed, &skipped, &status,
		&a.CreatedAt, &a.UpdatedAt,
		&a.ActivityName, &a.ActivityDescription, &a.DifficultyLevel,
	)
	if err != nil {
		return nil, err
	}
	a.EstimatedDuration = intPtr(estimated)
	a.ActualDuration = intPtr(actual)
	a.Status = models.ActivityStatus(status)
	for _, field := range []struct {
		raw string
		dst *[]string
	}{
		{prereqs, &a.Prerequisites},
		{completed, &a.CompletedPrerequisites},
		{skipped, &a.SkippedPrerequisites},
	} {
		list, err := decodeList(field.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode prerequisites of session activity %d: %w", a.ID, err)
		}
		*field.dst = list
	}
	return a, nil
}

// AddActivity plans a catalog activity into an owned session and increments
// the session's planned counter in the same transaction. Returns nil when the
// session is not owned by therapistID.
func (r *SessionRepository) AddActivity(ctx context.Context, sessionID, therapistID int64, create models.SessionActivityCreate) (*models.SessionActivity, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var studentID int64
		err := tx.QueryRowContext(ctx, "SELECT student_id FROM sessions WHERE id = ? AND therapist_id = ?", sessionID, therapistID).Scan(&studentID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return database.Classify("check session owner", err)
		}

		var activityStudentID int64
		err = tx.QueryRowContext(ctx, "SELECT student_id FROM student_activities WHERE id = ?", create.StudentActivityID).Scan(&activityStudentID)
		if errors.Is(err, sql.ErrNoRows) {
			return &database.StoreError{Op: "add session activity", Kind: database.ErrForeignKey, Err: err}
		}
		if err != nil {
			return database.Classify("get student activity", err)
		}
		if activityStudentID != studentID {
			return ErrActivityNotForStudent
		}

		prereqs, err := encodeList(create.Prerequisites)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		id, err = tx.ExecReturningID(ctx, `
			INSERT INTO session_activities (session_id, student_activity_id, estimated_duration, actual_duration,
			                                prerequisites, completed_prerequisites, skipped_prerequisites, status,
			                                created_at, updated_at)
			VALUES (?, ?, ?, NULL, ?, '[]', '[]', ?, ?, ?)
		`, sessionID, create.StudentActivityID, create.EstimatedDuration, prereqs, string(models.ActivityPlanned), now, now)
		if err != nil {
			return database.Classify("add session activity", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sessions
			SET total_planned_activities = total_planned_activities + 1, updated_at = ?
			WHERE id = ?
		`, now, sessionID)
		return database.Classify("increment planned activities", err)
	})
	if err != nil || id == 0 {
		return nil, err
	}
	return r.GetActivity(ctx, id, sessionID)
}

// GetActivity retrieves one planned activity of a session
func (r *SessionRepository) GetActivity(ctx context.Context, activityID, sessionID int64) (*models.SessionActivity, error) {
	a, err := scanSessionActivity(r.db.QueryRowContext(ctx, sessionActivitySelect+" WHERE sa.id = ? AND sa.session_id = ?", activityID, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("get session activity", err)
	}
	return a, nil
}

// ListActivities returns a session's planned activities in creation order
func (r *SessionRepository) ListActivities(ctx context.Context, sessionID int64) ([]models.SessionActivity, error) {
	rows, err := r.db.QueryContext(ctx, sessionActivitySelect+" WHERE sa.session_id = ? ORDER BY sa.created_at, sa.id", sessionID)
	if err != nil {
		return nil, database.Classify("list session activities", err)
	}
	defer rows.Close()

	activities := []models.SessionActivity{}
	for rows.Next() {
		a, err := scanSessionActivity(rows)
		if err != nil {
			return nil, database.Classify("list session activities", err)
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list session activities", err)
	}
	return activities, nil
}

// UpdateActivity writes the mutable fields of a planned activity. The
// session's completed counter is recounted from its activities in the same
// transaction, so concurrent updates cannot count one completion twice.
func (r *SessionRepository) UpdateActivity(ctx context.Context, a *models.SessionActivity) error {
	completed, err := encodeList(a.CompletedPrerequisites)
	if err != nil {
		return err
	}
	skipped, err := encodeList(a.SkippedPrerequisites)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		now := time.Now().UTC()
		_, err := tx.ExecContext(ctx, `
			UPDATE session_activities
			SET estimated_duration = ?, actual_duration = ?, completed_prerequisites = ?,
			    skipped_prerequisites = ?, status = ?, updated_at = ?
			WHERE id = ? AND session_id = ?
		`, a.EstimatedDuration, a.ActualDuration, completed, skipped, string(a.Status), now, a.ID, a.SessionID)
		if err != nil {
			return database.Classify("update session activity", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sessions
			SET completed_activities = (
			        SELECT COUNT(*) FROM session_activities WHERE session_id = ? AND status = ?
			    ),
			    updated_at = ?
			WHERE id = ?
		`, a.SessionID, string(models.ActivityCompleted), now, a.SessionID)
		return database.Classify("update completed activities", err)
	})
}

// RemoveActivity deletes a planned activity from an owned session and
// decrements the planned counter, never below zero. Returns false when the
// session is not owned or the activity is not part of it.
func (r *SessionRepository) RemoveActivity(ctx context.Context, activityID, sessionID, therapistID int64) (bool, error) {
	removed := false
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		owned, err := sessionOwned(ctx, tx, sessionID, therapistID)
		if err != nil || !owned {
			return err
		}

		var status string
		err = tx.QueryRowContext(ctx, "SELECT status FROM session_activities WHERE id = ? AND session_id = ?", activityID, sessionID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return database.Classify("get session activity", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM session_activities WHERE id = ? AND session_id = ?", activityID, sessionID)
		if err != nil {
			return database.Classify("remove session activity", err)
		}
		if removed, err = affected(result, "remove session activity"); err != nil || !removed {
			return err
		}

		completedDelta := "completed_activities"
		if models.ActivityStatus(status) == models.ActivityCompleted {
			completedDelta = "CASE WHEN completed_activities > 0 THEN completed_activities - 1 ELSE 0 END"
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE sessions
			SET total_planned_activities = CASE WHEN total_planned_activities > 0 THEN total_planned_activities - 1 ELSE 0 END,
			    completed_activities = `+completedDelta+`,
			    updated_at = ?
			WHERE id = ?
		`, time.Now().UTC(), sessionID)
		return database.Classify("decrement planned activities", err)
	})
	return removed, err
}

func affected(result sql.Result, op string) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, database.Classify(op, err)
	}
	return n > 0, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(raw), nil
}

func decodeList(raw string) ([]string, error) {
	list := []string{}
	if raw == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
