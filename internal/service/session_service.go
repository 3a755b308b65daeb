package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"thrivepath/internal/database"
	"thrivepath/internal/models"
	"thrivepath/internal/repository"
	"thrivepath/internal/validation"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// SessionService schedules sessions and tracks the activities planned into them
type SessionService struct {
	sessions SessionStore
	students *StudentService
}

// NewSessionService creates a new session service
func NewSessionService(sessions SessionStore, students *StudentService) *SessionService {
	return &SessionService{sessions: sessions, students: students}
}

// Page normalizes a limit/offset pair
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func checkTimeRange(start, end models.Clock) error {
	if start.IsZero() {
		return validation.ValidationError{Field: "start_time", Message: "start time is required"}
	}
	if end.IsZero() {
		return validation.ValidationError{Field: "end_time", Message: "end time is required"}
	}
	if !start.Before(end) {
		return validation.ValidationError{Field: "end_time", Message: "end time must be after start time"}
	}
	return nil
}

// Create schedules a session for the calling therapist
func (s *SessionService) Create(ctx context.Context, therapistID int64, req models.SessionCreate) (*models.Session, error) {
	if err := validation.ValidateID("student_id", req.StudentID); err != nil {
		return nil, err
	}
	if req.SessionDate.IsZero() {
		return nil, validation.ValidationError{Field: "session_date", Message: "session date is required"}
	}
	if err := checkTimeRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("estimated_duration_minutes", req.EstimatedDurationMinutes); err != nil {
		return nil, err
	}

	estimated := req.EstimatedDurationMinutes
	if estimated == nil {
		minutes := req.StartTime.MinutesUntil(req.EndTime)
		estimated = &minutes
	}
	sessionType := strings.TrimSpace(req.SessionType)
	if sessionType == "" {
		sessionType = models.DefaultSessionType
	}

	created, err := s.sessions.Create(ctx, &models.Session{
		TherapistID:                    therapistID,
		StudentID:                      req.StudentID,
		SessionDate:                    req.SessionDate,
		StartTime:                      req.StartTime,
		EndTime:                        req.EndTime,
		SessionType:                    sessionType,
		Status:                         models.SessionScheduled,
		EstimatedDurationMinutes:       estimated,
		PrerequisiteCompletionRequired: req.PrerequisiteCompletionRequired,
		TherapistNotes:                 req.TherapistNotes,
	})
	if errors.Is(err, database.ErrForeignKey) {
		return nil, fmt.Errorf("%w: student %d does not exist", ErrInvalidInput, req.StudentID)
	}
	return created, err
}

// List returns a page of the therapist's sessions, newest first
func (s *SessionService) List(ctx context.Context, therapistID int64, limit, offset int) ([]models.Session, error) {
	limit, offset = Page(limit, offset)
	return s.sessions.ListByTherapist(ctx, therapistID, limit, offset)
}

// Get returns ErrSessionNotFound for sessions of other therapists
func (s *SessionService) Get(ctx context.Context, id, therapistID int64) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, id, therapistID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Update merges a partial update into an owned session
func (s *SessionService) Update(ctx context.Context, id, therapistID int64, update models.SessionUpdate) (*models.Session, error) {
	session, err := s.Get(ctx, id, therapistID)
	if err != nil {
		return nil, err
	}

	if update.Status != nil && !session.Status.CanTransitionTo(*update.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, session.Status, *update.Status)
	}
	if err := validation.ValidateNonNegative("estimated_duration_minutes", update.EstimatedDurationMinutes); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("actual_duration_minutes", update.ActualDurationMinutes); err != nil {
		return nil, err
	}

	update.Apply(session)
	if err := checkTimeRange(session.StartTime, session.EndTime); err != nil {
		return nil, err
	}
	if session.SessionDate.IsZero() {
		return nil, validation.ValidationError{Field: "session_date", Message: "session date is required"}
	}
	if strings.TrimSpace(session.SessionType) == "" {
		session.SessionType = models.DefaultSessionType
	}

	found, err := s.sessions.Update(ctx, session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	return s.Get(ctx, id, therapistID)
}

// Delete removes an owned session and its planned activities
func (s *SessionService) Delete(ctx context.Context, id, therapistID int64) error {
	deleted, err := s.sessions.Delete(ctx, id, therapistID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

// AddActivity plans a catalog activity of the session's student into the session
func (s *SessionService) AddActivity(ctx context.Context, sessionID, therapistID int64, req models.SessionActivityCreate) (*models.SessionActivity, error) {
	if err := validation.ValidateID("student_activity_id", req.StudentActivityID); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("estimated_duration", req.EstimatedDuration); err != nil {
		return nil, err
	}

	activity, err := s.sessions.AddActivity(ctx, sessionID, therapistID, req)
	switch {
	case errors.Is(err, database.ErrForeignKey):
		return nil, fmt.Errorf("%w: student activity %d does not exist", ErrInvalidInput, req.StudentActivityID)
	case errors.Is(err, repository.ErrActivityNotForStudent):
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case err != nil:
		return nil, err
	case activity == nil:
		return nil, ErrSessionNotFound
	}
	return activity, nil
}

// ListActivities returns the activities planned into an owned session
func (s *SessionService) ListActivities(ctx context.Context, sessionID, therapistID int64) ([]models.SessionActivity, error) {
	if err := s.requireOwned(ctx, sessionID, therapistID); err != nil {
		return nil, err
	}
	return s.sessions.ListActivities(ctx, sessionID)
}

// UpdateActivity records progress on a planned activity
func (s *SessionService) UpdateActivity(ctx context.Context, activityID, sessionID, therapistID int64, update models.SessionActivityUpdate) (*models.SessionActivity, error) {
	if err := s.requireOwned(ctx, sessionID, therapistID); err != nil {
		return nil, err
	}
	activity, err := s.sessions.GetActivity(ctx, activityID, sessionID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}

	if update.Status != nil && !update.Status.Valid() {
		return nil, validation.ValidationError{Field: "status", Message: fmt.Sprintf("unknown activity status %q", *update.Status)}
	}
	if err := validation.ValidateNonNegative("estimated_duration", update.EstimatedDuration); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("actual_duration", update.ActualDuration); err != nil {
		return nil, err
	}

	if update.EstimatedDuration != nil {
		activity.EstimatedDuration = update.EstimatedDuration
	}
	if update.ActualDuration != nil {
		activity.ActualDuration = update.ActualDuration
	}
	if update.CompletedPrerequisites != nil {
		activity.CompletedPrerequisites = update.CompletedPrerequisites
	}
	if update.SkippedPrerequisites != nil {
		activity.SkippedPrerequisites = update.SkippedPrerequisites
	}
	if update.Status != nil {
		activity.Status = *update.Status
	}
	if overlap := models.OverlappingPrerequisites(activity.CompletedPrerequisites, activity.SkippedPrerequisites); len(overlap) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPrerequisiteOverlap, strings.Join(overlap, ", "))
	}

	if err := s.sessions.UpdateActivity(ctx, activity); err != nil {
		return nil, err
	}
	return s.sessions.GetActivity(ctx, activityID, sessionID)
}

// RemoveActivity takes a planned activity out of an owned session
func (s *SessionService) RemoveActivity(ctx context.Context, activityID, sessionID, therapistID int64) error {
	if err := s.requireOwned(ctx, sessionID, therapistID); err != nil {
		return err
	}
	removed, err := s.sessions.RemoveActivity(ctx, activityID, sessionID, therapistID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrActivityNotFound
	}
	return nil
}

func (s *SessionService) requireOwned(ctx context.Context, sessionID, therapistID int64) error {
	owned, err := s.sessions.IsOwnedBy(ctx, sessionID, therapistID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrSessionNotFound
	}
	return nil
}

// ListAvailableStudentActivities returns the catalog a session can draw from
func (s *SessionService) ListAvailableStudentActivities(ctx context.Context, studentID int64) ([]models.StudentActivity, error) {
	return s.students.ListActivities(ctx, studentID)
}

// ListCompletedByChild returns a child's completed sessions. Parents may
// only read the sessions of the child linked to their account.
func (s *SessionService) ListCompletedByChild(ctx context.Context, caller *models.Account, childID int64, limit, offset int) ([]models.Session, error) {
	if caller.Role == models.RoleParent {
		child, err := s.students.LinkedChild(ctx, caller)
		if err != nil {
			return nil, err
		}
		if child.ID != childID {
			return nil, ErrStudentNotFound
		}
	}
	limit, offset = Page(limit, offset)
	return s.sessions.ListCompletedByStudent(ctx, childID, limit, offset)
}

// SubmitParentFeedback attaches a parent's feedback to a session of their child
func (s *SessionService) SubmitParentFeedback(ctx context.Context, parent *models.Account, sessionID int64, feedback string) error {
	feedback = strings.TrimSpace(feedback)
	if err := validation.ValidateRequired("feedback", feedback); err != nil {
		return err
	}

	child, err := s.students.LinkedChild(ctx, parent)
	if err != nil {
		return err
	}
	session, err := s.GetForParentVerification(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.StudentID != child.ID {
		return ErrSessionNotFound
	}
	return s.AttachParentFeedback(ctx, sessionID, feedback)
}

// AttachParentFeedback stores feedback on a session without an ownership check
func (s *SessionService) AttachParentFeedback(ctx context.Context, sessionID int64, feedback string) error {
	found, err := s.sessions.AttachParentFeedback(ctx, sessionID, feedback)
	if err != nil {
		return err
	}
	if !found {
		return ErrSessionNotFound
	}
	return nil
}

// GetForParentVerification returns the minimal session view used to authorize parents
func (s *SessionService) GetForParentVerification(ctx context.Context, sessionID int64) (*models.SessionVerification, error) {
	v, err := s.sessions.GetForParentVerification(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrSessionNotFound
	}
	return v, nil
}
