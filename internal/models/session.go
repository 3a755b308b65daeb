package models

import "time"

// SessionStatus is the lifecycle state of a therapy session.
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionScheduled:  {SessionInProgress, SessionCancelled},
	SessionInProgress: {SessionCompleted, SessionCancelled},
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a session may move from s to next.
// Staying in the same state is always allowed.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const DefaultSessionType = "therapy"

// Session is one scheduled meeting between a therapist and a student.
type Session struct {
	ID                             int64
	TherapistID                    int64
	StudentID                      int64
	SessionDate                    Date
	StartTime                      Clock
	EndTime                        Clock
	SessionType                    string
	Status                         SessionStatus
	TotalPlannedActivities         int
	CompletedActivities            int
	EstimatedDurationMinutes       *int
	ActualDurationMinutes          *int
	PrerequisiteCompletionRequired bool
	TherapistNotes                 *string
	ParentFeedback                 *string
	CreatedAt                      time.Time
	UpdatedAt                      time.Time

	StudentName   string
	TherapistName string
}

// SessionCreate is the input for scheduling a session.
type SessionCreate struct {
	StudentID                      int64
	SessionDate                    Date
	StartTime                      Clock
	EndTime                        Clock
	SessionType                    string
	EstimatedDurationMinutes       *int
	PrerequisiteCompletionRequired bool
	TherapistNotes                 *string
}

// SessionUpdate is a partial update. Nil fields are left unchanged.
type SessionUpdate struct {
	SessionDate                    *Date
	StartTime                      *Clock
	EndTime                        *Clock
	SessionType                    *string
	Status                         *SessionStatus
	EstimatedDurationMinutes       *int
	ActualDurationMinutes          *int
	PrerequisiteCompletionRequired *bool
	TherapistNotes                 *string
}

// Apply merges the non-nil fields of u into s.
func (u SessionUpdate) Apply(s *Session) {
	if u.SessionDate != nil {
		s.SessionDate = *u.SessionDate
	}
	if u.StartTime != nil {
		s.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		s.EndTime = *u.EndTime
	}
	if u.SessionType != nil {
		s.SessionType = *u.SessionType
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.EstimatedDurationMinutes != nil {
		s.EstimatedDurationMinutes = u.EstimatedDurationMinutes
	}
	if u.ActualDurationMinutes != nil {
		s.ActualDurationMinutes = u.ActualDurationMinutes
	}
	if u.PrerequisiteCompletionRequired != nil {
		s.PrerequisiteCompletionRequired = *u.PrerequisiteCompletionRequired
	}
	if u.TherapistNotes != nil {
		s.TherapistNotes = u.TherapistNotes
	}
}

// SessionVerification is the minimal view used before accepting parent feedback.
type SessionVerification struct {
	ID          int64
	StudentID   int64
	SessionDate Date
	Status      SessionStatus
}

// ActivityStatus is the state of one planned activity within a session.
type ActivityStatus string

const (
	ActivityPlanned    ActivityStatus = "planned"
	ActivityInProgress ActivityStatus = "in_progress"
	ActivityCompleted  ActivityStatus = "completed"
	ActivitySkipped    ActivityStatus = "skipped"
)

func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityPlanned, ActivityInProgress, ActivityCompleted, ActivitySkipped:
		return true
	}
	return false
}

// SessionActivity plans a catalog activity into a session.
type SessionActivity struct {
	ID                     int64
	SessionID              int64
	StudentActivityID      int64
	EstimatedDuration      *int
	ActualDuration         *int
	Prerequisites          []string
	CompletedPrerequisites []string
	SkippedPrerequisites   []string
	Status                 ActivityStatus
	CreatedAt              time.Time
	UpdatedAt              time.Time

	ActivityName        string
	ActivityDescription string
	DifficultyLevel     int
}

type SessionActivityCreate struct {
	StudentActivityID int64
	EstimatedDuration *int
	Prerequisites     []string
}

// SessionActivityUpdate is a partial update. Nil fields are left unchanged.
type SessionActivityUpdate struct {
	EstimatedDuration      *int
	ActualDuration         *int
	CompletedPrerequisites []string
	SkippedPrerequisites   []string
	Status                 *ActivityStatus
}

// OverlappingPrerequisites returns the prerequisites present in both lists.
func OverlappingPrerequisites(completed, skipped []string) []string {
	seen := make(map[string]struct{}, len(completed))
	for _, p := range completed {
		seen[p] = struct{}{}
	}
	var overlap []string
	for _, p := range skipped {
		if _, ok := seen[p]; ok {
			overlap = append(overlap, p)
		}
	}
	return overlap
}
