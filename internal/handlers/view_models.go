package handlers

import (
	"time"

	"thrivepath/internal/models"
	"thrivepath/internal/service"
)

// Request bodies

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             string `json:"role"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergencyContact"`
	ParentFirstName  string `json:"parentFirstName"`
	ParentLastName   string `json:"parentLastName"`
	ChildFirstName   string `json:"childFirstName"`
	ChildLastName    string `json:"childLastName"`
	ChildDOB         string `json:"childDob"`
	RelationToChild  string `json:"relationToChild"`
	AlternatePhone   string `json:"alternatePhone"`
	AddressLine1     string `json:"addressLine1"`
	AddressLine2     string `json:"addressLine2"`
	City             string `json:"city"`
	State            string `json:"state"`
	PostalCode       string `json:"postalCode"`
	Country          string `json:"country"`
}

type profileUpdateRequest struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Phone            *string `json:"phone"`
	Bio              *string `json:"bio"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergency_contact"`
}

type enrollRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	DateOfBirth string   `json:"dateOfBirth"`
	Diagnosis   string   `json:"diagnosis"`
	Goals       []string `json:"goals"`
	TherapistID int64    `json:"therapistId"`
}

type catalogActivityRequest struct {
	ActivityName        string `json:"activity_name"`
	ActivityDescription string `json:"activity_description"`
	DifficultyLevel     int    `json:"difficulty_level"`
	EstimatedDuration   int    `json:"estimated_duration"`
}

type sessionCreateRequest struct {
	StudentID                      int64        `json:"student_id"`
	SessionDate                    models.Date  `json:"session_date"`
	StartTime                      models.Clock `json:"start_time"`
	EndTime                        models.Clock `json:"end_time"`
	SessionType                    string       `json:"session_type"`
	EstimatedDurationMinutes       *int         `json:"estimated_duration_minutes"`
	PrerequisiteCompletionRequired bool         `json:"prerequisite_completion_required"`
	TherapistNotes                 *string      `json:"therapist_notes"`
}

type sessionUpdateRequest struct {
	SessionDate                    *models.Date          `json:"session_date"`
	StartTime                      *models.Clock         `json:"start_time"`
	EndTime                        *models.Clock         `json:"end_time"`
	SessionType                    *string               `json:"session_type"`
	Status                         *models.SessionStatus `json:"status"`
	EstimatedDurationMinutes       *int                  `json:"estimated_duration_minutes"`
	ActualDurationMinutes          *int                  `json:"actual_duration_minutes"`
	PrerequisiteCompletionRequired *bool                 `json:"prerequisite_completion_required"`
	TherapistNotes                 *string               `json:"therapist_notes"`
}

type sessionActivityCreateRequest struct {
	StudentActivityID int64    `json:"student_activity_id"`
	EstimatedDuration *int     `json:"estimated_duration"`
	Prerequisites     []string `json:"prerequisites"`
}

type sessionActivityUpdateRequest struct {
	EstimatedDuration      *int                   `json:"estimated_duration"`
	ActualDuration         *int                   `json:"actual_duration"`
	CompletedPrerequisites []string               `json:"completed_prerequisites"`
	SkippedPrerequisites   []string               `json:"skipped_prerequisites"`
	Status                 *models.ActivityStatus `json:"status"`
}

type noteCreateRequest struct {
	SessionDate models.Date  `json:"session_date"`
	NoteContent string       `json:"note_content"`
	NoteTitle   *string      `json:"note_title"`
	SessionTime models.Clock `json:"session_time"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// Responses

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	Name       string    `json:"name,omitempty"`
}

func newUserResponse(a *models.Account) userResponse {
	return userResponse{
		ID:         a.ID,
		Email:      a.Email,
		Role:       string(a.Role),
		IsActive:   a.IsActive,
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt,
	}
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type therapistProfileResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type parentProfileResponse struct {
	ID               int64       `json:"id"`
	UserID           int64       `json:"user_id"`
	FirstName        string      `json:"first_name"`
	LastName         string      `json:"last_name"`
	Email            string      `json:"email"`
	Phone            string      `json:"phone"`
	Address          string      `json:"address"`
	EmergencyContact string      `json:"emergency_contact"`
	IsActive         bool        `json:"is_active"`
	IsVerified       bool        `json:"is_verified"`
	ChildFirstName   string      `json:"child_first_name"`
	ChildLastName    string      `json:"child_last_name"`
	ChildDOB         models.Date `json:"child_dob"`
	RelationToChild  string      `json:"relation_to_child"`
	AlternatePhone   string      `json:"alternate_phone"`
	AddressLine2     string      `json:"address_line2"`
	City             string      `json:"city"`
	State            string      `json:"state"`
	PostalCode       string      `json:"postal_code"`
	Country          string      `json:"country"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func newProfileResponse(account *models.Account, p *service.Profile) interface{} {
	if p.Therapist != nil {
		t := p.Therapist
		return therapistProfileResponse{
			ID: t.ID, UserID: t.UserID, FirstName: t.FirstName, LastName: t.LastName, Email: t.Email,
			Phone: t.Phone, Bio: t.Bio, IsActive: t.IsActive, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
		}
	}
	pp := p.Parent
	return parentProfileResponse{
		ID: pp.ID, UserID: pp.UserID, FirstName: pp.ParentFirstName, LastName: pp.ParentLastName, Email: pp.Email,
		Phone: pp.Phone, Address: pp.AddressLine1, EmergencyContact: pp.EmergencyContact,
		IsActive: account.IsActive, IsVerified: pp.IsVerified,
		ChildFirstName: pp.ChildFirstName, ChildLastName: pp.ChildLastName, ChildDOB: pp.ChildDOB,
		RelationToChild: pp.RelationToChild, AlternatePhone: pp.AlternatePhone, AddressLine2: pp.AddressLine2,
		City: pp.City, State: pp.State, PostalCode: pp.PostalCode, Country: pp.Country,
		CreatedAt: pp.CreatedAt, UpdatedAt: pp.UpdatedAt,
	}
}

type studentResponse struct {
	ID                 int64                 `json:"id"`
	Name               string                `json:"name"`
	FirstName          string                `json:"firstName"`
	LastName           string                `json:"lastName"`
	Age                int                   `json:"age"`
	DateOfBirth        models.Date           `json:"dateOfBirth"`
	EnrollmentDate     models.Date           `json:"enrollmentDate"`
	Diagnosis          string                `json:"diagnosis"`
	Status             string                `json:"status"`
	PrimaryTherapist   string                `json:"primaryTherapist"`
	PrimaryTherapistID int64                 `json:"primaryTherapistId"`
	ProfileDetails     models.ProfileDetails `json:"profileDetails"`
	Photo              string                `json:"photo,omitempty"`
	ProgressPercentage int                   `json:"progressPercentage"`
	NextSession        string                `json:"nextSession,omitempty"`
	Goals              []string              `json:"goals"`
}

func newStudentResponse(s service.StudentRecord) studentResponse {
	return studentResponse{
		ID:                 s.ID,
		Name:               s.FullName(),
		FirstName:          s.FirstName,
		LastName:           s.LastName,
		Age:                s.Age,
		DateOfBirth:        s.DateOfBirth,
		EnrollmentDate:     s.EnrollmentDate,
		Diagnosis:          s.Diagnosis,
		Status:             s.StatusOrDefault(),
		PrimaryTherapist:   s.PrimaryTherapistName,
		PrimaryTherapistID: s.PrimaryTherapistID,
		ProfileDetails:     s.ProfileDetails,
		Photo:              s.ProfileDetails.PhotoURL,
		ProgressPercentage: s.ProgressPercentage(),
		NextSession:        s.ProfileDetails.NextSession,
		Goals:              s.Goals(),
	}
}

func newStudentResponses(records []service.StudentRecord) []studentResponse {
	out := make([]studentResponse, 0, len(records))
	for _, r := range records {
		out = append(out, newStudentResponse(r))
	}
	return out
}

type studentActivityResponse struct {
	ID                  int64      `json:"id"`
	StudentID           int64      `json:"student_id"`
	ActivityName        string     `json:"activity_name"`
	ActivityDescription string     `json:"activity_description"`
	DifficultyLevel     int        `json:"difficulty_level"`
	EstimatedDuration   int        `json:"estimated_duration"`
	CurrentStatus       string     `json:"current_status"`
	TotalAttempts       int        `json:"total_attempts"`
	SuccessfulAttempts  int        `json:"successful_attempts"`
	LastAttempted       *time.Time `json:"last_attempted"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func newStudentActivityResponse(a models.StudentActivity) studentActivityResponse {
	return studentActivityResponse{
		ID:                  a.ID,
		StudentID:           a.StudentID,
		ActivityName:        a.ActivityName,
		ActivityDescription: a.ActivityDescription,
		DifficultyLevel:     a.DifficultyLevel,
		EstimatedDuration:   a.EstimatedDuration,
		CurrentStatus:       a.CurrentStatus,
		TotalAttempts:       a.TotalAttempts,
		SuccessfulAttempts:  a.SuccessfulAttempts,
		LastAttempted:       a.LastAttempted,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

type sessionResponse struct {
	ID                             int64                `json:"id"`
	TherapistID                    int64                `json:"therapist_id"`
	StudentID                      int64                `json:"student_id"`
	SessionDate                    models.Date          `json:"session_date"`
	StartTime                      models.Clock         `json:"start_time"`
	EndTime                        models.Clock         `json:"end_time"`
	SessionType                    string               `json:"session_type"`
	Status                         models.SessionStatus `json:"status"`
	TotalPlannedActivities         int                  `json:"total_planned_activities"`
	CompletedActivities            int                  `json:"completed_activities"`
	EstimatedDurationMinutes       *int                 `json:"estimated_duration_minutes"`
	ActualDurationMinutes          *int                 `json:"actual_duration_minutes"`
	PrerequisiteCompletionRequired bool                 `json:"prerequisite_completion_required"`
	TherapistNotes                 *string              `json:"therapist_notes"`
	ParentFeedback                 *string              `json:"parent_feedback"`
	CreatedAt                      time.Time            `json:"created_at"`
	UpdatedAt                      time.Time            `json:"updated_at"`
	StudentName                    string               `json:"student_name"`
	TherapistName                  string               `json:"therapist_name"`
}

func newSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		ID:                             s.ID,
		TherapistID:                    s.TherapistID,
		StudentID:                      s.StudentID,
		SessionDate:                    s.SessionDate,
		StartTime:                      s.StartTime,
		EndTime:                        s.EndTime,
		SessionType:                    s.SessionType,
		Status:                         s.Status,
		TotalPlannedActivities:         s.TotalPlannedActivities,
		CompletedActivities:            s.CompletedActivities,
		EstimatedDurationMinutes:       s.EstimatedDurationMinutes,
		ActualDurationMinutes:          s.ActualDurationMinutes,
		PrerequisiteCompletionRequired: s.PrerequisiteCompletionRequired,
		TherapistNotes:                 s.TherapistNotes,
		ParentFeedback:                 s.ParentFeedback,
		CreatedAt:                      s.CreatedAt,
		UpdatedAt:                      s.UpdatedAt,
		StudentName:                    s.StudentName,
		TherapistName:                  s.TherapistName,
	}
}

func newSessionResponses(sessions []models.Session) []sessionResponse {
	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, newSessionResponse(&sessions[i]))
	}
	return out
}

type sessionActivityResponse struct {
	ID                     int64                 `json:"id"`
	SessionID              int64                 `json:"session_id"`
	StudentActivityID      int64                 `json:"student_activity_id"`
	EstimatedDuration      *int                  `json:"estimated_duration"`
	ActualDuration         *int                  `json:"actual_duration"`
	Prerequisites          []string              `json:"prerequisites"`
	CompletedPrerequisites []string              `json:"completed_prerequisites"`
	SkippedPrerequisites   []string              `json:"skipped_prerequisites"`
	Status                 models.ActivityStatus `json:"status"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
	ActivityName           string                `json:"activity_name"`
	ActivityDescription    string                `json:"activity_description"`
	DifficultyLevel        int                   `json:"difficulty_level"`
}

func newSessionActivityResponse(a *models.SessionActivity) sessionActivityResponse {
	return sessionActivityResponse{
		ID:                     a.ID,
		SessionID:              a.SessionID,
		StudentActivityID:      a.StudentActivityID,
		EstimatedDuration:      a.EstimatedDuration,
		ActualDuration:         a.ActualDuration,
		Prerequisites:          nonNil(a.Prerequisites),
		CompletedPrerequisites: nonNil(a.CompletedPrerequisites),
		SkippedPrerequisites:   nonNil(a.SkippedPrerequisites),
		Status:                 a.Status,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
		ActivityName:           a.ActivityName,
		ActivityDescription:    a.ActivityDescription,
		DifficultyLevel:        a.DifficultyLevel,
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

type noteResponse struct {
	NotesID      int64        `json:"notes_id"`
	TherapistID  int64        `json:"therapist_id"`
	SessionDate  models.Date  `json:"session_date"`
	NoteContent  string       `json:"note_content"`
	NoteTitle    *string      `json:"note_title"`
	SessionTime  models.Clock `json:"session_time"`
	CreatedAt    time.Time    `json:"created_at"`
	LastEditedAt time.Time    `json:"last_edited_at"`
}

func newNoteResponse(n *models.SessionNote) noteResponse {
	return noteResponse{
		NotesID:      n.ID,
		TherapistID:  n.TherapistID,
		SessionDate:  n.SessionDate,
		NoteContent:  n.NoteContent,
		NoteTitle:    n.NoteTitle,
		SessionTime:  n.SessionTime,
		CreatedAt:    n.CreatedAt,
		LastEditedAt: n.LastEditedAt,
	}
}
