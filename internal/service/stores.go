package service

import (
	"context"
	"time"

	"thrivepath/internal/models"
)

// The services depend on these narrow views of the repositories so tests can
// substitute failing stores.

type AccountStore interface {
	CreateTherapist(ctx context.Context, account *models.Account, profile *models.TherapistProfile) (*models.Account, error)
	CreateParent(ctx context.Context, account *models.Account, profile *models.ParentProfile) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	SetActive(ctx context.Context, email string, active bool) (bool, error)
	GetTherapistProfile(ctx context.Context, userID int64) (*models.TherapistProfile, error)
	GetParentProfile(ctx context.Context, userID int64) (*models.ParentProfile, error)
	UpdateTherapistProfile(ctx context.Context, userID int64, update models.TherapistProfileUpdate) (bool, error)
	UpdateParentProfile(ctx context.Context, userID int64, update models.ParentProfileUpdate) (bool, error)
}

type StudentStore interface {
	List(ctx context.Context) ([]models.Student, error)
	ListByTherapistAccount(ctx context.Context, accountID int64) ([]models.Student, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	FindByIdentity(ctx context.Context, firstName, lastName string, dob models.Date) (*models.Student, error)
	Create(ctx context.Context, s *models.Student) (*models.Student, error)
	ListActivities(ctx context.Context, studentID int64) ([]models.StudentActivity, error)
	CreateActivity(ctx context.Context, a *models.StudentActivity) (*models.StudentActivity, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session) (*models.Session, error)
	ListByTherapist(ctx context.Context, therapistID int64, limit, offset int) ([]models.Session, error)
	ListCompletedByStudent(ctx context.Context, studentID int64, limit, offset int) ([]models.Session, error)
	GetByID(ctx context.Context, id, therapistID int64) (*models.Session, error)
	Update(ctx context.Context, s *models.Session) (bool, error)
	Delete(ctx context.Context, id, therapistID int64) (bool, error)
	IsOwnedBy(ctx context.Context, sessionID, therapistID int64) (bool, error)
	AttachParentFeedback(ctx context.Context, sessionID int64, feedback string) (bool, error)
	GetForParentVerification(ctx context.Context, sessionID int64) (*models.SessionVerification, error)
	AddActivity(ctx context.Context, sessionID, therapistID int64, create models.SessionActivityCreate) (*models.SessionActivity, error)
	GetActivity(ctx context.Context, activityID, sessionID int64) (*models.SessionActivity, error)
	ListActivities(ctx context.Context, sessionID int64) ([]models.SessionActivity, error)
	UpdateActivity(ctx context.Context, a *models.SessionActivity) error
	RemoveActivity(ctx context.Context, activityID, sessionID, therapistID int64) (bool, error)
}

type NoteStore interface {
	ListByDate(ctx context.Context, therapistID int64, date models.Date) ([]models.SessionNote, error)
	Create(ctx context.Context, therapistID int64, create models.NoteCreate) (*models.SessionNote, error)
	ListDates(ctx context.Context, therapistID int64) ([]models.Date, error)
}
