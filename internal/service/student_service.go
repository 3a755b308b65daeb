package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thrivepath/internal/database"
	"thrivepath/internal/models"
	"thrivepath/internal/validation"
)

// StudentRecord is a student together with its age on the day it was read
type StudentRecord struct {
	models.Student
	Age int
}

// EnrollmentRequest is the input for enrolling a student. A zero
// TherapistID means the enrolling therapist's own profile.
type EnrollmentRequest struct {
	FirstName   string
	LastName    string
	DateOfBirth models.Date
	Diagnosis   string
	Goals       []string
	TherapistID int64
}

// ActivityRequest adds an entry to a student's activity catalog
type ActivityRequest struct {
	Name              string
	Description       string
	DifficultyLevel   int
	EstimatedDuration int
}

const activityNotStarted = "not_started"

// StudentService handles the student directory and activity catalogs
type StudentService struct {
	students StudentStore
	accounts AccountStore
	now      func() time.Time
}

// NewStudentService creates a new student service
func NewStudentService(students StudentStore, accounts AccountStore) *StudentService {
	return &StudentService{
		students: students,
		accounts: accounts,
		now:      time.Now,
	}
}

func (s *StudentService) today() models.Date {
	return models.NewDate(s.now())
}

func (s *StudentService) records(students []models.Student) []StudentRecord {
	today := s.today()
	records := make([]StudentRecord, 0, len(students))
	for _, st := range students {
		records = append(records, StudentRecord{Student: st, Age: st.AgeOn(today)})
	}
	return records
}

// ListAll returns every student
func (s *StudentService) ListAll(ctx context.Context) ([]StudentRecord, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.records(students), nil
}

// ListByTherapist returns the students whose primary therapist is the given account
func (s *StudentService) ListByTherapist(ctx context.Context, therapistAccountID int64) ([]StudentRecord, error) {
	students, err := s.students.ListByTherapistAccount(ctx, therapistAccountID)
	if err != nil {
		return nil, err
	}
	return s.records(students), nil
}

// GetByID returns ErrStudentNotFound when no student has the id
func (s *StudentService) GetByID(ctx context.Context, id int64) (*StudentRecord, error) {
	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}
	return &StudentRecord{Student: *st, Age: st.AgeOn(s.today())}, nil
}

// Enroll creates an active student enrolled today
func (s *StudentService) Enroll(ctx context.Context, caller *models.Account, req EnrollmentRequest) (*StudentRecord, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := validation.ValidateRequired("firstName", req.FirstName); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequired("lastName", req.LastName); err != nil {
		return nil, err
	}
	today := s.today()
	if req.DateOfBirth.IsZero() {
		return nil, validation.ValidationError{Field: "dateOfBirth", Message: "date of birth is required"}
	}
	if today.Before(req.DateOfBirth.Time) {
		return nil, validation.ValidationError{Field: "dateOfBirth", Message: "date of birth cannot be in the future"}
	}

	therapistID, err := s.resolveTherapist(ctx, caller, req.TherapistID)
	if err != nil {
		return nil, err
	}

	age := models.AgeOn(req.DateOfBirth, today)
	progress := 0
	created, err := s.students.Create(ctx, &models.Student{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DateOfBirth:        req.DateOfBirth,
		EnrollmentDate:     today,
		Diagnosis:          strings.TrimSpace(req.Diagnosis),
		Status:             models.StudentStatusActive,
		PrimaryTherapistID: therapistID,
		ProfileDetails: models.ProfileDetails{
			Age:                &age,
			Goals:              req.Goals,
			ProgressPercentage: &progress,
		},
	})
	if errors.Is(err, database.ErrForeignKey) {
		return nil, fmt.Errorf("%w: therapist %d does not exist", ErrInvalidInput, therapistID)
	}
	if err != nil {
		return nil, err
	}
	return &StudentRecord{Student: *created, Age: age}, nil
}

func (s *StudentService) resolveTherapist(ctx context.Context, caller *models.Account, therapistID int64) (int64, error) {
	if therapistID > 0 {
		return therapistID, nil
	}
	if caller == nil || caller.Role != models.RoleTherapist {
		return 0, validation.ValidationError{Field: "therapistId", Message: "therapist id is required"}
	}
	profile, err := s.accounts.GetTherapistProfile(ctx, caller.ID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, ErrProfileNotFound
	}
	return profile.ID, nil
}

// LinkedChild finds the student a parent registered for
func (s *StudentService) LinkedChild(ctx context.Context, parent *models.Account) (*models.Student, error) {
	if parent.Role != models.RoleParent {
		return nil, ErrNoLinkedChild
	}
	profile, err := s.accounts.GetParentProfile(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.HasLinkedChild() {
		return nil, ErrNoLinkedChild
	}
	child, err := s.students.FindByIdentity(ctx, profile.ChildFirstName, profile.ChildLastName, profile.ChildDOB)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrNoLinkedChild
	}
	return child, nil
}

// ListActivities returns a student's activity catalog ordered by name
func (s *StudentService) ListActivities(ctx context.Context, studentID int64) ([]models.StudentActivity, error) {
	return s.students.ListActivities(ctx, studentID)
}

// AddActivity adds an entry to the catalog of an existing student
func (s *StudentService) AddActivity(ctx context.Context, studentID int64, req ActivityRequest) (*models.StudentActivity, error) {
	name := strings.TrimSpace(req.Name)
	if err := validation.ValidateRequired("activity_name", name); err != nil {
		return nil, err
	}
	if req.DifficultyLevel == 0 {
		req.DifficultyLevel = 1
	}
	if req.DifficultyLevel < 1 {
		return nil, validation.ValidationError{Field: "difficulty_level", Message: "difficulty level must be at least 1"}
	}
	if err := validation.ValidateNonNegative("estimated_duration", &req.EstimatedDuration); err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	return s.students.CreateActivity(ctx, &models.StudentActivity{
		StudentID:           studentID,
		ActivityName:        name,
		ActivityDescription: strings.TrimSpace(req.Description),
		DifficultyLevel:     req.DifficultyLevel,
		EstimatedDuration:   req.EstimatedDuration,
		CurrentStatus:       activityNotStarted,
	})
}
