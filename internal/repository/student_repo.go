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

// StudentRepository handles database operations for students and their activity catalog
type StudentRepository struct {
	db *database.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentSelect = `
	SELECT c.id, c.first_name, c.last_name, c.date_of_birth, c.enrollment_date, c.diagnosis, c.status,
	       c.primary_therapist_id, COALESCE(t.first_name, ''), COALESCE(t.last_name, ''),
	       c.profile_details, c.created_at, c.updated_at
	FROM children c
	LEFT JOIN therapists t ON t.id = c.primary_therapist_id
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	s := &models.Student{}
	var therapistFirst, therapistLast, details string
	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.DateOfBirth, &s.EnrollmentDate, &s.Diagnosis, &s.Status,
		&s.PrimaryTherapistID, &therapistFirst, &therapistLast,
		&details, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.PrimaryTherapistName = (&models.TherapistProfile{FirstName: therapistFirst, LastName: therapistLast}).FullName()
	if details != "" {
		if err := json.Unmarshal([]byte(details), &s.ProfileDetails); err != nil {
			return nil, fmt.Errorf("failed to decode profile details for student %d: %w", s.ID, err)
		}
	}
	return s, nil
}

func (r *StudentRepository) queryStudents(ctx context.Context, op, query string, args ...interface{}) ([]models.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.Classify(op, err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, database.Classify(op, err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(op, err)
	}
	return students, nil
}

// List returns every student
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	return r.queryStudents(ctx, "list students", studentSelect+" ORDER BY c.id")
}

// ListByTherapistAccount returns the students whose primary therapist profile
// belongs to the given account
func (r *StudentRepository) ListByTherapistAccount(ctx context.Context, accountID int64) ([]models.Student, error) {
	return r.queryStudents(ctx, "list therapist students", studentSelect+" WHERE t.user_id = ? ORDER BY c.id", accountID)
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, studentSelect+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("get student", err)
	}
	return s, nil
}

// FindByIdentity finds the student matching a child's name and date of birth.
// Names compare case-insensitively.
func (r *StudentRepository) FindByIdentity(ctx context.Context, firstName, lastName string, dob models.Date) (*models.Student, error) {
	query := studentSelect + `
		WHERE LOWER(c.first_name) = LOWER(?) AND LOWER(c.last_name) = LOWER(?) AND c.date_of_birth = ?
		ORDER BY c.id
		LIMIT 1
	`
	s, err := scanStudent(r.db.QueryRowContext(ctx, query, firstName, lastName, dob))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("find student", err)
	}
	return s, nil
}

// Create inserts a student and returns it with the therapist name resolved
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) (*models.Student, error) {
	details, err := json.Marshal(s.ProfileDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile details: %w", err)
	}

	now := time.Now().UTC()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO children (first_name, last_name, date_of_birth, enrollment_date, diagnosis, status,
		                      primary_therapist_id, profile_details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.FirstName, s.LastName, s.DateOfBirth, s.EnrollmentDate, s.Diagnosis, s.Status,
		s.PrimaryTherapistID, string(details), now, now)
	if err != nil {
		return nil, database.Classify("create student", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("student %d vanished after insert", id)
	}
	return created, nil
}

const activityColumns = `id, student_id, activity_name, activity_description, difficulty_level, estimated_duration,
	current_status, total_attempts, successful_attempts, last_attempted, created_at, updated_at`

// ListActivities returns the activity catalog of a student ordered by name
func (r *StudentRepository) ListActivities(ctx context.Context, studentID int64) ([]models.StudentActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+activityColumns+" FROM student_activities WHERE student_id = ? ORDER BY activity_name, id", studentID)
	if err != nil {
		return nil, database.Classify("list student activities", err)
	}
	defer rows.Close()

	activities := []models.StudentActivity{}
	for rows.Next() {
		a := models.StudentActivity{}
		var lastAttempted sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.StudentID, &a.ActivityName, &a.ActivityDescription, &a.DifficultyLevel, &a.EstimatedDuration,
			&a.CurrentStatus, &a.TotalAttempts, &a.SuccessfulAttempts, &lastAttempted, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, database.Classify("list student activities", err)
		}
		if lastAttempted.Valid {
			a.LastAttempted = &lastAttempted.Time
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list student activities", err)
	}
	return activities, nil
}

// CreateActivity adds an entry to a student's activity catalog
func (r *StudentRepository) CreateActivity(ctx context.Context, a *models.StudentActivity) (*models.StudentActivity, error) {
	now := time.Now().UTC()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO student_activities (student_id, activity_name, activity_description, difficulty_level,
		                                estimated_duration, current_status, total_attempts, successful_attempts,
		                                created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
	`, a.StudentID, a.ActivityName, a.ActivityDescription, a.DifficultyLevel, a.EstimatedDuration, a.CurrentStatus, now, now)
	if err != nil {
		return nil, database.Classify("create student activity", err)
	}

	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}
