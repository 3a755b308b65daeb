package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"thrivepath/internal/database"
	"thrivepath/internal/logger"
	"thrivepath/internal/models"
	"thrivepath/internal/repository"
	"thrivepath/internal/security"
	"thrivepath/internal/testutil"
)

const testPassword = "correct-horse"

type harness struct {
	db       *database.DB
	accounts *repository.AccountRepository
	tokens   *security.TokenService
	auth     *AuthService
	profiles *ProfileService
	students *StudentService
	sessions *SessionService
	notes    *NoteService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	log := logger.NewNop()

	accounts := repository.NewAccountRepository(db)
	tokens := security.NewTokenService("test-secret-key-with-some-length", 30*time.Minute)
	students := NewStudentService(repository.NewStudentRepository(db), accounts)
	students.now = func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) }

	return &harness{
		db:       db,
		accounts: accounts,
		tokens:   tokens,
		auth:     NewAuthService(accounts, tokens, log),
		profiles: NewProfileService(accounts),
		students: students,
		sessions: NewSessionService(repository.NewSessionRepository(db), students),
		notes:    NewNoteService(repository.NewNoteRepository(db)),
	}
}

func (h *harness) register(t *testing.T, req RegistrationRequest) *models.Account {
	t.Helper()
	if req.Password == "" {
		req.Password = testPassword
	}
	account, err := h.auth.Register(context.Background(), req)
	require.NoError(t, err)
	return account
}

func (h *harness) therapist(t *testing.T, email string) *models.Account {
	t.Helper()
	return h.register(t, RegistrationRequest{Email: email, Role: models.RoleTherapist, FirstName: "Tara", LastName: "Singh"})
}

func (h *harness) enroll(t *testing.T, caller *models.Account, first, last, dob string) *StudentRecord {
	t.Helper()
	birth, err := models.ParseDate(dob)
	require.NoError(t, err)
	student, err := h.students.Enroll(context.Background(), caller, EnrollmentRequest{FirstName: first, LastName: last, DateOfBirth: birth})
	require.NoError(t, err)
	return student
}

func (h *harness) catalogActivity(t *testing.T, studentID int64, name string) *models.StudentActivity {
	t.Helper()
	a, err := h.students.AddActivity(context.Background(), studentID, ActivityRequest{Name: name, DifficultyLevel: 2, EstimatedDuration: 10})
	require.NoError(t, err)
	return a
}

func (h *harness) schedule(t *testing.T, therapistID, studentID int64) *models.Session {
	t.Helper()
	date, _ := models.ParseDate("2024-06-20")
	s, err := h.sessions.Create(context.Background(), therapistID, models.SessionCreate{
		StudentID:   studentID,
		SessionDate: date,
		StartTime:   models.NewClock(9, 30, 0),
		EndTime:     models.NewClock(10, 15, 0),
	})
	require.NoError(t, err)
	return s
}
