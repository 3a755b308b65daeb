package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrivepath/internal/models"
	"thrivepath/internal/validation"
)

func TestEnrollUsesCallerProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")

	student := h.enroll(t, therapist, "Maya", "Rao", "2016-06-16")
	assert.Equal(t, 7, student.Age, "birthday tomorrow")
	assert.Equal(t, "2024-06-15", student.EnrollmentDate.String())
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Equal(t, "Tara Singh", student.PrimaryTherapistName)
	assert.Equal(t, 0, student.ProgressPercentage())
	assert.Equal(t, models.DefaultGoals, student.Goals())

	mine, err := h.students.ListByTherapist(ctx, therapist.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, student.ID, mine[0].ID)

	other := h.therapist(t, "other@example.com")
	theirs, err := h.students.ListByTherapist(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestEnrollValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	parent := h.register(t, RegistrationRequest{Email: "p@example.com", Role: models.RoleParent})
	dob, _ := models.ParseDate("2016-01-01")
	future, _ := models.ParseDate("2030-01-01")

	tests := []struct {
		name   string
		caller *models.Account
		req    EnrollmentRequest
		field  string
	}{
		{"missing first name", therapist, EnrollmentRequest{LastName: "Rao", DateOfBirth: dob}, "firstName"},
		{"missing dob", therapist, EnrollmentRequest{FirstName: "Maya", LastName: "Rao"}, "dateOfBirth"},
		{"future dob", therapist, EnrollmentRequest{FirstName: "Maya", LastName: "Rao", DateOfBirth: future}, "dateOfBirth"},
		{"parent without therapist", parent, EnrollmentRequest{FirstName: "Maya", LastName: "Rao", DateOfBirth: dob}, "therapistId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.students.Enroll(ctx, tt.caller, tt.req)
			var vErr validation.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	_, err := h.students.Enroll(ctx, parent, EnrollmentRequest{FirstName: "Maya", LastName: "Rao", DateOfBirth: dob, TherapistID: 555})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetStudent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")

	got, err := h.students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Age)

	_, err = h.students.GetByID(ctx, student.ID+100)
	assert.ErrorIs(t, err, ErrStudentNotFound)

	all, err := h.students.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStudentCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")

	h.catalogActivity(t, student.ID, "Turn taking")
	h.catalogActivity(t, student.ID, "Picture cards")

	activities, err := h.sessions.ListAvailableStudentActivities(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "Picture cards", activities[0].ActivityName)
	assert.Equal(t, "not_started", activities[0].CurrentStatus)

	_, err = h.students.AddActivity(ctx, student.ID+100, ActivityRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrStudentNotFound)

	_, err = h.students.AddActivity(ctx, student.ID, ActivityRequest{Name: "  "})
	var vErr validation.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestNotes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	date, _ := models.ParseDate("2024-06-01")
	title := "  "

	note, err := h.notes.Create(ctx, therapist.ID, models.NoteCreate{SessionDate: date, NoteContent: "Calm session", NoteTitle: &title})
	require.NoError(t, err)
	assert.Nil(t, note.NoteTitle)
	assert.Equal(t, note.CreatedAt, note.LastEditedAt)

	_, err = h.notes.Create(ctx, therapist.ID, models.NoteCreate{SessionDate: date})
	var vErr validation.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "note_content", vErr.Field)

	notes, err := h.notes.ListByDate(ctx, therapist.ID, date)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	dates, err := h.notes.ListNoteDates(ctx, therapist.ID)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "2024-06-01", dates[0].String())
}
