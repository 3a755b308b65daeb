package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrivepath/internal/database"
	"thrivepath/internal/models"
	"thrivepath/internal/testutil"
)

type fixture struct {
	accounts *AccountRepository
	students *StudentRepository
	sessions *SessionRepository
	notes    *NoteRepository

	therapist *models.Account
	profile   *models.TherapistProfile
	student   *models.Student
	activity  *models.StudentActivity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.OpenDB(t)

	f := &fixture{
		accounts: NewAccountRepository(db),
		students: NewStudentRepository(db),
		sessions: NewSessionRepository(db),
		notes:    NewNoteRepository(db),
	}

	var err error
	f.therapist, err = f.accounts.CreateTherapist(ctx,
		&models.Account{Email: "t@example.com", PasswordHash: "x", Role: models.RoleTherapist},
		&models.TherapistProfile{FirstName: "Tara", LastName: "Singh"})
	require.NoError(t, err)

	f.profile, err = f.accounts.GetTherapistProfile(ctx, f.therapist.ID)
	require.NoError(t, err)
	require.NotNil(t, f.profile)

	dob, _ := models.ParseDate("2016-04-02")
	f.student, err = f.students.Create(ctx, &models.Student{
		FirstName: "Maya", LastName: "Rao", DateOfBirth: dob, EnrollmentDate: models.NewDate(dob.AddDate(8, 0, 0)),
		Status: models.StudentStatusActive, PrimaryTherapistID: f.profile.ID,
	})
	require.NoError(t, err)

	f.activity, err = f.students.CreateActivity(ctx, &models.StudentActivity{
		StudentID: f.student.ID, ActivityName: "Picture cards", DifficultyLevel: 2, EstimatedDuration: 15, CurrentStatus: "not_started",
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) newSession(t *testing.T) *models.Session {
	t.Helper()
	date, _ := models.ParseDate("2024-06-01")
	s, err := f.sessions.Create(context.Background(), &models.Session{
		TherapistID: f.therapist.ID, StudentID: f.student.ID, SessionDate: date,
		StartTime: models.NewClock(10, 0, 0), EndTime: models.NewClock(11, 0, 0),
		SessionType: models.DefaultSessionType, Status: models.SessionScheduled,
	})
	require.NoError(t, err)
	return s
}

func TestCreateTherapistDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.accounts.CreateTherapist(context.Background(),
		&models.Account{Email: "t@example.com", PasswordHash: "y", Role: models.RoleTherapist},
		&models.TherapistProfile{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrConflict), "got %v", err)
}

func TestGetByEmailMissing(t *testing.T) {
	f := newFixture(t)

	account, err := f.accounts.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestSessionDenormalizedNames(t *testing.T) {
	f := newFixture(t)
	s := f.newSession(t)

	assert.Equal(t, "Maya Rao", s.StudentName)
	assert.Equal(t, "Tara Singh", s.TherapistName)
	assert.Equal(t, 0, s.TotalPlannedActivities)
	assert.Equal(t, "10:00:00", s.StartTime.String())
}

func TestActivityCounterFollowsRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSession(t)

	first, err := f.sessions.AddActivity(ctx, s.ID, f.therapist.ID, models.SessionActivityCreate{StudentActivityID: f.activity.ID, Prerequisites: []string{"warmup"}})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.ActivityPlanned, first.Status)
	assert.Equal(t, "Picture cards", first.ActivityName)
	assert.Equal(t, []string{"warmup"}, first.Prerequisites)
	assert.Empty(t, first.CompletedPrerequisites)

	_, err = f.sessions.AddActivity(ctx, s.ID, f.therapist.ID, models.SessionActivityCreate{StudentActivityID: f.activity.ID})
	require.NoError(t, err)

	got, err := f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalPlannedActivities)

	removed, err := f.sessions.RemoveActivity(ctx, first.ID, s.ID, f.therapist.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.sessions.RemoveActivity(ctx, first.ID, s.ID, f.therapist.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second removal must not decrement again")

	got, _ = f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	activities, err := f.sessions.ListActivities(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, len(activities), got.TotalPlannedActivities)
}

func TestAddActivityScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSession(t)

	added, err := f.sessions.AddActivity(ctx, s.ID, f.therapist.ID+100, models.SessionActivityCreate{StudentActivityID: f.activity.ID})
	require.NoError(t, err)
	assert.Nil(t, added, "foreign therapist must not add activities")

	_, err = f.sessions.AddActivity(ctx, s.ID, f.therapist.ID, models.SessionActivityCreate{StudentActivityID: 9999})
	assert.True(t, errors.Is(err, database.ErrForeignKey), "got %v", err)

	got, _ := f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	assert.Equal(t, 0, got.TotalPlannedActivities)
}

func TestUpdateLeavesParentFeedback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSession(t)

	stale, err := f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	require.NoError(t, err)
	require.Nil(t, stale.ParentFeedback)

	found, err := f.sessions.AttachParentFeedback(ctx, s.ID, "great session")
	require.NoError(t, err)
	require.True(t, found)

	notes := "worked on /s/"
	stale.TherapistNotes = &notes
	found, err = f.sessions.Update(ctx, stale)
	require.NoError(t, err)
	require.True(t, found)

	got, err := f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentFeedback)
	assert.Equal(t, "great session", *got.ParentFeedback)
	require.NotNil(t, got.TherapistNotes)
	assert.Equal(t, notes, *got.TherapistNotes)
}

func TestUpdateActivityMovesCompletedCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSession(t)

	a, err := f.sessions.AddActivity(ctx, s.ID, f.therapist.ID, models.SessionActivityCreate{StudentActivityID: f.activity.ID})
	require.NoError(t, err)

	a.Status = models.ActivityCompleted
	require.NoError(t, f.sessions.UpdateActivity(ctx, a))
	got, _ := f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	assert.Equal(t, 1, got.CompletedActivities)

	removed, err := f.sessions.RemoveActivity(ctx, a.ID, s.ID, f.therapist.ID)
	require.NoError(t, err)
	require.True(t, removed)
	got, _ = f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	assert.Equal(t, 0, got.CompletedActivities)
	assert.Equal(t, 0, got.TotalPlannedActivities)
}

func TestUpdateActivityCountsCompletionOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSession(t)

	a, err := f.sessions.AddActivity(ctx, s.ID, f.therapist.ID, models.SessionActivityCreate{StudentActivityID: f.activity.ID})
	require.NoError(t, err)

	// Every writer loaded the activity while it was still planned.
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := *a
			done.Status = models.ActivityCompleted
			errs <- f.sessions.UpdateActivity(ctx, &done)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, _ := f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	assert.Equal(t, 1, got.CompletedActivities)

	a.Status = models.ActivityCompleted
	require.NoError(t, f.sessions.UpdateActivity(ctx, a))
	got, _ = f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	assert.Equal(t, 1, got.CompletedActivities)

	a.Status = models.ActivityInProgress
	require.NoError(t, f.sessions.UpdateActivity(ctx, a))
	got, _ = f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	assert.Equal(t, 0, got.CompletedActivities)
}

func TestDeleteSessionScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSession(t)
	_, err := f.sessions.AddActivity(ctx, s.ID, f.therapist.ID, models.SessionActivityCreate{StudentActivityID: f.activity.ID})
	require.NoError(t, err)

	deleted, err := f.sessions.Delete(ctx, s.ID, f.therapist.ID+1)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = f.sessions.Delete(ctx, s.ID, f.therapist.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := f.sessions.GetByID(ctx, s.ID, f.therapist.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNoteDatesDistinctAscending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-02", "2024-01-15", "2024-03-02"} {
		date, _ := models.ParseDate(d)
		_, err := f.notes.Create(ctx, f.therapist.ID, models.NoteCreate{SessionDate: date, NoteContent: "note " + d})
		require.NoError(t, err)
	}

	dates, err := f.notes.ListDates(ctx, f.therapist.ID)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2024-01-15", dates[0].String())
	assert.Equal(t, "2024-03-02", dates[1].String())

	date, _ := models.ParseDate("2024-03-02")
	notes, err := f.notes.ListByDate(ctx, f.therapist.ID, date)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.True(t, notes[0].ID > notes[1].ID, "newest note first")
	assert.Equal(t, notes[0].CreatedAt, notes[0].LastEditedAt)
}

func TestFindByIdentity(t *testing.T) {
	f := newFixture(t)

	found, err := f.students.FindByIdentity(context.Background(), "maya", "RAO", f.student.DateOfBirth)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, f.student.ID, found.ID)
	assert.Equal(t, "Tara Singh", found.PrimaryTherapistName)
}
