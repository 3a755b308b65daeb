package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrivepath/internal/models"
	"thrivepath/internal/testutil"
	"thrivepath/internal/validation"
)

func TestCreateSessionDefaults(t *testing.T) {
	h := newHarness(t)
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")

	s := h.schedule(t, therapist.ID, student.ID)
	assert.Equal(t, models.SessionScheduled, s.Status)
	assert.Equal(t, models.DefaultSessionType, s.SessionType)
	assert.Equal(t, 0, s.TotalPlannedActivities)
	assert.Equal(t, 0, s.CompletedActivities)
	require.NotNil(t, s.EstimatedDurationMinutes)
	assert.Equal(t, 45, *s.EstimatedDurationMinutes)
	assert.Equal(t, "Maya Rao", s.StudentName)
	assert.Equal(t, "Tara Singh", s.TherapistName)
}

func TestCreateSessionValidation(t *testing.T) {
	h := newHarness(t)
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")
	date, _ := models.ParseDate("2024-06-20")

	tests := []struct {
		name  string
		req   models.SessionCreate
		field string
	}{
		{"missing student", models.SessionCreate{SessionDate: date, StartTime: models.NewClock(9, 0, 0), EndTime: models.NewClock(10, 0, 0)}, "student_id"},
		{"missing date", models.SessionCreate{StudentID: student.ID, StartTime: models.NewClock(9, 0, 0), EndTime: models.NewClock(10, 0, 0)}, "session_date"},
		{"end before start", models.SessionCreate{StudentID: student.ID, SessionDate: date, StartTime: models.NewClock(10, 0, 0), EndTime: models.NewClock(9, 0, 0)}, "end_time"},
		{"end equals start", models.SessionCreate{StudentID: student.ID, SessionDate: date, StartTime: models.NewClock(10, 0, 0), EndTime: models.NewClock(10, 0, 0)}, "end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.sessions.Create(context.Background(), therapist.ID, tt.req)
			var vErr validation.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	_, err := h.sessions.Create(context.Background(), therapist.ID, models.SessionCreate{
		StudentID: 4242, SessionDate: date, StartTime: models.NewClock(9, 0, 0), EndTime: models.NewClock(10, 0, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSessionOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.therapist(t, "owner@example.com")
	other := h.therapist(t, "other@example.com")
	student := h.enroll(t, owner, "Maya", "Rao", "2016-04-02")
	s := h.schedule(t, owner.ID, student.ID)

	_, err := h.sessions.Get(ctx, s.ID, other.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	status := models.SessionInProgress
	_, err = h.sessions.Update(ctx, s.ID, other.ID, models.SessionUpdate{Status: &status})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, h.sessions.Delete(ctx, s.ID, other.ID), ErrSessionNotFound)

	_, err = h.sessions.ListActivities(ctx, s.ID, other.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	list, err := h.sessions.List(ctx, other.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = h.sessions.List(ctx, owner.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessionStatusTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")

	steps := []struct {
		to      models.SessionStatus
		wantErr bool
	}{
		{models.SessionCompleted, true},
		{models.SessionInProgress, false},
		{models.SessionInProgress, false},
		{models.SessionScheduled, true},
		{models.SessionCompleted, false},
		{models.SessionCancelled, true},
		{"archived", true},
	}

	s := h.schedule(t, therapist.ID, student.ID)
	for _, step := range steps {
		status := step.to
		got, err := h.sessions.Update(ctx, s.ID, therapist.ID, models.SessionUpdate{Status: &status})
		if step.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTransition, "to %s", step.to)
			continue
		}
		require.NoError(t, err, "to %s", step.to)
		assert.Equal(t, step.to, got.Status)
	}
}

func TestUpdateSessionKeepsTimeRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")
	s := h.schedule(t, therapist.ID, student.ID)

	early := models.NewClock(9, 0, 0)
	_, err := h.sessions.Update(ctx, s.ID, therapist.ID, models.SessionUpdate{EndTime: &early})
	var vErr validation.ValidationError
	require.True(t, errors.As(err, &vErr))

	notes := "Focus on turn taking"
	got, err := h.sessions.Update(ctx, s.ID, therapist.ID, models.SessionUpdate{TherapistNotes: &notes, ActualDurationMinutes: testutil.Ptr(40)})
	require.NoError(t, err)
	require.NotNil(t, got.TherapistNotes)
	assert.Equal(t, notes, *got.TherapistNotes)
	assert.Equal(t, 40, *got.ActualDurationMinutes)
	assert.Equal(t, "09:30:00", got.StartTime.String(), "unchanged fields preserved")
	assert.False(t, got.UpdatedAt.Before(s.UpdatedAt))
}

func TestSessionActivityLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")
	catalog := h.catalogActivity(t, student.ID, "Picture cards")
	s := h.schedule(t, therapist.ID, student.ID)

	activity, err := h.sessions.AddActivity(ctx, s.ID, therapist.ID, models.SessionActivityCreate{
		StudentActivityID: catalog.ID,
		Prerequisites:     []string{"warmup", "greeting"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPlanned, activity.Status)
	assert.Equal(t, "Picture cards", activity.ActivityName)
	assert.Equal(t, 2, activity.DifficultyLevel)

	got, err := h.sessions.Get(ctx, s.ID, therapist.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalPlannedActivities)

	_, err = h.sessions.UpdateActivity(ctx, activity.ID, s.ID, therapist.ID, models.SessionActivityUpdate{
		CompletedPrerequisites: []string{"warmup"},
		SkippedPrerequisites:   []string{"warmup"},
	})
	assert.ErrorIs(t, err, ErrPrerequisiteOverlap)

	completed := models.ActivityCompleted
	updated, err := h.sessions.UpdateActivity(ctx, activity.ID, s.ID, therapist.ID, models.SessionActivityUpdate{
		Status:                 &completed,
		ActualDuration:         testutil.Ptr(12),
		CompletedPrerequisites: []string{"warmup"},
		SkippedPrerequisites:   []string{"greeting"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityCompleted, updated.Status)
	assert.Equal(t, []string{"warmup"}, updated.CompletedPrerequisites)
	assert.Equal(t, []string{"greeting"}, updated.SkippedPrerequisites)

	got, _ = h.sessions.Get(ctx, s.ID, therapist.ID)
	assert.Equal(t, 1, got.CompletedActivities)

	listed, err := h.sessions.ListActivities(ctx, s.ID, therapist.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, h.sessions.RemoveActivity(ctx, activity.ID, s.ID, therapist.ID))
	assert.ErrorIs(t, h.sessions.RemoveActivity(ctx, activity.ID, s.ID, therapist.ID), ErrActivityNotFound)

	got, _ = h.sessions.Get(ctx, s.ID, therapist.ID)
	assert.Equal(t, 0, got.TotalPlannedActivities)
	assert.Equal(t, 0, got.CompletedActivities)
}

func TestAddActivityRejectsOtherStudentsCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	maya := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")
	arun := h.enroll(t, therapist, "Arun", "Das", "2015-09-12")
	arunsActivity := h.catalogActivity(t, arun.ID, "Puzzles")
	s := h.schedule(t, therapist.ID, maya.ID)

	_, err := h.sessions.AddActivity(ctx, s.ID, therapist.ID, models.SessionActivityCreate{StudentActivityID: arunsActivity.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.sessions.AddActivity(ctx, s.ID, therapist.ID, models.SessionActivityCreate{StudentActivityID: 777})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.sessions.AddActivity(ctx, s.ID+1, therapist.ID, models.SessionActivityCreate{StudentActivityID: arunsActivity.ID})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, _ := h.sessions.Get(ctx, s.ID, therapist.ID)
	assert.Equal(t, 0, got.TotalPlannedActivities)
}

func TestParentFeedback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	maya := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")
	arun := h.enroll(t, therapist, "Arun", "Das", "2015-09-12")
	dob, _ := models.ParseDate("2016-04-02")
	parent := h.register(t, RegistrationRequest{
		Email: "parent@example.com", Role: models.RoleParent,
		ChildFirstName: "maya", ChildLastName: "rao", ChildDOB: dob,
	})

	mine := h.schedule(t, therapist.ID, maya.ID)
	theirs := h.schedule(t, therapist.ID, arun.ID)

	require.NoError(t, h.sessions.SubmitParentFeedback(ctx, parent, mine.ID, "Great week"))
	got, _ := h.sessions.Get(ctx, mine.ID, therapist.ID)
	require.NotNil(t, got.ParentFeedback)
	assert.Equal(t, "Great week", *got.ParentFeedback)

	assert.ErrorIs(t, h.sessions.SubmitParentFeedback(ctx, parent, theirs.ID, "Not mine"), ErrSessionNotFound)
	assert.ErrorIs(t, h.sessions.SubmitParentFeedback(ctx, parent, 9999, "Missing"), ErrSessionNotFound)

	unlinked := h.register(t, RegistrationRequest{Email: "solo@example.com", Role: models.RoleParent})
	assert.ErrorIs(t, h.sessions.SubmitParentFeedback(ctx, unlinked, mine.ID, "Hi"), ErrNoLinkedChild)
}

func TestUpdateKeepsParentFeedback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	student := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")
	s := h.schedule(t, therapist.ID, student.ID)

	require.NoError(t, h.sessions.AttachParentFeedback(ctx, s.ID, "great session"))

	updated, err := h.sessions.Update(ctx, s.ID, therapist.ID, models.SessionUpdate{TherapistNotes: testutil.Ptr("worked on /s/")})
	require.NoError(t, err)
	require.NotNil(t, updated.TherapistNotes)
	assert.Equal(t, "worked on /s/", *updated.TherapistNotes)

	got, err := h.sessions.Get(ctx, s.ID, therapist.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentFeedback)
	assert.Equal(t, "great session", *got.ParentFeedback)
}

func TestListCompletedByChild(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	therapist := h.therapist(t, "t@example.com")
	maya := h.enroll(t, therapist, "Maya", "Rao", "2016-04-02")
	arun := h.enroll(t, therapist, "Arun", "Das", "2015-09-12")
	dob, _ := models.ParseDate("2016-04-02")
	parent := h.register(t, RegistrationRequest{
		Email: "parent@example.com", Role: models.RoleParent,
		ChildFirstName: "Maya", ChildLastName: "Rao", ChildDOB: dob,
	})

	done := h.schedule(t, therapist.ID, maya.ID)
	h.schedule(t, therapist.ID, maya.ID)
	for _, status := range []models.SessionStatus{models.SessionInProgress, models.SessionCompleted} {
		st := status
		_, err := h.sessions.Update(ctx, done.ID, therapist.ID, models.SessionUpdate{Status: &st})
		require.NoError(t, err)
	}

	sessions, err := h.sessions.ListCompletedByChild(ctx, parent, maya.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, done.ID, sessions[0].ID)

	_, err = h.sessions.ListCompletedByChild(ctx, parent, arun.ID, 0, 0)
	assert.ErrorIs(t, err, ErrStudentNotFound)

	sessions, err = h.sessions.ListCompletedByChild(ctx, therapist, arun.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, DefaultPageSize, 0},
		{-5, -1, DefaultPageSize, 0},
		{10, 20, 10, 20},
		{1000, 0, MaxPageSize, 0},
	}
	for _, tt := range tests {
		limit, offset := Page(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantOffset, offset)
	}
}
