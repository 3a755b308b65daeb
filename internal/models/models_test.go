package models

import (
	"encoding/json"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestAgeOn(t *testing.T) {
	tests := []struct {
		name  string
		birth string
		today string
		want  int
	}{
		{name: "birthday already passed", birth: "2015-03-10", today: "2024-06-01", want: 9},
		{name: "birthday is today", birth: "2015-06-01", today: "2024-06-01", want: 9},
		{name: "birthday tomorrow", birth: "2015-06-02", today: "2024-06-01", want: 8},
		{name: "later month", birth: "2015-12-25", today: "2024-06-01", want: 8},
		{name: "leap day birth before march", birth: "2016-02-29", today: "2024-02-28", want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AgeOn(mustDate(t, tt.birth), mustDate(t, tt.today))
			if got != tt.want {
				t.Errorf("AgeOn(%s, %s) = %d, want %d", tt.birth, tt.today, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "2024-01-15", want: "2024-01-15"},
		{input: "2024-01-15T10:30:00Z", want: "2024-01-15"},
		{input: "15/01/2024", wantErr: true},
		{input: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "09:30", want: "09:30:00"},
		{input: "14:05:09", want: "14:05:09"},
		{input: "14:05:09.123456", want: "14:05:09"},
		{input: "25:00", wantErr: true},
		{input: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseClock(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestClockOrdering(t *testing.T) {
	start := NewClock(10, 0, 0)
	end := NewClock(11, 30, 0)

	if !start.Before(end) || end.Before(start) || start.Before(start) {
		t.Fatal("Before() ordering is wrong")
	}
	if got := start.MinutesUntil(end); got != 90 {
		t.Errorf("MinutesUntil() = %d, want 90", got)
	}
}

func TestDateJSONAndScan(t *testing.T) {
	var payload struct {
		When Date  `json:"when"`
		At   Clock `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"when":"2024-05-06","at":"08:15"}`), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	out, _ := json.Marshal(payload)
	if string(out) != `{"when":"2024-05-06","at":"08:15:00"}` {
		t.Errorf("Marshal = %s", out)
	}

	var d Date
	if err := d.Scan(time.Date(2024, 5, 6, 13, 0, 0, 0, time.UTC)); err != nil || d.String() != "2024-05-06" {
		t.Errorf("Scan(time.Time) = %s, %v", d, err)
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Errorf("Scan(nil) = %s, %v", d, err)
	}
	if v, _ := d.Value(); v != nil {
		t.Errorf("zero Date Value() = %v, want nil", v)
	}
}

func TestSessionStatusTransitions(t *testing.T) {
	tests := []struct {
		from SessionStatus
		to   SessionStatus
		want bool
	}{
		{SessionScheduled, SessionInProgress, true},
		{SessionScheduled, SessionCancelled, true},
		{SessionScheduled, SessionScheduled, true},
		{SessionInProgress, SessionCompleted, true},
		{SessionInProgress, SessionCancelled, true},
		{SessionScheduled, SessionCompleted, false},
		{SessionCompleted, SessionScheduled, false},
		{SessionCancelled, SessionInProgress, false},
		{SessionScheduled, SessionStatus("paused"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlappingPrerequisites(t *testing.T) {
	got := OverlappingPrerequisites([]string{"warmup", "stretch"}, []string{"stretch", "review"})
	if len(got) != 1 || got[0] != "stretch" {
		t.Errorf("OverlappingPrerequisites() = %v, want [stretch]", got)
	}
	if got := OverlappingPrerequisites(nil, []string{"a"}); len(got) != 0 {
		t.Errorf("OverlappingPrerequisites(nil, ...) = %v, want empty", got)
	}
}

func TestStudentDefaults(t *testing.T) {
	s := Student{}
	if len(s.Goals()) != 3 {
		t.Errorf("Goals() = %v, want defaults", s.Goals())
	}
	if s.ProgressPercentage() != DefaultProgressPercentage {
		t.Errorf("ProgressPercentage() = %d", s.ProgressPercentage())
	}
	if s.StatusOrDefault() != "active" {
		t.Errorf("StatusOrDefault() = %q", s.StatusOrDefault())
	}

	zero := 0
	s.ProfileDetails = ProfileDetails{Goals: []string{"Read aloud"}, ProgressPercentage: &zero}
	if s.Goals()[0] != "Read aloud" || s.ProgressPercentage() != 0 {
		t.Errorf("explicit profile details ignored: %+v", s.ProfileDetails)
	}
}

func TestSessionUpdateApply(t *testing.T) {
	notes := "brought picture cards"
	status := SessionInProgress
	s := Session{Status: SessionScheduled, SessionType: "therapy"}

	SessionUpdate{Status: &status, TherapistNotes: &notes}.Apply(&s)

	if s.Status != SessionInProgress || s.TherapistNotes == nil || *s.TherapistNotes != notes {
		t.Errorf("Apply() = %+v", s)
	}
	if s.SessionType != "therapy" {
		t.Errorf("unset field changed: %q", s.SessionType)
	}
}
