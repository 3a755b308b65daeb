package models

import "time"

// DefaultGoals are reported for students whose profile has none recorded.
var DefaultGoals = []string{
	"Improve communication skills",
	"Develop social interaction",
	"Enhance cognitive abilities",
}

// DefaultProgressPercentage is reported when a profile has no progress value.
const DefaultProgressPercentage = 75

const StudentStatusActive = "active"

// ProfileDetails is the free-form JSON document stored with each student.
type ProfileDetails struct {
	PhotoURL           string   `json:"photo_url,omitempty"`
	Goals              []string `json:"goals,omitempty"`
	ProgressPercentage *int     `json:"progress_percentage,omitempty"`
	NextSession        string   `json:"next_session,omitempty"`
	Age                *int     `json:"age,omitempty"`
}

// Student is a child enrolled for therapy.
type Student struct {
	ID                   int64
	FirstName            string
	LastName             string
	DateOfBirth          Date
	EnrollmentDate       Date
	Diagnosis            string
	Status               string
	PrimaryTherapistID   int64
	PrimaryTherapistName string
	ProfileDetails       ProfileDetails
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (s *Student) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

// AgeOn is the student's age in completed years on the given day.
func (s *Student) AgeOn(today Date) int {
	return AgeOn(s.DateOfBirth, today)
}

func (s *Student) Goals() []string {
	if len(s.ProfileDetails.Goals) == 0 {
		return DefaultGoals
	}
	return s.ProfileDetails.Goals
}

func (s *Student) ProgressPercentage() int {
	if s.ProfileDetails.ProgressPercentage == nil {
		return DefaultProgressPercentage
	}
	return *s.ProfileDetails.ProgressPercentage
}

func (s *Student) StatusOrDefault() string {
	if s.Status == "" {
		return StudentStatusActive
	}
	return s.Status
}

// StudentActivity is a catalog entry of activities tracked for one student.
type StudentActivity struct {
	ID                  int64
	StudentID           int64
	ActivityName        string
	ActivityDescription string
	DifficultyLevel     int
	EstimatedDuration   int
	CurrentStatus       string
	TotalAttempts       int
	SuccessfulAttempts  int
	LastAttempted       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
