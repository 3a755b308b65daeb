package handlers

import (
	"net/http"
	"strings"

	"thrivepath/internal/models"
	"thrivepath/internal/service"
)

// StudentHandler serves the student directory and activity catalogs
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// List returns every enrolled student
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.ListAll(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load students")
		return
	}
	writeJSON(w, http.StatusOK, newStudentResponses(students))
}

// MyStudents returns the students whose primary therapist is the caller
func (h *StudentHandler) MyStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.ListByTherapist(r.Context(), currentAccount(r).ID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load students")
		return
	}
	writeJSON(w, http.StatusOK, newStudentResponses(students))
}

// Get returns one student
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidStudentID, "", nil)
		return
	}
	student, err := h.studentService.GetByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load student")
		return
	}
	writeJSON(w, http.StatusOK, newStudentResponse(*student))
}

// Enroll creates a student
func (h *StudentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	var dob models.Date
	if strings.TrimSpace(req.DateOfBirth) != "" {
		parsed, err := models.ParseDate(req.DateOfBirth)
		if err != nil {
			respondWithError(w, r, http.StatusBadRequest, "dateOfBirth: "+err.Error(), "", err)
			return
		}
		dob = parsed
	}

	student, err := h.studentService.Enroll(r.Context(), currentAccount(r), service.EnrollmentRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Diagnosis:   req.Diagnosis,
		Goals:       req.Goals,
		TherapistID: req.TherapistID,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to enroll student")
		return
	}

	loggerFrom(r.Context()).Info("Student enrolled", "student_id", student.ID, "therapist_id", student.PrimaryTherapistID)
	writeJSON(w, http.StatusOK, newStudentResponse(*student))
}

// ListActivities returns a student's activity catalog
func (h *StudentHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidStudentID, "", nil)
		return
	}
	activities, err := h.studentService.ListActivities(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load activities")
		return
	}

	out := make([]studentActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, newStudentActivityResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// AddActivity adds an entry to a student's activity catalog
func (h *StudentHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidStudentID, "", nil)
		return
	}
	var req catalogActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	activity, err := h.studentService.AddActivity(r.Context(), id, service.ActivityRequest{
		Name:              req.ActivityName,
		Description:       req.ActivityDescription,
		DifficultyLevel:   req.DifficultyLevel,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to add activity")
		return
	}
	writeJSON(w, http.StatusOK, newStudentActivityResponse(*activity))
}
