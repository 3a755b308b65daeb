package handlers

import (
	"net/http"

	"thrivepath/internal/models"
	"thrivepath/internal/service"
)

// SessionHandler serves therapy sessions and the activities planned into them
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create schedules a session for the calling therapist
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessionCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	session, err := h.sessionService.Create(r.Context(), currentAccount(r).ID, models.SessionCreate{
		StudentID:                      req.StudentID,
		SessionDate:                    req.SessionDate,
		StartTime:                      req.StartTime,
		EndTime:                        req.EndTime,
		SessionType:                    req.SessionType,
		EstimatedDurationMinutes:       req.EstimatedDurationMinutes,
		PrerequisiteCompletionRequired: req.PrerequisiteCompletionRequired,
		TherapistNotes:                 req.TherapistNotes,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create session")
		return
	}

	loggerFrom(r.Context()).Info("Session created", "session_id", session.ID, "student_id", session.StudentID)
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// List returns a page of the caller's sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, okLimit := queryInt(r, "limit", service.DefaultPageSize)
	offset, okOffset := queryInt(r, "offset", 0)
	if !okLimit || !okOffset {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidPaging, "", nil)
		return
	}

	sessions, err := h.sessionService.List(r.Context(), currentAccount(r).ID, limit, offset)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load sessions")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponses(sessions))
}

// Get returns one of the caller's sessions
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidSessionID, "", nil)
		return
	}
	session, err := h.sessionService.Get(r.Context(), id, currentAccount(r).ID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// Update applies a partial update, including status transitions
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidSessionID, "", nil)
		return
	}
	var req sessionUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	session, err := h.sessionService.Update(r.Context(), id, currentAccount(r).ID, models.SessionUpdate{
		SessionDate:                    req.SessionDate,
		StartTime:                      req.StartTime,
		EndTime:                        req.EndTime,
		SessionType:                    req.SessionType,
		Status:                         req.Status,
		EstimatedDurationMinutes:       req.EstimatedDurationMinutes,
		ActualDurationMinutes:          req.ActualDurationMinutes,
		PrerequisiteCompletionRequired: req.PrerequisiteCompletionRequired,
		TherapistNotes:                 req.TherapistNotes,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update session")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// Delete removes one of the caller's sessions and its activities
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidSessionID, "", nil)
		return
	}
	if err := h.sessionService.Delete(r.Context(), id, currentAccount(r).ID); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete session")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Session deleted successfully"})
}

// AddActivity plans a catalog activity into a session
func (h *SessionHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidSessionID, "", nil)
		return
	}
	var req sessionActivityCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	activity, err := h.sessionService.AddActivity(r.Context(), sessionID, currentAccount(r).ID, models.SessionActivityCreate{
		StudentActivityID: req.StudentActivityID,
		EstimatedDuration: req.EstimatedDuration,
		Prerequisites:     req.Prerequisites,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to add activity to session")
		return
	}
	writeJSON(w, http.StatusOK, newSessionActivityResponse(activity))
}

// ListActivities returns the activities planned into a session
func (h *SessionHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidSessionID, "", nil)
		return
	}
	activities, err := h.sessionService.ListActivities(r.Context(), sessionID, currentAccount(r).ID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load session activities")
		return
	}

	out := make([]sessionActivityResponse, 0, len(activities))
	for i := range activities {
		out = append(out, newSessionActivityResponse(&activities[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateActivity records progress on a planned activity
func (h *SessionHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	sessionID, okSession := pathID(r, "id")
	activityID, okActivity := pathID(r, "activityId")
	if !okSession || !okActivity {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidActivityID, "", nil)
		return
	}
	var req sessionActivityUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	activity, err := h.sessionService.UpdateActivity(r.Context(), activityID, sessionID, currentAccount(r).ID, models.SessionActivityUpdate{
		EstimatedDuration:      req.EstimatedDuration,
		ActualDuration:         req.ActualDuration,
		CompletedPrerequisites: req.CompletedPrerequisites,
		SkippedPrerequisites:   req.SkippedPrerequisites,
		Status:                 req.Status,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update session activity")
		return
	}
	writeJSON(w, http.StatusOK, newSessionActivityResponse(activity))
}

// RemoveActivity takes an activity out of a session
func (h *SessionHandler) RemoveActivity(w http.ResponseWriter, r *http.Request) {
	sessionID, okSession := pathID(r, "id")
	activityID, okActivity := pathID(r, "activityId")
	if !okSession || !okActivity {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidActivityID, "", nil)
		return
	}
	if err := h.sessionService.RemoveActivity(r.Context(), activityID, sessionID, currentAccount(r).ID); err != nil {
		respondWithServiceError(w, r, err, "Failed to remove activity from session")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Activity removed from session successfully"})
}

// CompletedByChild returns a child's completed sessions
func (h *SessionHandler) CompletedByChild(w http.ResponseWriter, r *http.Request) {
	childID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, "Invalid child ID", "", nil)
		return
	}
	limit, okLimit := queryInt(r, "limit", service.DefaultPageSize)
	offset, okOffset := queryInt(r, "offset", 0)
	if !okLimit || !okOffset {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidPaging, "", nil)
		return
	}

	sessions, err := h.sessionService.ListCompletedByChild(r.Context(), currentAccount(r), childID, limit, offset)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load completed sessions")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponses(sessions))
}

// SubmitFeedback stores a parent's feedback on a session of their child
func (h *SessionHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, msgInvalidSessionID, "", nil)
		return
	}
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	if err := h.sessionService.SubmitParentFeedback(r.Context(), currentAccount(r), sessionID, req.Feedback); err != nil {
		respondWithServiceError(w, r, err, "Failed to submit feedback")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Feedback submitted successfully"})
}
