package handlers

import (
	"errors"
	"net/http"

	"thrivepath/internal/database"
	"thrivepath/internal/security"
	"thrivepath/internal/service"
	"thrivepath/internal/validation"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// respondWithError writes a {"detail": ...} body. The underlying error is
// logged, never returned to the client.
func respondWithError(w http.ResponseWriter, r *http.Request, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log := loggerFrom(r.Context())
		if status >= http.StatusInternalServerError {
			log.Error(logMsg, "error", err, "status", status)
		} else {
			log.Debug(logMsg, "error", err, "status", status)
		}
	}
	writeJSON(w, status, errorResponse{Detail: userMsg})
}

// errorMapping translates a service or storage error into a response. An
// empty message means the error text itself is safe to show.
type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{service.ErrUserNotFound, http.StatusNotFound, "User not found. Please check your email or register for a new account."},
	{service.ErrInvalidPassword, http.StatusUnauthorized, "Invalid email or password. Please check your credentials."},
	{service.ErrAccountInactive, http.StatusForbidden, "Your account is inactive. Please contact support."},
	{service.ErrDuplicateEmail, http.StatusBadRequest, "Email already exists"},
	{service.ErrInvalidRole, http.StatusBadRequest, "Invalid role. Must be 'therapist' or 'parent'"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "Could not validate credentials"},
	{security.ErrInvalidToken, http.StatusUnauthorized, "Could not validate credentials"},
	{service.ErrProfileNotFound, http.StatusNotFound, "Profile not found"},
	{service.ErrStudentNotFound, http.StatusNotFound, "Student not found"},
	{service.ErrSessionNotFound, http.StatusNotFound, "Session not found"},
	{service.ErrActivityNotFound, http.StatusNotFound, "Activity not found in session"},
	{service.ErrNoLinkedChild, http.StatusForbidden, "No child is linked to this account"},
	{service.ErrInvalidTransition, http.StatusBadRequest, ""},
	{service.ErrPrerequisiteOverlap, http.StatusBadRequest, ""},
	{service.ErrInvalidInput, http.StatusBadRequest, ""},
	{errBadRequestBody, http.StatusBadRequest, msgInvalidBody},
	{database.ErrUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// statusFor returns the status and client message for err. ok is false when
// the error is unexpected.
func statusFor(err error) (status int, message string, ok bool) {
	var vErr validation.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, vErr.Error(), true
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.status, err.Error(), true
			}
			return m.status, m.message, true
		}
	}
	return http.StatusInternalServerError, "", false
}

// respondWithServiceError maps err through errorMappings, falling back to a
// 500 with fallback as the message.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, message, ok := statusFor(err)
	if !ok {
		respondWithError(w, r, status, fallback, "", err)
		return
	}
	respondWithError(w, r, status, message, fallback, err)
}
