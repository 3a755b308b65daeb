package handlers

import (
	"errors"
	"net/http"
	"strings"

	"thrivepath/internal/metrics"
	"thrivepath/internal/models"
	"thrivepath/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	metrics     *metrics.Metrics
}

// NewAuthHandler creates a new auth handler. m may be nil.
func NewAuthHandler(authService *service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     m,
	}
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	account, err := h.authService.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.observeLogin(loginOutcome(err))
		respondWithServiceError(w, r, err, "Login failed")
		return
	}

	token, err := h.authService.IssueToken(account)
	if err != nil {
		h.observeLogin(metrics.LoginError)
		respondWithError(w, r, http.StatusInternalServerError, "Login failed", "failed to issue token", err)
		return
	}

	h.authService.RecordLogin(r.Context(), account.ID)
	h.observeLogin(metrics.LoginSuccess)
	loggerFrom(r.Context()).Info("User logged in", "account_id", account.ID, "role", account.Role)

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        newUserResponse(account),
	})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return metrics.LoginUnknownUser
	case errors.Is(err, service.ErrInvalidPassword):
		return metrics.LoginWrongPassword
	case errors.Is(err, service.ErrAccountInactive):
		return metrics.LoginInactive
	default:
		return metrics.LoginError
	}
}

func (h *AuthHandler) observeLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveLogin(outcome)
	}
}

// Register creates an account together with its role profile
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	var childDOB models.Date
	if strings.TrimSpace(req.ChildDOB) != "" {
		parsed, err := models.ParseDate(req.ChildDOB)
		if err != nil {
			respondWithError(w, r, http.StatusBadRequest, "childDob: "+err.Error(), "", err)
			return
		}
		childDOB = parsed
	}

	account, err := h.authService.Register(r.Context(), service.RegistrationRequest{
		Email:            strings.TrimSpace(req.Email),
		Password:         req.Password,
		Role:             models.Role(strings.ToLower(strings.TrimSpace(req.Role))),
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		ParentFirstName:  req.ParentFirstName,
		ParentLastName:   req.ParentLastName,
		ChildFirstName:   req.ChildFirstName,
		ChildLastName:    req.ChildLastName,
		ChildDOB:         childDOB,
		RelationToChild:  req.RelationToChild,
		AlternatePhone:   req.AlternatePhone,
		AddressLine1:     req.AddressLine1,
		AddressLine2:     req.AddressLine2,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		Country:          req.Country,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Registration failed")
		return
	}

	loggerFrom(r.Context()).Info("Account registered", "account_id", account.ID, "role", account.Role)
	writeJSON(w, http.StatusOK, newUserResponse(account))
}

// Me returns the caller's identity and display name
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := currentAccount(r)
	name, err := h.authService.DisplayName(r.Context(), account)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load user")
		return
	}

	resp := newUserResponse(account)
	resp.Name = name
	writeJSON(w, http.StatusOK, resp)
}
