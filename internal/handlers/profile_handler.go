package handlers

import (
	"errors"
	"net/http"

	"thrivepath/internal/models"
	"thrivepath/internal/service"
)

// ProfileHandler serves the caller's role profile
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get returns the therapist or parent profile of the caller
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := currentAccount(r)
	profile, err := h.profileService.Get(r.Context(), account)
	if err != nil {
		h.respondProfileError(w, r, account, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(account, profile))
}

// Update applies a partial profile update
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err, msgInvalidBody)
		return
	}

	account := currentAccount(r)
	profile, err := h.profileService.Update(r.Context(), account, service.ProfileUpdate{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		Bio:              req.Bio,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		h.respondProfileError(w, r, account, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(account, profile))
}

func (h *ProfileHandler) respondProfileError(w http.ResponseWriter, r *http.Request, account *models.Account, err error, fallback string) {
	if errors.Is(err, service.ErrProfileNotFound) {
		message := "Parent profile not found"
		if account.Role == models.RoleTherapist {
			message = "Therapist profile not found"
		}
		respondWithError(w, r, http.StatusNotFound, message, "", err)
		return
	}
	respondWithServiceError(w, r, err, fallback)
}
