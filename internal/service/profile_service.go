package service

import (
	"context"
	"fmt"

	"thrivepath/internal/models"
	"thrivepath/internal/validation"
)

// Profile is the role profile of an account. Exactly one of the pointers is set.
type Profile struct {
	Role      models.Role
	Therapist *models.TherapistProfile
	Parent    *models.ParentProfile
}

// ProfileUpdate holds the editable profile fields. Fields a role may not
// change are ignored; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName        *string
	LastName         *string
	Phone            *string
	Bio              *string
	Address          *string
	EmergencyContact *string
}

// ProfileService reads and edits role profiles
type ProfileService struct {
	accounts AccountStore
}

// NewProfileService creates a new profile service
func NewProfileService(accounts AccountStore) *ProfileService {
	return &ProfileService{accounts: accounts}
}

// Get returns the profile matching the account's role
func (s *ProfileService) Get(ctx context.Context, account *models.Account) (*Profile, error) {
	switch account.Role {
	case models.RoleTherapist:
		p, err := s.accounts.GetTherapistProfile(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProfileNotFound
		}
		return &Profile{Role: account.Role, Therapist: p}, nil
	case models.RoleParent:
		p, err := s.accounts.GetParentProfile(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProfileNotFound
		}
		return &Profile{Role: account.Role, Parent: p}, nil
	}
	return nil, ErrInvalidRole
}

// Update applies the fields allowed for the account's role and returns the
// refreshed profile
func (s *ProfileService) Update(ctx context.Context, account *models.Account, update ProfileUpdate) (*Profile, error) {
	for field, name := range map[string]*string{"first_name": update.FirstName, "last_name": update.LastName} {
		if name == nil {
			continue
		}
		if err := validation.ValidateName(field, *name); err != nil {
			return nil, err
		}
	}

	var (
		found bool
		err   error
	)
	switch account.Role {
	case models.RoleTherapist:
		found, err = s.accounts.UpdateTherapistProfile(ctx, account.ID, models.TherapistProfileUpdate{
			FirstName: update.FirstName,
			LastName:  update.LastName,
			Phone:     update.Phone,
			Bio:       update.Bio,
		})
	case models.RoleParent:
		found, err = s.accounts.UpdateParentProfile(ctx, account.ID, models.ParentProfileUpdate{
			FirstName:        update.FirstName,
			LastName:         update.LastName,
			Phone:            update.Phone,
			Address:          update.Address,
			EmergencyContact: update.EmergencyContact,
		})
	default:
		return nil, ErrInvalidRole
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if !found {
		return nil, ErrProfileNotFound
	}
	return s.Get(ctx, account)
}
