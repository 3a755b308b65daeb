package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thrivepath/internal/database"
	"thrivepath/internal/logger"
	"thrivepath/internal/models"
	"thrivepath/internal/security"
	"thrivepath/internal/validation"
)

// DefaultCountry is recorded for parents who register without one.
const DefaultCountry = "India"

// RegistrationRequest carries everything a new account may supply. The
// parent-only fields are ignored for therapists.
type RegistrationRequest struct {
	Email            string
	Password         string
	Role             models.Role
	FirstName        string
	LastName         string
	Phone            string
	Address          string
	EmergencyContact string

	ParentFirstName string
	ParentLastName  string
	ChildFirstName  string
	ChildLastName   string
	ChildDOB        models.Date
	RelationToChild string
	AlternatePhone  string
	AddressLine1    string
	AddressLine2    string
	City            string
	State           string
	PostalCode      string
	Country         string
}

// AuthService handles registration, login and bearer token resolution
type AuthService struct {
	accounts AccountStore
	tokens   *security.TokenService
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(accounts AccountStore, tokens *security.TokenService, log *logger.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
	}
}

// Register creates an account and its role profile in one transaction
func (s *AuthService) Register(ctx context.Context, req RegistrationRequest) (*models.Account, error) {
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
	}

	switch req.Role {
	case models.RoleTherapist:
		account, err = s.accounts.CreateTherapist(ctx, account, &models.TherapistProfile{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Phone:     req.Phone,
		})
	case models.RoleParent:
		account, err = s.accounts.CreateParent(ctx, account, parentProfileFrom(req))
	}
	if errors.Is(err, database.ErrConflict) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.Info("account registered", "account_id", account.ID, "role", account.Role)
	return account, nil
}

func parentProfileFrom(req RegistrationRequest) *models.ParentProfile {
	return &models.ParentProfile{
		ParentFirstName:  firstNonEmpty(req.ParentFirstName, req.FirstName),
		ParentLastName:   firstNonEmpty(req.ParentLastName, req.LastName),
		ChildFirstName:   strings.TrimSpace(req.ChildFirstName),
		ChildLastName:    strings.TrimSpace(req.ChildLastName),
		ChildDOB:         req.ChildDOB,
		RelationToChild:  req.RelationToChild,
		Phone:            req.Phone,
		AlternatePhone:   req.AlternatePhone,
		AddressLine1:     firstNonEmpty(req.AddressLine1, req.Address),
		AddressLine2:     req.AddressLine2,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		Country:          firstNonEmpty(req.Country, DefaultCountry),
		EmergencyContact: req.EmergencyContact,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Login checks credentials. The failure kinds are distinct so callers can
// tell an unknown email from a wrong password or a disabled account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if account == nil {
		return nil, ErrUserNotFound
	}
	if !security.CheckPassword(password, account.PasswordHash) {
		return nil, ErrInvalidPassword
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}
	return account, nil
}

// IssueToken signs a bearer token for the account
func (s *AuthService) IssueToken(account *models.Account) (string, error) {
	token, err := s.tokens.Issue(account.ID, account.Email, string(account.Role))
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// RecordLogin stamps last_login. Failures are logged and otherwise ignored.
func (s *AuthService) RecordLogin(ctx context.Context, accountID int64) {
	if err := s.accounts.UpdateLastLogin(ctx, accountID, s.now().UTC()); err != nil {
		s.log.Warn("failed to record login", "account_id", accountID, "error", err)
	}
}

// ResolveCurrentAccount verifies a bearer token and loads the live account
// it names. Deactivated accounts no longer resolve.
func (s *AuthService) ResolveCurrentAccount(ctx context.Context, token string) (*models.Account, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	account, err := s.accounts.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if account == nil || !account.IsActive {
		return nil, ErrUnauthenticated
	}
	return account, nil
}

// DisplayName is the profile's full name, or the email when no name is on file
func (s *AuthService) DisplayName(ctx context.Context, account *models.Account) (string, error) {
	var name string
	switch account.Role {
	case models.RoleTherapist:
		p, err := s.accounts.GetTherapistProfile(ctx, account.ID)
		if err != nil {
			return "", err
		}
		if p != nil {
			name = p.FullName()
		}
	case models.RoleParent:
		p, err := s.accounts.GetParentProfile(ctx, account.ID)
		if err != nil {
			return "", err
		}
		if p != nil {
			name = p.FullName()
		}
	}
	if name == "" {
		return account.Email, nil
	}
	return name, nil
}

// SetActive enables or disables the account registered under email
func (s *AuthService) SetActive(ctx context.Context, email string, active bool) error {
	found, err := s.accounts.SetActive(ctx, strings.TrimSpace(email), active)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}
	s.log.Info("account status changed", "email", email, "active", active)
	return nil
}
