package service

import "errors"

var (
	ErrInvalidRole         = errors.New("invalid role")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrUnauthenticated     = errors.New("could not validate credentials")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrStudentNotFound     = errors.New("student not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrActivityNotFound    = errors.New("activity not found in session")
	ErrInvalidTransition   = errors.New("invalid session status transition")
	ErrPrerequisiteOverlap = errors.New("prerequisites cannot be both completed and skipped")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoLinkedChild       = errors.New("no child linked to this parent account")
)
