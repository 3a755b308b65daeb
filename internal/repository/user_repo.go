package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"thrivepath/internal/database"
	"thrivepath/internal/models"
)

// AccountRepository handles database operations for accounts and their role profiles
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, role, is_active, is_verified, last_login, created_at, updated_at`

// CreateTherapist inserts an account and its therapist profile in one transaction.
func (r *AccountRepository) CreateTherapist(ctx context.Context, account *models.Account, profile *models.TherapistProfile) (*models.Account, error) {
	now := time.Now().UTC()
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		id, err := insertAccount(ctx, tx, account, now)
		if err != nil {
			return err
		}

		_, err = tx.ExecReturningID(ctx, `
			INSERT INTO therapists (user_id, first_name, last_name, email, phone, bio, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, profile.FirstName, profile.LastName, account.Email, profile.Phone, profile.Bio, true, now, now)
		if err != nil {
			return database.Classify("create therapist profile", err)
		}
		account.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finishAccount(account, now), nil
}

// CreateParent inserts an account and its parent profile in one transaction.
func (r *AccountRepository) CreateParent(ctx context.Context, account *models.Account, profile *models.ParentProfile) (*models.Account, error) {
	now := time.Now().UTC()
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		id, err := insertAccount(ctx, tx, account, now)
		if err != nil {
			return err
		}

		_, err = tx.ExecReturningID(ctx, `
			INSERT INTO parents (
				user_id, parent_first_name, parent_last_name, child_first_name, child_last_name, child_dob,
				relation_to_child, email, phone, alternate_phone, address_line1, address_line2,
				city, state, postal_code, country, emergency_contact, is_verified, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id, profile.ParentFirstName, profile.ParentLastName, profile.ChildFirstName, profile.ChildLastName, profile.ChildDOB,
			profile.RelationToChild, account.Email, profile.Phone, profile.AlternatePhone, profile.AddressLine1, profile.AddressLine2,
			profile.City, profile.State, profile.PostalCode, profile.Country, profile.EmergencyContact, false, now, now,
		)
		if err != nil {
			return database.Classify("create parent profile", err)
		}
		account.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finishAccount(account, now), nil
}

func insertAccount(ctx context.Context, tx database.DBTX, account *models.Account, now time.Time) (int64, error) {
	id, err := tx.ExecReturningID(ctx, `
		INSERT INTO users (email, password_hash, role, is_active, is_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, account.Email, account.PasswordHash, string(account.Role), true, false, now, now)
	if err != nil {
		return 0, database.Classify("create user", err)
	}
	return id, nil
}

func finishAccount(account *models.Account, now time.Time) *models.Account {
	account.IsActive = true
	account.IsVerified = false
	account.CreatedAt = now
	account.UpdatedAt = now
	return account
}

// GetByEmail retrieves an account by email address
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM users WHERE email = ?", email)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var role string
	var lastLogin sql.NullTime
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.IsActive,
		&account.IsVerified,
		&lastLogin,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("get user", err)
	}
	account.Role = models.Role(role)
	if lastLogin.Valid {
		account.LastLogin = &lastLogin.Time
	}
	return account, nil
}

// UpdateLastLogin records a successful login
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?", at, at, id)
	return database.Classify("update last login", err)
}

// SetActive enables or disables an account. Returns false when no account matched.
func (r *AccountRepository) SetActive(ctx context.Context, email string, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE users SET is_active = ?, updated_at = ? WHERE email = ?", active, time.Now().UTC(), email)
	if err != nil {
		return false, database.Classify("update user status", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, database.Classify("update user status", err)
	}
	return n > 0, nil
}

// GetTherapistProfile retrieves the therapist profile owned by an account
func (r *AccountRepository) GetTherapistProfile(ctx context.Context, userID int64) (*models.TherapistProfile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email, phone, bio, is_active, created_at, updated_at
		FROM therapists
		WHERE user_id = ?
	`
	p := &models.TherapistProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Bio, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("get therapist profile", err)
	}
	return p, nil
}

// GetParentProfile retrieves the parent profile owned by an account
func (r *AccountRepository) GetParentProfile(ctx context.Context, userID int64) (*models.ParentProfile, error) {
	query := `
		SELECT id, user_id, parent_first_name, parent_last_name, child_first_name, child_last_name, child_dob,
		       relation_to_child, email, phone, alternate_phone, address_line1, address_line2,
		       city, state, postal_code, country, emergency_contact, is_verified, created_at, updated_at
		FROM parents
		WHERE user_id = ?
	`
	p := &models.ParentProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.ParentFirstName, &p.ParentLastName, &p.ChildFirstName, &p.ChildLastName, &p.ChildDOB,
		&p.RelationToChild, &p.Email, &p.Phone, &p.AlternatePhone, &p.AddressLine1, &p.AddressLine2,
		&p.City, &p.State, &p.PostalCode, &p.Country, &p.EmergencyContact, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("get parent profile", err)
	}
	return p, nil
}

// UpdateTherapistProfile applies the non-nil fields and refreshes updated_at.
// Returns false when the account has no therapist profile.
func (r *AccountRepository) UpdateTherapistProfile(ctx context.Context, userID int64, update models.TherapistProfileUpdate) (bool, error) {
	var set setClause
	set.add("first_name", update.FirstName)
	set.add("last_name", update.LastName)
	set.add("phone", update.Phone)
	set.add("bio", update.Bio)
	return r.updateProfile(ctx, "therapists", userID, set)
}

// UpdateParentProfile applies the non-nil fields and refreshes updated_at.
// Returns false when the account has no parent profile.
func (r *AccountRepository) UpdateParentProfile(ctx context.Context, userID int64, update models.ParentProfileUpdate) (bool, error) {
	var set setClause
	set.add("parent_first_name", update.FirstName)
	set.add("parent_last_name", update.LastName)
	set.add("phone", update.Phone)
	set.add("address_line1", update.Address)
	set.add("emergency_contact", update.EmergencyContact)
	return r.updateProfile(ctx, "parents", userID, set)
}

func (r *AccountRepository) updateProfile(ctx context.Context, table string, userID int64, set setClause) (bool, error) {
	set.columns = append(set.columns, "updated_at = ?")
	set.args = append(set.args, time.Now().UTC(), userID)

	query := "UPDATE " + table + " SET " + strings.Join(set.columns, ", ") + " WHERE user_id = ?"
	result, err := r.db.ExecContext(ctx, query, set.args...)
	if err != nil {
		return false, database.Classify("update "+table+" profile", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, database.Classify("update "+table+" profile", err)
	}
	return n > 0, nil
}

// setClause accumulates "column = ?" fragments for fields that are present.
// Column names are always literals from this package.
type setClause struct {
	columns []string
	args    []interface{}
}

func (s *setClause) add(column string, value *string) {
	if value == nil {
		return
	}
	s.columns = append(s.columns, column+" = ?")
	s.args = append(s.args, *value)
}
