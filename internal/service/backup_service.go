package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"thrivepath/internal/database"
	"thrivepath/internal/logger"
)

const backupVersion = "1.0"

// BackupData is a portable snapshot of every table
type BackupData struct {
	ID           string                 `json:"id"`
	Version      string                 `json:"version"`
	ExportedAt   time.Time              `json:"exported_at"`
	DatabaseType string                 `json:"database_type"`
	Tables       map[string][]BackupRow `json:"tables"`
}

// BackupRow maps column names to values
type BackupRow map[string]interface{}

type columnKind int

const (
	colInt columnKind = iota
	colNullInt
	colText
	colNullText
	colBool
	colTime
	colNullTime
)

type backupColumn struct {
	name string
	kind columnKind
}

type backupTable struct {
	name    string
	columns []backupColumn
}

func cols(kind columnKind, names ...string) []backupColumn {
	out := make([]backupColumn, 0, len(names))
	for _, n := range names {
		out = append(out, backupColumn{name: n, kind: kind})
	}
	return out
}

func concat(groups ...[]backupColumn) []backupColumn {
	var out []backupColumn
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// backupTables is in dependency order. Import walks it forwards and clearing
// walks it backwards.
var backupTables = []backupTable{
	{"users", concat(
		cols(colInt, "id"),
		cols(colText, "email", "password_hash", "role"),
		cols(colBool, "is_active", "is_verified"),
		cols(colNullTime, "last_login"),
		cols(colTime, "created_at", "updated_at"),
	)},
	{"therapists", concat(
		cols(colInt, "id", "user_id"),
		cols(colText, "first_name", "last_name", "email", "phone", "bio"),
		cols(colBool, "is_active"),
		cols(colTime, "created_at", "updated_at"),
	)},
	{"parents", concat(
		cols(colInt, "id", "user_id"),
		cols(colText, "parent_first_name", "parent_last_name", "child_first_name", "child_last_name"),
		cols(colNullText, "child_dob"),
		cols(colText, "relation_to_child", "email", "phone", "alternate_phone", "address_line1", "address_line2",
			"city", "state", "postal_code", "country", "emergency_contact"),
		cols(colBool, "is_verified"),
		cols(colTime, "created_at", "updated_at"),
	)},
	{"children", concat(
		cols(colInt, "id"),
		cols(colText, "first_name", "last_name", "date_of_birth", "enrollment_date", "diagnosis", "status"),
		cols(colInt, "primary_therapist_id"),
		cols(colText, "profile_details"),
		cols(colTime, "created_at", "updated_at"),
	)},
	{"student_activities", concat(
		cols(colInt, "id", "student_id"),
		cols(colText, "activity_name", "activity_description"),
		cols(colInt, "difficulty_level", "estimated_duration"),
		cols(colText, "current_status"),
		cols(colInt, "total_attempts", "successful_attempts"),
		cols(colNullTime, "last_attempted"),
		cols(colTime, "created_at", "updated_at"),
	)},
	{"sessions", concat(
		cols(colInt, "id", "therapist_id", "student_id"),
		cols(colText, "session_date", "start_time", "end_time", "session_type", "status"),
		cols(colInt, "total_planned_activities", "completed_activities"),
		cols(colNullInt, "estimated_duration_minutes", "actual_duration_minutes"),
		cols(colBool, "prerequisite_completion_required"),
		cols(colNullText, "therapist_notes", "parent_feedback"),
		cols(colTime, "created_at", "updated_at"),
	)},
	{"session_activities", concat(
		cols(colInt, "id", "session_id", "student_activity_id"),
		cols(colNullInt, "estimated_duration", "actual_duration"),
		cols(colText, "prerequisites", "completed_prerequisites", "skipped_prerequisites", "status"),
		cols(colTime, "created_at", "updated_at"),
	)},
	{"session_notes", concat(
		cols(colInt, "id", "therapist_id"),
		cols(colText, "session_date", "note_content"),
		cols(colNullText, "note_title", "session_time"),
		cols(colTime, "created_at", "last_edited_at"),
	)},
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log}
}

// Export writes a snapshot of every table to w as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		ID:           uuid.NewString(),
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
		Tables:       make(map[string][]BackupRow, len(backupTables)),
	}

	for _, table := range backupTables {
		rows, err := s.exportTable(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", table.name, err)
		}
		backup.Tables[table.name] = rows
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("database exported", "backup_id", backup.ID, "counts", backup.Counts())
	return backup, nil
}

// Counts reports the number of rows per table
func (b *BackupData) Counts() map[string]int {
	counts := make(map[string]int, len(b.Tables))
	for name, rows := range b.Tables {
		counts[name] = len(rows)
	}
	return counts
}

func (s *BackupService) exportTable(ctx context.Context, table backupTable) ([]BackupRow, error) {
	names := make([]string, len(table.columns))
	for i, c := range table.columns {
		names[i] = c.name
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(names, ", "), table.name)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BackupRow{}
	for rows.Next() {
		dest := make([]interface{}, len(table.columns))
		for i, c := range table.columns {
			dest[i] = scanTarget(c.kind)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(BackupRow, len(table.columns))
		for i, c := range table.columns {
			row[c.name] = exportValue(dest[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanTarget(kind columnKind) interface{} {
	switch kind {
	case colInt:
		return new(int64)
	case colNullInt:
		return new(sql.NullInt64)
	case colText:
		return new(string)
	case colNullText:
		return new(sql.NullString)
	case colBool:
		return new(bool)
	case colTime:
		return new(time.Time)
	default:
		return new(sql.NullTime)
	}
}

func exportValue(v interface{}) interface{} {
	switch v := v.(type) {
	case *int64:
		return *v
	case *string:
		return *v
	case *bool:
		return *v
	case *time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time.UTC().Format(time.RFC3339Nano)
		}
	}
	return nil
}

// Import restores a snapshot read from r inside a single transaction. Rows
// keep their ids. When clear is set every table is emptied first.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	var backup BackupData
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}
		for _, table := range backupTables {
			if err := importTable(ctx, tx, table, backup.Tables[table.name]); err != nil {
				return fmt.Errorf("failed to import %s: %w", table.name, err)
			}
		}
		return resetSequences(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("database imported", "backup_id", backup.ID, "counts", backup.Counts(), "cleared", clear)
	return &backup, nil
}

func clearTables(ctx context.Context, tx *database.Tx) error {
	for i := len(backupTables) - 1; i >= 0; i-- {
		name := backupTables[i].name
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", name, err)
		}
	}
	return nil
}

func importTable(ctx context.Context, tx *database.Tx, table backupTable, rows []BackupRow) error {
	names := make([]string, len(table.columns))
	marks := make([]string, len(table.columns))
	for i, c := range table.columns {
		names[i] = c.name
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.name, strings.Join(names, ", "), strings.Join(marks, ", "))

	for _, row := range rows {
		args := make([]interface{}, len(table.columns))
		for i, c := range table.columns {
			v, err := importValue(c, row[c.name])
			if err != nil {
				return err
			}
			args[i] = v
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return database.Classify("insert "+table.name+" row", err)
		}
	}
	return nil
}

func importValue(c backupColumn, raw interface{}) (interface{}, error) {
	if raw == nil {
		switch c.kind {
		case colNullInt, colNullText, colNullTime:
			return nil, nil
		}
		return nil, fmt.Errorf("column %s must not be null", c.name)
	}

	switch c.kind {
	case colInt, colNullInt:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a number", c.name)
		}
		return n.Int64()
	case colText, colNullText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a string", c.name)
		}
		return s, nil
	case colBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a boolean", c.name)
		}
		return b, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a timestamp", c.name)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.name, err)
		}
		return t, nil
	}
}

// resetSequences moves PostgreSQL serial counters past the imported ids.
// SQLite and MySQL advance their counters on explicit inserts.
func resetSequences(ctx context.Context, tx *database.Tx) error {
	switch tx.GetDialect().Name() {
	case "postgres", "pgx":
	default:
		return nil
	}
	for _, table := range backupTables {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
			table.name, table.name)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table.name, err)
		}
	}
	return nil
}
