package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrivepath/internal/database"
	"thrivepath/internal/models"
	"thrivepath/internal/repository"
)

func useTempDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thrivectl.db")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("CONFIG_FILE", "")
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--quiet"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedAccount(t *testing.T, path, email string) {
	t.Helper()
	db, err := database.Initialize(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.RunMigrations(context.Background())
	require.NoError(t, err)

	_, err = repository.NewAccountRepository(db).CreateTherapist(context.Background(),
		&models.Account{Email: email, PasswordHash: "x", Role: models.RoleTherapist},
		&models.TherapistProfile{FirstName: "Tara", LastName: "Singh"})
	require.NoError(t, err)
}

func accountActive(t *testing.T, path, email string) bool {
	t.Helper()
	db, err := database.Initialize(path)
	require.NoError(t, err)
	defer db.Close()
	account, err := repository.NewAccountRepository(db).GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, account)
	return account.IsActive
}

func TestGenSecret(t *testing.T) {
	out, err := run(t, "", "gen-secret", "--length", "40")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 40)

	_, err = run(t, "", "gen-secret", "--length", "0")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	useTempDatabase(t)

	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 001_initial_schema.sql")

	out, err = run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")
}

func TestAccountStatusCommands(t *testing.T) {
	path := useTempDatabase(t)
	seedAccount(t, path, "tara@example.com")

	_, err := run(t, "", "deactivate", "--email", "tara@example.com")
	require.NoError(t, err)
	assert.False(t, accountActive(t, path, "tara@example.com"))

	_, err = run(t, "", "activate", "--email", "tara@example.com")
	require.NoError(t, err)
	assert.True(t, accountActive(t, path, "tara@example.com"))

	_, err = run(t, "", "deactivate", "--email", "ghost@example.com")
	assert.Error(t, err)
}

func TestExportThenImport(t *testing.T) {
	path := useTempDatabase(t)
	seedAccount(t, path, "tara@example.com")
	snapshot := filepath.Join(t.TempDir(), "out", "snapshot.json")

	out, err := run(t, "", "export", "--output", snapshot)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to "+snapshot)

	// Restore into a fresh database.
	useTempDatabase(t)
	out, err = run(t, "no\n", "import", "--input", snapshot, "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Import cancelled")

	out, err = run(t, "yes\n", "import", "--input", snapshot, "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported "+snapshot)
	assert.Regexp(t, `users\s+1`, out)
}

func TestImportRequiresInput(t *testing.T) {
	useTempDatabase(t)
	_, err := run(t, "", "import")
	assert.Error(t, err)
}
