package db

import (
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_OrdersByVersion(t *testing.T) {
	files := fstest.MapFS{
		"010_payments.sql": {Data: []byte("SELECT 10;")},
		"002_accounts.sql": {Data: []byte("SELECT 2;")},
		"001_core.sql":     {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("notes")},
		"draft.sql":        {Data: []byte("SELECT 0;")},
	}

	migrations, err := LoadMigrations(files)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, 10, migrations[2].Version)
	assert.Equal(t, "SELECT 10;", migrations[2].SQL)
}

func TestLoadMigrations_RejectsDuplicateVersions(t *testing.T) {
	files := fstest.MapFS{
		"001_core.sql":  {Data: []byte("SELECT 1;")},
		"001_other.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := LoadMigrations(files)
	require.Error(t, err)
}

func TestEmbeddedMigrationsDeclareSlotIndex(t *testing.T) {
	m := NewMigrator(nil, nil)
	migrations, err := LoadMigrations(m.files)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "appointments_active_slot_key")
	assert.Contains(t, migrations[0].SQL, "WHERE status <> 'cancelled'")
}

func TestIsUniqueViolation(t *testing.T) {
	slotErr := &pgconn.PgError{Code: "23505", ConstraintName: "appointments_active_slot_key"}
	wrapped := fmt.Errorf("insert appointment: %w", slotErr)

	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.True(t, IsUniqueViolation(wrapped, "appointments_active_slot_key"))
	assert.False(t, IsUniqueViolation(wrapped, "accounts_email_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsNumericOutOfRange(t *testing.T) {
	overflow := fmt.Errorf("adjust supply: %w", &pgconn.PgError{Code: "22003", Message: "integer out of range"})

	assert.True(t, IsNumericOutOfRange(overflow))
	assert.False(t, IsNumericOutOfRange(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsNumericOutOfRange(errors.New("boom")))
	assert.False(t, IsNumericOutOfRange(nil))
}
