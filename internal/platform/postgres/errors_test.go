package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-flashcards/internal/platform/postgres"
	"github.com/phrazzld/scry-flashcards/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "kv_entries",
		ColumnName:     "value",
		ConstraintName: "kv_entries_pkey",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	generic := errors.New("generic error")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no rows", sql.ErrNoRows, store.ErrKeyNotFound},
		{"unique violation", newPgError("23505"), store.ErrDuplicate},
		{"check violation", newPgError("23514"), store.ErrInvalidEntity},
		{"not null violation", newPgError("23502"), store.ErrInvalidEntity},
		{"serialization failure", newPgError("40001"), store.ErrTransactionFailed},
		{"undefined table", newPgError("42P01"), postgres.ErrSchemaMissing},
		{"wrapped pg error", fmt.Errorf("exec: %w", newPgError("23505")), store.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mapped := postgres.MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.target)
			assert.Contains(t, mapped.Error(), tt.err.Error(), "original error text is preserved")
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unmapped", func(t *testing.T) {
		assert.Same(t, generic, postgres.MapError(generic))
		other := newPgError("22001")
		assert.Equal(t, error(other), postgres.MapError(other))
	})
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23502")))
	assert.False(t, postgres.IsUniqueViolation(nil))

	assert.True(t, postgres.IsSerializationFailure(fmt.Errorf("tx: %w", newPgError("40001"))))
	assert.False(t, postgres.IsSerializationFailure(errors.New("40001")))
}
