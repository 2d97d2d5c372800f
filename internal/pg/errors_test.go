package pg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		unique       bool
		lockConflict bool
	}{
		{name: "Unique violation", err: &pgconn.PgError{Code: "23505"}, unique: true},
		{name: "Wrapped lock not available", err: fmt.Errorf("lock booking: %w", &pgconn.PgError{Code: "55P03"}), lockConflict: true},
		{name: "Serialization failure", err: &pgconn.PgError{Code: "40001"}, lockConflict: true},
		{name: "Deadlock", err: &pgconn.PgError{Code: "40P01"}, lockConflict: true},
		{name: "Plain error", err: errors.New("boom")},
		{name: "Nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueViolation(tt.err))
			assert.Equal(t, tt.lockConflict, IsLockConflict(tt.err))
		})
	}
}
