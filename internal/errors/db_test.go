package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(MapDBError(tt.err)); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	if err := MapDBError(pgx.ErrNoRows); !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantCode  ErrorCode
		wantField string
	}{
		{
			name:      "not null",
			pgErr:     &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "value"},
			wantCode:  ErrCodeValidation,
			wantField: "value",
		},
		{
			name:     "check",
			pgErr:    &pgconn.PgError{Code: pgerrcode.CheckViolation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "too long",
			pgErr:    &pgconn.PgError{Code: pgerrcode.StringDataRightTruncationDataException, ColumnName: "key"},
			wantCode: ErrCodeValidation, wantField: "key",
		},
		{
			name:     "connection failure",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodeInternal,
		},
		{
			name:     "too many connections",
			pgErr:    &pgconn.PgError{Code: pgerrcode.TooManyConnections},
			wantCode: ErrCodeInternal,
		},
		{
			name:     "missing table",
			pgErr:    &pgconn.PgError{Code: pgerrcode.UndefinedTable},
			wantCode: ErrCodeInternal,
		},
		{
			name:     "unknown",
			pgErr:    &pgconn.PgError{Code: "99999"},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			var appErr *AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("MapDBError() = %T, want *AppError", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %v, want %v", appErr.Code, tt.wantCode)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", appErr.Field, tt.wantField)
			}
			if !errors.Is(err, tt.pgErr) {
				t.Error("mapped error should wrap the PgError")
			}
		})
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	if err := MapDBError(sql.ErrConnDone); !errors.Is(err, sql.ErrConnDone) || GetCode(err) != "" {
		t.Errorf("MapDBError() should pass unknown errors through, got %v", err)
	}
}
