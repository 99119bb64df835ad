package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"controlling_motor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newOperatorMock(t *testing.T) (*OperatorSQLite, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewOperatorSQLite(db), mock
}

func TestOperatorSQLite_Create(t *testing.T) {
	created := time.Date(2025, 3, 1, 14, 4, 5, 0, time.FixedZone("UTC+2", 2*3600))

	tests := []struct {
		name       string
		op         models.Operator
		mockExpect func(sqlmock.Sqlmock)
		wantID     int
		wantErr    error
		errContain string
	}{
		{
			name: "success stores created_at in UTC",
			op:   models.Operator{Username: "alice", PasswordHash: "h123", CreatedAt: created},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("alice", "h123", "2025-03-01 12:04:05").
					WillReturnResult(sqlmock.NewResult(42, 1))
			},
			wantID: 42,
		},
		{
			name: "duplicate username",
			op:   models.Operator{Username: "bob", PasswordHash: "h456", CreatedAt: created},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("bob", "h456", "2025-03-01 12:04:05").
					WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: operators.username (2067)"))
			},
			wantErr: ErrOperatorExists,
		},
		{
			name: "exec error",
			op:   models.Operator{Username: "carol", PasswordHash: "h789", CreatedAt: created},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("carol", "h789", "2025-03-01 12:04:05").
					WillReturnError(errors.New("disk I/O error"))
			},
			errContain: "insert operator",
		},
		{
			name: "last insert id error",
			op:   models.Operator{Username: "dave", PasswordHash: "h0", CreatedAt: created},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
					WithArgs("dave", "h0", "2025-03-01 12:04:05").
					WillReturnResult(sqlmock.NewErrorResult(errors.New("no last id")))
			},
			errContain: "last insert id",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newOperatorMock(t)
			tt.mockExpect(mock)

			id, err := repo.Create(ctx(t), tt.op)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.errContain != "":
				if err == nil || !strings.Contains(err.Error(), tt.errContain) {
					t.Fatalf("expected error containing %q, got %v", tt.errContain, err)
				}
				if errors.Is(err, ErrOperatorExists) {
					t.Fatalf("plain failure reported as duplicate: %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if id != tt.wantID {
					t.Fatalf("unexpected id: want %d, got %d", tt.wantID, id)
				}
			}
		})
	}
}

func TestOperatorSQLite_GetByUsername(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newOperatorMock(t)
		rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(7, "alice", "h123", "2025-03-01 12:04:05")
		mock.ExpectQuery(regexp.QuoteMeta(selectOperatorSQL)).WithArgs("alice").WillReturnRows(rows)

		op, err := repo.GetByUsername(ctx(t), "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 3, 1, 12, 4, 5, 0, time.UTC)
		if op == nil || op.ID != 7 || op.Username != "alice" || op.PasswordHash != "h123" || !op.CreatedAt.Equal(want) {
			t.Fatalf("unexpected operator: %+v", op)
		}
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newOperatorMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOperatorSQL)).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		op, err := repo.GetByUsername(ctx(t), "ghost")
		if err != nil || op != nil {
			t.Fatalf("expected (nil, nil), got (%+v, %v)", op, err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newOperatorMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOperatorSQL)).WithArgs("bob").WillReturnError(errors.New("db query failed"))

		op, err := repo.GetByUsername(ctx(t), "bob")
		if err == nil || !strings.Contains(err.Error(), "select operator") || op != nil {
			t.Fatalf("expected wrapped error, got (%+v, %v)", op, err)
		}
	})
}
