package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"taskmanager/internal/common"
	"taskmanager/internal/domain/model"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password", "first_name", "last_name", "role",
		"is_email_verified", "verification_token", "refresh_token", "created_at", "updated_at",
	})
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1 LIMIT 1`).
		WithArgs("a@example.com").
		WillReturnRows(userRows().AddRow("u1", "a@example.com", "$2a$10$hash", "Ada", nil, "admin", true, nil, "$2a$10$refresh", now, now))

	user, err := repo.FindByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.Role != model.RoleAdmin || !user.IsEmailVerified {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.FirstName == nil || *user.FirstName != "Ada" || user.LastName != nil {
		t.Fatalf("unexpected names %v %v", user.FirstName, user.LastName)
	}
	if user.RefreshToken == nil || user.VerificationToken != nil {
		t.Fatalf("unexpected token columns %v %v", user.RefreshToken, user.VerificationToken)
	}
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(userRows())

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: common.PgUniqueViolation, Message: "duplicate key value violates unique constraint \"users_email_key\""})

	err := repo.Create(context.Background(), &model.User{ID: "u1", Email: "a@example.com", Role: model.RoleUser})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserRepository_UpdateRefreshToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)
	hashed := "$2a$10$refresh"

	mock.ExpectExec(`UPDATE users SET refresh_token = \$1, updated_at = NOW\(\) WHERE id = \$2`).
		WithArgs(hashed, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateRefreshToken(context.Background(), "u1", &hashed); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectExec(`UPDATE users SET is_email_verified = \$1, verification_token = \$2, updated_at = NOW\(\) WHERE id = \$3`).
		WithArgs(true, nil, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkEmailVerified(context.Background(), "u1"); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
}

func TestUserRepository_MarkEmailVerified_MissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectExec(`UPDATE users SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkEmailVerified(context.Background(), "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
