package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"taskmanager/internal/common"
	"taskmanager/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByVerificationToken(ctx context.Context, digest string) (*model.User, error)
	// UpdateRefreshToken stores hashed, or clears the stored hash when hashed is nil.
	UpdateRefreshToken(ctx context.Context, id string, hashed *string) error
	MarkEmailVerified(ctx context.Context, id string) error
}

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name", "role",
	"is_email_verified", "verification_token", "refresh_token", "created_at", "updated_at",
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.HashedPassword, user.FirstName, user.LastName, user.Role,
			user.IsEmailVerified, user.VerificationToken, user.RefreshToken, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create: build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return translatePgError("pgUserRepository.Create", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByEmail", sq.Eq{"email": email})
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByID", sq.Eq{"id": id})
}

func (r *pgUserRepository) FindByVerificationToken(ctx context.Context, digest string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByVerificationToken", sq.Eq{"verification_token": digest})
}

func (r *pgUserRepository) findOne(ctx context.Context, op string, where sq.Eq) (*model.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, translatePgError(op, err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdateRefreshToken(ctx context.Context, id string, hashed *string) error {
	return r.update(ctx, "pgUserRepository.UpdateRefreshToken", id, map[string]interface{}{
		"refresh_token": hashed,
	})
}

func (r *pgUserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.update(ctx, "pgUserRepository.MarkEmailVerified", id, map[string]interface{}{
		"is_email_verified":  true,
		"verification_token": nil,
	})
}

func (r *pgUserRepository) update(ctx context.Context, op, id string, fields map[string]interface{}) error {
	query, args, err := psql.Update("users").
		SetMap(fields).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: build query: %w", op, err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translatePgError(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.FirstName, &user.LastName, &user.Role,
		&user.IsEmailVerified, &user.VerificationToken, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
