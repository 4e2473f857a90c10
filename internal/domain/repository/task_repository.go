package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskmanager/internal/common"
	"taskmanager/internal/domain/model"
)

// TaskFilter narrows List with equality filters; nil fields are ignored.
type TaskFilter struct {
	UserID   *string
	ParentID *string
}

// TaskPatch holds the mutable task fields; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
	UserID      *string
	UpdatedAt   time.Time
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id string, patch TaskPatch) (*model.Task, error)
	// Delete removes the row if present; deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

var taskColumns = []string{
	"id", "title", "description", "status", "user_id", "parent_id", "created_at", "updated_at",
}

type pgTaskRepository struct {
	db *sql.DB
}

func NewPgTaskRepository(db *sql.DB) TaskRepository {
	return &pgTaskRepository{db: db}
}

func (r *pgTaskRepository) Create(ctx context.Context, t *model.Task) error {
	query, args, err := psql.Insert("tasks").
		Columns(taskColumns...).
		Values(t.ID, t.Title, t.Description, t.Status, t.UserID, t.ParentID, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Create: build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return translatePgError("pgTaskRepository.Create", err)
	}
	return nil
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	query, args, err := psql.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgTaskRepository.FindByID: build query: %w", err)
	}
	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, translatePgError("pgTaskRepository.FindByID", err)
	}
	return task, nil
}

func (r *pgTaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	where := sq.Eq{}
	if filter.UserID != nil {
		where["user_id"] = *filter.UserID
	}
	if filter.ParentID != nil {
		where["parent_id"] = *filter.ParentID
	}

	builder := psql.Select(taskColumns...).From("tasks")
	if len(where) > 0 {
		builder = builder.Where(where)
	}
	query, args, err := builder.OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgTaskRepository.List: build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translatePgError("pgTaskRepository.List", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("pgTaskRepository.List: scan: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError("pgTaskRepository.List", err)
	}
	return tasks, nil
}

func (r *pgTaskRepository) Update(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	builder := psql.Update("tasks")
	if patch.Title != nil {
		builder = builder.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		builder = builder.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.UserID != nil {
		builder = builder.Set("user_id", *patch.UserID)
	}
	query, args, err := builder.
		Set("updated_at", patch.UpdatedAt).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, title, description, status, user_id, parent_id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgTaskRepository.Update: build query: %w", err)
	}

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, translatePgError("pgTaskRepository.Update", err)
	}
	return task, nil
}

func (r *pgTaskRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Delete: build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return translatePgError("pgTaskRepository.Delete", err)
	}
	return nil
}

func scanTask(row rowScanner) (*model.Task, error) {
	task := &model.Task{}
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.UserID, &task.ParentID,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
