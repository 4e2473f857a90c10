package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskmanager/internal/common"
	"taskmanager/internal/domain/model"
	"taskmanager/internal/domain/repository"
)

type TaskService struct {
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{taskRepo: taskRepo, logger: logger, now: time.Now}
}

var statusRule = validation.In(
	model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusCompleted,
).Error("must be one of pending, in_progress, completed")

type CreateTaskRequest struct {
	Title       string            `json:"title"`
	Description *string           `json:"description,omitempty"`
	Status      *model.TaskStatus `json:"status,omitempty"`
	UserID      *string           `json:"userId,omitempty"` // owner; defaults to the creator
	ParentID    *string           `json:"parentId,omitempty"`
}

func (r CreateTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.By(notBlank), validation.Length(1, 255)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, statusRule),
		validation.Field(&r.UserID, validation.NilOrNotEmpty, is.UUID),
		validation.Field(&r.ParentID, validation.NilOrNotEmpty, is.UUID),
	)
}

type UpdateTaskRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Status      *model.TaskStatus `json:"status,omitempty"`
	UserID      *string           `json:"userId,omitempty"`
}

func (r UpdateTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.By(notBlank), validation.Length(1, 255)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, statusRule),
		validation.Field(&r.UserID, validation.NilOrNotEmpty, is.UUID),
	)
}

func notBlank(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func isAdmin(role model.Role) bool {
	return role == model.RoleAdmin
}

// Create inserts a task owned by req.UserID, or by ownerID when the request names no owner.
func (s *TaskService) Create(ctx context.Context, ownerID string, req CreateTaskRequest) (*model.Task, error) {
	status := model.TaskStatusPending
	if req.Status != nil {
		status = *req.Status
	}
	owner := ownerID
	if req.UserID != nil {
		owner = *req.UserID
	}

	if req.ParentID != nil {
		if _, err := s.taskRepo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("parent task not found: %w", common.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to load parent task: %w", err)
		}
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	task := &model.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      status,
		UserID:      owner,
		ParentID:    req.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("owner or parent task not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("owner_id", task.UserID),
		zap.String("created_by", ownerID),
	)
	return task, nil
}

// FindAll returns every task for admins and only the requester's own tasks otherwise.
func (s *TaskService) FindAll(ctx context.Context, requesterID string, role model.Role) ([]model.Task, error) {
	var filter repository.TaskFilter
	if !isAdmin(role) {
		filter.UserID = &requesterID
	}
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) FindOne(ctx context.Context, id, requesterID string, role model.Role) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if !isAdmin(role) && !task.OwnedBy(requesterID) {
		return nil, fmt.Errorf("you do not have access to this task: %w", common.ErrForbidden)
	}
	return task, nil
}

// FindSubtasks applies FindOne's access check to the parent, then lists its children
// (only the requester's own children unless admin).
func (s *TaskService) FindSubtasks(ctx context.Context, parentID, requesterID string, role model.Role) ([]model.Task, error) {
	if _, err := s.FindOne(ctx, parentID, requesterID, role); err != nil {
		return nil, err
	}

	filter := repository.TaskFilter{ParentID: &parentID}
	if !isAdmin(role) {
		filter.UserID = &requesterID
	}
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	return tasks, nil
}

// Update applies the fields present in req and bumps updatedAt.
func (s *TaskService) Update(ctx context.Context, id, requesterID string, role model.Role, req UpdateTaskRequest) (*model.Task, error) {
	current, err := s.FindOne(ctx, id, requesterID, role)
	if err != nil {
		return nil, err
	}

	patch := repository.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		UserID:      req.UserID,
		UpdatedAt:   s.nextUpdatedAt(current.UpdatedAt),
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}

	task, err := s.taskRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// Remove deletes the task. Removing an id that does not exist succeeds.
func (s *TaskService) Remove(ctx context.Context, id, requesterID string, role model.Role) error {
	if _, err := s.FindOne(ctx, id, requesterID, role); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.logger.Info("task deleted", zap.String("task_id", id), zap.String("deleted_by", requesterID))
	return nil
}

// nextUpdatedAt keeps updatedAt strictly increasing even when the clock has not advanced
// past the previous write.
func (s *TaskService) nextUpdatedAt(previous time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(previous) {
		now = previous.Add(time.Microsecond)
	}
	return now
}
