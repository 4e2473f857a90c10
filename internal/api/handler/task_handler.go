package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"taskmanager/internal/api/middleware"
	"taskmanager/internal/app/service"
	"taskmanager/internal/common"
	"taskmanager/internal/common/security"
	"taskmanager/internal/domain/model"
)

type TaskHandler struct {
	taskService *service.TaskService
	tokens      *security.TokenIssuer
	logger      *zap.Logger
}

func NewTaskHandler(taskService *service.TaskService, tokens *security.TokenIssuer, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{taskService: taskService, tokens: tokens, logger: logger}
}

func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticate(h.tokens, security.AccessToken))

	r.Get("/", h.listTasks)
	r.Get("/{taskID}", h.getTask)
	r.Get("/{taskID}/subtasks", h.listSubtasks)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Post("/", h.createTask)
		admin.Put("/{taskID}", h.updateTask)
		admin.Delete("/{taskID}", h.deleteTask)
	})
}

type requester struct {
	id   string
	role model.Role
}

func requesterFrom(w http.ResponseWriter, r *http.Request) (requester, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return requester{}, false
	}
	role, _ := middleware.GetUserRoleFromContext(r.Context())
	return requester{id: userID, role: role}, true
}

func (h *TaskHandler) createTask(w http.ResponseWriter, r *http.Request) {
	who, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req service.CreateTaskRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), who.id, req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	who, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.FindAll(r.Context(), who.id, who.role)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) getTask(w http.ResponseWriter, r *http.Request) {
	who, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.FindOne(r.Context(), chi.URLParam(r, "taskID"), who.id, who.role)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) listSubtasks(w http.ResponseWriter, r *http.Request) {
	who, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.FindSubtasks(r.Context(), chi.URLParam(r, "taskID"), who.id, who.role)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	who, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req service.UpdateTaskRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), chi.URLParam(r, "taskID"), who.id, who.role, req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	who, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Remove(r.Context(), chi.URLParam(r, "taskID"), who.id, who.role); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "task deleted"})
}
