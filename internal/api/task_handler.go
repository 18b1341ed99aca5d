package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskwatch/internal/api/shared"
	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/platform/logger"
	"github.com/phrazzld/taskwatch/internal/task"
)

// TaskController is the part of the Coordinator the handlers drive.
type TaskController interface {
	Start(ctx context.Context, taskID, lectureID string) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	Polling() bool
}

// DescriptorReader reads the tracked descriptor.
type DescriptorReader interface {
	Get() task.Descriptor
}

// NotificationFeed lists recent notifications, newest first.
type NotificationFeed interface {
	List() []events.Notification
}

// TaskHandler serves the /api/task and /api/notifications routes.
type TaskHandler struct {
	controller TaskController
	state      DescriptorReader
	feed       NotificationFeed
	logger     *slog.Logger
}

// NewTaskHandler creates a TaskHandler. feed may be nil when the
// notification feed is disabled.
func NewTaskHandler(
	controller TaskController,
	state DescriptorReader,
	feed NotificationFeed,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		controller: controller,
		state:      state,
		feed:       feed,
		logger:     logger.With("component", "task_handler"),
	}
}

// GetTask handles GET /api/task.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.currentTask())
}

// StartTask handles POST /api/task.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req StartTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if err := h.controller.Start(r.Context(), req.TaskID, req.LectureID); err != nil {
		HandleAPIError(w, r, err, "Failed to start tracking")
		return
	}

	log.Info("task tracking requested",
		"task_id", req.TaskID,
		"lecture_id", req.LectureID)
	shared.RespondWithJSON(w, r, http.StatusAccepted, h.currentTask())
}

// StopTask handles POST /api/task/stop.
func (h *TaskHandler) StopTask(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Stop(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to stop tracking")
		return
	}
	logger.FromContext(r.Context()).Info("task tracking stopped")
	shared.RespondWithJSON(w, r, http.StatusOK, h.currentTask())
}

// ResetTask handles DELETE /api/task.
func (h *TaskHandler) ResetTask(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Reset(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to reset tracking")
		return
	}
	logger.FromContext(r.Context()).Info("task tracking reset")
	w.WriteHeader(http.StatusNoContent)
}

// ListNotifications handles GET /api/notifications.
func (h *TaskHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	var list []events.Notification
	if h.feed != nil {
		list = h.feed.List()
	}
	shared.RespondWithJSON(w, r, http.StatusOK, notificationsToResponse(list))
}

func (h *TaskHandler) currentTask() TaskResponse {
	return descriptorToResponse(h.state.Get(), h.controller.Polling())
}
