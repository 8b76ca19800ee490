package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/pkg/httpx"
)

// DevHandler covers the task board and daily log surface under /api/dev.
type DevHandler struct {
	Tasks *service.TaskService
	Logs  *service.DailyLogService
}

// HandleSummary handles GET /api/dev/summary.
func (h *DevHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Tasks.Summary(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sum)
}

// HandleListTasks handles GET /api/dev/tasks.
func (h *DevHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tasks": toTaskResponses(tasks)})
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
}

// HandleCreateTask handles POST /api/dev/tasks.
func (h *DevHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	in := service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.Deadline != nil {
		in.Deadline = *req.Deadline
	}

	t, err := h.Tasks.Create(r.Context(), httpx.UserIDFromContext(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"task": toTaskResponse(t)})
}

// HandleGetTask handles GET /api/dev/tasks/{id}.
func (h *DevHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Get(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"task": toTaskResponse(t)})
}

type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// HandleUpdateTask handles PUT /api/dev/tasks/{id}.
func (h *DevHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	t, err := h.Tasks.Update(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"), service.TaskUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"task": toTaskResponse(t)})
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateTaskStatus handles PUT /api/dev/tasks/{id}/status. The
// transition is recorded as a task log under the caller's name.
func (h *DevHandler) HandleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req taskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	t, err := h.Tasks.UpdateStatus(r.Context(),
		httpx.UserIDFromContext(r.Context()), r.PathValue("id"), req.Status, callerName(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"task": toTaskResponse(t)})
}

// HandleDeleteTask handles DELETE /api/dev/tasks/{id}.
func (h *DevHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Tasks.Delete(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListTaskLogs handles GET /api/dev/tasks/{id}/logs.
func (h *DevHandler) HandleListTaskLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Tasks.ListLogs(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"logs": toTaskLogResponses(logs)})
}

type taskLogRequest struct {
	Text string `json:"text"`
}

// HandleAddTaskLog handles POST /api/dev/tasks/{id}/logs.
func (h *DevHandler) HandleAddTaskLog(w http.ResponseWriter, r *http.Request) {
	var req taskLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	l, err := h.Tasks.AddLog(r.Context(),
		httpx.UserIDFromContext(r.Context()), r.PathValue("id"), callerName(r), req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"log": taskLogResponse{ID: l.ID, TaskID: l.TaskID, Author: l.Author, Text: l.Text, CreatedAt: l.CreatedAt},
	})
}

// HandleDeleteTaskLog handles DELETE /api/dev/tasks/{id}/logs/{logId}.
func (h *DevHandler) HandleDeleteTaskLog(w http.ResponseWriter, r *http.Request) {
	err := h.Tasks.DeleteLog(r.Context(),
		httpx.UserIDFromContext(r.Context()), r.PathValue("id"), r.PathValue("logId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListDailyLogs handles GET /api/dev/daily-logs.
func (h *DevHandler) HandleListDailyLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Logs.List(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"daily_logs": toDailyLogResponses(logs)})
}

type dailyLogRequest struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// HandleCreateDailyLog handles POST /api/dev/daily-logs.
func (h *DevHandler) HandleCreateDailyLog(w http.ResponseWriter, r *http.Request) {
	var req dailyLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	l, err := h.Logs.Create(r.Context(), httpx.UserIDFromContext(r.Context()), service.DailyLogInput{
		Date:    req.Date,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"daily_log": toDailyLogResponse(l)})
}

type dailyLogUpdateRequest struct {
	Date    *string `json:"date"`
	Content *string `json:"content"`
}

// HandleUpdateDailyLog handles PUT /api/dev/daily-logs/{id}.
func (h *DevHandler) HandleUpdateDailyLog(w http.ResponseWriter, r *http.Request) {
	var req dailyLogUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	l, err := h.Logs.Update(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"), service.DailyLogUpdateInput{
		Date:    req.Date,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"daily_log": toDailyLogResponse(l)})
}

// HandleDeleteDailyLog handles DELETE /api/dev/daily-logs/{id}.
func (h *DevHandler) HandleDeleteDailyLog(w http.ResponseWriter, r *http.Request) {
	if err := h.Logs.Delete(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerName identifies the caller in task logs. The token does not
// carry a display name, so the email stands in.
func callerName(r *http.Request) string {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return "unknown"
	}
	return claims.Email
}
