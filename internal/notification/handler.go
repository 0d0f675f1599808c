package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskmantra/taskmantra/pkg/middleware"
	"github.com/taskmantra/taskmantra/pkg/response"
)

// heartbeatInterval is how often an SSE comment is written to keep idle
// stream connections from being reaped by proxies.
const heartbeatInterval = 25 * time.Second

// Handler handles HTTP requests for notification operations
type Handler struct {
	service *Service
	hub     *Hub
}

// NewHandler creates a new notification handler with dependencies injected
func NewHandler(service *Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/unread-count", h.GetUnreadCount)
	r.Get("/stream", h.Stream)
	r.Patch("/mark-all-read", h.MarkAllAsRead)
	r.Patch("/{id}/read", h.MarkAsRead)
	r.Delete("/clear-all", h.ClearAll)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /notifications
// @Summary      Create a notification
// @Description  Create a notification for the authenticated user and push it to their open streams
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body CreateNotificationRequest true "Notification creation request"
// @Success      201 {object} response.APIResponse{data=NotificationResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /notifications [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	n, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, verr.Error())
			return
		}
		response.InternalError(w, "Failed to create notification")
		return
	}

	response.JSON(w, http.StatusCreated, n.ToResponse())
}

// List handles GET /notifications
// @Summary      List notifications
// @Description  Get a page of the authenticated user's notifications, newest first
// @Tags         notifications
// @Produce      json
// @Param        page query int false "Zero-based page number" default(0)
// @Param        limit query int false "Items per page" default(20)
// @Param        filter query string false "Read-state filter" Enums(unread, read)
// @Param        search query string false "Substring search over title and description"
// @Success      200 {object} response.APIResponse{data=ListResponse}
// @Router       /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filter := r.URL.Query().Get("filter")
	search := r.URL.Query().Get("search")

	if page < 0 {
		page = 0
	}
	if limit < 1 {
		limit = defaultPageSize
	}

	list, err := h.service.List(r.Context(), userID, page, limit, filter, search)
	if err != nil {
		response.InternalError(w, "Failed to list notifications")
		return
	}

	notificationResponses := make([]*NotificationResponse, len(list.Notifications))
	for i, n := range list.Notifications {
		notificationResponses[i] = n.ToResponse()
	}

	meta := &response.Meta{
		Page:    page,
		PerPage: limit,
		Total:   list.Total,
	}

	response.JSONWithMeta(w, http.StatusOK, &ListResponse{
		Notifications: notificationResponses,
		HasMore:       list.HasMore,
		NextPage:      list.NextPage,
	}, meta)
}

// GetUnreadCount handles GET /notifications/unread-count
// @Summary      Get unread count
// @Description  Count of the authenticated user's unread notifications, for badge display
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse{data=UnreadCountResponse}
// @Router       /notifications/unread-count [get]
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to get unread count")
		return
	}

	response.JSON(w, http.StatusOK, &UnreadCountResponse{Count: count})
}

// MarkAsRead handles PATCH /notifications/{id}/read
// @Summary      Mark a notification as read
// @Description  Mark one of the authenticated user's notifications as read; idempotent
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID"
// @Success      200 {object} response.APIResponse{data=NotificationResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /notifications/{id}/read [patch]
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	n, err := h.service.MarkAsRead(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to mark notification as read")
		return
	}

	response.JSON(w, http.StatusOK, n.ToResponse())
}

// MarkAllAsRead handles PATCH /notifications/mark-all-read
// @Summary      Mark all notifications as read
// @Description  Mark every unread notification of the authenticated user as read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse{data=MarkAllReadResponse}
// @Router       /notifications/mark-all-read [patch]
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	matched, err := h.service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to mark all notifications as read")
		return
	}

	response.JSON(w, http.StatusOK, &MarkAllReadResponse{MatchedCount: matched})
}

// Delete handles DELETE /notifications/{id}
// @Summary      Delete a notification
// @Description  Permanently delete one of the authenticated user's notifications
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /notifications/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to delete notification")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

// ClearAll handles DELETE /notifications/clear-all
// @Summary      Clear all notifications
// @Description  Permanently delete every notification of the authenticated user
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse{data=ClearAllResponse}
// @Router       /notifications/clear-all [delete]
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	deleted, err := h.service.ClearAll(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to clear notifications")
		return
	}

	response.JSON(w, http.StatusOK, &ClearAllResponse{DeletedCount: deleted})
}

// Stream handles GET /notifications/stream
// @Summary      Stream notifications
// @Description  Server-sent event stream; pushes one event per notification created for the authenticated user after the stream opened
// @Tags         notifications
// @Produce      text/event-stream
// @Success      200 {string} string "SSE stream"
// @Router       /notifications/stream [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "Streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(userID, ch)

	// Flush an opening comment so the client sees the stream as established
	// before any notification arrives.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(n.ToResponse())
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, payload)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
