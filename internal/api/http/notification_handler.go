package http

import (
	"net/http"
	"strconv"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/service"
)

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if v := r.URL.Query().Get("unreadOnly"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "unreadOnly", "unreadOnly must be a boolean")
			return
		}
		unreadOnly = b
	}
	page, err := optionalInt(r, "page")
	if err != nil {
		respondError(w, err)
		return
	}
	pageSize, err := optionalInt(r, "pageSize")
	if err != nil {
		respondError(w, err)
		return
	}

	notes, total, err := h.noteSvc.GetNotifications(r.Context(), unreadOnly, page, pageSize)
	if err != nil {
		respondError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	respondOK(w, PageDTO{Items: notes, Total: total, Page: max(page, 1), PageSize: effectivePageSize(pageSize)})
}

func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.noteSvc.MarkAsRead(r.Context(), pathID(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, "notification marked as read")
}

func (h *NotificationHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.noteSvc.MarkAllRead(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]int64{"updated": n})
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.noteSvc.Delete(r.Context(), pathID(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, "notification deleted")
}

func (h *NotificationHandler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.noteSvc.Settings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, settings)
}

// UpdateNotificationSettings accepts a partial body; omitted switches keep
// their stored value.
func (h *NotificationHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var req service.NotificationSettingsInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	settings, err := h.noteSvc.UpdateSettings(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, settings)
}
