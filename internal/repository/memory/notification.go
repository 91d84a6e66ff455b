package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
)

type notificationRepository struct {
	mu      sync.RWMutex
	notes   map[string]domain.Notification
	byDedup map[string]string
}

func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{
		notes:   make(map[string]domain.Notification),
		byDedup: make(map[string]string),
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	created, err := r.CreateIfAbsent(ctx, n)
	if err != nil {
		return err
	}
	if !created {
		return domain.NewValidationError("dedup_key", "notification %q already exists", n.DedupKey)
	}
	return nil
}

func (r *notificationRepository) CreateIfAbsent(_ context.Context, n *domain.Notification) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notes[n.ID]; exists {
		return false, fmt.Errorf("notification %s already exists", n.ID)
	}
	if n.DedupKey != "" {
		if _, seen := r.byDedup[n.DedupKey]; seen {
			return false, nil
		}
		r.byDedup[n.DedupKey] = n.ID
	}
	r.notes[n.ID] = *n
	return true, nil
}

func (r *notificationRepository) List(_ context.Context, filter repository.NotificationFilter) ([]domain.Notification, int, error) {
	r.mu.RLock()
	out := make([]domain.Notification, 0, len(r.notes))
	for _, n := range r.notes {
		if filter.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	total := len(out)
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return []domain.Notification{}, total, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (r *notificationRepository) MarkAsRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok {
		return domain.NewNotFoundError("notification", id)
	}
	n.Read = true
	r.notes[id] = n
	return nil
}

func (r *notificationRepository) MarkAllRead(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed int64
	for id, n := range r.notes {
		if !n.Read {
			n.Read = true
			r.notes[id] = n
			changed++
		}
	}
	return changed, nil
}

func (r *notificationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok {
		return domain.NewNotFoundError("notification", id)
	}
	if n.DedupKey != "" {
		delete(r.byDedup, n.DedupKey)
	}
	delete(r.notes, id)
	return nil
}
