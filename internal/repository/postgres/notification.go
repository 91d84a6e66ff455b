package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationInsert = `INSERT INTO notifications (id, type, priority, title, message, is_read, rental_id, dedup_key, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (r *notificationRepository) insert(ctx context.Context, n *domain.Notification, suffix string) (int64, error) {
	logger.EnterMethod("notificationRepository.Create", "notificationID", n.ID, "title", n.Title)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return 0, err
	}

	logger.DatabaseCall("INSERT", "notifications", "notificationID", n.ID, "dedupKey", n.DedupKey)
	res, err := r.db.ExecContext(ctx, notificationInsert+suffix, n.ID, n.Type, n.Priority, n.Title, n.Message, n.Read,
		nullString(n.RentalID), nullString(n.DedupKey), attrs, n.CreatedAt)
	affected := rowsAffected(res)
	logger.DatabaseResult("INSERT", affected, err, "notificationID", n.ID)

	if err != nil {
		err = translate(err, "notification", n.ID)
		logger.ExitMethodWithError("notificationRepository.Create", err, "notificationID", n.ID)
		return 0, err
	}
	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID, "inserted", affected)
	return affected, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.insert(ctx, n, "")
	return err
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	affected, err := r.insert(ctx, n, ` ON CONFLICT (dedup_key) WHERE dedup_key IS NOT NULL DO NOTHING`)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *notificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, int, error) {
	where := ""
	if filter.UnreadOnly {
		where = " WHERE NOT is_read"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications`+where).Scan(&total); err != nil {
		return nil, 0, translate(err, "notifications", "")
	}

	var limit any
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	query := `SELECT id, type, priority, title, message, is_read, COALESCE(rental_id::text, ''), COALESCE(dedup_key, ''), attributes, created_at
	          FROM notifications` + where + ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, filter.Offset)
	if err != nil {
		return nil, 0, translate(err, "notifications", "")
	}
	defer rows.Close()

	notes := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.Type, &n.Priority, &n.Title, &n.Message, &n.Read, &n.RentalID, &n.DedupKey, &attrs, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	return notes, total, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return translate(err, "notification", id)
	}
	return requireRow(res, "notification", id)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE NOT is_read`)
	if err != nil {
		return 0, translate(err, "notifications", "")
	}
	return res.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return translate(err, "notification", id)
	}
	return requireRow(res, "notification", id)
}
