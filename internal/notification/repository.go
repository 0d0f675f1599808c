package notification

import (
	"context"
	"database/sql"
	"fmt"
)

// Read-state filters accepted by List.
const (
	FilterUnread = "unread"
	FilterRead   = "read"
)

// ListQuery holds the windowing and filtering options for listing a user's
// notifications.
type ListQuery struct {
	Offset int
	Limit  int
	Filter string // FilterUnread, FilterRead, or "" for all
	Search string // case-insensitive substring over title and description
}

// Repository handles notification persistence in Postgres. Every statement
// is scoped by user_id so one user can never touch another's records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const notificationColumns = `id, user_id, title, description, type, link, metadata, is_read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*Notification, error) {
	n := &Notification{}
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Description,
		&n.Type,
		&n.Link,
		&n.Metadata,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Insert persists a fully-populated notification record.
func (r *Repository) Insert(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, description, type, link, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Title, n.Description, n.Type, n.Link, n.Metadata, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// List retrieves a window of the user's notifications, newest first, along
// with the total count matching the same filters.
func (r *Repository) List(ctx context.Context, userID string, q ListQuery) ([]*Notification, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{userID}

	switch q.Filter {
	case FilterUnread:
		where += ` AND is_read = FALSE`
	case FilterRead:
		where += ` AND is_read = TRUE`
	}

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM notifications` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkRead sets is_read on the user's notification and returns the updated
// record. Returns (nil, nil) when the record does not exist or belongs to a
// different user; the two cases are deliberately indistinguishable. Marking
// an already-read record is a no-op that still returns the record.
func (r *Repository) MarkRead(ctx context.Context, id, userID string) (*Notification, error) {
	query := `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many records changed.
func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count marked notifications: %w", err)
	}
	return matched, nil
}

// Delete removes the user's notification. Returns false when nothing was
// deleted (absent or foreign-owned).
func (r *Repository) Delete(ctx context.Context, id, userID string) (bool, error) {
	query := `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted notifications: %w", err)
	}
	return deleted > 0, nil
}

// DeleteAll removes every notification owned by the user and returns the
// number of deleted records. Deletion is permanent.
func (r *Repository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	query := `DELETE FROM notifications WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared notifications: %w", err)
	}
	return deleted, nil
}

// CountUnread returns the count of unread notifications for a user
func (r *Repository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
