package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotificationNotFound covers both a missing record and a record owned by
// another user, so callers cannot probe for the existence of foreign
// notifications.
var ErrNotificationNotFound = errors.New("notification not found")

// ValidationError reports a missing or invalid input field. Handlers map it
// to a 400 response; everything else coming out of the service is a storage
// failure and maps to a 500.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Store is the persistence interface the service operates on. Implemented
// by Repository.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID string, q ListQuery) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) (*Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Publisher delivers a freshly created notification to any live streams of
// the user. Implemented by Hub.
type Publisher interface {
	Publish(userID string, n *Notification)
}

// NotificationList is one page of a user's notifications. NextPage is nil
// on the last page.
type NotificationList struct {
	Notifications []*Notification
	Total         int
	HasMore       bool
	NextPage      *int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service handles notification business logic. It is the sole writer and
// reader of notification records and the sole publisher to the hub.
type Service struct {
	store  Store
	hub    Publisher
	logger *zap.Logger
}

// NewService creates a new notification service with dependencies injected
func NewService(store Store, hub Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		hub:    hub,
		logger: logger,
	}
}

// Create validates the request, persists a new unread notification and
// pushes it to the user's live streams. The push is best-effort: nothing
// about it can fail the create.
func (s *Service) Create(ctx context.Context, userID string, req *CreateNotificationRequest) (*Notification, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Message: "user id is required"}
	}
	if req.Title == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if req.Description == "" {
		return nil, &ValidationError{Field: "description", Message: "description is required"}
	}
	if req.Type == "" {
		return nil, &ValidationError{Field: "type", Message: "type is required"}
	}
	if !req.Type.Valid() {
		return nil, &ValidationError{Field: "type", Message: "unknown notification type: " + string(req.Type)}
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}

	n := &Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Read:        false,
		Link:        req.Link,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, n); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Publish(userID, n)
	}

	s.logger.Debug("notification created",
		zap.String("notification_id", n.ID),
		zap.String("user_id", userID),
		zap.String("type", string(n.Type)),
	)

	return n, nil
}

// List returns one zero-based page of the user's notifications, newest
// first. Negative pages are clamped to 0 and non-positive limits fall back
// to the default page size.
func (s *Service) List(ctx context.Context, userID string, page, limit int, filter, search string) (*NotificationList, error) {
	if page < 0 {
		page = 0
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	offset := page * limit
	notifications, total, err := s.store.List(ctx, userID, ListQuery{
		Offset: offset,
		Limit:  limit,
		Filter: filter,
		Search: search,
	})
	if err != nil {
		return nil, err
	}

	list := &NotificationList{
		Notifications: notifications,
		Total:         total,
		HasMore:       offset+len(notifications) < total,
	}
	if list.HasMore {
		next := page + 1
		list.NextPage = &next
	}
	return list, nil
}

// MarkAsRead marks the user's notification as read and returns the updated
// record. Idempotent: marking an already-read notification succeeds.
func (s *Service) MarkAsRead(ctx context.Context, id, userID string) (*Notification, error) {
	n, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

// MarkAllAsRead marks every unread notification of the user as read and
// returns the number of records it changed.
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// Delete permanently removes the user's notification.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	deleted, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotificationNotFound
	}
	return nil
}

// ClearAll permanently removes every notification of the user and returns
// the number of deleted records.
func (s *Service) ClearAll(ctx context.Context, userID string) (int64, error) {
	return s.store.DeleteAll(ctx, userID)
}

// UnreadCount returns the count of unread notifications for the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

// Helper methods for the domain events that produce notifications.

// NotifyTaskAssigned notifies a user that a task was assigned to them.
func (s *Service) NotifyTaskAssigned(ctx context.Context, userID, taskTitle, taskID string) (*Notification, error) {
	return s.Create(ctx, userID, &CreateNotificationRequest{
		Title:       "New task assigned",
		Description: "You have been assigned the task: " + taskTitle,
		Type:        TypeTask,
		Link:        "/tasks/" + taskID,
		Metadata:    Metadata{"taskId": taskID},
	})
}

// NotifyMention notifies a user that someone mentioned them on a task.
func (s *Service) NotifyMention(ctx context.Context, userID, mentionedBy, taskID string) (*Notification, error) {
	return s.Create(ctx, userID, &CreateNotificationRequest{
		Title:       "You were mentioned",
		Description: mentionedBy + " mentioned you in a task",
		Type:        TypeMention,
		Link:        "/tasks/" + taskID,
		Metadata:    Metadata{"taskId": taskID, "mentionedBy": mentionedBy},
	})
}

// NotifyTeamMemberJoined notifies a user that someone joined their organization.
func (s *Service) NotifyTeamMemberJoined(ctx context.Context, userID, memberName, orgName string) (*Notification, error) {
	return s.Create(ctx, userID, &CreateNotificationRequest{
		Title:       "New team member",
		Description: memberName + " joined " + orgName,
		Type:        TypeTeam,
		Link:        "/team",
		Metadata:    Metadata{"organizationName": orgName},
	})
}

// NotifyOnboardingCompleted welcomes a user who finished onboarding.
func (s *Service) NotifyOnboardingCompleted(ctx context.Context, userID string) (*Notification, error) {
	return s.Create(ctx, userID, &CreateNotificationRequest{
		Title:       "Welcome aboard",
		Description: "Your workspace is ready. Create your first project to get started.",
		Type:        TypeOnboarding,
		Link:        "/projects",
	})
}
