package notification

import "time"

// CreateNotificationRequest represents the request body for creating a notification
type CreateNotificationRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Type        Type     `json:"type" validate:"required"`
	Link        string   `json:"link,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// NotificationResponse represents the response for a single notification
type NotificationResponse struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        Type     `json:"type"`
	Read        bool     `json:"read"`
	Link        string   `json:"link"`
	Metadata    Metadata `json:"metadata"`
	CreatedAt   string   `json:"createdAt"`
}

// ToResponse converts a Notification model to a NotificationResponse DTO
func (n *Notification) ToResponse() *NotificationResponse {
	return &NotificationResponse{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Description: n.Description,
		Type:        n.Type,
		Read:        n.Read,
		Link:        n.Link,
		Metadata:    n.Metadata,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}
}

// ListResponse represents one page of notifications. NextPage is null on
// the last page.
type ListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	HasMore       bool                    `json:"hasMore"`
	NextPage      *int                    `json:"nextPage"`
}

// UnreadCountResponse represents the unread badge count
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse reports how many notifications were marked as read
type MarkAllReadResponse struct {
	MatchedCount int64 `json:"matchedCount"`
}

// ClearAllResponse reports how many notifications were deleted
type ClearAllResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
