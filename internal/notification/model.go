package notification

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Type classifies a notification. Only these values are persisted; clients
// may synthesize additional local-only types, but the server rejects them.
type Type string

const (
	TypeMention    Type = "mention"
	TypeTask       Type = "task"
	TypeTeam       Type = "team"
	TypeSystem     Type = "system"
	TypeOnboarding Type = "onboarding"
)

// Valid reports whether t is one of the persisted notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeMention, TypeTask, TypeTeam, TypeSystem, TypeOnboarding:
		return true
	}
	return false
}

// Metadata is an open key/value bag attached to a notification, stored as a
// single JSONB column.
type Metadata map[string]any

// Value implements driver.Valuer so Metadata can be written as JSONB.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for reading the JSONB column back.
func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata source type %T", src)
	}
	return json.Unmarshal(data, m)
}

// Notification represents one user-facing alert record.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        Type      `json:"type"`
	Read        bool      `json:"read"`
	Link        string    `json:"link"`
	Metadata    Metadata  `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}
