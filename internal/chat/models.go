package chat

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message of the conversation. Timestamp is in Unix milliseconds,
// which is also the persisted representation.
type Turn struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

func NewTurn(role Role, content string, at time.Time) Turn {
	return Turn{Role: role, Content: content, Timestamp: at.UnixMilli()}
}

func (t Turn) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// Valid reports whether the turn is fit to be recorded.
func (t Turn) Valid() bool {
	return t.Role.Valid() && strings.TrimSpace(t.Content) != "" && t.Timestamp >= 0
}
