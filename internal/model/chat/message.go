package chat

import "time"

// Role 标识消息的发送方。
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one immutable turn fragment in the conversation log.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsCrisis  bool      `json:"isCrisis,omitempty"`
}
