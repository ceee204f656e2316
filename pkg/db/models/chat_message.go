package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
)

// ChatMessage is one turn in a chat session. Agent is set only on
// assistant turns, recording which specialist produced the reply.
type ChatMessage struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID        `gorm:"column:session_id;type:uuid;not null;index"`
	Role      enums.ChatRole   `gorm:"column:role;type:chat_role;not null"`
	Agent     *enums.AgentType `gorm:"column:agent;type:agent_type"`
	Content   string           `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}
