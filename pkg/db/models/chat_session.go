package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
)

// ChatSession groups a user's conversation with the agent router.
type ChatSession struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Status    enums.ChatSessionStatus `gorm:"column:status;type:chat_session_status;not null;default:'active'"`
	Messages  []ChatMessage           `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	EndedAt   *time.Time              `gorm:"column:ended_at"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
