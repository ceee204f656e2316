package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
)

// SendMessageRequest is one user turn. SessionID is optional; a missing or
// unknown id starts a new session.
type SendMessageRequest struct {
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Message   string     `json:"message" validate:"required,min=1,max=1000"`
}

// SuggestedAction is a UI affordance attached to an assistant reply.
type SuggestedAction struct {
	Action string `json:"action"`
	Label  string `json:"label"`
}

// ChatResponse is the routed assistant reply for one user turn.
type ChatResponse struct {
	SessionID        uuid.UUID         `json:"session_id"`
	Response         string            `json:"response"`
	Agent            enums.AgentType   `json:"agent_type"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
	NextSteps        []string          `json:"next_steps,omitempty"`
}

// MessageDTO is one persisted chat turn.
type MessageDTO struct {
	ID        uuid.UUID        `json:"id"`
	Role      enums.ChatRole   `json:"role"`
	Agent     *enums.AgentType `json:"agent,omitempty"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
}

// SessionDTO is the transport shape for a chat session.
type SessionDTO struct {
	ID        uuid.UUID               `json:"id"`
	Status    enums.ChatSessionStatus `json:"status"`
	Messages  []MessageDTO            `json:"messages,omitempty"`
	EndedAt   *time.Time              `json:"ended_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

func messageFromModel(m *models.ChatMessage) MessageDTO {
	return MessageDTO{
		ID:        m.ID,
		Role:      m.Role,
		Agent:     m.Agent,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func sessionFromModel(s *models.ChatSession) *SessionDTO {
	if s == nil {
		return nil
	}
	messages := make([]MessageDTO, 0, len(s.Messages))
	for i := range s.Messages {
		messages = append(messages, messageFromModel(&s.Messages[i]))
	}
	return &SessionDTO{
		ID:        s.ID,
		Status:    s.Status,
		Messages:  messages,
		EndedAt:   s.EndedAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
