package enums

import "fmt"

// ChatSessionStatus tracks whether a conversation is still open.
type ChatSessionStatus string

const (
	ChatSessionStatusActive ChatSessionStatus = "active"
	ChatSessionStatusEnded  ChatSessionStatus = "ended"
)

var validChatSessionStatuses = []ChatSessionStatus{
	ChatSessionStatusActive,
	ChatSessionStatusEnded,
}

// IsValid reports whether the value is a known ChatSessionStatus.
func (c ChatSessionStatus) IsValid() bool {
	for _, candidate := range validChatSessionStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChatSessionStatus converts raw input into a ChatSessionStatus.
func ParseChatSessionStatus(value string) (ChatSessionStatus, error) {
	for _, candidate := range validChatSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid chat session status %q", value)
}
