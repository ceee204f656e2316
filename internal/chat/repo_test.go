package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
)

func setupChatTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sessions := `
CREATE TABLE IF NOT EXISTS chat_sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  ended_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	messages := `
CREATE TABLE IF NOT EXISTS chat_messages (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  role TEXT NOT NULL,
  agent TEXT,
  content TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(sessions).Error)
	require.NoError(t, db.Exec(messages).Error)
	return db
}

func seedSession(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.ChatSessionStatus, updatedAt time.Time) *models.ChatSession {
	t.Helper()

	session := &models.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    status,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	require.NoError(t, db.Create(session).Error)
	// gorm's autoUpdateTime overwrites UpdatedAt on create; pin it back.
	require.NoError(t, db.Model(&models.ChatSession{}).Where("id = ?", session.ID).
		Update("updated_at", updatedAt).Error)
	return session
}

func TestRepoSessionLifecycle(t *testing.T) {
	t.Parallel()

	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	created, err := repo.CreateSession(ctx, &models.ChatSession{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.ChatSessionStatusActive,
	})
	require.NoError(t, err)

	found, err := repo.FindSession(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, enums.ChatSessionStatusActive, found.Status)

	_, err = repo.FindSession(ctx, created.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	endedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.EndSession(ctx, created.ID, endedAt))

	found, err = repo.FindSession(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, enums.ChatSessionStatusEnded, found.Status)
	require.NotNil(t, found.EndedAt)
}

func TestRepoCountAndOldestActive(t *testing.T) {
	t.Parallel()

	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	oldest := seedSession(t, db, userID, enums.ChatSessionStatusActive, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	seedSession(t, db, userID, enums.ChatSessionStatusActive, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	seedSession(t, db, userID, enums.ChatSessionStatusEnded, time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC))
	seedSession(t, db, uuid.New(), enums.ChatSessionStatusActive, time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC))

	count, err := repo.CountActiveSessions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	got, err := repo.OldestActiveSession(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, got.ID)
}

func TestRepoRecentMessagesChronological(t *testing.T) {
	t.Parallel()

	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session := seedSession(t, db, uuid.New(), enums.ChatSessionStatusActive, time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC))
	base := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		msg := &models.ChatMessage{
			ID:        uuid.New(),
			SessionID: session.ID,
			Role:      enums.ChatRoleUser,
			Content:   fmt.Sprintf("turn %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(msg).Error)
	}

	recent, err := repo.RecentMessages(ctx, session.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Last three turns, oldest first.
	assert.Equal(t, "turn 2", recent[0].Content)
	assert.Equal(t, "turn 4", recent[2].Content)
}

func TestRepoFindSessionWithMessages(t *testing.T) {
	t.Parallel()

	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	session := seedSession(t, db, userID, enums.ChatSessionStatusActive, time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC))
	agent := enums.AgentTypeSupport
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.ChatMessage{
		ID: uuid.New(), SessionID: session.ID, Role: enums.ChatRoleAssistant, Agent: &agent,
		Content: "here is the size guide", CreatedAt: base.Add(time.Minute),
	}).Error)
	require.NoError(t, db.Create(&models.ChatMessage{
		ID: uuid.New(), SessionID: session.ID, Role: enums.ChatRoleUser,
		Content: "what size am I", CreatedAt: base,
	}).Error)

	found, err := repo.FindSessionWithMessages(ctx, session.ID, userID)
	require.NoError(t, err)
	require.Len(t, found.Messages, 2)
	assert.Equal(t, enums.ChatRoleUser, found.Messages[0].Role)
	require.NotNil(t, found.Messages[1].Agent)
	assert.Equal(t, enums.AgentTypeSupport, *found.Messages[1].Agent)
}

func TestRepoEndIdleSessions(t *testing.T) {
	t.Parallel()

	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	// Dated well before every other chat test's seeds: the shared in-memory
	// DB leaks rows across parallel tests and this update is not user-scoped.
	idle := seedSession(t, db, userID, enums.ChatSessionStatusActive, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	fresh := seedSession(t, db, userID, enums.ChatSessionStatusActive, time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC))

	ended, err := repo.EndIdleSessions(ctx, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), ended)

	got, err := repo.FindSession(ctx, idle.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, enums.ChatSessionStatusEnded, got.Status)
	require.NotNil(t, got.EndedAt)

	got, err = repo.FindSession(ctx, fresh.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, enums.ChatSessionStatusActive, got.Status)
}
