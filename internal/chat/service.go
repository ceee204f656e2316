package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/products"
	"github.com/anayakapoor/luxethreads-backend/internal/users"
	"github.com/anayakapoor/luxethreads-backend/pkg/config"
	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service routes shopping-assistant conversations: session lifecycle,
// message persistence and dispatch to the specialist agents.
type Service interface {
	SendMessage(ctx context.Context, userID uuid.UUID, req SendMessageRequest) (*ChatResponse, error)
	History(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionDTO, error)
	EndSession(ctx context.Context, userID, sessionID uuid.UUID) error
	EndIdleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	tx         txRunner
	repo       Repository
	userRepo   users.Repository
	classifier *Classifier
	agents     *agents
	cfg        config.ChatConfig
	now        func() time.Time
}

// NewService builds the chat service.
func NewService(
	tx txRunner,
	repo Repository,
	userRepo users.Repository,
	productRepo products.Repository,
	orderRepo orders.Repository,
	classifier *Classifier,
	cfg config.ChatConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("chat repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier required")
	}
	if cfg.MaxActiveSessions <= 0 {
		return nil, fmt.Errorf("max active sessions must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("history limit must be positive")
	}
	return &service{
		tx:         tx,
		repo:       repo,
		userRepo:   userRepo,
		classifier: classifier,
		agents:     &agents{products: productRepo, orders: orderRepo},
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) SendMessage(ctx context.Context, userID uuid.UUID, req SendMessageRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	session, err := s.resolveSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	// History is read before the new turn lands so the classifier does not
	// see the message twice.
	history, err := s.repo.RecentMessages(ctx, session.ID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load conversation history")
	}

	if err := s.repo.CreateMessage(ctx, &models.ChatMessage{
		SessionID: session.ID,
		Role:      enums.ChatRoleUser,
		Content:   message,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist user message")
	}

	// Classification and dispatch may call out to the model; neither holds
	// a DB transaction.
	classification := s.classifier.Classify(ctx, message, history)
	reply, err := s.agents.dispatch(ctx, classification.Agent, user, message)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "agent dispatch")
	}

	response := reply.Response
	if classification.Reply != "" {
		response = classification.Reply + "\n\n" + reply.Response
	}

	agent := classification.Agent
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateMessage(ctx, &models.ChatMessage{
			SessionID: session.ID,
			Role:      enums.ChatRoleAssistant,
			Agent:     &agent,
			Content:   response,
		}); err != nil {
			return err
		}
		return repo.Touch(ctx, session.ID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist assistant message")
	}

	return &ChatResponse{
		SessionID:        session.ID,
		Response:         response,
		Agent:            agent,
		SuggestedActions: reply.Actions,
		NextSteps:        reply.NextSteps,
	}, nil
}

// resolveSession returns the caller's active session, starting a fresh one
// when the id is absent, unknown, or already ended. New sessions are capped
// per user; hitting the cap ends the oldest active session first.
func (s *service) resolveSession(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) (*models.ChatSession, error) {
	if sessionID != nil {
		session, err := s.repo.FindSession(ctx, *sessionID, userID)
		if err == nil && session.Status == enums.ChatSessionStatusActive {
			return session, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load chat session")
		}
	}

	var created *models.ChatSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		active, err := repo.CountActiveSessions(ctx, userID)
		if err != nil {
			return err
		}
		if active >= int64(s.cfg.MaxActiveSessions) {
			oldest, err := repo.OldestActiveSession(ctx, userID)
			if err != nil {
				return err
			}
			if err := repo.EndSession(ctx, oldest.ID, s.now()); err != nil {
				return err
			}
		}

		created, err = repo.CreateSession(ctx, &models.ChatSession{
			UserID: userID,
			Status: enums.ChatSessionStatusActive,
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start chat session")
	}
	return created, nil
}

func (s *service) History(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.repo.FindSessionWithMessages(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load chat session")
	}
	return sessionFromModel(session), nil
}

func (s *service) ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionDTO, error) {
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list chat sessions")
	}
	dtos := make([]SessionDTO, 0, len(sessions))
	for i := range sessions {
		dtos = append(dtos, *sessionFromModel(&sessions[i]))
	}
	return dtos, nil
}

func (s *service) EndSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.repo.FindSession(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "chat session not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load chat session")
	}
	if session.Status == enums.ChatSessionStatusEnded {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "chat session is already ended")
	}
	if err := s.repo.EndSession(ctx, session.ID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "end chat session")
	}
	return nil
}

// EndIdleSessions closes every active session idle since before cutoff. Run
// from the cron worker.
func (s *service) EndIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	ended, err := s.repo.EndIdleSessions(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "end idle chat sessions")
	}
	return ended, nil
}
