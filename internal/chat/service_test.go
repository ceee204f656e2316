package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/products"
	"github.com/anayakapoor/luxethreads-backend/internal/users"
	"github.com/anayakapoor/luxethreads-backend/pkg/config"
	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubChatRepo struct {
	session     *models.ChatSession
	activeCount int64
	oldest      *models.ChatSession

	created  *models.ChatSession
	messages []models.ChatMessage
	endedIDs []uuid.UUID
	touched  []uuid.UUID
}

func (s *stubChatRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubChatRepo) CreateSession(_ context.Context, session *models.ChatSession) (*models.ChatSession, error) {
	session.ID = uuid.New()
	s.created = session
	return session, nil
}

func (s *stubChatRepo) FindSession(_ context.Context, id, userID uuid.UUID) (*models.ChatSession, error) {
	if s.session == nil || s.session.ID != id || s.session.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.session, nil
}

func (s *stubChatRepo) FindSessionWithMessages(ctx context.Context, id, userID uuid.UUID) (*models.ChatSession, error) {
	return s.FindSession(ctx, id, userID)
}

func (s *stubChatRepo) ListSessions(_ context.Context, _ uuid.UUID) ([]models.ChatSession, error) {
	if s.session == nil {
		return nil, nil
	}
	return []models.ChatSession{*s.session}, nil
}

func (s *stubChatRepo) CountActiveSessions(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.activeCount, nil
}

func (s *stubChatRepo) OldestActiveSession(_ context.Context, _ uuid.UUID) (*models.ChatSession, error) {
	if s.oldest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.oldest, nil
}

func (s *stubChatRepo) EndSession(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.endedIDs = append(s.endedIDs, id)
	return nil
}

func (s *stubChatRepo) Touch(_ context.Context, id uuid.UUID) error {
	s.touched = append(s.touched, id)
	return nil
}

func (s *stubChatRepo) CreateMessage(_ context.Context, message *models.ChatMessage) error {
	message.ID = uuid.New()
	s.messages = append(s.messages, *message)
	return nil
}

func (s *stubChatRepo) RecentMessages(_ context.Context, _ uuid.UUID, _ int) ([]models.ChatMessage, error) {
	return s.messages, nil
}

func (s *stubChatRepo) EndIdleSessions(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) WithTx(_ *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) Create(_ context.Context, _ users.CreateUserDTO) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }
func (s *stubUserRepo) AddLoyaltyPoints(_ context.Context, _ uuid.UUID, _ int) error      { return nil }
func (s *stubUserRepo) UpdateProfile(_ context.Context, _ uuid.UUID, _ map[string]any) error {
	return nil
}

type stubProductRepo struct {
	listed []products.ProductDTO
}

func (s *stubProductRepo) WithTx(_ *gorm.DB) products.Repository { return s }

func (s *stubProductRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) FindByIDs(_ context.Context, _ []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductRepo) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	return p, nil
}

func (s *stubProductRepo) Save(_ context.Context, p *models.Product) (*models.Product, error) {
	return p, nil
}

func (s *stubProductRepo) Deactivate(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubProductRepo) DecrementStock(_ context.Context, _ uuid.UUID, _ int) (bool, error) {
	return false, nil
}

func (s *stubProductRepo) RestoreStock(_ context.Context, _ uuid.UUID, _ int) error { return nil }

func (s *stubProductRepo) List(_ context.Context, _ products.ListInput) (*products.ListResult, error) {
	return &products.ListResult{Products: s.listed}, nil
}

type stubOrderRepo struct {
	recent []models.Order
}

func (s *stubOrderRepo) WithTx(_ *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(_ context.Context, o *models.Order) (*models.Order, error) {
	return o, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) FindByIDForUser(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) Update(_ context.Context, _ uuid.UUID, _ map[string]any) error { return nil }

func (s *stubOrderRepo) ListByUser(_ context.Context, _ orders.ListInput) ([]models.Order, string, error) {
	return s.recent, "", nil
}

func (s *stubOrderRepo) ListAll(_ context.Context, _ orders.AdminListInput) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrderRepo) FindStalePending(_ context.Context, _ time.Time, _ int) ([]models.Order, error) {
	return nil, nil
}

type chatFixture struct {
	svc      Service
	repo     *stubChatRepo
	userRepo *stubUserRepo
	user     *models.User
}

func newChatFixture(t *testing.T, completer *stubCompleter, repo *stubChatRepo) *chatFixture {
	t.Helper()

	user := &models.User{ID: uuid.New(), Name: "Maya", LoyaltyScore: 250}
	userRepo := &stubUserRepo{user: user}
	productRepo := &stubProductRepo{listed: []products.ProductDTO{
		{ID: uuid.New(), Name: "Silk Slip Dress", Category: "dresses", Price: decimal.RequireFromString("289.00"), Stock: 4},
		{ID: uuid.New(), Name: "Wool Blazer", Category: "outerwear", Price: decimal.RequireFromString("410.00"), Stock: 2},
	}}
	orderRepo := &stubOrderRepo{}

	classifier := NewClassifier(nil)
	if completer != nil {
		classifier = NewClassifier(completer)
	}

	svc, err := NewService(stubTxRunner{}, repo, userRepo, productRepo, orderRepo, classifier, config.ChatConfig{
		MaxActiveSessions: 10,
		IdleTTL:           24 * time.Hour,
		HistoryLimit:      10,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &chatFixture{svc: svc, repo: repo, userRepo: userRepo, user: user}
}

func TestSendMessageStartsSessionAndPersistsTurns(t *testing.T) {
	t.Parallel()

	repo := &stubChatRepo{}
	f := newChatFixture(t, nil, repo)

	resp, err := f.svc.SendMessage(context.Background(), f.user.ID, SendMessageRequest{
		Message: "what's your return policy?",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected a new session")
	}
	if resp.SessionID != repo.created.ID {
		t.Fatalf("session id = %s, want %s", resp.SessionID, repo.created.ID)
	}
	if resp.Agent != enums.AgentTypeSupport {
		t.Fatalf("agent = %s, want %s", resp.Agent, enums.AgentTypeSupport)
	}
	if !strings.Contains(resp.Response, "return") {
		t.Fatalf("response %q should mention returns", resp.Response)
	}

	if len(repo.messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(repo.messages))
	}
	if repo.messages[0].Role != enums.ChatRoleUser || repo.messages[0].Agent != nil {
		t.Fatalf("first turn = %+v, want plain user turn", repo.messages[0])
	}
	assistant := repo.messages[1]
	if assistant.Role != enums.ChatRoleAssistant {
		t.Fatalf("second turn role = %s", assistant.Role)
	}
	if assistant.Agent == nil || *assistant.Agent != enums.AgentTypeSupport {
		t.Fatalf("assistant agent = %v, want support", assistant.Agent)
	}
	if len(repo.touched) != 1 {
		t.Fatalf("session touched %d times, want 1", len(repo.touched))
	}
}

func TestSendMessageEvictsOldestSessionAtCap(t *testing.T) {
	t.Parallel()

	oldest := &models.ChatSession{ID: uuid.New(), Status: enums.ChatSessionStatusActive}
	repo := &stubChatRepo{activeCount: 10, oldest: oldest}
	f := newChatFixture(t, nil, repo)

	if _, err := f.svc.SendMessage(context.Background(), f.user.ID, SendMessageRequest{
		Message: "recommend me a dress",
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(repo.endedIDs) != 1 || repo.endedIDs[0] != oldest.ID {
		t.Fatalf("ended sessions = %v, want [%s]", repo.endedIDs, oldest.ID)
	}
	if repo.created == nil {
		t.Fatal("expected a replacement session")
	}
}

func TestSendMessageReusesActiveSession(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t, nil, &stubChatRepo{})
	existing := &models.ChatSession{ID: uuid.New(), UserID: f.user.ID, Status: enums.ChatSessionStatusActive}
	f.repo.session = existing

	resp, err := f.svc.SendMessage(context.Background(), f.user.ID, SendMessageRequest{
		SessionID: &existing.ID,
		Message:   "how many points do I have?",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if f.repo.created != nil {
		t.Fatal("should not create a session when an active one is supplied")
	}
	if resp.SessionID != existing.ID {
		t.Fatalf("session id = %s, want %s", resp.SessionID, existing.ID)
	}
	if resp.Agent != enums.AgentTypeLoyalty {
		t.Fatalf("agent = %s, want loyalty", resp.Agent)
	}
	if !strings.Contains(resp.Response, "250") || !strings.Contains(resp.Response, "Bronze") {
		t.Fatalf("loyalty response %q should report score and tier", resp.Response)
	}
}

func TestSendMessageEndedSessionStartsFresh(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t, nil, &stubChatRepo{})
	ended := &models.ChatSession{ID: uuid.New(), UserID: f.user.ID, Status: enums.ChatSessionStatusEnded}
	f.repo.session = ended

	resp, err := f.svc.SendMessage(context.Background(), f.user.ID, SendMessageRequest{
		SessionID: &ended.ID,
		Message:   "suggest a jacket",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if f.repo.created == nil {
		t.Fatal("expected a fresh session for an ended id")
	}
	if resp.SessionID == ended.ID {
		t.Fatal("reply should not attach to the ended session")
	}
}

func TestSendMessagePrependsModelReply(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: "{\"agent\": \"loyalty\", \"reply\": \"Happy to check that for you!\"}"}
	f := newChatFixture(t, completer, &stubChatRepo{})

	resp, err := f.svc.SendMessage(context.Background(), f.user.ID, SendMessageRequest{
		Message: "do I get a discount?",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !strings.HasPrefix(resp.Response, "Happy to check that for you!\n\n") {
		t.Fatalf("response %q should open with the model reply", resp.Response)
	}
	if !strings.Contains(resp.Response, "Bronze") {
		t.Fatalf("response %q should still carry live loyalty data", resp.Response)
	}
}

func TestSendMessageUnknownUserRejected(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t, nil, &stubChatRepo{})

	_, err := f.svc.SendMessage(context.Background(), uuid.New(), SendMessageRequest{Message: "hi"})
	if perr := pkgerrors.As(err); perr == nil || perr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("err = %v, want %s", err, pkgerrors.CodeNotFound)
	}
}

func TestEndSessionTwiceRejected(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t, nil, &stubChatRepo{})
	session := &models.ChatSession{ID: uuid.New(), UserID: f.user.ID, Status: enums.ChatSessionStatusEnded}
	f.repo.session = session

	err := f.svc.EndSession(context.Background(), f.user.ID, session.ID)
	if perr := pkgerrors.As(err); perr == nil || perr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want %s", err, pkgerrors.CodeStateConflict)
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t, nil, &stubChatRepo{})

	_, err := f.svc.History(context.Background(), f.user.ID, uuid.New())
	if perr := pkgerrors.As(err); perr == nil || perr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("err = %v, want %s", err, pkgerrors.CodeNotFound)
	}
}

func TestLoyaltyTierLadder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score int
		want  string
	}{
		{0, "Bronze"},
		{999, "Bronze"},
		{1000, "Silver"},
		{4999, "Silver"},
		{5000, "Gold"},
		{9999, "Gold"},
		{10000, "Platinum"},
	}
	for _, tc := range cases {
		if got := loyaltyTier(tc.score); got != tc.want {
			t.Fatalf("loyaltyTier(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
