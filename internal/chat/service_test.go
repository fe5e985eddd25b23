package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/autoaudit/autoaudit-backend/internal/invoices"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/autoaudit/autoaudit-backend/pkg/enums"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/llm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubMessagesRepo struct {
	history []models.Message
	saved   []*models.Message
	listErr error
}

func (s *stubMessagesRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubMessagesRepo) Create(ctx context.Context, message *models.Message) error {
	s.saved = append(s.saved, message)
	return nil
}
func (s *stubMessagesRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Message, error) {
	return s.history, s.listErr
}

type stubInvoicesRepo struct {
	invoice *models.Invoice
}

func (s *stubInvoicesRepo) WithTx(tx *gorm.DB) invoices.Repository { return s }
func (s *stubInvoicesRepo) CreateWithLineItems(context.Context, *models.Invoice, []models.LineItem) error {
	return nil
}
func (s *stubInvoicesRepo) ListByUser(context.Context, uuid.UUID) ([]models.Invoice, error) {
	return nil, nil
}
func (s *stubInvoicesRepo) FindOwned(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.invoice, nil
}
func (s *stubInvoicesRepo) Delete(context.Context, uuid.UUID) error { return nil }

type stubModel struct {
	reply    string
	err      error
	lastReq  llm.Request
	received bool
}

func (s *stubModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.lastReq = req
	s.received = true
	return s.reply, s.err
}

func ownedInvoice() *models.Invoice {
	return &models.Invoice{
		ID:            uuid.New(),
		ServiceCenter: "Main Street Garage",
		TotalCost:     decimal.NewFromFloat(149.99),
		LineItems: []models.LineItem{
			{Description: "Oil filter", Quantity: 1, UnitPrice: decimal.NewFromFloat(19.99), TotalPrice: decimal.NewFromFloat(19.99), Category: enums.LineItemCategoryPart},
		},
	}
}

func newChatService(t *testing.T, repo *stubMessagesRepo, invRepo *stubInvoicesRepo, model *stubModel) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Invoices: invRepo, Model: model})
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	return svc
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc := newChatService(t, &stubMessagesRepo{}, &stubInvoicesRepo{invoice: ownedInvoice()}, &stubModel{})

	_, err := svc.Send(context.Background(), uuid.New(), uuid.New(), "   ")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendUnownedInvoiceIsNotFound(t *testing.T) {
	model := &stubModel{}
	svc := newChatService(t, &stubMessagesRepo{}, &stubInvoicesRepo{invoice: nil}, model)

	_, err := svc.Send(context.Background(), uuid.New(), uuid.New(), "what happened?")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if model.received {
		t.Fatal("the model must not be called for an unowned invoice")
	}
}

func TestSendPersistsUserTurnBeforeProviderFailure(t *testing.T) {
	repo := &stubMessagesRepo{}
	model := &stubModel{err: errors.New("provider down")}
	svc := newChatService(t, repo, &stubInvoicesRepo{invoice: ownedInvoice()}, model)

	_, err := svc.Send(context.Background(), uuid.New(), uuid.New(), "what was replaced?")
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected exactly the user turn saved, got %d messages", len(repo.saved))
	}
	if repo.saved[0].Role != enums.MessageRoleUser {
		t.Fatalf("expected the saved turn to be the user's, got %v", repo.saved[0].Role)
	}
}

func TestSendParsesStructuredReply(t *testing.T) {
	repo := &stubMessagesRepo{}
	model := &stubModel{reply: "```json\n" + `{"answer": "The oil filter was replaced.", "followUpQuestions": ["How much was labor?", "", "When is the next service?", "Was coolant topped up?", "What brand?"]}` + "\n```"}
	svc := newChatService(t, repo, &stubInvoicesRepo{invoice: ownedInvoice()}, model)

	reply, err := svc.Send(context.Background(), uuid.New(), uuid.New(), "what was replaced?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Content != "The oil filter was replaced." {
		t.Fatalf("unexpected answer %q", reply.Content)
	}
	if len(reply.SuggestedQuestions) != maxFollowUps {
		t.Fatalf("expected follow-ups capped at %d, got %d", maxFollowUps, len(reply.SuggestedQuestions))
	}
	if reply.Role != enums.MessageRoleAssistant {
		t.Fatalf("expected assistant role, got %v", reply.Role)
	}
}

func TestSendFallsBackToRawTextOnUnparseableReply(t *testing.T) {
	repo := &stubMessagesRepo{}
	model := &stubModel{reply: "The total was 149.99, most of it labor."}
	svc := newChatService(t, repo, &stubInvoicesRepo{invoice: ownedInvoice()}, model)

	reply, err := svc.Send(context.Background(), uuid.New(), uuid.New(), "how much?")
	if err != nil {
		t.Fatalf("parsing must never fail the request: %v", err)
	}
	if reply.Content != "The total was 149.99, most of it labor." {
		t.Fatalf("expected raw text fallback, got %q", reply.Content)
	}
	if len(reply.SuggestedQuestions) != 0 {
		t.Fatalf("fallback replies carry no follow-ups, got %v", reply.SuggestedQuestions)
	}
}

func TestSendPassesHistoryInOrder(t *testing.T) {
	history := []models.Message{
		{Role: enums.MessageRoleUser, Content: "first question"},
		{Role: enums.MessageRoleAssistant, Content: "first answer"},
	}
	model := &stubModel{reply: `{"answer": "ok", "followUpQuestions": []}`}
	svc := newChatService(t, &stubMessagesRepo{history: history}, &stubInvoicesRepo{invoice: ownedInvoice()}, model)

	if _, err := svc.Send(context.Background(), uuid.New(), uuid.New(), "second question"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := model.lastReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected history plus the new turn, got %d messages", len(msgs))
	}
	if msgs[0].Content != "first question" || msgs[1].Content != "first answer" || msgs[2].Content != "second question" {
		t.Fatalf("history out of order: %+v", msgs)
	}
	if msgs[1].Role != llm.RoleAssistant {
		t.Fatalf("stored roles must pass through unchanged, got %q", msgs[1].Role)
	}
}

func TestHistoryUnownedInvoiceIsNotFound(t *testing.T) {
	svc := newChatService(t, &stubMessagesRepo{}, &stubInvoicesRepo{invoice: nil}, &stubModel{})

	_, err := svc.History(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
