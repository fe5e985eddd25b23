package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/autoaudit/autoaudit-backend/internal/invoices"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	dbtypes "github.com/autoaudit/autoaudit-backend/pkg/db/types"
	"github.com/autoaudit/autoaudit-backend/pkg/enums"
	apperrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/llm"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/autoaudit/autoaudit-backend/pkg/metrics"
	"github.com/google/uuid"
)

// maxFollowUps caps suggested follow-up questions per assistant turn.
const maxFollowUps = 3

// assistantOutput is the JSON shape the model is asked to produce.
type assistantOutput struct {
	Answer            string   `json:"answer"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

// ServiceParams groups dependencies for the chat service.
type ServiceParams struct {
	Repo     Repository
	Invoices invoices.Repository
	Model    llm.Client
	Logger   *logger.Logger
	Metrics  *metrics.AIMetrics
}

// Service runs the per-invoice conversation loop.
type Service struct {
	repo     Repository
	invoices invoices.Repository
	model    llm.Client
	logg     *logger.Logger
	metrics  *metrics.AIMetrics
	now      func() time.Time
}

// NewService builds a chat service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Invoices == nil {
		return nil, errors.New("invoices repo is required")
	}
	if params.Model == nil {
		return nil, errors.New("model client is required")
	}
	return &Service{
		repo:     params.Repo,
		invoices: params.Invoices,
		model:    params.Model,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Send records the user's message, asks the model, and records the reply.
// The user turn is persisted before the model is called, so a provider
// failure still leaves the question durable in the log.
func (s *Service) Send(ctx context.Context, userID, invoiceID uuid.UUID, message string) (*models.Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "message is required")
	}

	invoice, err := s.invoices.FindOwned(ctx, userID, invoiceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading invoice")
	}
	if invoice == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "invoice not found")
	}

	history, err := s.repo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading conversation")
	}

	userTurn := &models.Message{
		InvoiceID:          invoiceID,
		Role:               enums.MessageRoleUser,
		Content:            message,
		SuggestedQuestions: dbtypes.StringArray{},
	}
	if err := s.repo.Create(ctx, userTurn); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "saving message")
	}

	req := llm.Request{
		System:   buildSystemPrompt(invoice),
		Messages: toModelMessages(history, message),
	}

	start := s.now()
	raw, err := s.model.Complete(ctx, req)
	s.metrics.ObserveDuration("chat", s.now().Sub(start))
	if err != nil {
		s.metrics.IncFailure("chat")
		return nil, apperrors.Wrap(apperrors.CodeUpstream, err, "assistant is unavailable")
	}
	s.metrics.IncSuccess("chat")

	answer, followUps := parseAssistantReply(raw)

	assistantTurn := &models.Message{
		InvoiceID:          invoiceID,
		Role:               enums.MessageRoleAssistant,
		Content:            answer,
		SuggestedQuestions: followUps,
	}
	if err := s.repo.Create(ctx, assistantTurn); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "saving assistant message")
	}
	return assistantTurn, nil
}

// History returns the owner-scoped message log in ascending order.
func (s *Service) History(ctx context.Context, userID, invoiceID uuid.UUID) ([]models.Message, error) {
	invoice, err := s.invoices.FindOwned(ctx, userID, invoiceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading invoice")
	}
	if invoice == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "invoice not found")
	}
	messages, err := s.repo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading conversation")
	}
	return messages, nil
}

// toModelMessages maps the stored history plus the new user message into
// provider-neutral turns. Stored roles are passed through as-is; provider
// clients own any renaming their API needs.
func toModelMessages(history []models.Message, newMessage string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	out = append(out, llm.Message{Role: llm.RoleUser, Content: newMessage})
	return out
}

// parseAssistantReply tolerantly parses the model output. Anything that is
// not the expected JSON shape degrades to a plain-text answer with no
// follow-ups; parsing never fails the request.
func parseAssistantReply(raw string) (string, dbtypes.StringArray) {
	var out assistantOutput
	if err := llm.UnmarshalLenient(raw, &out); err != nil || strings.TrimSpace(out.Answer) == "" {
		return strings.TrimSpace(raw), dbtypes.StringArray{}
	}

	followUps := make(dbtypes.StringArray, 0, maxFollowUps)
	for _, q := range out.FollowUpQuestions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		followUps = append(followUps, q)
		if len(followUps) == maxFollowUps {
			break
		}
	}
	return strings.TrimSpace(out.Answer), followUps
}
