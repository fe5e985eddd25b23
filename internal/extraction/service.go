package extraction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/autoaudit/autoaudit-backend/internal/invoices"
	"github.com/autoaudit/autoaudit-backend/internal/vehicles"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	apperrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/llm"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/autoaudit/autoaudit-backend/pkg/metrics"
	"github.com/autoaudit/autoaudit-backend/pkg/storage"
	"github.com/google/uuid"
)

// AnalyzeInput carries the parameters for one extraction run.
type AnalyzeInput struct {
	FileURL   string
	VehicleID uuid.UUID
	FileName  string
}

// DocumentFetcher downloads and classifies invoice documents.
type DocumentFetcher interface {
	Fetch(ctx context.Context, fileURL, fileName string) (*Document, error)
}

// ServiceParams groups dependencies for the extraction service.
type ServiceParams struct {
	Vehicles vehicles.Repository
	Invoices invoices.Repository
	Fetcher  DocumentFetcher
	Model    llm.Client
	Storage  storage.ObjectStore
	Logger   *logger.Logger
	Metrics  *metrics.AIMetrics
}

// Service turns an uploaded document into a persisted, structured invoice.
type Service struct {
	vehicles vehicles.Repository
	invoices invoices.Repository
	fetcher  DocumentFetcher
	model    llm.Client
	storage  storage.ObjectStore
	logg     *logger.Logger
	metrics  *metrics.AIMetrics
	now      func() time.Time
}

// NewService builds an extraction service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Vehicles == nil {
		return nil, errors.New("vehicles repo is required")
	}
	if params.Invoices == nil {
		return nil, errors.New("invoices repo is required")
	}
	if params.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if params.Model == nil {
		return nil, errors.New("model client is required")
	}
	return &Service{
		vehicles: params.Vehicles,
		invoices: params.Invoices,
		fetcher:  params.Fetcher,
		model:    params.Model,
		storage:  params.Storage,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Analyze runs the full extraction flow: ownership check, document fetch,
// model call, tolerant parse, defaulting, and a single-transaction persist.
// Nothing is persisted unless the model produced a usable invoice.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, input AnalyzeInput) (*models.Invoice, error) {
	fileURL := strings.TrimSpace(input.FileURL)
	if fileURL == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "file url is required")
	}

	vehicle, err := s.vehicles.FindOwned(ctx, userID, input.VehicleID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "looking up vehicle")
	}
	if vehicle == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "vehicle not found")
	}

	doc, err := s.fetcher.Fetch(ctx, fileURL, input.FileName)
	if err != nil {
		return nil, err
	}

	req, err := buildModelRequest(doc)
	if err != nil {
		return nil, err
	}

	// a started extraction runs to completion even if the caller disconnects;
	// the model client enforces its own timeout
	ctx = context.WithoutCancel(ctx)

	start := s.now()
	raw, err := s.model.Complete(ctx, req)
	s.metrics.ObserveDuration("extract", s.now().Sub(start))
	if err != nil {
		s.metrics.IncFailure("extract")
		return nil, apperrors.Wrap(apperrors.CodeUpstream, err, "invoice analysis failed")
	}

	var output modelOutput
	if err := llm.UnmarshalLenient(raw, &output); err != nil {
		s.metrics.IncFailure("extract")
		return nil, apperrors.Wrap(apperrors.CodeUpstream, err, "invoice analysis returned invalid output")
	}
	s.metrics.IncSuccess("extract")

	if output.NotInvoice {
		s.cleanupRejected(ctx, fileURL)
		return nil, apperrors.New(apperrors.CodeValidation, "the uploaded document does not appear to be a vehicle service invoice")
	}

	extracted := output.normalize(s.now())

	invoice := &models.Invoice{
		UserID:        userID,
		VehicleID:     vehicle.ID,
		FileURL:       fileURL,
		ServiceDate:   extracted.ServiceDate,
		ServiceCenter: extracted.ServiceCenter,
		TotalCost:     extracted.TotalCost,
	}
	items := make([]models.LineItem, 0, len(extracted.LineItems))
	for _, item := range extracted.LineItems {
		items = append(items, models.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			Category:    item.Category,
		})
	}
	if err := s.invoices.CreateWithLineItems(ctx, invoice, items); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "saving invoice")
	}
	return invoice, nil
}

func buildModelRequest(doc *Document) (llm.Request, error) {
	switch doc.Kind {
	case KindPDF:
		text, err := PDFText(doc.Data)
		if err != nil {
			return llm.Request{}, apperrors.Wrap(apperrors.CodeUpstream, err, "reading pdf text")
		}
		return llm.Request{
			System:   extractionSystemPrompt,
			Messages: []llm.Message{{Role: llm.RoleUser, Content: extractionPDFUserPrompt + text}},
		}, nil
	default:
		return llm.Request{
			System:    extractionSystemPrompt,
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: extractionImageUserPrompt}},
			ImageData: doc.Data,
			ImageMIME: doc.MIME,
		}, nil
	}
}

// cleanupRejected removes a stored object the model identified as not an
// invoice. Best-effort: the user still gets the rejection either way.
func (s *Service) cleanupRejected(ctx context.Context, fileURL string) {
	if s.storage == nil {
		return
	}
	key, err := s.storage.KeyFromURL(fileURL)
	if err != nil {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to delete rejected document from storage")
	}
}
