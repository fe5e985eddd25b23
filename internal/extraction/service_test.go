package extraction

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/autoaudit/autoaudit-backend/internal/invoices"
	"github.com/autoaudit/autoaudit-backend/internal/vehicles"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/autoaudit/autoaudit-backend/pkg/enums"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/llm"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubVehiclesRepo struct {
	vehicle *models.Vehicle
}

func (s *stubVehiclesRepo) WithTx(tx *gorm.DB) vehicles.Repository        { return s }
func (s *stubVehiclesRepo) Create(context.Context, *models.Vehicle) error { return nil }
func (s *stubVehiclesRepo) ListByUser(context.Context, uuid.UUID) ([]models.Vehicle, error) {
	return nil, nil
}
func (s *stubVehiclesRepo) FindOwned(ctx context.Context, userID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	return s.vehicle, nil
}
func (s *stubVehiclesRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (s *stubVehiclesRepo) CountInvoices(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

type stubInvoicesRepo struct {
	created *models.Invoice
	items   []models.LineItem
	err     error
}

func (s *stubInvoicesRepo) WithTx(tx *gorm.DB) invoices.Repository { return s }
func (s *stubInvoicesRepo) CreateWithLineItems(ctx context.Context, invoice *models.Invoice, items []models.LineItem) error {
	if s.err != nil {
		return s.err
	}
	invoice.ID = uuid.New()
	s.created = invoice
	s.items = items
	return nil
}
func (s *stubInvoicesRepo) ListByUser(context.Context, uuid.UUID) ([]models.Invoice, error) {
	return nil, nil
}
func (s *stubInvoicesRepo) FindOwned(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	return nil, nil
}
func (s *stubInvoicesRepo) Delete(context.Context, uuid.UUID) error { return nil }

type stubFetcher struct {
	doc *Document
	err error
}

func (s *stubFetcher) Fetch(ctx context.Context, fileURL, fileName string) (*Document, error) {
	return s.doc, s.err
}

type stubModel struct {
	reply string
	err   error
	calls int
}

func (s *stubModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	return s.reply, s.err
}

type stubStorage struct {
	deletedKeys []string
	deleteErr   error
}

func (s *stubStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return "", nil
}
func (s *stubStorage) Delete(ctx context.Context, key string) error {
	s.deletedKeys = append(s.deletedKeys, key)
	return s.deleteErr
}
func (s *stubStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", nil
}
func (s *stubStorage) KeyFromURL(fileURL string) (string, error) {
	return "objects/invoice.png", nil
}
func (s *stubStorage) Ping(ctx context.Context) error { return nil }

func newTestService(t *testing.T, vehiclesRepo *stubVehiclesRepo, invoicesRepo *stubInvoicesRepo, fetcher *stubFetcher, model *stubModel, store *stubStorage) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Vehicles: vehiclesRepo,
		Invoices: invoicesRepo,
		Fetcher:  fetcher,
		Model:    model,
		Storage:  store,
	})
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	return svc
}

func ownedVehicle() *models.Vehicle {
	return &models.Vehicle{ID: uuid.New(), Make: "Toyota", Model: "Corolla"}
}

func imageDoc() *Document {
	return &Document{Kind: KindImage, Data: make([]byte, 256), MIME: "image/png"}
}

func TestAnalyzeUnownedVehicleIsNotFound(t *testing.T) {
	svc := newTestService(t, &stubVehiclesRepo{vehicle: nil}, &stubInvoicesRepo{}, &stubFetcher{doc: imageDoc()}, &stubModel{}, &stubStorage{})

	_, err := svc.Analyze(context.Background(), uuid.New(), AnalyzeInput{
		FileURL:   "https://files.example.com/a.png",
		VehicleID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAnalyzeRequiresFileURL(t *testing.T) {
	svc := newTestService(t, &stubVehiclesRepo{vehicle: ownedVehicle()}, &stubInvoicesRepo{}, &stubFetcher{doc: imageDoc()}, &stubModel{}, &stubStorage{})

	_, err := svc.Analyze(context.Background(), uuid.New(), AnalyzeInput{VehicleID: uuid.New()})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeNotInvoiceDeletesUploadAndPersistsNothing(t *testing.T) {
	invoicesRepo := &stubInvoicesRepo{}
	store := &stubStorage{}
	model := &stubModel{reply: `{"notInvoice": true}`}
	svc := newTestService(t, &stubVehiclesRepo{vehicle: ownedVehicle()}, invoicesRepo, &stubFetcher{doc: imageDoc()}, model, store)

	_, err := svc.Analyze(context.Background(), uuid.New(), AnalyzeInput{
		FileURL:   "https://files.example.com/cat.png",
		VehicleID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation rejection, got %v", err)
	}
	if invoicesRepo.created != nil {
		t.Fatal("nothing may be persisted for a rejected document")
	}
	if len(store.deletedKeys) != 1 {
		t.Fatalf("expected the stored object to be deleted, got %v", store.deletedKeys)
	}
}

func TestAnalyzeInvalidModelOutputPersistsNothing(t *testing.T) {
	invoicesRepo := &stubInvoicesRepo{}
	model := &stubModel{reply: "sorry, I cannot read this"}
	svc := newTestService(t, &stubVehiclesRepo{vehicle: ownedVehicle()}, invoicesRepo, &stubFetcher{doc: imageDoc()}, model, &stubStorage{})

	_, err := svc.Analyze(context.Background(), uuid.New(), AnalyzeInput{
		FileURL:   "https://files.example.com/b.png",
		VehicleID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if invoicesRepo.created != nil {
		t.Fatal("nothing may be persisted when parsing fails")
	}
}

func TestAnalyzeProviderErrorIsUpstream(t *testing.T) {
	model := &stubModel{err: errors.New("429 from provider")}
	svc := newTestService(t, &stubVehiclesRepo{vehicle: ownedVehicle()}, &stubInvoicesRepo{}, &stubFetcher{doc: imageDoc()}, model, &stubStorage{})

	_, err := svc.Analyze(context.Background(), uuid.New(), AnalyzeInput{
		FileURL:   "https://files.example.com/c.png",
		VehicleID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream failure, got %v", err)
	}
}

func TestAnalyzeAppliesDefaultsAndPersists(t *testing.T) {
	invoicesRepo := &stubInvoicesRepo{}
	model := &stubModel{reply: "```json\n" + `{
		"serviceCenter": "",
		"serviceDate": "not-a-date",
		"lineItems": [
			{"description": "Brake pads", "unitPrice": 25.5, "totalPrice": "51.00", "category": "part", "quantity": 2},
			{"description": "Fitting", "category": "something odd"},
			{"description": "   "}
		]
	}` + "\n```"}
	svc := newTestService(t, &stubVehiclesRepo{vehicle: ownedVehicle()}, invoicesRepo, &stubFetcher{doc: imageDoc()}, model, &stubStorage{})

	invoice, err := svc.Analyze(context.Background(), uuid.New(), AnalyzeInput{
		FileURL:   "https://files.example.com/d.png",
		VehicleID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoice.ServiceCenter != "Unknown Center" {
		t.Fatalf("expected default service center, got %q", invoice.ServiceCenter)
	}
	if time.Since(invoice.ServiceDate) > time.Minute {
		t.Fatalf("expected service date to default to now, got %v", invoice.ServiceDate)
	}
	if !invoice.TotalCost.IsZero() {
		t.Fatalf("expected missing total to default to zero, got %v", invoice.TotalCost)
	}

	// the blank-description row is dropped, everything else is defaulted
	if len(invoicesRepo.items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(invoicesRepo.items))
	}
	first := invoicesRepo.items[0]
	if first.Quantity != 2 || first.Category != enums.LineItemCategoryPart {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.TotalPrice.StringFixed(2) != "51.00" {
		t.Fatalf("expected string price to parse, got %v", first.TotalPrice)
	}
	second := invoicesRepo.items[1]
	if second.Quantity != 1 {
		t.Fatalf("expected quantity default 1, got %d", second.Quantity)
	}
	if second.Category != enums.LineItemCategoryPart {
		t.Fatalf("unknown category must coerce to Part, got %v", second.Category)
	}
	if !second.UnitPrice.IsZero() || !second.TotalPrice.IsZero() {
		t.Fatalf("missing prices must default to zero: %+v", second)
	}
}
