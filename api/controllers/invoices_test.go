package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autoaudit/autoaudit-backend/internal/extraction"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/autoaudit/autoaudit-backend/pkg/enums"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
)

type stubInvoiceService struct {
	listFn     func(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
	getFn      func(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	fileLinkFn func(ctx context.Context, userID, invoiceID uuid.UUID) (string, error)
	deleteFn   func(ctx context.Context, userID, invoiceID uuid.UUID) error
}

func (s *stubInvoiceService) List(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}
func (s *stubInvoiceService) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID, invoiceID)
	}
	return &models.Invoice{ID: invoiceID}, nil
}
func (s *stubInvoiceService) FileLink(ctx context.Context, userID, invoiceID uuid.UUID) (string, error) {
	if s.fileLinkFn != nil {
		return s.fileLinkFn(ctx, userID, invoiceID)
	}
	return "https://minio.internal/signed", nil
}
func (s *stubInvoiceService) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, invoiceID)
	}
	return nil
}

type stubExtractionService struct {
	analyzeFn func(ctx context.Context, userID uuid.UUID, input extraction.AnalyzeInput) (*models.Invoice, error)
}

func (s *stubExtractionService) Analyze(ctx context.Context, userID uuid.UUID, input extraction.AnalyzeInput) (*models.Invoice, error) {
	if s.analyzeFn != nil {
		return s.analyzeFn(ctx, userID, input)
	}
	return &models.Invoice{ID: uuid.New()}, nil
}

func TestInvoicesAnalyzeReturns201WithInvoiceID(t *testing.T) {
	invoiceID := uuid.New()
	vehicleID := uuid.New()
	svc := &stubExtractionService{
		analyzeFn: func(ctx context.Context, userID uuid.UUID, input extraction.AnalyzeInput) (*models.Invoice, error) {
			if input.VehicleID != vehicleID {
				t.Fatalf("expected vehicle id %v, got %v", vehicleID, input.VehicleID)
			}
			if input.FileURL == "" {
				t.Fatal("expected a file url in the input")
			}
			return &models.Invoice{ID: invoiceID}, nil
		},
	}

	body := `{"file_url":"https://files.autoaudit.app/u/abc.pdf","vehicle_id":"` + vehicleID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/analyze", strings.NewReader(body))
	req = req.WithContext(authedContext(uuid.New()))
	rec := httptest.NewRecorder()

	InvoicesAnalyze(svc, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data["invoice_id"] != invoiceID.String() {
		t.Fatalf("unexpected invoice id %q", payload.Data["invoice_id"])
	}
}

func TestInvoicesAnalyzeRejectsBadPayload(t *testing.T) {
	cases := map[string]string{
		"missing file_url": `{"vehicle_id":"` + uuid.NewString() + `"}`,
		"bad vehicle_id":   `{"file_url":"https://files.autoaudit.app/u/abc.pdf","vehicle_id":"nope"}`,
		"bare word url":    `{"file_url":"abc","vehicle_id":"` + uuid.NewString() + `"}`,
	}

	for name, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/analyze", strings.NewReader(body))
		req = req.WithContext(authedContext(uuid.New()))
		rec := httptest.NewRecorder()

		InvoicesAnalyze(&stubExtractionService{}, nil)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestInvoicesAnalyzeNotInvoiceSurfacesValidation(t *testing.T) {
	svc := &stubExtractionService{
		analyzeFn: func(ctx context.Context, userID uuid.UUID, input extraction.AnalyzeInput) (*models.Invoice, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "the uploaded document does not appear to be a vehicle service invoice")
		},
	}

	body := `{"file_url":"https://files.autoaudit.app/u/cat.jpg","vehicle_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/analyze", strings.NewReader(body))
	req = req.WithContext(authedContext(uuid.New()))
	rec := httptest.NewRecorder()

	InvoicesAnalyze(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInvoicesGetRendersDetailView(t *testing.T) {
	invoiceID := uuid.New()
	svc := &stubInvoiceService{
		getFn: func(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
			return &models.Invoice{
				ID:            invoiceID,
				ServiceCenter: "Midtown Motors",
				TotalCost:     decimal.RequireFromString("184.50"),
				FileURL:       "https://files.autoaudit.app/u/abc.pdf",
				Vehicle:       &models.Vehicle{ID: uuid.New(), Make: "Honda", Model: "Civic", RegistrationNumber: "AB12CDE"},
				LineItems: []models.LineItem{
					{ID: uuid.New(), Description: "Oil change", Quantity: 1, UnitPrice: decimal.RequireFromString("49.5"), TotalPrice: decimal.RequireFromString("49.5"), Category: enums.LineItemCategoryLabor},
				},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+invoiceID.String(), nil)
	req = req.WithContext(authedContext(uuid.New()))
	req = withURLParam(req, "invoiceId", invoiceID.String())
	rec := httptest.NewRecorder()

	InvoicesGet(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data invoiceDetailView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.TotalCost != "184.50" {
		t.Fatalf("expected a two decimal total, got %q", payload.Data.TotalCost)
	}
	if len(payload.Data.LineItems) != 1 || payload.Data.LineItems[0].UnitPrice != "49.50" {
		t.Fatalf("unexpected line items %+v", payload.Data.LineItems)
	}
	if payload.Data.Vehicle == nil || payload.Data.Vehicle.RegistrationNumber != "AB12CDE" {
		t.Fatalf("expected the vehicle summary, got %+v", payload.Data.Vehicle)
	}
}

func TestInvoicesGetNotFoundPassesThrough(t *testing.T) {
	svc := &stubInvoiceService{
		getFn: func(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		},
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+id, nil)
	req = req.WithContext(authedContext(uuid.New()))
	req = withURLParam(req, "invoiceId", id)
	rec := httptest.NewRecorder()

	InvoicesGet(svc, nil)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestInvoicesListEmptyIsAnEmptyArray(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req = req.WithContext(authedContext(uuid.New()))
	rec := httptest.NewRecorder()

	InvoicesList(&stubInvoiceService{}, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected an empty array payload, got %s", rec.Body.String())
	}
}
