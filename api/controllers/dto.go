package controllers

import (
	"time"

	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/google/uuid"
)

type vehicleView struct {
	ID                 uuid.UUID `json:"id"`
	Make               string    `json:"make"`
	Model              string    `json:"model"`
	RegistrationNumber string    `json:"registration_number"`
	CreatedAt          time.Time `json:"created_at"`
}

func toVehicleView(v models.Vehicle) vehicleView {
	return vehicleView{
		ID:                 v.ID,
		Make:               v.Make,
		Model:              v.Model,
		RegistrationNumber: v.RegistrationNumber,
		CreatedAt:          v.CreatedAt,
	}
}

type invoiceSummaryView struct {
	ID            uuid.UUID    `json:"id"`
	ServiceCenter string       `json:"service_center"`
	ServiceDate   time.Time    `json:"service_date"`
	TotalCost     string       `json:"total_cost"`
	Vehicle       *vehicleView `json:"vehicle,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

func toInvoiceSummaryView(inv models.Invoice) invoiceSummaryView {
	view := invoiceSummaryView{
		ID:            inv.ID,
		ServiceCenter: inv.ServiceCenter,
		ServiceDate:   inv.ServiceDate,
		TotalCost:     inv.TotalCost.StringFixed(2),
		CreatedAt:     inv.CreatedAt,
	}
	if inv.Vehicle != nil {
		v := toVehicleView(*inv.Vehicle)
		view.Vehicle = &v
	}
	return view
}

type lineItemView struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	TotalPrice  string    `json:"total_price"`
	Category    string    `json:"category"`
}

type invoiceDetailView struct {
	invoiceSummaryView
	FileURL   string         `json:"file_url"`
	LineItems []lineItemView `json:"line_items"`
}

func toInvoiceDetailView(inv models.Invoice) invoiceDetailView {
	items := make([]lineItemView, 0, len(inv.LineItems))
	for _, item := range inv.LineItems {
		items = append(items, lineItemView{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			TotalPrice:  item.TotalPrice.StringFixed(2),
			Category:    item.Category.String(),
		})
	}
	return invoiceDetailView{
		invoiceSummaryView: toInvoiceSummaryView(inv),
		FileURL:            inv.FileURL,
		LineItems:          items,
	}
}

type messageView struct {
	ID                 uuid.UUID `json:"id"`
	Role               string    `json:"role"`
	Content            string    `json:"content"`
	SuggestedQuestions []string  `json:"suggested_questions"`
	CreatedAt          time.Time `json:"created_at"`
}

func toMessageView(m models.Message) messageView {
	questions := []string(m.SuggestedQuestions)
	if questions == nil {
		questions = []string{}
	}
	return messageView{
		ID:                 m.ID,
		Role:               m.Role.String(),
		Content:            m.Content,
		SuggestedQuestions: questions,
		CreatedAt:          m.CreatedAt,
	}
}
