package chat

import (
	"fmt"
	"strings"

	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
)

// buildSystemPrompt renders the invoice context the assistant answers from.
func buildSystemPrompt(invoice *models.Invoice) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant answering questions about one vehicle service invoice.\n")
	sb.WriteString("Answer only from the invoice data below. If the answer is not in the invoice, say so.\n\n")
	sb.WriteString("Invoice:\n")
	fmt.Fprintf(&sb, "- Service center: %s\n", invoice.ServiceCenter)
	fmt.Fprintf(&sb, "- Service date: %s\n", invoice.ServiceDate.Format("2006-01-02"))
	fmt.Fprintf(&sb, "- Total cost: %s\n", invoice.TotalCost.StringFixed(2))
	if invoice.Vehicle != nil {
		fmt.Fprintf(&sb, "- Vehicle: %s %s (%s)\n", invoice.Vehicle.Make, invoice.Vehicle.Model, invoice.Vehicle.RegistrationNumber)
	}
	sb.WriteString("- Line items:\n")
	for _, item := range invoice.LineItems {
		fmt.Fprintf(&sb, "  - %s x%d @ %s = %s (%s)\n",
			item.Description, item.Quantity,
			item.UnitPrice.StringFixed(2), item.TotalPrice.StringFixed(2),
			item.Category)
	}
	sb.WriteString("\nRespond with ONLY a JSON object, no prose and no markdown fences, shaped exactly like:\n")
	sb.WriteString(`{"answer": "your answer", "followUpQuestions": ["question 1", "question 2"]}`)
	return sb.String()
}
