package extraction

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/autoaudit/autoaudit-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// modelOutput is the raw shape the model is asked to produce. Every field is
// loosely typed: model output is untrusted and each field is coerced
// individually so one bad value never discards the rest of the record.
type modelOutput struct {
	NotInvoice    bool            `json:"notInvoice"`
	ServiceDate   string          `json:"serviceDate"`
	ServiceCenter string          `json:"serviceCenter"`
	TotalCost     json.RawMessage `json:"totalCost"`
	LineItems     []modelLineItem `json:"lineItems"`
}

type modelLineItem struct {
	Description string          `json:"description"`
	Quantity    json.RawMessage `json:"quantity"`
	UnitPrice   json.RawMessage `json:"unitPrice"`
	TotalPrice  json.RawMessage `json:"totalPrice"`
	Category    string          `json:"category"`
}

// Extracted is the normalized extraction result after defaulting.
type Extracted struct {
	ServiceDate   time.Time
	ServiceCenter string
	TotalCost     decimal.Decimal
	LineItems     []ExtractedLineItem
}

type ExtractedLineItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Category    enums.LineItemCategory
}

const defaultServiceCenter = "Unknown Center"

// normalize applies the defaulting rules to raw model output: missing
// quantity becomes 1, missing prices become 0, unknown categories become
// Part, an unparseable date becomes now, a blank center becomes
// "Unknown Center".
func (o modelOutput) normalize(now time.Time) Extracted {
	out := Extracted{
		ServiceDate:   parseServiceDate(o.ServiceDate, now),
		ServiceCenter: strings.TrimSpace(o.ServiceCenter),
		TotalCost:     parseAmount(o.TotalCost),
	}
	if out.ServiceCenter == "" {
		out.ServiceCenter = defaultServiceCenter
	}

	for _, item := range o.LineItems {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}
		out.LineItems = append(out.LineItems, ExtractedLineItem{
			Description: desc,
			Quantity:    parseQuantity(item.Quantity),
			UnitPrice:   parseAmount(item.UnitPrice),
			TotalPrice:  parseAmount(item.TotalPrice),
			Category:    parseCategory(item.Category),
		})
	}
	return out
}

func parseServiceDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

// parseAmount accepts a JSON number or a numeric string; anything else is 0.
func parseAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return decimal.NewFromFloat(num)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if d, derr := decimal.NewFromString(strings.TrimSpace(str)); derr == nil {
			return d
		}
	}
	return decimal.Zero
}

func parseQuantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil && num > 0 {
		return int(num)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if d, derr := decimal.NewFromString(strings.TrimSpace(str)); derr == nil && d.IsPositive() {
			return int(d.IntPart())
		}
	}
	return 1
}

func parseCategory(raw string) enums.LineItemCategory {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "labor", "labour":
		return enums.LineItemCategoryLabor
	default:
		return enums.LineItemCategoryPart
	}
}
