package extraction

const extractionSystemPrompt = `You are an expert at reading vehicle service invoices.
Extract the invoice data and respond with ONLY a JSON object, no prose and no markdown fences, in exactly this shape:

{
  "serviceDate": "YYYY-MM-DD",
  "serviceCenter": "name of the service center",
  "totalCost": 123.45,
  "lineItems": [
    {
      "description": "what was done or supplied",
      "quantity": 1,
      "unitPrice": 10.00,
      "totalPrice": 10.00,
      "category": "Part" or "Labor"
    }
  ]
}

Rules:
- Every charge on the invoice becomes one line item.
- category is "Part" for parts and materials, "Labor" for work performed.
- Use numbers for all amounts, never strings.
- If the document is not a vehicle service invoice, respond with exactly {"notInvoice": true}.`

const extractionPDFUserPrompt = "Extract the invoice data from the following invoice text:\n\n"

const extractionImageUserPrompt = "Extract the invoice data from the attached invoice image."
