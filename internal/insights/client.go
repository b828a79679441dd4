// Package insights wraps the generative-AI service used for the monthly
// report commentary and for receipt scanning.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/finflow/finflow/internal/finance/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const DefaultModelName = "gemini-2.0-flash"

type Client struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

// NewClient creates a Gemini-backed client. The API key is read from the
// environment by the genai library itself.
func NewClient(ctx context.Context, logger zerolog.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: DefaultModelName, logger: logger}, nil
}

// GenerateMonthlyInsights turns a month's aggregate into a short list of
// natural-language observations. It never fails: any AI error or unparsable
// output falls back to the generic insights.
func (c *Client) GenerateMonthlyInsights(ctx context.Context, stats domain.MonthlyStats) []string {
	if c == nil || c.client == nil {
		return fallbackInsights()
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(buildInsightsPrompt(stats)), nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Insight generation failed, using fallback insights")
		return fallbackInsights()
	}

	rawText := resp.Text()
	if rawText == "" {
		c.logger.Warn().Msg("Empty insight response from model, using fallback insights")
		return fallbackInsights()
	}

	var insights []string
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &insights); err != nil || len(insights) == 0 {
		c.logger.Warn().Err(err).Str("raw", rawText).Msg("Unparsable insight response, using fallback insights")
		return fallbackInsights()
	}
	return insights
}

func fallbackInsights() []string {
	return []string{
		"Your highest expense category this month might need attention.",
		"Consider setting up a budget for better financial management.",
		"Track your recurring expenses to identify potential savings.",
	}
}

// receiptPayload is the closed shape the model is instructed to return.
type receiptPayload struct {
	Amount       json.Number `json:"amount"`
	Date         string      `json:"date"`
	Description  string      `json:"description"`
	MerchantName string      `json:"merchantName"`
	Category     string      `json:"category"`
}

// ScanReceipt extracts transaction fields from a receipt image.
func (c *Client) ScanReceipt(ctx context.Context, imageData []byte, mimeType string) (*domain.ReceiptData, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("receipt scanning is not configured")
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: receiptPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     imageData,
					},
				},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("scan receipt: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("scan receipt: empty response from model")
	}

	var payload receiptPayload
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &payload); err != nil {
		return nil, fmt.Errorf("scan receipt: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	amount, err := decimal.NewFromString(payload.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("scan receipt: invalid amount %q: %w", payload.Amount, err)
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return nil, fmt.Errorf("scan receipt: invalid date %q: %w", payload.Date, err)
	}

	return &domain.ReceiptData{
		Amount:       amount,
		Date:         date,
		Description:  payload.Description,
		MerchantName: payload.MerchantName,
		Category:     payload.Category,
	}, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk that models
// sometimes emit despite the raw-JSON instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if extra prose survived. Whichever
	// bracket opens first decides whether it is an object or an array.
	open, close := "{", "}"
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		open, close = "[", "]"
	}
	start := strings.Index(s, open)
	end := strings.LastIndex(s, close)
	if start != -1 && end != -1 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}
