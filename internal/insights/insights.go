// Package insights talks to Gemini for monthly spending advice and receipt reading.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.5-flash"

// FallbackInsights are returned whenever the model cannot produce usable advice
var FallbackInsights = []string{
	"Review your largest expense categories to find potential savings.",
	"Set up a budget for categories with high spending.",
	"Track recurring expenses to spot opportunities to save.",
}

// generator sends one user turn to a model and returns its text answer
type generator interface {
	Generate(ctx context.Context, parts []*genai.Part) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Client generates insights and scans receipts
type Client struct {
	gen generator
	log *logrus.Logger
}

// NewClient creates a Gemini-backed client. Without an API key every
// insight request gets the fallback list and receipt scanning fails.
func NewClient(ctx context.Context, apiKey, model string, log *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		log.Warn("GEMINI_API_KEY not set, AI insights disabled")
		return &Client{log: log}, nil
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{gen: &geminiGenerator{client: client, model: model}, log: log}, nil
}

// GenerateInsights asks the model for exactly three insights about a month of
// statistics. Any failure yields FallbackInsights.
func (c *Client) GenerateInsights(ctx context.Context, stats models.MonthlyStats, month string) []string {
	if c.gen == nil {
		return fallback()
	}

	raw, err := c.gen.Generate(ctx, []*genai.Part{{Text: insightPrompt(stats, month)}})
	if err != nil {
		c.log.WithError(err).Error("Failed to generate insights")
		return fallback()
	}

	var insights []string
	if err := json.Unmarshal([]byte(cleanModelJSON(raw, '[', ']')), &insights); err != nil {
		c.log.WithError(err).Errorf("Model returned malformed insights: %s", raw)
		return fallback()
	}
	if len(insights) != 3 {
		c.log.Errorf("Model returned %d insights, expected 3", len(insights))
		return fallback()
	}
	for _, s := range insights {
		if strings.TrimSpace(s) == "" {
			c.log.Error("Model returned an empty insight")
			return fallback()
		}
	}
	return insights
}

func fallback() []string {
	return append([]string(nil), FallbackInsights...)
}

func insightPrompt(stats models.MonthlyStats, month string) string {
	categories := make([]string, 0, len(stats.ByCategory))
	for _, c := range stats.Categories() {
		categories = append(categories, fmt.Sprintf("%s: %s", c.Category, c.Total.StringFixed(2)))
	}

	return "You are an expert financial assistant. Analyze the financial data below and provide exactly 3 actionable insights.\n" +
		"Focus ONLY on financial patterns, overspending, and ways to improve savings.\n" +
		"Do NOT reference the app, suggest using features, or give any marketing instructions.\n" +
		"Tone: friendly, professional, concise.\n\n" +
		fmt.Sprintf("Financial Data for %s:\n", month) +
		fmt.Sprintf("- Total Income: %s\n", stats.TotalIncome.StringFixed(2)) +
		fmt.Sprintf("- Total Expenses: %s\n", stats.TotalExpenses.StringFixed(2)) +
		fmt.Sprintf("- Net Savings: %s\n", stats.NetSavings().StringFixed(2)) +
		fmt.Sprintf("- Expense Categories: %s\n\n", strings.Join(categories, ", ")) +
		"Return ONLY a JSON array of 3 concise insights, e.g. [\"Insight 1\", \"Insight 2\", \"Insight 3\"].\n" +
		"Do NOT wrap the response in code fences."
}

type scannedReceipt struct {
	Amount       *decimal.Decimal `json:"amount"`
	Date         string           `json:"date"`
	Description  string           `json:"description"`
	MerchantName string           `json:"merchantName"`
	Category     string           `json:"category"`
}

// ScanReceipt extracts amount, date, description, merchant and category from a receipt image
func (c *Client) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*models.ScannedReceipt, error) {
	if c.gen == nil {
		return nil, fmt.Errorf("receipt scanning requires GEMINI_API_KEY")
	}

	raw, err := c.gen.Generate(ctx, []*genai.Part{
		{Text: receiptPrompt()},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
	})
	if err != nil {
		return nil, err
	}

	var parsed scannedReceipt
	if err := json.Unmarshal([]byte(cleanModelJSON(raw, '{', '}')), &parsed); err != nil {
		c.log.WithError(err).Errorf("Model returned malformed receipt: %s", raw)
		return nil, models.ErrUnreadableReceipt
	}
	if parsed.Amount == nil {
		return nil, models.ErrUnreadableReceipt
	}

	receipt := &models.ScannedReceipt{
		Amount:       parsed.Amount.Abs().Round(2),
		Description:  strings.TrimSpace(parsed.Description),
		MerchantName: strings.TrimSpace(parsed.MerchantName),
		Category:     knownCategory(parsed.Category),
	}
	if parsed.Date != "" {
		if receipt.Date, err = parseReceiptDate(parsed.Date); err != nil {
			c.log.Debugf("Ignoring unparseable receipt date %q", parsed.Date)
		}
	}
	return receipt, nil
}

func receiptPrompt() string {
	ids := make([]string, 0)
	for _, c := range models.DefaultCategories() {
		if c.Type == models.TransactionTypeDebit {
			ids = append(ids, c.ID)
		}
	}
	return "Analyze this receipt image and extract the following information in JSON format:\n" +
		"- Total amount (just the number)\n" +
		"- Date (in ISO format)\n" +
		"- Description or items purchased (brief summary)\n" +
		"- Merchant/store name\n" +
		fmt.Sprintf("- Suggested category (one of: %s)\n\n", strings.Join(ids, ", ")) +
		"Only respond with valid JSON in this exact format:\n" +
		"{\"amount\": number, \"date\": \"ISO date string\", \"description\": \"string\", \"merchantName\": \"string\", \"category\": \"string\"}\n\n" +
		"If it is not a receipt, return an empty object."
}

func knownCategory(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, c := range models.DefaultCategories() {
		if c.ID == id {
			return id
		}
	}
	return "other-expense"
}

func parseReceiptDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date format %q", s)
}

// cleanModelJSON strips Markdown fences and surrounding prose, keeping the
// outermost open...close span, and drops a trailing comma before close.
func cleanModelJSON(raw string, open, close byte) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.IndexByte(s, open); start != -1 {
		if end := strings.LastIndexByte(s, close); end > start {
			s = s[start : end+1]
		}
	}

	// fix trailing comma
	body := strings.TrimSpace(strings.TrimSuffix(s, string(close)))
	if strings.HasSuffix(body, ",") && strings.HasSuffix(s, string(close)) {
		s = strings.TrimSuffix(body, ",") + string(close)
	}
	return s
}
