package categorizer

import (
	"context"
	"fmt"
	"strings"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient implements AIClient on top of the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger logging.Logger
}

// NewGeminiClient connects to Gemini with the given API key.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger logging.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  client.GenerativeModel(modelName),
		logger: logging.OrDefault(logger),
	}, nil
}

// Close releases the underlying client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Categorize asks the model to pick one of the allowed categories.
func (c *GeminiClient) Categorize(ctx context.Context, rec models.ClassifiedRecord, allowed []models.Category) (string, error) {
	names := make([]string, len(allowed))
	for i, category := range allowed {
		names[i] = category.String()
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(rec, names)))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	answer := extractCategory(text.String())
	c.logger.Debug("Gemini answered",
		logging.F(logging.FieldRecordKey, rec.Key),
		logging.F("ai_category", answer))
	return answer, nil
}

func buildPrompt(rec models.ClassifiedRecord, categories []string) string {
	return fmt.Sprintf(`Categorize the following bank statement entry:
Description: %s
Type: %s
Amount: %s
Date: %s

Answer with exactly one of these categories:
%s

Respond in this format:
Category: [Selected Category Name]`,
		rec.Description,
		rec.Type,
		rec.Amount.String(),
		rec.Date.Format("2006-01-02"),
		strings.Join(categories, ", "))
}

// extractCategory pulls the category name out of a "Category: X" answer.
// Unstructured answers are returned trimmed.
func extractCategory(response string) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Category:") {
			return strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "Category:")), "[]*")
		}
	}
	return strings.TrimSpace(response)
}
