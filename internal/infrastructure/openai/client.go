package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paceline/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.openai.com/v1"

const highlightsPrompt = `You are writing concise product highlights for a shopping card.
Return ONLY a JSON array of 3-5 short bullets (strings).
No markdown, no extra text.

Text:
%s`

const reviewSummaryPrompt = `You are summarizing product reviews.
Return JSON in this exact shape:
{
  "reviewSummary": "2-3 sentences",
  "likes": ["bullet", "bullet", "bullet"],
  "dislikes": ["bullet", "bullet", "bullet"],
  "sentimentPct": {"positive": 0, "neutral": 0, "negative": 0}
}
Only use the review text. Be concise and factual.

Reviews:
%s`

// Client generates highlight bullets and review digests through the
// chat completions API. It implements domain.Summarizer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	log        *logrus.Entry
}

// NewClient creates a new summarizer client
func NewClient(apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   model,
		log:     logrus.WithField("component", "openai"),
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Highlights produces 3-5 short bullets from product text. Unparseable
// model output is an error so the pipeline keeps its highlights empty
// instead of guessing.
func (c *Client) Highlights(ctx context.Context, baseText string) ([]string, error) {
	content, err := c.complete(ctx, fmt.Sprintf(highlightsPrompt, clip(baseText, 6000)), 0.3)
	if err != nil {
		return nil, err
	}

	var bullets []string
	if err := json.Unmarshal([]byte(content), &bullets); err != nil {
		return nil, fmt.Errorf("unparseable highlights output: %w", err)
	}

	out := make([]string, 0, 5)
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
		if len(out) == 5 {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("highlights output contained no bullets")
	}

	return out, nil
}

// SummarizeReviews produces a structured digest from review excerpts.
func (c *Client) SummarizeReviews(ctx context.Context, excerpts []string) (*domain.ReviewDigest, error) {
	blob := clip(strings.Join(excerpts, "\n\n---\n\n"), 8000)
	if blob == "" {
		return nil, fmt.Errorf("no review text to summarize")
	}

	content, err := c.complete(ctx, fmt.Sprintf(reviewSummaryPrompt, blob), 0.2)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ReviewSummary string                     `json:"reviewSummary"`
		Likes         []string                   `json:"likes"`
		Dislikes      []string                   `json:"dislikes"`
		SentimentPct  *domain.SentimentBreakdown `json:"sentimentPct"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable review summary output: %w", err)
	}

	return &domain.ReviewDigest{
		Summary:   parsed.ReviewSummary,
		Likes:     parsed.Likes,
		Dislikes:  parsed.Dislikes,
		Sentiment: parsed.SentimentPct,
	}, nil
}

// complete runs one chat completion and returns the message content.
func (c *Client) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai API key not configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion error %d: %s", resp.StatusCode, clip(string(body), 800))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
