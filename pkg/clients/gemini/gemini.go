package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	baseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel = "gemini-2.5-flash"
)

// Client defines the interface for generating advisory text.
type Client interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type geminiClient struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates a configured Gemini client.
func NewClient(apiKey, model string) Client {
	if model == "" {
		model = defaultModel
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-goog-api-key", apiKey).
		SetHeader("content-type", "application/json").
		SetTimeout(30 * time.Second)

	return &geminiClient{httpClient: client, model: model}
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateText sends one request/response generation call and returns the
// model's text output.
func (c *geminiClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	var respBody generateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))

	if err != nil {
		return "", fmt.Errorf("gemini api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini api error: %s", resp.String())
	}
	if respBody.Error != nil {
		return "", fmt.Errorf("gemini api error: %s", respBody.Error.Message)
	}
	if len(respBody.Candidates) == 0 || len(respBody.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return respBody.Candidates[0].Content.Parts[0].Text, nil
}
