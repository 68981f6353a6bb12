package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"collabcode/internal/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const systemInstruction = `You are an expert full-stack developer with 10 years of experience. You write modular, scalable and maintainable code, handle errors and edge cases, and use clear comments. Always respond with a JSON object of the shape {"text": string, "fileTree": {path: {"file": {"contents": string}}}, "buildCommand": {"mainItem": string, "commands": [string]}, "startCommand": {"mainItem": string, "commands": [string]}} where every field except "text" is optional. Only include a fileTree when the user asks for code. Never use file names like routes/index.js.`

// Generator produces a structured response for an assistant prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*models.AIResponse, error)
}

// GeminiClient calls the Gemini generateContent endpoint with a JSON response
// mime type so the model answers in the structured schema.
//
// No timeout is set on the underlying client: a stuck generation stalls only
// that message's response, never the room's chat broadcasting.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

type generateRequest struct {
	SystemInstruction *content          `json:"system_instruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (*models.AIResponse, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt must be a non-empty string")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("AI API key is not configured")
	}

	reqBody := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.4,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation request failed with status %d: %s", resp.StatusCode, data)
	}

	var gen generateResponse
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from generator")
	}

	return ParseResponse(gen.Candidates[0].Content.Parts[0].Text)
}

// ParseResponse validates the raw model output: it must be JSON with a
// non-empty text field, and fileTree, when present, must be an object.
func ParseResponse(raw string) (*models.AIResponse, error) {
	var res models.AIResponse
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("invalid JSON response from AI: %w", err)
	}
	if res.Text == "" {
		return nil, fmt.Errorf("invalid response format: missing text")
	}
	return &res, nil
}
