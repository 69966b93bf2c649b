// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// analysisSystemPrompt instructs the model to summarize an abstract along
// fixed axes: problem, methods, findings, contributions, applications.
const analysisSystemPrompt = `You are a professional academic paper analysis assistant. Analyze the given paper abstract and summarize it along these axes:
1. Research problem and goals
2. Main methods and techniques
3. Key findings and results
4. Novelty and contributions
5. Potential applications

Use concise, professional language.`

// analysisUserTmpl wraps the abstract into the user message.
var analysisUserTmpl = template.Must(template.New("analysis").Parse(
	"Analyze the following paper abstract:\n\n{{.Abstract}}"))

// completionsPath is the OpenAI-compatible chat completions route.
const completionsPath = "/chat/completions"

// DeepSeek calls a DeepSeek (OpenAI-compatible) chat completions API to
// analyze abstracts.
type DeepSeek struct {
	Client *http.Client
	Config types.AnalysisConfig
}

// NewDeepSeek returns a DeepSeek backend with config defaults applied.
func NewDeepSeek(client *http.Client, cfg types.AnalysisConfig) *DeepSeek {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	return &DeepSeek{Client: client, Config: cfg}
}

// Name returns the backend identifier.
func (d *DeepSeek) Name() string { return "deepseek" }

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Analyze sends the abstract to the chat completions API and returns the
// generated analysis text.
func (d *DeepSeek) Analyze(ctx context.Context, abstract string) (string, error) {
	if strings.TrimSpace(abstract) == "" {
		return "", fmt.Errorf("empty abstract")
	}
	if d.Config.APIKey == "" {
		return "", fmt.Errorf("missing DeepSeek API key")
	}

	userMsg, err := renderUserMessage(abstract)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := chatRequest{
		Model: d.Config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: userMsg},
		},
		Temperature: d.Config.Temperature,
		MaxTokens:   d.Config.MaxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimSuffix(d.Config.BaseURL, "/") + completionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.Config.APIKey)

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling DeepSeek API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("DeepSeek API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding DeepSeek response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("DeepSeek API returned no choices")
	}

	return strings.TrimSpace(cResp.Choices[0].Message.Content), nil
}

// renderUserMessage executes the user prompt template with the abstract.
func renderUserMessage(abstract string) (string, error) {
	var buf bytes.Buffer
	if err := analysisUserTmpl.Execute(&buf, struct{ Abstract string }{Abstract: abstract}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
