package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// OllamaTransport invokes models served by a local Ollama daemon over its
// HTTP generate API.
type OllamaTransport struct {
	host   string
	client *http.Client
}

// NewOllamaTransport creates a transport for the given Ollama host.
func NewOllamaTransport(host string) *OllamaTransport {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &OllamaTransport{
		host:   strings.TrimSuffix(host, "/"),
		client: &http.Client{},
	}
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Generate runs a non-streaming completion against the Ollama daemon.
func (t *OllamaTransport) Generate(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	reqBody := ollamaGenerateRequest{
		Model:  opts.ModelName,
		Prompt: prompt,
		Stream: false,
	}
	if opts.Temperature > 0 {
		reqBody.Options = map[string]interface{}{"temperature": opts.Temperature}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama: %s", out.Error)
	}

	usage := models.Usage{
		PromptTokens:     out.PromptEvalCount,
		CompletionTokens: out.EvalCount,
	}
	if usage.PromptTokens == 0 {
		usage.PromptTokens = estimateTokens(prompt)
	}
	if usage.CompletionTokens == 0 {
		usage.CompletionTokens = estimateTokens(out.Response)
	}

	return &models.ExecutionResult{
		Text:  out.Response,
		Model: opts.ModelName,
		Usage: usage,
	}, nil
}
