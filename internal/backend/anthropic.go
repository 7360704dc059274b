package backend

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/blacksmith-cli/blacksmith/internal/config"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// AnthropicTransport invokes Claude models over the direct Anthropic API,
// or through AWS Bedrock when configured. Unlike the CLI transports it
// reports real token usage from the API response.
type AnthropicTransport struct {
	client  anthropic.Client
	bedrock bool
}

// NewAnthropicTransport creates a transport from the anthropic backend
// config. Returns an error if neither an API key nor Bedrock is configured.
func NewAnthropicTransport(cfg config.AnthropicConfig) (*AnthropicTransport, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic backend requires an API key or AWS Bedrock")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &AnthropicTransport{
		client:  anthropic.NewClient(opts...),
		bedrock: cfg.UseAWSBedrock,
	}, nil
}

// bedrockModels maps standard model names to cross-region Bedrock
// inference profiles.
var bedrockModels = map[string]string{
	"claude-sonnet-4-20250514":   "us.anthropic.claude-sonnet-4-20250514-v1:0",
	"claude-sonnet-4-5-20250929": "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
	"claude-haiku-4-5-20251001":  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
	"claude-opus-4-1-20250805":   "us.anthropic.claude-opus-4-1-20250805-v1:0",
	"claude-3-5-haiku-20241022":  "us.anthropic.claude-3-5-haiku-20241022-v1:0",
}

func (t *AnthropicTransport) resolveModel(name string) anthropic.Model {
	if name == "" {
		name = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	if t.bedrock {
		if profile, ok := bedrockModels[name]; ok {
			return anthropic.Model(profile)
		}
	}
	return anthropic.Model(name)
}

// Complete sends a single-turn prompt and returns the concatenated text
// blocks of the response.
func (t *AnthropicTransport) Complete(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     t.resolveModel(opts.ModelName),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	resp, err := t.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}

	return &models.ExecutionResult{
		Text:  sb.String(),
		Model: opts.ModelName,
		Usage: models.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}
