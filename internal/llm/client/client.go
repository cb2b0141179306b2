package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 90 * time.Second

// Generator produces an improved prompt from a prompt idea. Stream reports
// partial text through onChunk and returns the full text at the end.
type Generator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
	Stream(ctx context.Context, prompt, systemInstruction string, onChunk func(chunk string)) (string, error)
}

// LLMClient talks to a provider HTTP API through an eino chat model.
type LLMClient struct {
	ChatModel model.BaseChatModel
	ModelName string
	Timeout   time.Duration
}

type OpenAIModelOptions struct {
	Model           string
	ReasoningEffort string
	BaseURL         string
	Timeout         time.Duration
}

type ClaudeModelOptions struct {
	Model     string
	Thinking  bool
	MaxTokens int
	Timeout   time.Duration
}

type GeminiModelOptions struct {
	Model    string
	Thinking bool
	Timeout  time.Duration
}

// NewLLMClient wraps an already constructed chat model.
func NewLLMClient(chatModel model.BaseChatModel, modelName string, timeout time.Duration) *LLMClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LLMClient{ChatModel: chatModel, ModelName: modelName, Timeout: timeout}
}

func NewOpenAIClient(ctx context.Context, key string, opts OpenAIModelOptions) (*LLMClient, error) {
	if strings.TrimSpace(key) == "" {
		return nil, MissingCredentials("openai", nil)
	}
	cfg := &openai.ChatModelConfig{
		APIKey:  key,
		Model:   opts.Model,
		BaseURL: opts.BaseURL,
		Timeout: opts.Timeout,
	}
	if re := strings.TrimSpace(opts.ReasoningEffort); re != "" {
		cfg.ReasoningEffort = openai.ReasoningEffortLevel(re)
	}
	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create openai chat model", goerr.V("model", opts.Model))
	}
	return NewLLMClient(chatModel, opts.Model, opts.Timeout), nil
}

func NewClaudeClient(ctx context.Context, key string, opts ClaudeModelOptions) (*LLMClient, error) {
	if strings.TrimSpace(key) == "" {
		return nil, MissingCredentials("anthropic", nil)
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	cfg := &claude.Config{
		APIKey:    key,
		Model:     opts.Model,
		MaxTokens: maxTokens,
	}
	if opts.Thinking {
		cfg.Thinking = &claude.Thinking{Enable: true, BudgetTokens: 2048}
	}
	chatModel, err := claude.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create claude chat model", goerr.V("model", opts.Model))
	}
	return NewLLMClient(chatModel, opts.Model, opts.Timeout), nil
}

func NewGeminiClient(ctx context.Context, key string, opts GeminiModelOptions) (*LLMClient, error) {
	if strings.TrimSpace(key) == "" {
		return nil, MissingCredentials("gemini", nil)
	}
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}
	cfg := &gemini.Config{
		Client: genaiClient,
		Model:  opts.Model,
	}
	if opts.Thinking {
		cfg.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: false}
	}
	chatModel, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini chat model", goerr.V("model", opts.Model))
	}
	return NewLLMClient(chatModel, opts.Model, opts.Timeout), nil
}

func buildMessages(prompt, systemInstruction string) []*schema.Message {
	msgs := make([]*schema.Message, 0, 2)
	if s := strings.TrimSpace(systemInstruction); s != "" {
		msgs = append(msgs, schema.SystemMessage(s))
	}
	return append(msgs, schema.UserMessage(prompt))
}

func (c *LLMClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *LLMClient) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msg, err := c.ChatModel.Generate(ctx, buildMessages(prompt, systemInstruction))
	if err != nil {
		return "", classifyWithContext(ctx, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", newError(ErrorParse, "model returned no content", nil)
	}
	return msg.Content, nil
}

func (c *LLMClient) Stream(ctx context.Context, prompt, systemInstruction string, onChunk func(chunk string)) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reader, err := c.ChatModel.Stream(ctx, buildMessages(prompt, systemInstruction))
	if err != nil {
		return "", classifyWithContext(ctx, err)
	}
	if reader == nil {
		return "", newError(ErrorParse, "model returned nil stream reader", nil)
	}
	defer reader.Close()

	var out strings.Builder
	for {
		msg, recvErr := reader.Recv()
		if recvErr != nil {
			if errors.Is(recvErr, io.EOF) {
				break
			}
			return "", classifyWithContext(ctx, recvErr)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		out.WriteString(msg.Content)
		if onChunk != nil {
			onChunk(msg.Content)
		}
	}

	if strings.TrimSpace(out.String()) == "" {
		return "", newError(ErrorParse, "no assistant content produced during streaming", nil)
	}
	return out.String(), nil
}
