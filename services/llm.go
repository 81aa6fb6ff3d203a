package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/metrics"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrLLMNotConfigured = errors.New("LLM gateway is not configured")

// ChatTurn is one message of a conversation as exchanged with the browser.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLM is the subset of the OpenAI-compatible gateway the site uses.
type LLM interface {
	// StreamChat hands each content delta to onChunk in arrival order and
	// returns the concatenated reply. Returning an error from onChunk aborts
	// the stream.
	StreamChat(ctx context.Context, turns []ChatTurn, onChunk func(chunk string) error) (string, error)
	Complete(ctx context.Context, system, prompt string) (string, error)
	DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type gatewayLLM struct {
	chat   *openai.LLM
	vision *openai.LLM
	logger zerolog.Logger
}

// NewGatewayLLM builds an LLM backed by LLM_BASE_URL. It returns
// ErrLLMNotConfigured when LLM_API_KEY is empty.
func NewGatewayLLM(c map[string]string) (LLM, error) {
	apiKey := config.GetString(c, "LLM_API_KEY", "")
	if apiKey == "" {
		return nil, ErrLLMNotConfigured
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(config.GetString(c, "LLM_EMBEDDING_MODEL", "text-embedding-3-small")),
	}
	if baseURL := config.GetString(c, "LLM_BASE_URL", ""); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	chat, err := openai.New(append(opts, openai.WithModel(config.GetString(c, "LLM_CHAT_MODEL", "gpt-4o-mini")))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	vision, err := openai.New(append(opts, openai.WithModel(config.GetString(c, "LLM_VISION_MODEL", "gpt-4o")))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return &gatewayLLM{
		chat:   chat,
		vision: vision,
		logger: log.With().Str("service", "llm").Logger(),
	}, nil
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func toMessages(turns []ChatTurn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llms.TextParts(messageType(turn.Role), turn.Content))
	}
	return messages
}

func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("gateway returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (g *gatewayLLM) StreamChat(ctx context.Context, turns []ChatTurn, onChunk func(chunk string) error) (string, error) {
	var reply strings.Builder
	_, err := g.chat.GenerateContent(ctx, toMessages(turns),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			reply.Write(chunk)
			return onChunk(string(chunk))
		}),
	)
	metrics.ObserveLLMCall("chat", err)
	if err != nil {
		g.logger.Warn().Err(err).Int("receivedBytes", reply.Len()).Msg("chat stream failed")
		return reply.String(), err
	}
	return reply.String(), nil
}

func (g *gatewayLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.chat.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0))
	metrics.ObserveLLMCall("complete", err)
	if err != nil {
		return "", err
	}
	return firstChoice(resp)
}

func (g *gatewayLLM) DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	resp, err := g.vision.GenerateContent(ctx, []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextContent{Text: prompt},
			llms.BinaryPart(mimeType, data),
		},
	}}, llms.WithTemperature(0))
	metrics.ObserveLLMCall("vision", err)
	if err != nil {
		return "", err
	}
	return firstChoice(resp)
}

func (g *gatewayLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := g.chat.CreateEmbedding(ctx, texts)
	metrics.ObserveLLMCall("embed", err)
	return vectors, err
}
