package service

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/daivikpurani/AI-Tutor/types"
)

// OpenAIService drives chat completion against an OpenAI-compatible endpoint.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(baseURL, apiKey, model string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL // point at a local LLM server if configured
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func toOpenAIMessages(messages []types.ConversationTurn) []openai.ChatCompletionMessage {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case types.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case types.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return openaiMessages
}

func (s *OpenAIService) ChatStream(ctx context.Context, messages []types.ConversationTurn, handler types.StreamHandler) error {
	stream, err := s.client.CreateChatCompletionStream(
		ctx,
		openai.ChatCompletionRequest{
			Messages: toOpenAIMessages(messages),
			Model:    s.model,
		},
	)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		handler(resp.Choices[0].Delta.Content)
	}
}
