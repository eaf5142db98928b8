package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/daivikpurani/AI-Tutor/types"
)

// GeminiService is the alternative generation backend. API keys rotate on
// failure so quota exhaustion on one key does not take the tutor down.
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	modelName  string
	model      *genai.GenerativeModel
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}
	service := &GeminiService{
		apiKeys:    apiKeys,
		currentKey: 0,
		modelName:  modelName,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	s.model = client.GenerativeModel(s.modelName)
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

// split prepares a gemini chat: leading system turn becomes the system
// instruction, the last turn is the prompt, everything between is history.
// The shared model is copied per call; concurrent queries must not see each
// other's system instruction.
func (s *GeminiService) split(messages []types.ConversationTurn) (*genai.GenerativeModel, []*genai.Content, genai.Text, error) {
	if len(messages) == 0 {
		return nil, nil, "", errors.New("no messages provided")
	}
	s.mu.Lock()
	model := *s.model
	s.mu.Unlock()

	rest := messages
	if rest[0].Role == types.RoleSystem {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(rest[0].Content)},
		}
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil, nil, "", errors.New("no prompt message provided")
	}
	prompt := rest[len(rest)-1]
	history := make([]*genai.Content, 0, len(rest)-1)
	for _, msg := range rest[:len(rest)-1] {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}
	return &model, history, genai.Text(prompt.Content), nil
}

func (s *GeminiService) ChatStream(ctx context.Context, messages []types.ConversationTurn, handler types.StreamHandler) error {
	forwarded := false
	err := s.streamOnce(ctx, messages, func(fragment string) {
		forwarded = true
		handler(fragment)
	})
	if err == nil || forwarded || ctx.Err() != nil {
		return err
	}
	// nothing reached the client yet: rotate to the next key and retry once
	if rotateErr := s.rotateAPIKey(); rotateErr != nil {
		return err
	}
	return s.streamOnce(ctx, messages, handler)
}

func (s *GeminiService) streamOnce(ctx context.Context, messages []types.ConversationTurn, handler types.StreamHandler) error {
	model, history, prompt, err := s.split(messages)
	if err != nil {
		return err
	}
	chat := model.StartChat()
	chat.History = history

	iter := chat.SendMessageStream(ctx, prompt)
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					handler(string(text))
				}
			}
		}
	}
}
