package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daivikpurani/AI-Tutor/types"
)

func newTestGeminiService() *GeminiService {
	return &GeminiService{model: (&genai.Client{}).GenerativeModel("gemini-pro")}
}

func TestGeminiSplit_RolesAndPrompt(t *testing.T) {
	s := newTestGeminiService()

	model, history, prompt, err := s.split([]types.ConversationTurn{
		{Role: types.RoleSystem, Content: "tutor persona"},
		{Role: types.RoleUser, Content: "q1"},
		{Role: types.RoleAssistant, Content: "a1"},
		{Role: types.RoleUser, Content: "q2"},
	})
	require.NoError(t, err)

	require.NotNil(t, model.SystemInstruction)
	assert.Equal(t, genai.Text("tutor persona"), model.SystemInstruction.Parts[0])

	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("q2"), prompt)
}

func TestGeminiSplit_DoesNotMutateSharedModel(t *testing.T) {
	s := newTestGeminiService()

	model, _, _, err := s.split([]types.ConversationTurn{
		{Role: types.RoleSystem, Content: "tutor persona"},
		{Role: types.RoleUser, Content: "question"},
	})
	require.NoError(t, err)

	require.NotNil(t, model.SystemInstruction)
	assert.Nil(t, s.model.SystemInstruction)
}

func TestGeminiSplit_ConcurrentQueriesKeepOwnSystemPrompt(t *testing.T) {
	s := newTestGeminiService()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instruction := fmt.Sprintf("persona-%d", i)
			model, _, _, err := s.split([]types.ConversationTurn{
				{Role: types.RoleSystem, Content: instruction},
				{Role: types.RoleUser, Content: "question"},
			})
			if assert.NoError(t, err) && assert.NotNil(t, model.SystemInstruction) {
				assert.Equal(t, genai.Text(instruction), model.SystemInstruction.Parts[0])
			}
		}(i)
	}
	wg.Wait()

	assert.Nil(t, s.model.SystemInstruction)
}

func TestGeminiSplit_NoSystemTurn(t *testing.T) {
	s := newTestGeminiService()

	model, history, prompt, err := s.split([]types.ConversationTurn{
		{Role: types.RoleUser, Content: "only question"},
	})
	require.NoError(t, err)
	assert.Nil(t, model.SystemInstruction)
	assert.Empty(t, history)
	assert.Equal(t, genai.Text("only question"), prompt)
}

func TestGeminiSplit_InvalidInput(t *testing.T) {
	s := newTestGeminiService()

	_, _, _, err := s.split(nil)
	assert.Error(t, err)

	// a lone system turn leaves no prompt to send
	_, _, _, err = s.split([]types.ConversationTurn{
		{Role: types.RoleSystem, Content: "persona"},
	})
	assert.Error(t, err)
}
