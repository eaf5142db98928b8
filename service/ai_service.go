package service

import (
	"context"

	"github.com/daivikpurani/AI-Tutor/types"
)

// AIService generates answers from an ordered message list, delivering the
// text incrementally through the handler. The first message may carry the
// system role.
type AIService interface {
	ChatStream(ctx context.Context, messages []types.ConversationTurn, handler types.StreamHandler) error
}
