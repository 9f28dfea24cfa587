package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Ahmed-AmineHomman/escribito/internal/config"
	"github.com/Ahmed-AmineHomman/escribito/internal/model/script"
)

// ErrGeneration marks a failed remote generation call. The underlying
// transport or API error stays wrapped inside.
var ErrGeneration = errors.New("ai generation failed")

// Service produces character turns through the configured chat model.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the generation service backed by an eino chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		cfg:   cfg,
		chain: runnable,
	}, nil
}

// StreamingEnabled indicates whether streamed output is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GenerateTurn produces the next turn of the conversation. The speaking
// character is always the one opposite the last turn's speaker, Character A
// when the conversation is empty.
func (s *Service) GenerateTurn(ctx context.Context, cast script.Cast, conversation script.Conversation) (script.Speaker, string, error) {
	speaker := conversation.NextSpeaker()
	input := chainInput(cast, conversation, speaker)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return speaker, "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	log.Printf("[ai] generated turn for speaker=%s character=%s length=%d", speaker, cast.Name(speaker), len(response.Content))
	return speaker, response.Content, nil
}

// StreamTurn streams the next turn's chunks via the configured chain.
func (s *Service) StreamTurn(ctx context.Context, cast script.Cast, conversation script.Conversation) (script.Speaker, *schema.StreamReader[*schema.Message], error) {
	speaker := conversation.NextSpeaker()
	if !s.StreamingEnabled() {
		return speaker, nil, fmt.Errorf("streaming disabled in configuration")
	}

	input := chainInput(cast, conversation, speaker)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return speaker, nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return speaker, stream, nil
}
