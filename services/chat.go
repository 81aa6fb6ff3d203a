package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/models"
)

const DefaultChatSystemPrompt = "You are the assistant on a personal portfolio website. " +
	"Answer questions about the owner's projects, hobbies and experience briefly and in a friendly tone. " +
	"If you do not know the answer, say so and suggest the contact form."

// MaxChatMessageLength bounds a single visitor message in characters.
const MaxChatMessageLength = 4000

var ErrInvalidConversation = errors.New("invalid conversation")

// ProjectFinder looks up the projects closest to an embedding.
type ProjectFinder interface {
	Nearest(ctx context.Context, embedding []float32, k int) ([]*models.Project, error)
}

// ChatService relays a visitor conversation to the gateway.
type ChatService struct {
	llm             LLM
	finder          ProjectFinder
	systemPrompt    string
	maxHistory      int
	contextProjects int
	siteURL         string
	logger          zerolog.Logger
}

// NewChatService wires the relay. finder may be nil, which disables project context.
func NewChatService(llm LLM, finder ProjectFinder, c map[string]string) *ChatService {
	return &ChatService{
		llm:             llm,
		finder:          finder,
		systemPrompt:    config.GetString(c, "CHAT_SYSTEM_PROMPT", DefaultChatSystemPrompt),
		maxHistory:      config.GetInt(c, "CHAT_MAX_HISTORY", 20),
		contextProjects: config.GetInt(c, "CHAT_CONTEXT_PROJECTS", 3),
		siteURL:         config.GetString(c, "SITE_BASE_URL", ""),
		logger:          log.With().Str("service", "chat").Logger(),
	}
}

// Prepare validates history and returns the turns to send: the system prompt
// followed by at most maxHistory of the most recent turns.
func (s *ChatService) Prepare(ctx context.Context, history []ChatTurn) ([]ChatTurn, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidConversation)
	}
	for i, turn := range history {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return nil, fmt.Errorf("%w: message %d has role %q", ErrInvalidConversation, i, turn.Role)
		}
		if strings.TrimSpace(turn.Content) == "" {
			return nil, fmt.Errorf("%w: message %d is empty", ErrInvalidConversation, i)
		}
		if utf8.RuneCountInString(turn.Content) > MaxChatMessageLength {
			return nil, fmt.Errorf("%w: message %d is longer than %d characters", ErrInvalidConversation, i, MaxChatMessageLength)
		}
	}
	last := history[len(history)-1]
	if last.Role != RoleUser {
		return nil, fmt.Errorf("%w: last message must come from the user", ErrInvalidConversation)
	}

	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	turns := make([]ChatTurn, 0, len(history)+1)
	turns = append(turns, ChatTurn{Role: RoleSystem, Content: s.systemPrompt + s.projectContext(ctx, last.Content)})
	return append(turns, history...), nil
}

// projectContext lists the projects most related to question. Failures only
// cost the extra context.
func (s *ChatService) projectContext(ctx context.Context, question string) string {
	if s.finder == nil || s.contextProjects <= 0 {
		return ""
	}

	vectors, err := s.llm.Embed(ctx, []string{question})
	if err != nil || len(vectors) == 0 {
		s.logger.Debug().Err(err).Msg("skipping project context: embedding failed")
		return ""
	}
	projects, err := s.finder.Nearest(ctx, vectors[0], s.contextProjects)
	if err != nil {
		s.logger.Debug().Err(err).Msg("skipping project context: lookup failed")
		return ""
	}
	if len(projects) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nProjects that may be relevant:")
	for _, p := range projects {
		fmt.Fprintf(&b, "\n- %s", p.Title)
		if p.Summary != "" {
			fmt.Fprintf(&b, ": %s", p.Summary)
		}
		if url := BuildProjectURL(s.siteURL, p.Slug); url != "" {
			fmt.Fprintf(&b, " (%s)", url)
		}
	}
	return b.String()
}

// Relay streams the reply to turns through onChunk and returns the full text.
func (s *ChatService) Relay(ctx context.Context, turns []ChatTurn, onChunk func(chunk string) error) (string, error) {
	return s.llm.StreamChat(ctx, turns, onChunk)
}
