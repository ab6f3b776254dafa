package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/statistics"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

const (
	instrumentationName = "github.com/wosledon/vitanote/internal/chat"

	// MaxContentLength is the longest accepted message in characters.
	MaxContentLength = 2000
	// DefaultHistoryLimit is used when History is called with limit 0.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps History.
	MaxHistoryLimit = 200

	contextMessages = 10
)

// StatsSource supplies the overview the assistant quotes from.
type StatsSource interface {
	Overview(ctx context.Context, userID string, r statistics.Range) (*statistics.Overview, error)
}

// Service runs the conversation.
type Service struct {
	repo      Repository
	assistant Assistant
	stats     StatsSource
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a chat service. A nil assistant uses RuleAssistant and
// a nil stats source leaves replies without figures.
func NewService(repo Repository, assistant Assistant, stats StatsSource, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("chat repository is required")
	}
	if assistant == nil {
		assistant = NewRuleAssistant()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		assistant: assistant,
		stats:     stats,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		now:       time.Now,
	}, nil
}

// Send asks the assistant for a reply and stores the user's message together
// with it. Nothing is stored when the assistant fails.
func (s *Service) Send(ctx context.Context, userID, content string) (*Exchange, error) {
	ctx, span := s.tracer.Start(ctx, "chat.Send")
	defer span.End()

	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > MaxContentLength {
		return nil, fmt.Errorf("%w: content must be 1-%d characters", v1.ErrInvalidRequest, MaxContentLength)
	}

	history, err := s.repo.ListMessages(ctx, userID, contextMessages)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("loading history: %w", err)
	}

	msg := &Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleUser,
		Content:   content,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	text, err := s.assistant.Reply(ctx, AssistantInput{
		UserID:  userID,
		Message: content,
		History: history,
		Stats:   s.recentStats(ctx, userID),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("assistant reply: %w", err)
	}

	reply := &Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   text,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if !reply.CreatedAt.After(msg.CreatedAt) {
		reply.CreatedAt = msg.CreatedAt.Add(time.Millisecond)
	}
	if err := s.repo.AppendMessages(ctx, msg, reply); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("storing messages: %w", err)
	}
	return &Exchange{Message: msg, Reply: reply}, nil
}

func (s *Service) recentStats(ctx context.Context, userID string) *statistics.Overview {
	if s.stats == nil {
		return nil
	}
	r, err := statistics.ResolveRange(time.Time{}, time.Time{}, statistics.DefaultDays, s.now())
	if err != nil {
		return nil
	}
	ov, err := s.stats.Overview(ctx, userID, r)
	if err != nil {
		s.logger.Warn("loading statistics for chat failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return ov
}

// History returns up to limit of the newest messages, oldest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*Message, error) {
	ctx, span := s.tracer.Start(ctx, "chat.History")
	defer span.End()

	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", v1.ErrInvalidRequest, MaxHistoryLimit)
	}
	msgs, err := s.repo.ListMessages(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return msgs, nil
}

// Clear deletes the user's conversation and returns how many messages were
// removed.
func (s *Service) Clear(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "chat.Clear")
	defer span.End()

	n, err := s.repo.ClearMessages(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing messages: %w", err)
	}
	s.logger.Info("chat history cleared", zap.String("user_id", userID), zap.Int64("messages", n))
	return n, nil
}
