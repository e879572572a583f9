package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Solution event types.
const (
	EventSolutionSubmitted = "submitted"
	EventSolutionCorrected = "corrected"
)

// SolutionEvent announces a change to a solution.
type SolutionEvent struct {
	Type       string    `json:"type"`
	SolutionID uint      `json:"solution_id"`
	UserID     uint      `json:"user_id"`
	ProblemID  uint      `json:"problem_id"`
	Score      *int      `json:"score,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher fans solution events out to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event SolutionEvent)
}

type brokerPublisher struct {
	redis         *redis.Client
	redisChannel  string
	nats          *nats.Conn
	subjectPrefix string
	logger        zerolog.Logger
}

// NewEventPublisher publishes to Redis pub/sub and NATS, whichever is configured.
// Both clients may be nil, which makes Publish a no-op.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, subjectPrefix string, logger zerolog.Logger) EventPublisher {
	subjectPrefix = strings.Trim(strings.TrimSpace(subjectPrefix), ".")
	if subjectPrefix == "" {
		subjectPrefix = "roots.solutions"
	}

	return &brokerPublisher{
		redis:         redisClient,
		redisChannel:  strings.ReplaceAll(subjectPrefix, ".", ":"),
		nats:          natsConn,
		subjectPrefix: subjectPrefix,
		logger:        logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *brokerPublisher) Publish(ctx context.Context, event SolutionEvent) {
	if p.redis == nil && p.nats == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode solution event")
		return
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("channel", p.redisChannel).Msg("failed to publish solution event to redis")
		}
	}

	if p.nats != nil {
		subject := p.subjectPrefix + "." + event.Type
		if err := p.nats.Publish(subject, payload); err != nil {
			p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish solution event to nats")
		}
	}
}
