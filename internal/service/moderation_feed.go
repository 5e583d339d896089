package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/observability"
)

const moderationFeedBufferSize = 32

// ModerationEventPublisher receives committed moderation decisions.
type ModerationEventPublisher interface {
	Publish(ctx context.Context, event dto.ModerationEvent)
}

// ModerationFeed fans moderation events out to connected admins on every node.
type ModerationFeed interface {
	ModerationEventPublisher
	Subscribe() (<-chan dto.ModerationEvent, func())
	Subscribers() int
	Start(ctx context.Context)
}

type moderationFeed struct {
	mu           sync.RWMutex
	subscribers  map[chan dto.ModerationEvent]struct{}
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

type moderationEnvelope struct {
	Source string              `json:"source"`
	Event  dto.ModerationEvent `json:"event"`
}

// NewModerationFeed constructs the live feed. Either transport may be nil; when
// both are set events are relayed over NATS only.
func NewModerationFeed(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ModerationFeed {
	channel, subject := relayNames(channelBase, "moderation", natsConn)
	return &moderationFeed{
		subscribers:  make(map[chan dto.ModerationEvent]struct{}),
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "moderation_feed").Logger(),
	}
}

func (f *moderationFeed) Publish(ctx context.Context, event dto.ModerationEvent) {
	f.broadcast(event)

	payload, err := json.Marshal(moderationEnvelope{Source: f.nodeID, Event: event})
	if err != nil {
		f.logger.Warn().Err(err).Msg("failed to encode moderation event")
		return
	}

	if f.redis != nil && f.redisChannel != "" {
		if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to relay moderation event over redis")
		}
	}
	if f.nats != nil && f.natsSubject != "" {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			f.logger.Warn().Err(err).Msg("failed to relay moderation event over nats")
		}
	}
}

func (f *moderationFeed) Subscribe() (<-chan dto.ModerationEvent, func()) {
	ch := make(chan dto.ModerationEvent, moderationFeedBufferSize)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	observability.ModerationFeedClients().Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			close(ch)
			f.mu.Unlock()
			observability.ModerationFeedClients().Dec()
		})
	}
}

func (f *moderationFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

func (f *moderationFeed) Start(ctx context.Context) {
	if f.redis != nil && f.redisChannel != "" {
		go f.consumeRedis(ctx)
	}
	if f.nats != nil && f.natsSubject != "" {
		sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
			f.handleRelay(msg.Data)
		})
		if err != nil {
			f.logger.Error().Err(err).Msg("failed to subscribe to moderation subject")
			return
		}
		go func() {
			<-ctx.Done()
			if err := sub.Drain(); err != nil {
				f.logger.Warn().Err(err).Msg("failed to drain moderation subscription")
			}
		}()
	}
}

func (f *moderationFeed) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			f.logger.Error().Err(err).Msg("moderation redis subscription closed")
			return
		}
		f.handleRelay([]byte(msg.Payload))
	}
}

func (f *moderationFeed) handleRelay(payload []byte) {
	var envelope moderationEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		f.logger.Warn().Err(err).Msg("invalid moderation event payload")
		return
	}
	if envelope.Source == f.nodeID {
		return
	}
	f.broadcast(envelope.Event)
}

func (f *moderationFeed) broadcast(event dto.ModerationEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			f.logger.Debug().Str("kind", event.Kind).Uint("entity_id", event.EntityID).Msg("dropping moderation event for slow subscriber")
		}
	}
}
