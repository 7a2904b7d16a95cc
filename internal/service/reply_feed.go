package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/observability"
)

const replyFeedBufferSize = 16

// ReplyFeed streams freshly created replies to subscribers following a thread.
type ReplyFeed interface {
	ReplyPublisher
	Subscribe(threadID uint) (<-chan dto.ReplyResponse, func())
	Start(ctx context.Context)
}

type replyFeed struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *replyBroker
	nodeID      string
}

type replyEvent struct {
	Source string            `json:"source"`
	Reply  dto.ReplyResponse `json:"reply"`
	SentAt time.Time         `json:"sent_at"`
}

type replyBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.ReplyResponse]struct{}
}

// NewReplyFeed constructs the feed. Redis and NATS are optional; when channelBase is empty
// the feed only reaches subscribers connected to this node.
func NewReplyFeed(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) ReplyFeed {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":replies"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".replies"
	}

	return &replyFeed{
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "reply_feed").Logger(),
		broker: &replyBroker{
			subscribers: make(map[uint]map[chan dto.ReplyResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (f *replyFeed) Start(ctx context.Context) {
	if f.redis != nil && f.redisStream != "" {
		go f.consumeRedis(ctx)
	}
	if f.nats != nil && f.natsSubject != "" {
		go f.consumeNATS(ctx)
	}
}

func (f *replyFeed) Publish(ctx context.Context, reply dto.ReplyResponse) {
	f.broker.broadcast(reply)

	if err := f.forward(ctx, reply); err != nil {
		f.logger.Warn().Err(err).Uint("thread_id", reply.ThreadID).Msg("failed to forward reply event")
	}
}

func (f *replyFeed) Subscribe(threadID uint) (<-chan dto.ReplyResponse, func()) {
	channel := make(chan dto.ReplyResponse, replyFeedBufferSize)

	f.broker.subscribe(threadID, channel)
	observability.LiveSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.broker.unsubscribe(threadID, channel)
			observability.LiveSubscribers().Dec()
		})
	}

	return channel, cleanup
}

func (f *replyFeed) forward(ctx context.Context, reply dto.ReplyResponse) error {
	if (f.redis == nil || f.redisStream == "") && (f.nats == nil || f.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(replyEvent{
		Source: f.nodeID,
		Reply:  reply,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if f.redis != nil && f.redisStream != "" {
		if err := f.redis.Publish(ctx, f.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if f.nats != nil && f.natsSubject != "" {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (f *replyFeed) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			f.logger.Error().Err(err).Msg("reply feed redis subscription closed")
			return
		}
		f.handleEvent([]byte(msg.Payload))
	}
}

func (f *replyFeed) consumeNATS(ctx context.Context) {
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleEvent(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to nats replies subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain replies nats subscription")
		}
	}()
}

// handleEvent rebroadcasts replies created on other nodes. Events that reach us through
// both Redis and NATS are delivered twice; subscribers dedupe on reply ID.
func (f *replyFeed) handleEvent(payload []byte) {
	var event replyEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		f.logger.Warn().Err(err).Msg("invalid reply event payload")
		return
	}

	if event.Source == f.nodeID {
		return
	}

	f.broker.broadcast(event.Reply)
}

func (b *replyBroker) subscribe(threadID uint, ch chan dto.ReplyResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[threadID]; !exists {
		b.subscribers[threadID] = make(map[chan dto.ReplyResponse]struct{})
	}
	b.subscribers[threadID][ch] = struct{}{}
}

func (b *replyBroker) unsubscribe(threadID uint, ch chan dto.ReplyResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[threadID]; ok {
		if _, present := subscribers[ch]; !present {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, threadID)
		}
	}
}

func (b *replyBroker) broadcast(reply dto.ReplyResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[reply.ThreadID] {
		select {
		case ch <- reply:
		default:
		}
	}
}
