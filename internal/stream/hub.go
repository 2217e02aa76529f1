package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"backend-yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

const EventPostCreated = "post_created"

// Event is pushed to everyone watching an author's feed.
type Event struct {
	Type    string    `json:"type"`
	Author  string    `json:"author"`
	PostID  int64     `json:"post_id"`
	Text    string    `json:"text"`
	Group   string    `json:"group,omitempty"`
	PubDate time.Time `json:"pub_date"`
}

type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Username string
	Send     chan []byte
}

// NewHub fans events out to local websocket clients. With a redis client the
// hub also relays through pub/sub so every process sees every event.
func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx := context.Background()
		h.pubsub = redisClient.PSubscribe(ctx, redisPattern)
		if _, err := h.pubsub.Receive(ctx); err != nil {
			observability.Logger.Warn("stream subscribe failed, using local delivery", "error", err)
			_ = h.pubsub.Close()
			h.pubsub = nil
		} else {
			go h.subscribeRedis()
		}
	}
	return h
}

func (h *Hub) Register(username string) *Client {
	client := &Client{
		Username: username,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[username] == nil {
		h.clients[username] = map[*Client]struct{}{}
	}
	h.clients[username][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userClients := h.clients[client.Username]
	if _, ok := userClients[client]; !ok {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.Username)
	}
	close(client.Send)
}

// Publish encodes the event and delivers it on the author's channel.
func (h *Hub) Publish(ctx context.Context, username string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "stream encode failed", "error", err)
		return
	}
	observability.StreamEvents.WithLabelValues(event.Type).Inc()
	h.Broadcast(ctx, username, payload)
}

// Broadcast delivers raw bytes. When pub/sub is up the local fan-out happens in
// the subscriber so clients see each message once.
func (h *Hub) Broadcast(ctx context.Context, username string, payload []byte) {
	if h.pubsub != nil {
		err := h.redis.Publish(ctx, redisChannel(username), payload).Err()
		if err == nil {
			return
		}
		observability.Logger.WarnContext(ctx, "redis publish failed", "channel", redisChannel(username), "error", err)
	}
	h.deliver(username, payload)
}

func (h *Hub) deliver(username string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[username] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	for msg := range h.pubsub.Channel() {
		username := usernameFromChannel(msg.Channel)
		if username == "" {
			continue
		}
		h.deliver(username, []byte(msg.Payload))
	}
}

// Close stops the redis relay.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

const (
	channelPrefix = "feed:"
	channelSuffix = ":posts"
	redisPattern  = channelPrefix + "*" + channelSuffix
)

func redisChannel(username string) string {
	return channelPrefix + username + channelSuffix
}

func usernameFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(ch, channelPrefix), channelSuffix)
}
