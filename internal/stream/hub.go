package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"backend-hikelog/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "hikes:"
	channelSuffix  = ":track"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans live track updates out to websocket clients watching a hike.
// With redis configured every update goes through pub/sub so that all API
// instances see it; without redis delivery stays in process.
type Hub struct {
	redis   *redis.Client
	metrics *metrics.Manager
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
}

type Client struct {
	HikeID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, m *metrics.Manager) *Hub {
	h := &Hub{
		metrics: m,
		clients: map[string]map[*Client]struct{}{},
		cancel:  func() {},
	}
	if redisClient == nil {
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("redis subscribe failed, live tracks stay local: %v", err)
		_ = pubsub.Close()
		cancel()
		return h
	}
	h.redis = redisClient
	h.cancel = func() {
		cancel()
		_ = pubsub.Close()
	}
	go h.forward(pubsub)
	return h
}

func (h *Hub) Register(hikeID string) *Client {
	client := &Client{
		HikeID: hikeID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[hikeID] == nil {
		h.clients[hikeID] = map[*Client]struct{}{}
	}
	h.clients[hikeID][client] = struct{}{}
	h.metrics.StreamClientConnected()
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	watchers, ok := h.clients[client.HikeID]
	if !ok {
		return
	}
	if _, registered := watchers[client]; !registered {
		return
	}
	delete(watchers, client)
	if len(watchers) == 0 {
		delete(h.clients, client.HikeID)
	}
	close(client.Send)
	h.metrics.StreamClientDisconnected()
}

// Broadcast publishes payload to everyone watching hikeID. A failed publish
// falls back to local delivery.
func (h *Hub) Broadcast(hikeID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), channelFor(hikeID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliver(hikeID, payload)
}

// Watchers reports how many clients currently follow hikeID.
func (h *Hub) Watchers(hikeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[hikeID])
}

// Close stops the redis subscription. Local delivery keeps working.
func (h *Hub) Close() {
	h.cancel()
}

func (h *Hub) deliver(hikeID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[hikeID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward(pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		if hikeID := hikeIDFromChannel(msg.Channel); hikeID != "" {
			h.deliver(hikeID, []byte(msg.Payload))
		}
	}
}

func channelFor(hikeID string) string {
	return channelPrefix + hikeID + channelSuffix
}

// hikeIDFromChannel parses hikes:{id}:track.
func hikeIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
