package events

import (
	"sync"

	"chatcmd/internal/infrastructure/logging"
)

const (
	TopicChatMessage     = "chat:message"
	TopicCommandsChanged = "commands:changed"
	TopicAppError        = "app:error"

	defaultBufferSize = 128
)

type Bus struct {
	mu        sync.RWMutex
	subs      map[string]map[int]chan any
	nextSubID int
	closed    bool

	dropMu     sync.Mutex
	dropCounts map[string]uint64
}

func NewBus() *Bus {
	return &Bus{
		subs:       make(map[string]map[int]chan any),
		dropCounts: make(map[string]uint64),
	}
}

// Publish never blocks; slow subscribers lose messages.
func (b *Bus) Publish(topic string, payload any) {
	if topic == "" {
		return
	}
	// Sends happen under the read lock so unsubscribe cannot close a channel
	// mid-send; they never block.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- payload:
		default:
			b.recordDrop(topic)
		}
	}
}

func (b *Bus) Subscribe(topic string) (<-chan any, func()) {
	ch := make(chan any, defaultBufferSize)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[string]map[int]chan any)
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan any)
	}
	id := b.nextSubID
	b.nextSubID++
	b.subs[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[topic]; ok {
				if _, ok := subs[id]; ok {
					delete(subs, id)
					close(ch)
				}
				if len(subs) == 0 {
					delete(b.subs, topic)
				}
			}
		})
	}

	return ch, unsubscribe
}

// Close drops every subscription and closes their channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subs, topic)
	}
}

func (b *Bus) recordDrop(topic string) {
	b.dropMu.Lock()
	defer b.dropMu.Unlock()
	if b.dropCounts == nil {
		b.dropCounts = make(map[string]uint64)
	}
	b.dropCounts[topic]++
	if b.dropCounts[topic]%100 == 1 {
		logging.Warn().Str("topic", topic).Uint64("drops", b.dropCounts[topic]).Msg("events: dropping messages")
	}
}
