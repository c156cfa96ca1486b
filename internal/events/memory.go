package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryBus is an in-process bus used when NATS is not configured. Topics
// match exactly or by a trailing ".>" wildcard.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]*memSub
	next int
	// rr rotates deliveries within each queue group.
	rr map[string]int
}

type memSub struct {
	id    int
	topic string
	queue string
	ch    chan []byte
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]*memSub), rr: make(map[string]int)}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	groups := map[string][]*memSub{}
	for _, s := range b.subs {
		if !matchTopic(s.topic, topic) {
			continue
		}
		if s.queue != "" {
			groups[s.queue] = append(groups[s.queue], s)
			continue
		}
		deliver(s, topic, data)
	}
	for queue, members := range groups {
		sort.Slice(members, func(i, j int) bool { return members[i].id < members[j].id })
		n := b.rr[queue]
		b.rr[queue] = n + 1
		deliver(members[n%len(members)], topic, data)
	}
	return nil
}

func deliver(s *memSub, topic string, data []byte) {
	select {
	case s.ch <- data:
	default:
		dropped(topic)
	}
}

func (b *MemoryBus) Subscribe(topic string) (<-chan []byte, func(), error) {
	return b.subscribe(topic, "")
}

func (b *MemoryBus) QueueSubscribe(topic, queue string) (<-chan []byte, func(), error) {
	return b.subscribe(topic, queue)
}

func (b *MemoryBus) subscribe(topic, queue string) (<-chan []byte, func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	s := &memSub{id: id, topic: topic, queue: queue, ch: make(chan []byte, SubscriberBuffer)}
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(s.ch)
			}
			b.mu.Unlock()
		})
	}
	return s.ch, cancel, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
	return nil
}

func matchTopic(pattern, topic string) bool {
	if strings.HasSuffix(pattern, ".>") {
		return strings.HasPrefix(topic, strings.TrimSuffix(pattern, ">"))
	}
	return pattern == topic
}
