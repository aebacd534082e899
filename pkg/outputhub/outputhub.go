// Package outputhub implements the per-task ordered output buffer with
// multi-subscriber fan-out described for the gateway's streaming surface.
// It generalizes the single global listener list the teacher repo used
// for lifecycle events into a bounded, per-task, multi-consumer stream.
package outputhub

import (
	"sync"

	"github.com/fcchi/mcp-security-gateway/pkg/logger"
)

var log = logger.New("outputhub")

// ChunkKind tags the origin of an output chunk.
type ChunkKind string

const (
	Stdout   ChunkKind = "stdout"
	Stderr   ChunkKind = "stderr"
	ExitCode ChunkKind = "exit_code"
	Event    ChunkKind = "event"
)

// Chunk is one unit of ordered output for a task.
type Chunk struct {
	TaskID      string
	Kind        ChunkKind
	Bytes       []byte
	TimestampMs int64
}

// DisconnectReason explains why a subscription's channel closed before the
// task reached terminal state.
type DisconnectReason string

const (
	// DisconnectNone means the subscription closed normally: the task
	// reached terminal state and all chunks were delivered.
	DisconnectNone DisconnectReason = ""
	// DisconnectLagged means the subscriber's queue exceeded
	// subscriber_queue_limit and was dropped.
	DisconnectLagged DisconnectReason = "subscriber_lagged"
	// DisconnectHubClosed means the topic was torn down (task reaped)
	// while the subscriber was still attached.
	DisconnectHubClosed DisconnectReason = "hub_closed"
)

const defaultSubscriberQueueLimit = 1024

// Config tunes hub behavior; zero values fall back to spec defaults.
type Config struct {
	MaxBufferedChunks   int
	SubscriberQueueLimit int
}

func (c Config) normalized() Config {
	if c.MaxBufferedChunks <= 0 {
		c.MaxBufferedChunks = 4096
	}
	if c.SubscriberQueueLimit <= 0 {
		c.SubscriberQueueLimit = defaultSubscriberQueueLimit
	}
	return c
}

// Hub owns one topic per task. The zero value is not usable; use New.
type Hub struct {
	cfg    Config
	mu     sync.Mutex
	topics map[string]*topic
}

// New creates a Hub with the given tuning. Pass a zero Config for defaults.
func New(cfg Config) *Hub {
	return &Hub{
		cfg:    cfg.normalized(),
		topics: make(map[string]*topic),
	}
}

type topic struct {
	mu          sync.Mutex
	replay      []Chunk
	dropped     int
	closed      bool
	terminal    bool
	subscribers map[*subscription]struct{}
}

type subscription struct {
	ch     chan Chunk
	limit  int
	closed bool
	reason DisconnectReason
}

// CreateTopic registers a new task's output stream. Must be called before
// any Publish or Subscribe for that task id.
func (h *Hub) CreateTopic(taskID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topics[taskID] = &topic{subscribers: make(map[*subscription]struct{})}
}

func (h *Hub) getTopic(taskID string) *topic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.topics[taskID]
}

// Publish appends a chunk to the task's buffer and fans it out to every
// live subscriber. Publishing after the topic has gone terminal is a no-op.
func (h *Hub) Publish(taskID string, kind ChunkKind, bytes []byte, timestampMs int64) {
	t := h.getTopic(taskID)
	if t == nil {
		return
	}

	chunk := Chunk{TaskID: taskID, Kind: kind, Bytes: bytes, TimestampMs: timestampMs}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.terminal {
		return
	}

	t.replay = append(t.replay, chunk)
	if len(t.replay) > h.cfg.MaxBufferedChunks {
		evict := len(t.replay) - h.cfg.MaxBufferedChunks
		t.replay = t.replay[evict:]
		t.dropped += evict
	}

	if kind == ExitCode {
		t.terminal = true
	}

	for sub := range t.subscribers {
		h.deliver(t, sub, chunk)
	}

	if t.terminal {
		h.closeAllLocked(t, DisconnectNone)
	}
}

// deliver sends chunk to sub, disconnecting it on backpressure. Must be
// called with t.mu held.
func (h *Hub) deliver(t *topic, sub *subscription, chunk Chunk) {
	if sub.closed {
		return
	}
	select {
	case sub.ch <- chunk:
	default:
		sub.reason = DisconnectLagged
		sub.closed = true
		close(sub.ch)
		delete(t.subscribers, sub)
		log.WithField("task_id", chunk.TaskID).Warn("subscriber lagged, disconnecting")
	}
}

func (h *Hub) closeAllLocked(t *topic, reason DisconnectReason) {
	for sub := range t.subscribers {
		if sub.closed {
			continue
		}
		sub.reason = reason
		sub.closed = true
		close(sub.ch)
	}
	t.subscribers = make(map[*subscription]struct{})
}

// Subscription is a live handle to a task's output stream.
type Subscription struct {
	ch  <-chan Chunk
	sub *subscription
}

// Chunks returns the channel of chunks. It closes once the task reaches
// terminal state, the subscriber lags, or the hub is closed; check Reason
// after the channel closes.
func (s *Subscription) Chunks() <-chan Chunk { return s.ch }

// Reason reports why Chunks() closed. Only meaningful after the channel
// has been drained and closed.
func (s *Subscription) Reason() DisconnectReason { return s.sub.reason }

// Subscribe attaches a new subscriber to taskID. The returned Subscription
// first replays buffered chunks (prefixed with a truncation Event if any
// were dropped before this subscriber joined), then streams live chunks.
func (h *Hub) Subscribe(taskID string) *Subscription {
	t := h.getTopic(taskID)
	if t == nil {
		ch := make(chan Chunk)
		close(ch)
		return &Subscription{ch: ch, sub: &subscription{}}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// The channel must hold the full replay burst up front (delivered
	// synchronously below) plus room for live chunks before backpressure
	// kicks in on subsequent Publish calls.
	capacity := h.cfg.SubscriberQueueLimit + len(t.replay) + 1
	sub := &subscription{ch: make(chan Chunk, capacity), limit: h.cfg.SubscriberQueueLimit}

	if t.dropped > 0 {
		sub.ch <- Chunk{
			TaskID: taskID,
			Kind:   Event,
			Bytes:  []byte("history truncated"),
		}
	}
	for _, c := range t.replay {
		sub.ch <- c
	}

	if t.terminal {
		sub.closed = true
		close(sub.ch)
	} else {
		t.subscribers[sub] = struct{}{}
	}

	return &Subscription{ch: sub.ch, sub: sub}
}

// PublishCancelled emits the synthetic "cancelled" Event chunk and closes
// the topic, used by the executor when a cancel_signal preempts a task.
func (h *Hub) PublishCancelled(taskID string, timestampMs int64) {
	t := h.getTopic(taskID)
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.terminal {
		return
	}
	chunk := Chunk{TaskID: taskID, Kind: Event, Bytes: []byte("cancelled"), TimestampMs: timestampMs}
	t.replay = append(t.replay, chunk)
	t.terminal = true
	for sub := range t.subscribers {
		h.deliver(t, sub, chunk)
	}
	h.closeAllLocked(t, DisconnectNone)
}

// Close tears down a task's topic, disconnecting any still-attached
// subscribers with DisconnectHubClosed. Called by the reaper once a
// terminal record's retention window has elapsed.
func (h *Hub) Close(taskID string) {
	h.mu.Lock()
	t, ok := h.topics[taskID]
	if ok {
		delete(h.topics, taskID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		h.closeAllLocked(t, DisconnectHubClosed)
	}
}

// HasLiveSubscribers reports whether any subscriber is still attached to
// taskID.
func (h *Hub) HasLiveSubscribers(taskID string) bool {
	t := h.getTopic(taskID)
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers) > 0
}
