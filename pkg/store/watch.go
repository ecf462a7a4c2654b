package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a store change notification.
type EventType int

const (
	// EventTokenChanged indicates the token was written or replaced.
	EventTokenChanged EventType = iota

	// EventTokenCleared indicates the token was removed.
	EventTokenCleared
)

func (t EventType) String() string {
	switch t {
	case EventTokenChanged:
		return "token-changed"
	case EventTokenCleared:
		return "token-cleared"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is emitted by Credentials.Watch when the stored token changes.
type Event struct {
	Type EventType
	Key  string
}

// Watch streams change events until ctx is cancelled. Callers should drain the
// returned channel to avoid blocking the watcher. The channel is closed once
// ctx is done or the watcher encounters an unrecoverable error.
func (c *credentials) Watch(ctx context.Context) (<-chan Event, error) {
	if c.basePath == "" {
		return nil, errors.New("store: base path unknown")
	}

	if err := os.MkdirAll(c.basePath, 0o700); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "store: watcher close: %v\n", err)
			}
		})
	}

	if err := watcher.Add(c.basePath); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: watch %s: %w", c.basePath, err)
	}

	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer closeWatcher()

		send := func(ev Event) {
			select {
			case events <- ev:
			default:
				// The consumer rereads the token on the next event anyway.
			}
		}

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		tokenPath := filepath.Join(filepath.Clean(c.basePath), TokenKey)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Unknown change: let subscribers reread.
				throttle.Enqueue(Event{Type: EventTokenChanged, Key: TokenKey}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != tokenPath {
					continue
				}
				if evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					throttle.Enqueue(Event{Type: EventTokenCleared, Key: TokenKey}, send)
					continue
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					throttle.Enqueue(Event{Type: EventTokenChanged, Key: TokenKey}, send)
				}
			}
		}
	}()

	return events, nil
}

// eventThrottle coalesces rapid change notifications so a write burst from
// one login is delivered as a single event. Only the last event per key in a
// burst survives.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]Event
	order   []string
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[string]Event),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	if _, ok := t.pending[ev.Key]; !ok {
		t.order = append(t.order, ev.Key)
	}
	t.pending[ev.Key] = ev

	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending, order := t.pending, t.order
	t.pending = make(map[string]Event)
	t.order = nil
	t.timer = nil
	t.mu.Unlock()

	for _, key := range order {
		send(pending[key])
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
