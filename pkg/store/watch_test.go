package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

type testConfig struct {
	path string
}

func (t testConfig) BasePath() string           { return t.path }
func (t testConfig) APIURL() string             { return "http://localhost:8000" }
func (t testConfig) WeekStart() string          { return "sunday" }
func (t testConfig) Lang() string               { return "en" }
func (t testConfig) HTTPTimeout() time.Duration { return 0 }

func TestCredentialsRoundTrip(t *testing.T) {
	c, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tok, err := c.Token(); err != nil || tok != "" {
		t.Fatalf("empty store should have no token, got %q %v", tok, err)
	}
	if err := c.SetToken("abc\n"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if tok, _ := c.Token(); tok != "abc" {
		t.Fatalf("expected abc, got %q", tok)
	}

	// A second handle on the same path sees the write.
	other, _ := Load(testConfig{path: c.(*credentials).basePath})
	if tok, _ := other.Token(); tok != "abc" {
		t.Fatalf("second handle read %q", tok)
	}

	if err := c.ClearToken(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.ClearToken(); err != nil {
		t.Fatalf("clearing twice should be fine: %v", err)
	}
	if tok, _ := other.Token(); tok != "" {
		t.Fatalf("token survived clear: %q", tok)
	}
}

func TestWatchEmitsTokenChanges(t *testing.T) {
	base := t.TempDir()
	c, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe before writing.
	time.Sleep(50 * time.Millisecond)

	if err := c.SetToken("hello"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	waitFor(t, ch, EventTokenChanged)

	if err := c.ClearToken(); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	waitFor(t, ch, EventTokenCleared)
}

func waitFor(t *testing.T, ch <-chan Event, want EventType) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Key != TokenKey {
				t.Fatalf("unexpected key %q", evt.Key)
			}
			if evt.Type == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestThrottleCoalescesBursts(t *testing.T) {
	th := newEventThrottle(20 * time.Millisecond)
	defer th.Stop()

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{})
	send := func(ev Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		close(done)
	}
	th.Enqueue(Event{Type: EventTokenChanged, Key: TokenKey}, send)
	th.Enqueue(Event{Type: EventTokenChanged, Key: TokenKey}, send)
	th.Enqueue(Event{Type: EventTokenCleared, Key: TokenKey}, send)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("throttle never flushed")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Type != EventTokenCleared {
		t.Fatalf("expected one cleared event, got %v", got)
	}
}
