package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeCountdownTick, Data: map[string]int{"days": 3}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: countdown.tick") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"days":3`) {
			t.Errorf("missing data in %q", s)
		}
		if !strings.HasPrefix(s, "id: 1\n") {
			t.Errorf("missing event id in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishLetterEvent_CountThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger letters.count.
	b.PublishLetterEvent("created", "a", 1)
	// Second event immediately should NOT trigger another letters.count.
	b.PublishLetterEvent("deleted", "a", 0)

	time.Sleep(50 * time.Millisecond)
	countEvents := 0
	letterEvents := 0
	var first string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "letters.count") {
				countEvents++
				first = s
			} else {
				letterEvents++
			}
		default:
			break loop
		}
	}

	if letterEvents != 2 {
		t.Errorf("letter events = %d, want 2", letterEvents)
	}
	if countEvents != 1 {
		t.Errorf("count events = %d, want 1 (throttled)", countEvents)
	}
	if !strings.Contains(first, `"count":1`) {
		t.Errorf("count payload = %q", first)
	}
}

func TestPublishLetterEvent_CountFlushedAfterWindow(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLetterEvent("created", "a", 1)
	b.PublishLetterEvent("created", "b", 2)
	b.PublishLetterEvent("created", "c", 3)

	var counts []string
	deadline := time.After(time.Second)
	for len(counts) < 2 {
		select {
		case msg := <-ch:
			if s := string(msg); strings.Contains(s, "letters.count") {
				counts = append(counts, s)
			}
		case <-deadline:
			t.Fatalf("count events = %q, want leading and trailing", counts)
		}
	}
	if !strings.Contains(counts[0], `"count":1`) {
		t.Errorf("leading count = %q", counts[0])
	}
	if !strings.Contains(counts[1], `"count":3`) {
		t.Errorf("trailing count = %q, want the latest", counts[1])
	}

	select {
	case msg := <-ch:
		t.Errorf("unexpected event after flush: %q", msg)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestPublishLetterEvent_Reloaded(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLetterEvent("reloaded", "", 4)
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: letters.reloaded") {
			t.Errorf("unexpected first event %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for reload event")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishLetterEvent("created", "abc", 1)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: letter.created") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("missing retry hint: %q", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then some; none of this may block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: TypeConfettiSpawn, Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeLetterCreated, Data: map[string]string{"id": "x"}})
	b.PublishLetterEvent("deleted", "x", 0)
	b.Close()
}

func TestFrame(t *testing.T) {
	got, err := frame(7, Event{Type: TypeLettersCount, Data: map[string]int{"count": 2}})
	if err != nil {
		t.Fatal(err)
	}
	want := "id: 7\nevent: letters.count\ndata: {\"count\":2}\n\n"
	if string(got) != want {
		t.Errorf("frame = %q, want %q", got, want)
	}

	if _, err := frame(1, Event{Type: "x", Data: func() {}}); err == nil {
		t.Error("unencodable data should fail")
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"created", TypeLetterCreated},
		{"deleted", TypeLetterDeleted},
		{"reloaded", TypeLettersReloaded},
		{"bogus", ""},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			events := translate(letterChange{kind: tt.kind, id: "x"})
			if tt.want == "" {
				if len(events) != 0 {
					t.Errorf("events = %v, want none", events)
				}
				return
			}
			if len(events) != 1 || events[0].Type != tt.want {
				t.Errorf("events = %v, want %s", events, tt.want)
			}
		})
	}
}

func TestSSEHandlerHeartbeat(t *testing.T) {
	b := NewBroker(time.Second, WithHeartbeat(10*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx))

	if !strings.Contains(w.Body.String(), ": ping\n\n") {
		t.Errorf("no heartbeat in %q", w.Body.String())
	}
}

func TestSSEHandlerEndsOnClose(t *testing.T) {
	b := NewBroker(time.Second)

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))
		close(done)
	}()

	for b.ClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	b.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler still running after Close")
	}
}
