// Package sse pushes live page updates (letters, countdown, confetti) to
// browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event is one message for every connected page.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types pushed to the page.
const (
	TypeLetterCreated   = "letter.created"
	TypeLetterDeleted   = "letter.deleted"
	TypeLettersReloaded = "letters.reloaded"
	TypeLettersCount    = "letters.count"
	TypeCountdownTick   = "countdown.tick"
	TypeConfettiSpawn   = "confetti.spawn"
	TypeConfettiToggled = "confetti.toggled"
)

const (
	clientBuffer     = 64
	retryMillis      = 3000
	defaultHeartbeat = 25 * time.Second
)

type letterChange struct {
	kind  string
	id    string
	count int
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sets how often idle streams receive a comment line so
// proxies keep them open. Zero or less disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) { b.heartbeat = d }
}

// Broker fans events out to subscribed streams.
//
// One goroutine owns the subscriber set, the event sequence and the
// letters.count throttle; the exported methods talk to it over channels.
type Broker struct {
	countEvery time.Duration
	heartbeat  time.Duration

	join    chan chan []byte
	leave   chan chan []byte
	events  chan Event
	changes chan letterChange
	size    chan chan int

	quit    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. letters.count is sent at most once per
// countThrottle (two seconds when zero or less); a count that changed inside
// the window is sent when the window ends.
func NewBroker(countThrottle time.Duration, opts ...Option) *Broker {
	if countThrottle <= 0 {
		countThrottle = 2 * time.Second
	}

	b := &Broker{
		countEvery: countThrottle,
		heartbeat:  defaultHeartbeat,
		join:       make(chan chan []byte),
		leave:      make(chan chan []byte),
		events:     make(chan Event, 256),
		changes:    make(chan letterChange, 256),
		size:       make(chan chan int),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.loop()
	return b
}

// frame encodes e in the text/event-stream format.
func frame(seq uint64, e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(payload)+len(e.Type)+32)
	buf = append(buf, "id: "...)
	buf = strconv.AppendUint(buf, seq, 10)
	buf = append(buf, "\nevent: "...)
	buf = append(buf, e.Type...)
	buf = append(buf, "\ndata: "...)
	buf = append(buf, payload...)
	buf = append(buf, "\n\n"...)
	return buf, nil
}

// translate turns a letter change into the events it produces.
func translate(c letterChange) []Event {
	switch c.kind {
	case "created":
		return []Event{{Type: TypeLetterCreated, Data: map[string]string{"id": c.id}}}
	case "deleted":
		return []Event{{Type: TypeLetterDeleted, Data: map[string]string{"id": c.id}}}
	case "reloaded":
		return []Event{{Type: TypeLettersReloaded, Data: map[string]string{}}}
	}
	return nil
}

func countEvent(n int) Event {
	return Event{Type: TypeLettersCount, Data: map[string]int{"count": n}}
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subs := make(map[chan []byte]struct{})
	var seq uint64

	// letters.count goes out on the leading edge of a window; the latest
	// count seen inside the window is flushed when it closes.
	var (
		lastCount time.Time
		pending   int
		flushT    *time.Timer
		flush     <-chan time.Time
	)
	defer func() {
		if flushT != nil {
			flushT.Stop()
		}
	}()

	send := func(e Event) {
		seq++
		msg, err := frame(seq, e)
		if err != nil {
			return
		}
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Slow reader; it misses this event.
			}
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range subs {
				close(ch)
			}
			return

		case ch := <-b.join:
			subs[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case e := <-b.events:
			send(e)

		case c := <-b.changes:
			for _, e := range translate(c) {
				send(e)
			}
			now := time.Now()
			switch {
			case flush != nil:
				pending = c.count
			case now.Sub(lastCount) >= b.countEvery:
				lastCount = now
				send(countEvent(c.count))
			default:
				pending = c.count
				flushT = time.NewTimer(b.countEvery - now.Sub(lastCount))
				flush = flushT.C
			}

		case <-flush:
			flushT, flush = nil, nil
			lastCount = time.Now()
			send(countEvent(pending))

		case reply := <-b.size:
			reply <- len(subs)
		}
	}
}

// Close stops the broker and closes every subscriber channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.stopped
}

// Subscribe registers a new stream. The channel is closed by Unsubscribe or
// Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes ch and closes it.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of open streams.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	reply := make(chan int, 1)
	select {
	case b.size <- reply:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish queues e for every stream.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- e:
	case <-b.stopped:
	}
}

// PublishLetterEvent reports a change to the letter list: kind is "created",
// "deleted" or "reloaded", count the number of letters afterwards. A
// throttled letters.count event follows.
func (b *Broker) PublishLetterEvent(kind, id string, count int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changes <- letterChange{kind: kind, id: id, count: count}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /events) until it disconnects
// or the broker closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: " + strconv.Itoa(retryMillis) + "\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var ping <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		ping = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
