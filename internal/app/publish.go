package app

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/pastelhands/internal/gesture"
)

// FrameResult is what one loop cycle produced.
type FrameResult struct {
	SessionID string               `json:"session_id"`
	Seq       uint64               `json:"seq"`
	Timestamp time.Time            `json:"timestamp"`
	Width     int                  `json:"width"`
	Height    int                  `json:"height"`
	Color     gesture.Color        `json:"color"`
	Hands     []gesture.HandResult `json:"hands"`
	Events    []gesture.Event      `json:"events,omitempty"`
}

// Subscribe returns a channel of frame results and a func to unsubscribe.
// Slow subscribers miss frames rather than holding up the loop.
func (a *App) Subscribe(buffer int) (<-chan FrameResult, func()) {
	return a.frames.subscribe(buffer)
}

type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan FrameResult
	nextID int
}

func (b *broadcaster) subscribe(buffer int) (<-chan FrameResult, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan FrameResult, buffer)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]chan FrameResult)
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broadcaster) publish(r FrameResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Preview is the latest camera frame with its overlay, kept for the
// preview stream.
type Preview struct {
	Seq     uint64
	Frame   image.Image
	Overlay image.Image
}

type previewState struct {
	watchers int64
	mu       sync.RWMutex
	latest   Preview
	ok       bool
}

func (p *previewState) wanted() bool {
	return atomic.LoadInt64(&p.watchers) > 0
}

func (p *previewState) set(v Preview) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest, p.ok = v, true
}

func (p *previewState) get() (Preview, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.ok
}

func (p *previewState) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest, p.ok = Preview{}, false
}

// WatchPreview asks the loop to keep preview frames until the returned func
// is called. Converting frames costs time, so it only happens while someone
// watches.
func (a *App) WatchPreview() func() {
	atomic.AddInt64(&a.preview.watchers, 1)
	var once sync.Once
	return func() {
		once.Do(func() { atomic.AddInt64(&a.preview.watchers, -1) })
	}
}

// Preview returns the latest preview frame, if any.
func (a *App) Preview() (Preview, bool) {
	return a.preview.get()
}
