package media

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
	"go.uber.org/atomic"
	"go.uber.org/ratelimit"
)

type FlushFunc func(groupID string, messages []*models.Message)

// Collector buffers the photos of a media group until the group has been
// quiet for the window, then hands them over once in arrival order.
type Collector struct {
	windows map[string]*Window
	mu      sync.Mutex
	window  time.Duration
	limiter ratelimit.Limiter
	flushed *atomic.Int64
}

type Window struct {
	Messages []*models.Message
	Timer    *time.Timer
	gen      uint64
}

func NewCollector(window time.Duration, replayPerSecond int) *Collector {
	if window <= 0 {
		window = time.Second
	}
	if replayPerSecond <= 0 {
		replayPerSecond = 3
	}
	return &Collector{
		windows: make(map[string]*Window),
		window:  window,
		limiter: ratelimit.New(replayPerSecond),
		flushed: atomic.NewInt64(0),
	}
}

func (c *Collector) Add(groupID string, message *models.Message, flush FlushFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	window, ok := c.windows[groupID]
	if !ok {
		window = &Window{Messages: make([]*models.Message, 0, 10)}
		c.windows[groupID] = window
	}
	window.Messages = append(window.Messages, message)
	window.gen++
	gen := window.gen

	if window.Timer != nil {
		window.Timer.Stop()
	}
	window.Timer = time.AfterFunc(c.window, func() {
		c.fire(groupID, window, gen, flush)
	})
}

func (c *Collector) fire(groupID string, window *Window, gen uint64, flush FlushFunc) {
	c.mu.Lock()
	if c.windows[groupID] != window || window.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.windows, groupID)
	messages := window.Messages
	c.mu.Unlock()

	c.flushed.Add(int64(len(messages)))
	flush(groupID, messages)
}

// Replay feeds messages to fn one by one, paced by the replay limiter.
func (c *Collector) Replay(ctx context.Context, messages []*models.Message, fn func(*models.Message)) {
	for _, m := range messages {
		if ctx.Err() != nil {
			return
		}
		c.limiter.Take()
		fn(m)
	}
}

func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}

func (c *Collector) Flushed() int64 {
	return c.flushed.Load()
}
