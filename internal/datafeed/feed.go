package datafeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/quantmesh/metaperception/internal/perception"
)

// defaultWindow caps each feature's ring buffer
const defaultWindow = 512

// Tick is one websocket observation for a named feature
type Tick struct {
	Feature   string  `json:"feature"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
}

// Source materializes a fully-bound perception input for one cycle. The
// engine itself never touches live I/O; sources do the accumulation.
type Source interface {
	Materialize(ts time.Time, decisions []perception.PriorDecision) perception.Input
}

// Feed accumulates a websocket tick stream into per-feature ring buffers plus
// a map of latest scalar values, and materializes perception inputs on demand
type Feed struct {
	url     string
	window  int
	limiter *rate.Limiter

	mu      sync.RWMutex
	buffers map[string][]float64
	latest  map[string]float64
	conn    *websocket.Conn
}

// NewFeed creates a feed for the given websocket URL. maxTicksPerSec bounds
// ingest; window bounds per-feature history (0 uses the default).
func NewFeed(url string, maxTicksPerSec float64, window int) *Feed {
	if window <= 0 {
		window = defaultWindow
	}
	return &Feed{
		url:     url,
		window:  window,
		limiter: rate.NewLimiter(rate.Limit(maxTicksPerSec), int(maxTicksPerSec)),
		buffers: make(map[string][]float64),
		latest:  make(map[string]float64),
	}
}

// Connect dials the websocket endpoint
func (f *Feed) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	log.Info().Str("url", f.url).Msg("data feed connected")
	return nil
}

// Run reads ticks until the context is cancelled or the connection drops
func (f *Feed) Run(ctx context.Context) error {
	f.mu.RLock()
	conn := f.conn
	f.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("feed not connected")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		var tick Tick
		if err := conn.ReadJSON(&tick); err != nil {
			return fmt.Errorf("read tick: %w", err)
		}
		f.Ingest(tick)
	}
}

// Ingest appends one tick to its feature buffer, trimming to the window
func (f *Feed) Ingest(tick Tick) {
	if tick.Feature == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	buf := append(f.buffers[tick.Feature], tick.Value)
	if len(buf) > f.window {
		buf = buf[len(buf)-f.window:]
	}
	f.buffers[tick.Feature] = buf
	f.latest[tick.Feature] = tick.Value
}

// Materialize copies the accumulated series and scalar features into an
// immutable perception input for one cycle
func (f *Feed) Materialize(ts time.Time, decisions []perception.PriorDecision) perception.Input {
	f.mu.RLock()
	defer f.mu.RUnlock()

	market := make(map[string][]float64, len(f.buffers))
	for name, buf := range f.buffers {
		market[name] = append([]float64(nil), buf...)
	}
	features := make(map[string]float64, len(f.latest))
	for name, v := range f.latest {
		features[name] = v
	}

	return perception.Input{
		Timestamp:       ts,
		MarketData:      market,
		Features:        features,
		RecentDecisions: decisions,
	}
}

// Close tears down the websocket connection
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}
