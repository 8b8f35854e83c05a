package providers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/domain"
)

// quoteStaleAfter bounds how old a streamed quote may be and still count as
// a contribution.
const quoteStaleAfter = 5 * time.Minute

// historyDepth caps the per-symbol tick ring served by GetPriceHistory.
const historyDepth = 512

// LiveQuoteAdapter consumes a streaming last-price feed over websocket and
// serves price/currency fields from its in-memory quote table. It
// contributes nothing else.
type LiveQuoteAdapter struct {
	endpoint string

	mu      sync.RWMutex
	quotes  map[string]liveQuote
	history map[string][]domain.PricePoint

	connected bool
	cancel    context.CancelFunc
	now       func() time.Time
	redial    time.Duration
}

type liveQuote struct {
	Price    float64
	Currency string
	At       time.Time
}

// quoteMessage is the stream's wire shape.
type quoteMessage struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Timestamp int64   `json:"ts"`
}

// NewLiveQuoteAdapter builds the adapter; Start must be called to connect.
func NewLiveQuoteAdapter(cfg config.ProviderConfig) *LiveQuoteAdapter {
	return &LiveQuoteAdapter{
		endpoint: cfg.WSEndpoint,
		quotes:   make(map[string]liveQuote),
		history:  make(map[string][]domain.PricePoint),
		now:      time.Now,
		redial:   5 * time.Second,
	}
}

// Start dials the stream and keeps reading until ctx is done, redialing
// with a fixed backoff on disconnect.
func (a *LiveQuoteAdapter) Start(ctx context.Context) {
	if a.endpoint == "" {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)
	go a.run(ctx)
}

// Stop tears down the stream.
func (a *LiveQuoteAdapter) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *LiveQuoteAdapter) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.endpoint, nil)
		if err != nil {
			log.Warn().Str("endpoint", a.endpoint).Err(err).Msg("Quote stream dial failed")
			a.setConnected(false)
		} else {
			a.setConnected(true)
			log.Info().Str("endpoint", a.endpoint).Msg("Quote stream connected")
			a.readLoop(ctx, conn)
			conn.Close()
			a.setConnected(false)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.redial):
		}
	}
}

func (a *LiveQuoteAdapter) readLoop(ctx context.Context, conn *websocket.Conn) {
	// The watcher must not outlive this connection.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("Quote stream read failed, reconnecting")
			}
			return
		}
		var msg quoteMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Symbol == "" || msg.Price <= 0 {
			continue
		}
		a.record(msg)
	}
}

func (a *LiveQuoteAdapter) record(msg quoteMessage) {
	at := time.Unix(msg.Timestamp, 0).UTC()
	if msg.Timestamp == 0 {
		at = a.now().UTC()
	}
	a.mu.Lock()
	a.quotes[msg.Symbol] = liveQuote{Price: msg.Price, Currency: msg.Currency, At: at}
	h := append(a.history[msg.Symbol], domain.PricePoint{
		Timestamp: at,
		Open:      msg.Price,
		High:      msg.Price,
		Low:       msg.Price,
		Close:     msg.Price,
	})
	if len(h) > historyDepth {
		h = h[len(h)-historyDepth:]
	}
	a.history[msg.Symbol] = h
	a.mu.Unlock()
}

func (a *LiveQuoteAdapter) setConnected(v bool) {
	a.mu.Lock()
	a.connected = v
	a.mu.Unlock()
}

func (a *LiveQuoteAdapter) Name() domain.SourceTag { return domain.SourceLiveQuote }

// IsAvailable requires a live connection.
func (a *LiveQuoteAdapter) IsAvailable() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// GetMetrics serves the last streamed quote if it is fresh enough. No
// quote for the symbol is absence, never an error.
func (a *LiveQuoteAdapter) GetMetrics(ctx context.Context, t domain.Ticker) (*domain.SourceSnapshot, error) {
	a.mu.RLock()
	q, ok := a.quotes[t.Symbol]
	a.mu.RUnlock()
	if !ok || a.now().Sub(q.At) > quoteStaleAfter {
		return nil, nil
	}
	snap := domain.NewSnapshot(domain.SourceLiveQuote, t.Symbol)
	snap.Set(domain.FieldPrice, q.Price)
	if q.Currency != "" {
		snap.Set(domain.FieldCurrency, q.Currency)
	}
	return snap, nil
}

// GetPriceHistory returns the accumulated tick ring for the symbol.
func (a *LiveQuoteAdapter) GetPriceHistory(ctx context.Context, t domain.Ticker, period string) ([]domain.PricePoint, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]domain.PricePoint{}, a.history[t.Symbol]...), nil
}
