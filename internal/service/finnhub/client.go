package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	drepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/logger"

	"github.com/gorilla/websocket"
)

// Trade is one print from the Finnhub trade stream.
type Trade struct {
	Symbol string
	Price  float64
	Volume float64
	At     time.Time
}

// Client reads last-trade prices from the Finnhub WebSocket.
type Client struct {
	apiKey       string
	websocketURL string
	pingInterval time.Duration
	dialer       *websocket.Dialer

	conn   *websocket.Conn
	logger *logger.Logger
}

func New(apiKey, websocketURL string, pingInterval time.Duration) *Client {
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	return &Client{
		apiKey:       apiKey,
		websocketURL: websocketURL,
		pingInterval: pingInterval,
		dialer:       websocket.DefaultDialer,
		logger:       logger.Nop(),
	}
}

func (c *Client) SetLogger(l *logger.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}
	c.conn = conn
	c.logger.Debug("finnhub connected")
	return nil
}

// Subscribe subscribes to trades for symbols.
func (c *Client) Subscribe(symbols []string) error {
	if c.conn == nil {
		return fmt.Errorf("finnhub not connected")
	}
	for _, s := range symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	return nil
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

// Read streams trades until ctx is done or the connection fails.
func (c *Client) Read(ctx context.Context) (<-chan Trade, <-chan error) {
	trades := make(chan Trade, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
				}
			}
		}
	}()

	go func() {
		defer close(trades)
		defer close(errs)
		if c.conn == nil {
			errs <- fmt.Errorf("finnhub conn nil")
			return
		}
		// unblock ReadMessage when the window closes
		stop := context.AfterFunc(ctx, func() { _ = c.conn.SetReadDeadline(time.Now()) })
		defer stop()
		for {
			_, b, err := c.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("finnhub read: %w", err)
				}
				return
			}
			var m fhMessage
			if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
				continue
			}
			for _, d := range m.Data {
				select {
				case trades <- Trade{Symbol: d.S, Price: d.P, Volume: d.V, At: time.UnixMilli(d.T)}:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return trades, errs
}

// LastPrices subscribes to symbols, collects trades for window and returns
// the latest price seen per symbol. Symbols without a print are absent.
func (c *Client) LastPrices(ctx context.Context, symbols []string, window time.Duration) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}
	if err := c.Connect(ctx); err != nil {
		return nil, drepo.NewProviderError("finnhub", "connect", err)
	}
	defer c.Close()
	if err := c.Subscribe(symbols); err != nil {
		return nil, drepo.NewProviderError("finnhub", "subscribe", err)
	}

	wctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	trades, errs := c.Read(wctx)

	last := make(map[string]Trade, len(symbols))
	for t := range trades {
		if cur, ok := last[t.Symbol]; !ok || !t.At.Before(cur.At) {
			last[t.Symbol] = t
		}
	}
	if err := <-errs; err != nil && len(last) == 0 {
		return nil, drepo.NewProviderError("finnhub", "read", err)
	}
	out := make(map[string]float64, len(last))
	for s, t := range last {
		out[s] = t.Price
	}
	return out, nil
}

// Close closes the WS connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
