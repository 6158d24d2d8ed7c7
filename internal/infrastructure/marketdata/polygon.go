// Package marketdata adapts the Polygon.io aggregates REST API and trade
// websocket stream to the domain types.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/domain"
)

const (
	PolygonBaseURL = "https://api.polygon.io"
	PolygonWSURL   = "wss://socket.polygon.io/stocks"
)

type PolygonAdapter struct {
	apiKey  string
	baseURL string
	wsURL   string
	client  *http.Client
	logger  *zap.Logger

	wsConn    *websocket.Conn
	callbacks []domain.TickHandler
	mu        sync.Mutex
}

func NewPolygonAdapter(apiKey, baseURL, wsURL string, logger *zap.Logger) *PolygonAdapter {
	if baseURL == "" {
		baseURL = PolygonBaseURL
	}
	if wsURL == "" {
		wsURL = PolygonWSURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolygonAdapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		wsURL:   wsURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// --- REST API ---

// FetchAggregates pulls adjusted OHLCV aggregates for a ticker, e.g.
// multiplier=1 timespan="day" for daily bars.
func (p *PolygonAdapter) FetchAggregates(ctx context.Context, ticker string, multiplier int, timespan string, from, to time.Time) ([]domain.Bar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(ticker), multiplier, timespan,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	params := url.Values{}
	params.Set("adjusted", "true") // adjust for splits/dividends
	params.Set("sort", "asc")
	params.Set("limit", "50000")
	params.Set("apiKey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("polygon API error: %s", string(body))
	}

	var result struct {
		Status  string `json:"status"`
		Results []struct {
			T int64   `json:"t"` // timestamp ms
			O float64 `json:"o"`
			H float64 `json:"h"`
			L float64 `json:"l"`
			C float64 `json:"c"`
			V float64 `json:"v"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.Status != "OK" && result.Status != "DELAYED" {
		return nil, fmt.Errorf("polygon status %q for %s", result.Status, ticker)
	}

	bars := make([]domain.Bar, 0, len(result.Results))
	for _, r := range result.Results {
		bars = append(bars, domain.Bar{
			Time:   time.UnixMilli(r.T).UTC(),
			Open:   r.O,
			High:   r.H,
			Low:    r.L,
			Close:  r.C,
			Volume: r.V,
		})
	}
	return bars, nil
}

// --- Websocket stream ---

// OnTick registers a callback for live trade ticks.
func (p *PolygonAdapter) OnTick(handler domain.TickHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, handler)
}

// ConnectWS dials the trade stream, authenticates and subscribes to the
// given symbols.
func (p *PolygonAdapter) ConnectWS(symbols []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wsConn != nil {
		return p.subscribe(symbols)
	}

	c, _, err := websocket.DefaultDialer.Dial(p.wsURL, nil)
	if err != nil {
		return err
	}
	p.wsConn = c

	auth := map[string]string{"action": "auth", "params": p.apiKey}
	if err := c.WriteJSON(auth); err != nil {
		c.Close()
		p.wsConn = nil
		return err
	}

	go p.readLoop()

	return p.subscribe(symbols)
}

func (p *PolygonAdapter) subscribe(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	params := ""
	for i, s := range symbols {
		if i > 0 {
			params += ","
		}
		params += "T." + s
	}
	msg := map[string]string{"action": "subscribe", "params": params}
	return p.wsConn.WriteJSON(msg)
}

func (p *PolygonAdapter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wsConn == nil {
		return nil
	}
	err := p.wsConn.Close()
	p.wsConn = nil
	return err
}

func (p *PolygonAdapter) readLoop() {
	defer func() {
		p.mu.Lock()
		if p.wsConn != nil {
			p.wsConn.Close()
			p.wsConn = nil
		}
		p.mu.Unlock()
	}()

	for {
		p.mu.Lock()
		conn := p.wsConn
		p.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			p.logger.Warn("ws read error", zap.Error(err))
			return
		}

		// Polygon delivers events as a JSON array.
		var events []struct {
			Ev     string  `json:"ev"`
			Sym    string  `json:"sym"`
			Price  float64 `json:"p"`
			Size   float64 `json:"s"`
			TimeMs int64   `json:"t"`
		}
		if err := json.Unmarshal(message, &events); err != nil {
			p.logger.Debug("ws unmarshal error", zap.Error(err))
			continue
		}

		for _, ev := range events {
			if ev.Ev != "T" {
				continue
			}

			p.mu.Lock()
			callbacks := make([]domain.TickHandler, len(p.callbacks))
			copy(callbacks, p.callbacks)
			p.mu.Unlock()

			ts := time.UnixMilli(ev.TimeMs).UTC()
			for _, cb := range callbacks {
				cb(ev.Sym, ev.Price, ev.Size, ts)
			}
		}
	}
}
