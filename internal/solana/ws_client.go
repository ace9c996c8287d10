package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		SubscribeTimeout: 30 * time.Second,
		PingInterval:     30 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// SignatureResult is the one-shot notification a signature subscription
// delivers once the ledger processes the transaction.
type SignatureResult struct {
	Slot int64
	// Err is the on-chain execution error, nil on success.
	Err interface{}
}

// WSClient subscribes to signature confirmations over the ledger's pubsub
// endpoint. Signature subscriptions fire exactly once; the server cancels
// them after delivery. The polling path remains the fallback when no WS
// endpoint is configured or the connection drops.
type WSClient struct {
	endpoint string
	config   WSClientConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to the waiting channel.
	subs   map[int64]chan SignatureResult
	subsMu sync.Mutex

	// pendingSubs maps request ID to channel waiting for subscription ID.
	pendingSubs   map[uint64]chan int64
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient creates a WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint:    endpoint,
		config:      cfg,
		subs:        make(map[int64]chan SignatureResult),
		pendingSubs: make(map[uint64]chan int64),
		done:        make(chan struct{}),
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *struct {
		Subscription int64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot int64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Err interface{} `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
	Error *rpcError `json:"error"`
}

// SubscribeSignature registers a one-shot subscription for a transaction
// signature. The returned channel delivers a single result and is then
// closed; it is also closed without a value when the connection shuts down.
func (c *WSClient) SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureResult, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = confirmCh
	c.pendingSubsMu.Unlock()

	dropPending := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	c.connMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		dropPending()
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	var subID int64
	select {
	case subID = <-confirmCh:
	case <-time.After(c.config.SubscribeTimeout):
		dropPending()
		return nil, fmt.Errorf("subscription timeout after %v", c.config.SubscribeTimeout)
	case <-c.done:
		return nil, fmt.Errorf("client closed")
	case <-ctx.Done():
		dropPending()
		return nil, ctx.Err()
	}

	ch := make(chan SignatureResult, 1)
	c.subsMu.Lock()
	c.subs[subID] = ch
	c.subsMu.Unlock()
	return ch, nil
}

// readLoop dispatches subscription confirmations and notifications.
func (c *WSClient) readLoop() {
	defer c.wg.Done()
	defer c.closeSubs()

	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch {
		case msg.ID != 0 && msg.Result != nil:
			var subID int64
			if err := json.Unmarshal(msg.Result, &subID); err != nil {
				continue
			}
			c.pendingSubsMu.Lock()
			if ch, ok := c.pendingSubs[msg.ID]; ok {
				ch <- subID
				delete(c.pendingSubs, msg.ID)
			}
			c.pendingSubsMu.Unlock()

		case msg.Method == "signatureNotification" && msg.Params != nil:
			c.subsMu.Lock()
			ch, ok := c.subs[msg.Params.Subscription]
			if ok {
				delete(c.subs, msg.Params.Subscription)
			}
			c.subsMu.Unlock()
			if ok {
				ch <- SignatureResult{
					Slot: msg.Params.Result.Context.Slot,
					Err:  msg.Params.Result.Value.Err,
				}
				close(ch)
			}
		}
	}
}

// pingLoop keeps the connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.connMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// closeSubs releases every waiting subscriber after the reader exits.
func (c *WSClient) closeSubs() {
	c.subsMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()
}

// Close shuts down the connection and releases all subscriptions.
func (c *WSClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	err := c.conn.Close()
	c.connMu.Unlock()

	c.wg.Wait()
	return err
}
