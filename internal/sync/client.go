// Package sync mirrors committed strokes to a companion device over a
// WebSocket channel. Sync is fire-and-forget: the local page is always
// authoritative, the channel only replays commits, and a dead link never
// blocks or fails drawing.
package sync

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"KhataPad/internal/ink"
)

// Message is one sync frame. Stroke is set for stroke_add only. The tool
// travels in its own field because Stroke does not serialize it; receive
// paths fold it back in before the stroke is used.
type Message struct {
	Type   string      `json:"type"` // "stroke_add" | "page_clear"
	PageID string      `json:"page_id"`
	Tool   string      `json:"tool,omitempty"`
	Stroke *ink.Stroke `json:"stroke,omitempty"`
}

// normalize restores fields that do not survive the wire encoding.
func (m *Message) normalize() {
	if m.Stroke == nil {
		return
	}
	if t, err := ink.ParseTool(m.Tool); err == nil {
		m.Stroke.Tool = t
	}
}

const (
	outboxSize     = 64
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Client maintains one reconnecting WebSocket link. Publish methods are
// safe from any goroutine; remote messages are delivered on the client's
// own goroutine, so the handler must hop to the UI thread itself.
type Client struct {
	url      string
	onRemote func(Message)
	log      *slog.Logger

	out  chan Message
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewClient prepares a client for the given ws:// endpoint. onRemote may
// be nil for publish-only use. Call Start to open the link.
func NewClient(url string, onRemote func(Message), log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		url:      url,
		onRemote: onRemote,
		log:      log,
		out:      make(chan Message, outboxSize),
		done:     make(chan struct{}),
	}
}

// Start launches the connect/reconnect loop.
func (c *Client) Start() {
	c.wg.Add(1)
	go c.run()
}

// Close shuts the link down and waits for the loop to exit.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
}

// PublishStroke queues a committed stroke for the peer. When the outbox
// is full the frame is dropped; a reconnecting page flush resynchronizes
// anyway.
func (c *Client) PublishStroke(pageID string, s *ink.Stroke) {
	c.enqueue(Message{Type: "stroke_add", PageID: pageID, Tool: s.Tool.String(), Stroke: s})
}

// PublishClear tells the peer a page was wiped.
func (c *Client) PublishClear(pageID string) {
	c.enqueue(Message{Type: "page_clear", PageID: pageID})
}

func (c *Client) enqueue(m Message) {
	select {
	case c.out <- m:
	default:
		c.log.Debug("sync outbox full, frame dropped", slog.String("type", m.Type))
	}
}

func (c *Client) run() {
	defer c.wg.Done()
	backoff := initialBackoff
	for {
		select {
		case <-c.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			c.log.Debug("sync dial failed", slog.String("url", c.url), slog.Any("err", err))
			if !c.sleep(backoff) {
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.log.Info("sync connected", slog.String("url", c.url))
		backoff = initialBackoff
		c.pump(conn)
		conn.Close()
	}
}

// pump runs one connection until either side drops it.
func (c *Client) pump(conn *websocket.Conn) {
	readErr := make(chan error, 1)
	go func() {
		for {
			var m Message
			if err := conn.ReadJSON(&m); err != nil {
				readErr <- err
				return
			}
			m.normalize()
			if c.onRemote != nil {
				c.onRemote(m)
			}
		}
	}()

	for {
		select {
		case <-c.done:
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case m := <-c.out:
			if err := conn.WriteJSON(m); err != nil {
				c.log.Debug("sync write failed", slog.Any("err", err))
				return
			}
		case err := <-readErr:
			c.log.Debug("sync link lost", slog.Any("err", err))
			return
		}
	}
}

// sleep waits d or until Close, reporting whether to keep running.
func (c *Client) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.done:
		return false
	case <-t.C:
		return true
	}
}
