package sync

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"KhataPad/internal/ink"
)

// wsEcho upgrades a test connection, forwards received frames to recv,
// and can push one frame back to the client.
func wsEcho(t *testing.T, recv chan Message, push chan Message) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		go func() {
			for m := range push {
				if err := conn.WriteJSON(m); err != nil {
					return
				}
			}
		}()
		for {
			var m Message
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			recv <- m
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestClientPublishesStrokes(t *testing.T) {
	recv := make(chan Message, 4)
	push := make(chan Message)
	srv := wsEcho(t, recv, push)
	defer srv.Close()
	defer close(push)

	c := NewClient(wsURL(srv), nil, nil)
	c.Start()
	defer c.Close()

	s := ink.NewStroke(ink.ToolEraser, "#1a1a2e", 3, 1)
	s.Points = []ink.StrokePoint{{X: 1, Y: 2, Pressure: 0.5}, {X: 3, Y: 4, Pressure: 0.6}}
	c.PublishStroke("page-1", s)

	select {
	case m := <-recv:
		if m.Type != "stroke_add" || m.PageID != "page-1" || m.Stroke == nil || m.Stroke.ID != s.ID {
			t.Errorf("unexpected frame %+v", m)
		}
		if m.Tool != "eraser" {
			t.Errorf("tool must travel in the frame, got %q", m.Tool)
		}
		if len(m.Stroke.Points) != 2 {
			t.Errorf("points lost in transit: %+v", m.Stroke.Points)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("published stroke never arrived")
	}
}

func TestClientDeliversRemoteFrames(t *testing.T) {
	recv := make(chan Message, 4)
	push := make(chan Message, 1)
	srv := wsEcho(t, recv, push)
	defer srv.Close()

	got := make(chan Message, 1)
	c := NewClient(wsURL(srv), func(m Message) { got <- m }, nil)
	c.Start()
	defer c.Close()

	// Nudge a frame through first so we know the link is up.
	c.PublishClear("page-1")
	select {
	case <-recv:
	case <-time.After(5 * time.Second):
		t.Fatal("link never came up")
	}

	push <- Message{Type: "page_clear", PageID: "page-9"}
	close(push)

	select {
	case m := <-got:
		if m.Type != "page_clear" || m.PageID != "page-9" {
			t.Errorf("unexpected remote frame %+v", m)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("remote frame never delivered")
	}
}

func TestRemoteStrokeKeepsItsTool(t *testing.T) {
	// Stroke does not serialize its tool; the frame's tool field must be
	// folded back in on receive or every remote stroke renders as a pen.
	recv := make(chan Message, 4)
	push := make(chan Message, 1)
	srv := wsEcho(t, recv, push)
	defer srv.Close()

	got := make(chan Message, 1)
	c := NewClient(wsURL(srv), func(m Message) { got <- m }, nil)
	c.Start()
	defer c.Close()

	c.PublishClear("page-1")
	select {
	case <-recv:
	case <-time.After(5 * time.Second):
		t.Fatal("link never came up")
	}

	remote := ink.NewStroke(ink.ToolHighlighter, "#ffe600", 4, 0.3)
	remote.Points = []ink.StrokePoint{{X: 1, Y: 1, Pressure: 0.5}, {X: 9, Y: 9, Pressure: 0.5}}
	push <- Message{Type: "stroke_add", PageID: "page-1", Tool: remote.Tool.String(), Stroke: remote}
	close(push)

	select {
	case m := <-got:
		if m.Stroke == nil || m.Stroke.Tool != ink.ToolHighlighter {
			t.Errorf("remote stroke arrived with the wrong tool: %+v", m.Stroke)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("remote frame never delivered")
	}
}

func TestCloseWithoutServerReturns(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/nowhere", nil, nil)
	c.Start()

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close hung while the dial loop was backing off")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/nowhere", nil, nil)
	// Not started: the outbox just fills and overflows silently.
	s := ink.NewStroke(ink.ToolPen, "#000000", 3, 1)
	for i := 0; i < outboxSize*2; i++ {
		c.PublishStroke("page-1", s)
	}
}
