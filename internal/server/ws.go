package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/menureel/menureel/internal/auth"
	"github.com/menureel/menureel/internal/feed"
	"github.com/menureel/menureel/internal/menu"
	"github.com/menureel/menureel/internal/metrics"
	"github.com/menureel/menureel/internal/playback"
	"github.com/menureel/menureel/internal/ratelimit"
)

const (
	wsWriteWait   = 10 * time.Second
	wsPongWait    = 60 * time.Second
	wsPingPeriod  = 30 * time.Second
	wsReadLimit   = 16 << 10
	wsSendBuffer  = 64
	wsInputBuffer = 16
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var errSendBufferFull = errors.New("feed socket send buffer full")

type typeMessage struct {
	Type string `json:"type"`
}

type indexMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type mountMessage struct {
	Type  string        `json:"type"`
	Index int           `json:"index"`
	Item  menu.MenuItem `json:"item"`
}

type menuMessage struct {
	Type  string          `json:"type"`
	Items []menu.MenuItem `json:"items"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// commandMessage drives one row's video element. Position is in seconds.
type commandMessage struct {
	Type     string  `json:"type"`
	Index    int     `json:"index"`
	Command  string  `json:"command"`
	URL      string  `json:"url,omitempty"`
	Muted    bool    `json:"muted,omitempty"`
	Position float64 `json:"position"`
}

// feedConn is one client socket. Writes go through send so that only the
// write pump touches the connection's writer.
type feedConn struct {
	ctx    context.Context
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// enqueue never blocks the feed loop. Messages for a session that is
// already shutting down are dropped.
func (c *feedConn) enqueue(v any) error {
	if c.ctx.Err() != nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal feed message: %w", err)
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *feedConn) writePump(cancel context.CancelFunc) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("feed: socket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait),
			)
			return
		}
	}
}

// readPump decodes client messages into inputs and closes it when the
// client goes away.
func (c *feedConn) readPump(cancel context.CancelFunc, inputs chan<- feed.Message) {
	defer func() {
		cancel()
		close(inputs)
	}()
	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("feed: socket closed unexpectedly", "error", err)
			}
			return
		}
		var msg feed.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("feed: malformed client message", "error", err)
			continue
		}
		select {
		case inputs <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// remoteSurface renders rows on the client through the socket.
type remoteSurface struct {
	conn *feedConn
}

func (s *remoteSurface) MountRow(index int, item menu.MenuItem) (playback.Player, error) {
	if err := s.conn.enqueue(mountMessage{Type: "mount", Index: index, Item: item}); err != nil {
		return nil, err
	}
	return &remotePlayer{conn: s.conn, index: index}, nil
}

func (s *remoteSurface) UnmountRow(index int) {
	if err := s.conn.enqueue(indexMessage{Type: "unmount", Index: index}); err != nil {
		s.conn.logger.Warn("feed: unmount not delivered", "index", index, "error", err)
	}
}

func (s *remoteSurface) ActiveChanged(index int) {
	if err := s.conn.enqueue(indexMessage{Type: "active", Index: index}); err != nil {
		s.conn.logger.Warn("feed: active change not delivered", "index", index, "error", err)
	}
}

// remotePlayer forwards commands to the client's video element for one row.
// The element reports back with "status" messages.
type remotePlayer struct {
	conn  *feedConn
	index int
}

func (p *remotePlayer) command(kind playback.CommandKind, msg commandMessage) error {
	msg.Type = "command"
	msg.Index = p.index
	msg.Command = kind.String()
	return p.conn.enqueue(msg)
}

func (p *remotePlayer) Load(url string) error {
	return p.command(playback.CommandLoad, commandMessage{URL: url})
}

func (p *remotePlayer) SetMuted(muted bool) error {
	return p.command(playback.CommandMute, commandMessage{Muted: muted})
}

func (p *remotePlayer) Play() error {
	return p.command(playback.CommandPlay, commandMessage{})
}

func (p *remotePlayer) Pause() error {
	return p.command(playback.CommandPause, commandMessage{})
}

func (p *remotePlayer) Seek(position time.Duration) error {
	return p.command(playback.CommandSeek, commandMessage{Position: position.Seconds()})
}

func (s *Server) handleFeedSocket(w http.ResponseWriter, r *http.Request) {
	sessionID, platform := "", "unknown"
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		sessionID, platform = claims.SessionID, claims.Platform
	}
	country := "unknown"
	if s.cfg.Geo != nil {
		if c := s.cfg.Geo.Country(ratelimit.ClientIP(r)); c != "" {
			country = c
		}
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("feed: websocket upgrade failed", "error", err)
		return
	}

	logger := s.logger.With("session_id", sessionID, "platform", platform, "country", country)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	fc := &feedConn{
		ctx:    ctx,
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		logger: logger,
	}
	inputs := make(chan feed.Message, wsInputBuffer)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		fc.writePump(cancel)
	}()
	go fc.readPump(cancel, inputs)

	metrics.FeedSessionsTotal.WithLabelValues(platform, country).Inc()
	sessions := metrics.ActiveFeedSessions.WithLabelValues(platform)
	sessions.Inc()
	defer sessions.Dec()

	logger.Info("feed: session started")
	s.runFeedSession(ctx, fc, inputs, logger)
	cancel()
	<-writerDone
	logger.Info("feed: session ended")
}

// runFeedSession loads the menu and then hands the socket to the feed loop.
// A failed load is reported once and the socket stays open until the client
// leaves; retrying is up to the client.
func (s *Server) runFeedSession(ctx context.Context, fc *feedConn, inputs <-chan feed.Message, logger *slog.Logger) {
	_ = fc.enqueue(typeMessage{Type: "loading"})

	var state menu.LoadState
	select {
	case state = <-s.cfg.Menu.LoadAsync(ctx):
	case <-ctx.Done():
		return
	}

	if state.Status != menu.StatusSuccess {
		_ = fc.enqueue(errorMessage{Type: "error", Message: "failed to load menu"})
		for range inputs {
		}
		return
	}

	items := menu.Flatten(menu.Group(state.Menu.Categories, state.Menu.Items))
	if items == nil {
		items = []menu.MenuItem{}
	}
	if err := fc.enqueue(menuMessage{Type: "menu", Items: items}); err != nil {
		logger.Warn("feed: menu not delivered", "error", err)
		return
	}

	f := feed.New(items, &remoteSurface{conn: fc}, s.cfg.URLs, s.cfg.Feed, logger)
	if s.cfg.Prefetcher != nil {
		f.SetPrefetcher(s.cfg.Prefetcher)
	}
	if err := f.Run(ctx, inputs); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("feed: loop stopped", "error", err)
	}
}
