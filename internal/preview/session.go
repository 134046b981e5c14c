package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/paint"
	"github.com/inamate/scenerender/internal/scene"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// Snapshots with embedded image files can be large.
	maxMsgSize = 8 << 20
	sendBuffer = 64
)

// Session is one preview connection. It owns an engine whose throttled
// frames are pushed back to the client as draw commands.
type Session struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	ID      string
	Subject string

	engine *engine.Engine
	logger *slog.Logger
	frames atomic.Int64

	mu     sync.Mutex
	closed bool
}

func newSession(hub *Hub, conn *websocket.Conn, id, subject string) *Session {
	s := &Session{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		ID:      id,
		Subject: subject,
		logger:  hub.opts.Logger.With("session", id),
	}
	s.engine = engine.NewEngine(engine.Options{
		DevicePixelRatio: hub.opts.DevicePixelRatio,
		Renderer:         paint.New(hub.opts.Assets, s.logger),
		Scheduler:        hub.opts.NewScheduler(),
		OnFrame:          s.onFrame,
		Logger:           s.logger,
	})
	return s
}

func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	s.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			s.logger.Debug("read error", "error", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("invalid message", "error", err)
			s.sendError(CodeInvalidMessage, err, 0)
			continue
		}
		s.handle(&msg)
	}
}

func (s *Session) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-s.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				s.logger.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg for the client. Messages are dropped when the buffer is
// full or the session is closed.
func (s *Session) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal message", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn("send buffer full, dropping message", "type", msg.Type)
	}
}

func (s *Session) close() {
	s.engine.CancelRender()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

func (s *Session) sendPayload(typ string, seq int64, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal payload", "type", typ, "error", err)
		return
	}
	s.Send(&Message{Type: typ, SessionID: s.ID, Seq: seq, Payload: raw})
}

func (s *Session) sendError(code string, err error, seq int64) {
	s.sendPayload(TypeError, 0, ErrorPayload{Code: code, Message: err.Error(), Seq: seq})
}

// handle applies one client message to the session's engine. State changes
// request a throttled frame; queries are answered immediately.
func (s *Session) handle(msg *Message) {
	if err := s.apply(msg); err != nil {
		s.logger.Debug("handle message", "type", msg.Type, "error", err)
	}
}

func (s *Session) apply(msg *Message) error {
	switch msg.Type {
	case TypeSceneLoad:
		if err := s.engine.LoadSnapshot(msg.Payload); err != nil {
			s.sendError(CodeInvalidSnapshot, err, msg.Seq)
			return err
		}
	case TypeSceneSample:
		s.engine.LoadSample()
	case TypeViewUpdate:
		var p ViewPayload
		if err := s.decode(msg, &p); err != nil {
			return err
		}
		s.engine.SetView(p.ScrollX, p.ScrollY, p.Zoom)
	case TypeViewportUpdate:
		var p ViewportPayload
		if err := s.decode(msg, &p); err != nil {
			return err
		}
		if err := s.checkViewport(p); err != nil {
			s.sendError(CodeTooLarge, err, msg.Seq)
			return err
		}
		s.engine.SetViewport(p.Width, p.Height)
	case TypeSelectionUpdate:
		var p SelectionPayload
		if err := s.decode(msg, &p); err != nil {
			return err
		}
		s.engine.SetSelection(p.IDs)
	case TypeThemeUpdate:
		var p ThemePayload
		if err := s.decode(msg, &p); err != nil {
			return err
		}
		s.engine.SetTheme(scene.Theme(p.Theme))
	case TypeFrameHighlight:
		var p FrameHighlightPayload
		if err := s.decode(msg, &p); err != nil {
			return err
		}
		s.engine.SetFrameToHighlight(p.ID)
	case TypeEmbedValidate:
		var p EmbedValidatePayload
		if err := s.decode(msg, &p); err != nil {
			return err
		}
		s.engine.SetEmbedValidation(p.ID, p.Valid)
	case TypeRenderRequest:
	case TypeLabelRequest:
		var p LabelRequestPayload
		if err := s.decode(msg, &p); err != nil {
			return err
		}
		l, ok := s.engine.SizeLabel(p.ID)
		if !ok {
			err := fmt.Errorf("element %q has no size label", p.ID)
			s.sendError(CodeNoLabel, err, msg.Seq)
			return err
		}
		s.sendPayload(TypeLabel, msg.Seq, LabelPayload{
			ID:       p.ID,
			Text:     l.Text,
			X:        l.Position.X,
			Y:        l.Position.Y,
			FontSize: l.FontSize,
			Color:    l.Color,
			Shadow:   l.Shadow,
		})
		return nil
	case TypeBoundsRequest:
		s.sendPayload(TypeBounds, msg.Seq, BoundsPayload{Bounds: s.engine.GetSelectionBounds()})
		return nil
	default:
		err := fmt.Errorf("unknown message type %q", msg.Type)
		s.sendError(CodeUnknownType, err, msg.Seq)
		return err
	}

	s.engine.RequestRender()
	return nil
}

func (s *Session) decode(msg *Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		err = fmt.Errorf("decode %s payload: %w", msg.Type, err)
		s.sendError(CodeInvalidMessage, err, msg.Seq)
		return err
	}
	return nil
}

func (s *Session) checkViewport(p ViewportPayload) error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("viewport %dx%d must be positive", p.Width, p.Height)
	}
	limit := s.hub.opts.MaxCanvasPixels
	dpr := s.hub.opts.DevicePixelRatio
	if limit > 0 && float64(p.Width)*dpr*float64(p.Height)*dpr > float64(limit) {
		return fmt.Errorf("viewport %dx%d at %gx exceeds %d pixels", p.Width, p.Height, dpr, limit)
	}
	return nil
}

func (s *Session) onFrame(f engine.Frame) {
	rec, ok := f.Canvas.(*canvas.Recorder)
	if !ok {
		s.logger.Error("frame canvas is not a recorder")
		return
	}
	commands, err := json.Marshal(rec.Commands())
	if err != nil {
		s.logger.Error("marshal frame", "error", err)
		return
	}
	s.sendPayload(TypeFrame, s.frames.Add(1), FramePayload{
		Width:    rec.Width(),
		Height:   rec.Height(),
		Stats:    f.Stats,
		Commands: commands,
	})
}
