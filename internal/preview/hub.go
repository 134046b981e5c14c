package preview

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/coder/websocket"

	"github.com/inamate/scenerender/internal/auth"
	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/paint"
	"github.com/inamate/scenerender/internal/typeid"
)

// Options configures the sessions a Hub creates.
type Options struct {
	RefreshRate      int
	DevicePixelRatio float64
	// MaxCanvasPixels bounds viewport area in physical pixels; 0 disables it.
	MaxCanvasPixels int
	// Assets resolves image elements whose file is not in the snapshot.
	Assets paint.ImageSource
	Logger *slog.Logger
	// NewScheduler paces each session's frames. It defaults to an
	// IntervalScheduler at RefreshRate.
	NewScheduler func() engine.Scheduler
}

// Hub tracks live preview sessions.
type Hub struct {
	opts Options

	mu         sync.RWMutex
	sessions   map[string]*Session
	register   chan *Session
	unregister chan *Session
	done       chan struct{}
}

func NewHub(opts Options) *Hub {
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = 60
	}
	if opts.DevicePixelRatio <= 0 {
		opts.DevicePixelRatio = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewScheduler == nil {
		rate := opts.RefreshRate
		opts.NewScheduler = func() engine.Scheduler { return engine.NewIntervalScheduler(rate) }
	}
	return &Hub{
		opts:       opts,
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case s := <-h.register:
			h.addSession(s)
		case s := <-h.unregister:
			h.removeSession(s)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// NewSession creates an unregistered session for conn.
func (h *Hub) NewSession(conn *websocket.Conn, subject string) *Session {
	return newSession(h, conn, typeid.NewPreviewID(), subject)
}

// Register adds s to the hub and greets it. It is a no-op once Run returned.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
		s.close()
	}
}

func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	s.sendPayload(TypeWelcome, 0, WelcomePayload{
		SessionID:   s.ID,
		RefreshRate: h.opts.RefreshRate,
		PixelRatio:  h.opts.DevicePixelRatio,
	})

	h.opts.Logger.Info("preview session opened", "session", s.ID, "subject", s.Subject)
}

func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	h.mu.Unlock()

	s.close()
	h.opts.Logger.Info("preview session closed", "session", s.ID, "subject", s.Subject)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// Handler upgrades requests to preview websockets. The authenticated subject,
// if any, is taken from the request context.
func (h *Hub) Handler(allowedOrigins []string) http.HandlerFunc {
	patterns := OriginPatterns(allowedOrigins)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: patterns,
		})
		if err != nil {
			h.opts.Logger.Error("websocket accept", "error", err)
			return
		}

		s := h.NewSession(conn, auth.SubjectFromContext(r.Context()))
		h.Register(s)

		ctx := r.Context()
		go s.WritePump(ctx)
		s.ReadPump(ctx)
	}
}

// OriginPatterns converts CORS origins such as "http://localhost:5173" into
// the host patterns the websocket handshake matches against.
func OriginPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			patterns = append(patterns, o)
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
