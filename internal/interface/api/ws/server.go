package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
)

// Server exposes the UI websocket and the read-only HTTP API.
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	handler MessageHandler

	httpSrv *http.Server
	api     *apiHandlers
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

// Envelope is the frame pushed to UI clients.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

func NewServer(cfg Config) *Server {
	return &Server{
		addr: cfg.addr(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]struct{}),
		api:     newAPIHandlers(cfg),
	}
}

// Handler builds the HTTP routes; the websocket goroutines stop with ctx.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/commands", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})
	s.api.register(mux)
	return mux
}

// Start blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("ws: shutdown")
		}
		s.closeClients()
	}()

	logging.Info().Str("addr", s.addr).Msg("ws: listening")

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("ws: upgrade")
		return
	}

	client := &wsClient{conn: conn}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	clientCount := len(s.clients)
	s.mu.Unlock()

	logging.Info().Str("remote", r.RemoteAddr).Int("clients", clientCount).Msg("ws: client connected")

	go s.handleClient(ctx, client)
}

func (s *Server) handleClient(ctx context.Context, client *wsClient) {
	defer func() {
		s.removeClient(client)
		logging.Info().Int("clients", s.ClientCount()).Msg("ws: client disconnected")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug().Err(err).Msg("ws: read")
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		if err := s.dispatchIncoming(ctx, data); err != nil {
			logging.Warn().Err(err).Msg("ws: incoming dispatch")
		}
	}
}

type incomingPayload struct {
	Text      string `json:"text"`
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	Username  string `json:"username"`
}

// dispatchIncoming runs a chat line typed in the UI as the broadcaster of
// the given platform and channel.
func (s *Server) dispatchIncoming(ctx context.Context, data []byte) error {
	handler := s.getHandler()
	if handler == nil {
		return nil
	}

	var payload incomingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("ws: decode incoming: %w", err)
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return errors.New("ws: empty incoming text")
	}

	platform := normalizePlatform(payload.Platform)
	if platform == "" {
		return fmt.Errorf("ws: unknown platform %q", payload.Platform)
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" {
		username = "web-user"
	}

	return handler(ctx, domain.Message{
		Platform:        platform,
		ChannelID:       strings.TrimSpace(payload.ChannelID),
		UserID:          "web",
		Username:        username,
		Text:            text,
		IsPlatformOwner: true,
		IsPlatformAdmin: true,
	})
}

func normalizePlatform(p string) domain.Platform {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case string(domain.PlatformTwitch):
		return domain.PlatformTwitch
	case string(domain.PlatformKick):
		return domain.PlatformKick
	case string(domain.PlatformConsole):
		return domain.PlatformConsole
	default:
		return ""
	}
}

func (s *Server) getHandler() MessageHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

func (s *Server) SetHandler(h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast pushes one envelope to every connected client, dropping clients
// whose write fails.
func (s *Server) Broadcast(ctx context.Context, eventType string, data any) error {
	payload, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("ws: encode %s: %w", eventType, err)
	}

	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.writeJSON(json.RawMessage(payload)); err != nil {
			logging.Warn().Err(err).Msg("ws: removing client after write error")
			s.removeClient(c)
		}
	}

	return nil
}

// Forward relays every payload of ch under eventType until ch closes or ctx
// is cancelled.
func (s *Server) Forward(ctx context.Context, eventType string, ch <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if err := s.Broadcast(ctx, eventType, payload); err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn().Err(err).Str("type", eventType).Msg("ws: broadcast")
			}
		}
	}
}

func (s *Server) removeClient(c *wsClient) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*wsClient]struct{})
	s.mu.Unlock()
	for c := range clients {
		c.conn.Close()
	}
}
