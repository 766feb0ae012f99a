package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/session"
)

const (
	shutdownTimeout = 5 * time.Second

	defaultPongWait   = 60 * time.Second
	defaultWriteWait  = 10 * time.Second
	defaultSendBuffer = 64
)

type sessionHandler interface {
	Connect(sess *session.Session)
	Handle(ctx context.Context, sess *session.Session, frame []byte)
	Disconnect(ctx context.Context, sess *session.Session)
}

type Server struct {
	logger  *slog.Logger
	handler sessionHandler
	conf    config.WebSocket

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func New(logger *slog.Logger, handler sessionHandler, conf config.WebSocket) *Server {
	if conf.PongWait <= 0 {
		conf.PongWait = defaultPongWait
	}
	if conf.PingPeriod <= 0 || conf.PingPeriod >= conf.PongWait {
		conf.PingPeriod = conf.PongWait * 9 / 10
	}
	if conf.WriteWait <= 0 {
		conf.WriteWait = defaultWriteWait
	}
	if conf.SendBuffer <= 0 {
		conf.SendBuffer = defaultSendBuffer
	}

	return &Server{
		logger:  logger.With("component", "websocket"),
		handler: handler,
		conf:    conf,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the game client is served from anywhere
			CheckOrigin: func(*http.Request) bool { return true },
		},

		clients: make(map[*client]struct{}),
	}
}

// Router - mounts the upgrade endpoint at /ws.
func (that *Server) Router(ctx context.Context) http.Handler {
	router := chi.NewRouter()
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		that.logger.Error("failed to shutdown server", "error", err)
	}

	that.Close()

	return nil
}

// Close - drops every live connection and waits for their sessions to leave.
func (that *Server) Close() {
	that.mu.Lock()
	that.closed = true
	for c := range that.clients {
		_ = c.conn.Close()
	}
	that.mu.Unlock()

	that.wg.Wait()
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn, that.conf)
	sess := session.New(c.queue)

	that.track(c)

	log.Info("WebSocket connection established", "client_id", sess.ID, "remote", r.RemoteAddr)

	go func() {
		defer that.wg.Done()
		defer that.untrack(c)

		that.serve(ctx, c, sess)
	}()
}

// serve - runs both pumps; the session leaves once the reader stops.
func (that *Server) serve(ctx context.Context, c *client, sess *session.Session) {
	log := that.logger.With("method", "serve", "client_id", sess.ID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := c.writePump(); err != nil {
			log.Debug("writer stopped", "error", err)
		}
	}()

	that.handler.Connect(sess)

	if err := c.readPump(func(frame []byte) {
		that.handler.Handle(ctx, sess, frame)
	}); err != nil {
		log.Debug("reader stopped", "error", err)
	}

	that.handler.Disconnect(ctx, sess)

	c.queue.Close()
	<-writerDone
	_ = c.conn.Close()

	log.Info("WebSocket connection closed")
}

// track - a connection upgraded while closing is dropped right away.
func (that *Server) track(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		_ = c.conn.Close()
	}

	that.clients[c] = struct{}{}
	that.wg.Add(1)
}

func (that *Server) untrack(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.clients, c)
}
