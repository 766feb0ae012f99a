package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/session"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/queue"
)

const (
	defaultMaxLine    = 4096
	defaultSendBuffer = 64

	lingerTimeout = time.Second
)

type sessionHandler interface {
	Connect(sess *session.Session)
	Handle(ctx context.Context, sess *session.Session, frame []byte)
	Reject(sess *session.Session)
	Disconnect(ctx context.Context, sess *session.Session)
}

// Server - newline-delimited JSON over raw TCP, one message per line.
type Server struct {
	logger  *slog.Logger
	handler sessionHandler

	maxLine    int
	sendBuffer int

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func New(logger *slog.Logger, handler sessionHandler, maxLine int64, sendBuffer int) *Server {
	if maxLine <= 0 {
		maxLine = defaultMaxLine
	}
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}

	return &Server{
		logger:  logger.With("component", "tcp"),
		handler: handler,

		maxLine:    int(maxLine),
		sendBuffer: sendBuffer,

		conns: make(map[net.Conn]struct{}),
	}
}

// Start - listens on port and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts connections on listener until ctx is done or the listener fails.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	that.mu.Lock()
	that.listener = listener
	that.mu.Unlock()

	stop := context.AfterFunc(ctx, that.Close)
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				that.wg.Wait()
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		that.track(conn)

		go func() {
			defer that.wg.Done()
			defer that.untrack(conn)

			that.serve(ctx, conn)
		}()
	}
}

// Close - stops accepting and drops every live connection.
func (that *Server) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	if that.listener != nil {
		_ = that.listener.Close()
	}

	for conn := range that.conns {
		_ = conn.Close()
	}
}

func (that *Server) serve(ctx context.Context, conn net.Conn) {
	out := queue.New(that.sendBuffer)
	sess := session.New(out)

	log := that.logger.With("client_id", sess.ID, "remote", conn.RemoteAddr().String())
	log.Info("TCP connection established")

	var group errgroup.Group

	group.Go(func() error {
		return writeLoop(conn, out)
	})

	that.handler.Connect(sess)

	readErr := that.readLoop(ctx, conn, sess)
	if readErr != nil {
		log.Debug("reader stopped", "error", readErr)
	}

	that.handler.Disconnect(ctx, sess)
	out.Close()

	if err := group.Wait(); err != nil {
		log.Debug("writer stopped", "error", err)
	}

	if errors.Is(readErr, bufio.ErrTooLong) {
		lingerClose(conn)
	}
	_ = conn.Close()

	log.Info("TCP connection closed")
}

func (that *Server) readLoop(ctx context.Context, conn net.Conn, sess *session.Session) error {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 512), that.maxLine)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		frame := make([]byte, len(line))
		copy(frame, line)

		that.handler.Handle(ctx, sess, frame)
	}

	err := scanner.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		// the stream cannot be resynchronised after an oversized line
		that.handler.Reject(sess)
		return fmt.Errorf("failed to read line: %w", err)
	}

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to read line: %w", err)
	}

	return nil
}

// lingerClose - half-closes and drains unread input before the final close.
func lingerClose(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.CloseWrite()
	}

	_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, conn)
}

// writeLoop - writes queued frames, one per line, until the queue is closed.
func writeLoop(conn net.Conn, out *queue.Queue) error {
	writer := bufio.NewWriter(conn)

	for frame := range out.Frames() {
		if _, err := writer.Write(frame); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to write frame: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to write frame: %w", err)
		}

		// batch whatever is already queued into one flush
		if len(out.Frames()) > 0 {
			continue
		}

		if err := writer.Flush(); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to flush: %w", err)
		}
	}

	return writer.Flush()
}

// track - a connection accepted while closing is dropped right away.
func (that *Server) track(conn net.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		_ = conn.Close()
	}

	that.conns[conn] = struct{}{}
	that.wg.Add(1)
}

func (that *Server) untrack(conn net.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.conns, conn)
}
