// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package chat implements a single-room, line-oriented TCP chat server.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/metrics"
	"github.com/ManuGH/ecosystem/internal/ratelimit"
)

const (
	// Prompt is sent until the client supplies a username.
	Prompt = "Enter your username:"

	DefaultQueueSize        = 128
	DefaultMaxLineBytes     = 4096
	DefaultMaxUsernameRunes = 32
	DefaultWriteTimeout     = 10 * time.Second
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("chat: server closed")

// Config configures a Server.
type Config struct {
	MaxConnections   int
	QueueSize        int
	MaxLineBytes     int
	MaxUsernameRunes int
	WriteTimeout     time.Duration
	// Limiter admits new connections per client IP. Nil admits all.
	Limiter *ratelimit.Limiter
}

// Server accepts chat clients and relays their lines to each other.
type Server struct {
	cfg    Config
	logger zerolog.Logger
	room   *room

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	shutdown bool
	wg       sync.WaitGroup
}

// NewServer creates a Server. Zero config values take defaults.
func NewServer(cfg Config) *Server {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	if cfg.MaxUsernameRunes <= 0 {
		cfg.MaxUsernameRunes = DefaultMaxUsernameRunes
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	logger := log.WithComponent("chat")
	return &Server{
		cfg:    cfg,
		logger: logger,
		room:   newRoom(logger),
		conns:  make(map[net.Conn]struct{}),
	}
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Peers returns the number of joined peers.
func (s *Server) Peers() int { return s.room.size() }

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("chat: listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It always returns a
// non-nil error; after Shutdown it is ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	ln = ratelimit.Wrap(ln, s.cfg.Limiter, s.cfg.MaxConnections, s.logger)

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info().
		Str(log.FieldEvent, "chat.listening").
		Str(log.FieldListenAddr, ln.Addr().String()).
		Msg("chat server listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return fmt.Errorf("chat: accept: %w", err)
		}
		if !s.track(conn) {
			_ = conn.Close()
			return ErrServerClosed
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
}

func (s *Server) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.Close()
}

// Shutdown stops accepting, disconnects every client and waits for their
// goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info().Str(log.FieldEvent, "chat.stopped").Msg("chat server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handle runs one client session.
func (s *Server) handle(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	ctx := log.ContextWithCorrelationID(context.Background(), uuid.NewString())
	logger := log.WithContext(ctx, s.logger).With().Str(log.FieldPeer, addr).Logger()
	logger.Info().Str(log.FieldEvent, "chat.peer_connected").Msg("accepted connection")

	// The buffer leaves room for a CRLF terminator; readLine enforces the
	// limit on the line itself.
	limit := s.cfg.MaxLineBytes + 2
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(512, limit)), limit)

	username, ok := s.readUsername(conn, scanner, logger)
	if !ok {
		return
	}

	p := newPeer(addr, username, s.cfg.QueueSize)
	writerDone := make(chan struct{})
	go s.writeLoop(conn, p, writerDone, logger)

	s.room.add(p)
	joined := Joined(username)
	logger.Info().Str(log.FieldEvent, "chat.peer_joined").Str(log.FieldUsername, username).Msg(joined.String())
	s.room.broadcast(p, joined)

	for {
		line, err := s.readLine(scanner)
		if err != nil {
			s.logReadError(logger, err)
			break
		}
		metrics.RecordChatMessage()
		s.room.broadcast(p, Chat(username, line))
	}

	s.room.remove(p)
	left := Left(username)
	logger.Info().
		Str(log.FieldEvent, "chat.peer_left").
		Str(log.FieldUsername, username).
		Int64("dropped", p.dropped.Load()).
		Msg(left.String())
	s.room.broadcast(p, left)

	<-writerDone
}

// readUsername prompts until a non-empty, acceptable username arrives.
func (s *Server) readUsername(conn net.Conn, scanner *bufio.Scanner, logger zerolog.Logger) (string, bool) {
	for {
		if err := s.writeLine(conn, Prompt); err != nil {
			logger.Debug().Err(err).Str(log.FieldEvent, "chat.prompt_failed").Msg("failed to send prompt")
			return "", false
		}
		line, err := s.readLine(scanner)
		if err != nil {
			s.logReadError(logger, err)
			return "", false
		}
		name, err := NormalizeUsername(line, s.cfg.MaxUsernameRunes)
		var notice string
		switch {
		case err == nil:
			return name, true
		case errors.Is(err, ErrUsernameEmpty):
			continue
		case errors.Is(err, ErrUsernameTooLong):
			notice = fmt.Sprintf("Username must be at most %d characters.", s.cfg.MaxUsernameRunes)
		default:
			notice = "Username must not contain control characters."
		}
		if werr := s.writeLine(conn, notice); werr != nil {
			return "", false
		}
	}
}

var errLineTooLong = errors.New("chat: line too long")

// readLine returns the next line without its terminator, io.EOF at the end
// of input, or errLineTooLong when the line exceeds MaxLineBytes.
func (s *Server) readLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		err := scanner.Err()
		switch {
		case err == nil:
			return "", io.EOF
		case errors.Is(err, bufio.ErrTooLong):
			return "", errLineTooLong
		default:
			return "", err
		}
	}
	if len(scanner.Bytes()) > s.cfg.MaxLineBytes {
		return "", errLineTooLong
	}
	return scanner.Text(), nil
}

func (s *Server) logReadError(logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, io.EOF):
	case errors.Is(err, errLineTooLong):
		logger.Warn().
			Str(log.FieldEvent, "chat.line_too_long").
			Int("max_bytes", s.cfg.MaxLineBytes).
			Msg("line exceeds limit, closing session")
	case !s.closing():
		logger.Warn().Err(err).Str(log.FieldEvent, "chat.read_failed").Msg("failed to read line")
	}
}

func (s *Server) writeLoop(conn net.Conn, p *peer, done chan<- struct{}, logger zerolog.Logger) {
	defer close(done)
	for msg := range p.out {
		if p.gone.Load() {
			continue
		}
		if err := s.writeLine(conn, msg.String()); err != nil {
			logger.Warn().Err(err).Str(log.FieldEvent, "chat.write_failed").Msg("failed to send message")
			p.gone.Store(true)
			// Unblocks the reader so the session ends.
			_ = conn.Close()
		}
	}
}

func (s *Server) writeLine(conn net.Conn, line string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	_, err := conn.Write([]byte(line + "\n"))
	return err
}

// Username validation errors.
var (
	ErrUsernameEmpty   = errors.New("chat: empty username")
	ErrUsernameTooLong = errors.New("chat: username too long")
	ErrUsernameInvalid = errors.New("chat: username contains control characters")
)

// NormalizeUsername trims and NFC-normalises raw and enforces the rune limit.
func NormalizeUsername(raw string, maxRunes int) (string, error) {
	name := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
	if name == "" {
		return "", ErrUsernameEmpty
	}
	name = norm.NFC.String(name)
	if utf8.RuneCountInString(name) > maxRunes {
		return "", ErrUsernameTooLong
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", ErrUsernameInvalid
		}
	}
	return name, nil
}
