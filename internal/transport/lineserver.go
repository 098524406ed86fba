package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/obslog"
	"github.com/park285/reedboard/internal/protocol"
	"github.com/park285/reedboard/pkg/boarddto"
)

const writeTimeout = 5 * time.Second

// LineServer speaks the newline-delimited protocol over TCP. Each client gets
// the greeting, the replies to its own commands and every broadcast event.
type LineServer struct {
	addr   string
	hub    *Hub
	exec   Submitter
	codec  *protocol.Codec
	logger *zap.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[string]net.Conn
	wg    sync.WaitGroup
}

func NewLineServer(addr string, hub *Hub, exec Submitter, codec *protocol.Codec, logger *zap.Logger) *LineServer {
	if logger == nil {
		logger = obslog.L()
	}
	if codec == nil {
		codec = protocol.NewCodec(nil)
	}
	return &LineServer{
		addr:   addr,
		hub:    hub,
		exec:   exec,
		codec:  codec,
		logger: logger,
		conns:  make(map[string]net.Conn),
	}
}

// Listen binds the listener so Addr is known before Serve.
func (s *LineServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr is the bound address, or nil before Listen.
func (s *LineServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts clients until ctx is cancelled, then closes every connection
// and waits for their handlers.
func (s *LineServer) Serve(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	s.logger.Info("line_server_listening", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Warn("line_accept_failed", zap.Error(err))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *LineServer) handle(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()
	log := s.logger.With(zap.String("client_id", id), zap.String("remote", conn.RemoteAddr().String()))
	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
	sub := s.hub.Subscribe("line:"+id, DefaultBuffer)
	log.Info("client_connected")

	ctx, cancel := context.WithCancel(ctx)
	replies := make(chan []byte, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, cancel, conn, sub, replies, log)
	}()

	defer func() {
		cancel()
		s.hub.Unsubscribe(sub)
		_ = conn.Close()
		<-writerDone
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		log.Info("client_disconnected", zap.Int64("dropped_events", sub.Dropped()))
	}()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 512), protocol.MaxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if protocol.HasIllegalChars(line) {
			log.Warn("client_illegal_chars")
			return
		}
		out := s.respond(ctx, line, log)
		if out == nil {
			return
		}
		select {
		case replies <- out:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		log.Debug("client_read_failed", zap.Error(err))
	}
}

// respond runs one command line and encodes its reply. It returns nil when
// the loop is gone.
func (s *LineServer) respond(ctx context.Context, line string, log *zap.Logger) []byte {
	var (
		out []byte
		err error
	)
	cmd, derr := protocol.Decode(line)
	if derr != nil {
		out, err = s.codec.ErrorLine(derr)
	} else {
		var resp boarddto.Response
		resp, err = s.exec.Submit(ctx, cmd)
		if err != nil {
			log.Warn("command_submit_failed", zap.String("action", cmd.Action), zap.Error(err))
			return nil
		}
		out, err = s.codec.Response(resp)
	}
	if err != nil {
		log.Error("encode_reply_failed", zap.Error(err))
		return nil
	}
	return out
}

// writeLoop owns the write side of conn. When it returns it cancels the
// reader and closes conn, so a blocked Scan or reply send is released.
func (s *LineServer) writeLoop(ctx context.Context, cancel context.CancelFunc, conn net.Conn, sub *Subscriber, replies <-chan []byte, log *zap.Logger) {
	defer func() {
		cancel()
		_ = conn.Close()
	}()
	write := func(b []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(b); err != nil {
			if ctx.Err() == nil {
				log.Debug("client_write_failed", zap.Error(err))
			}
			return false
		}
		return true
	}
	if !write(s.codec.Greeting()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-replies:
			if !write(b) {
				return
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			b, err := s.codec.Event(ev)
			if err != nil {
				log.Error("encode_event_failed", zap.Error(err))
				continue
			}
			if !write(b) {
				return
			}
		}
	}
}
