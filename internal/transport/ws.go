package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/reedboard/internal/obslog"
	"github.com/park285/reedboard/internal/protocol"
)

// WSServer serves the same protocol as LineServer over WebSocket at /ws.
// Each text message carries one command or one reply/event.
type WSServer struct {
	addr   string
	hub    *Hub
	exec   Submitter
	codec  *protocol.Codec
	logger *zap.Logger

	// OriginPatterns is passed to websocket.Accept; empty means same origin only.
	OriginPatterns []string
}

func NewWSServer(addr string, hub *Hub, exec Submitter, codec *protocol.Codec, logger *zap.Logger) *WSServer {
	if logger == nil {
		logger = obslog.L()
	}
	if codec == nil {
		codec = protocol.NewCodec(nil)
	}
	return &WSServer{addr: addr, hub: hub, exec: exec, codec: codec, logger: logger}
}

// Handler routes /ws and /healthz.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (s *WSServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

func (s *WSServer) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("ws_server_listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WSServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.OriginPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("ws_accept_failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(protocol.MaxLineBytes)

	sub := s.hub.Subscribe("ws:"+r.RemoteAddr, DefaultBuffer)
	log := s.logger.With(zap.String("client_id", sub.ID()), zap.String("remote", r.RemoteAddr))
	log.Info("ws_client_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		s.hub.Unsubscribe(sub)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		log.Info("ws_client_disconnected", zap.Int64("dropped_events", sub.Dropped()))
	}()

	replies := make(chan []byte, 8)
	go s.writeLoop(ctx, cancel, conn, sub, replies, log)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Debug("ws_read_failed", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			_ = conn.Close(websocket.StatusUnsupportedData, "text messages only")
			return
		}
		line := strings.TrimSpace(string(data))
		if protocol.HasIllegalChars(line) {
			log.Warn("client_illegal_chars")
			_ = conn.Close(websocket.StatusPolicyViolation, "illegal characters")
			return
		}
		var out []byte
		cmd, derr := protocol.Decode(line)
		if derr != nil {
			out, err = s.codec.ErrorLine(derr)
		} else {
			resp, serr := s.exec.Submit(ctx, cmd)
			if serr != nil {
				log.Warn("command_submit_failed", zap.String("action", cmd.Action), zap.Error(serr))
				return
			}
			out, err = s.codec.Response(resp)
		}
		if err != nil {
			log.Error("encode_reply_failed", zap.Error(err))
			return
		}
		select {
		case replies <- out:
		case <-ctx.Done():
			return
		}
	}
}

func (s *WSServer) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sub *Subscriber, replies <-chan []byte, log *zap.Logger) {
	defer cancel()
	write := func(b []byte) bool {
		wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
		defer wcancel()
		if err := wsjson.Write(wctx, conn, json.RawMessage(bytes.TrimSpace(b))); err != nil {
			if ctx.Err() == nil {
				log.Debug("ws_write_failed", zap.Error(err))
			}
			return false
		}
		return true
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
