// Package ipc is the local control channel: newline-delimited JSON over a
// unix socket, one request and one response per connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"time"
)

const DefaultSocketPath = "/tmp/elisa.sock"

const (
	CmdRecord = "record"
	CmdSay    = "say"
	CmdClear  = "clear"
	CmdQuit   = "quit"
)

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Handler func(ControlMessage) error

type Server struct {
	path string
	ln   net.Listener
}

// Listen binds path, replacing a stale socket left by a previous run.
func Listen(path string) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Server{path: path, ln: ln}, nil
}

func (s *Server) Path() string { return s.path }

// Serve handles connections until ctx is done.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()
	defer os.Remove(s.path)

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Warn("Failed to accept control connection", "err", err)
			continue
		}
		go handleConn(conn, handler)
	}
}

func handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Debug("Bad control message", "err", err)
		return
	}
	log.Debug("Control message", "cmd", msg.Cmd)

	resp := Response{OK: true}
	if err := handler(msg); err != nil {
		resp = Response{Error: err.Error()}
	}
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		log.Debug("Failed to answer control message", "err", err)
	}
}

// Send delivers msg to the server at path and waits for its response.
func Send(ctx context.Context, path string, msg ControlMessage) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}
	return nil
}

// Controls is what the socket can drive.
type Controls interface {
	Record()
	Submit(text string)
	Clear()
	Close()
}

// Dispatch maps control messages onto c.
func Dispatch(c Controls) Handler {
	return func(msg ControlMessage) error {
		switch msg.Cmd {
		case CmdRecord:
			c.Record()
		case CmdSay:
			if msg.Text == "" {
				return errors.New("say needs text")
			}
			c.Submit(msg.Text)
		case CmdClear:
			c.Clear()
		case CmdQuit:
			c.Close()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return fmt.Errorf("unknown command %q", msg.Cmd)
		}
		return nil
	}
}
