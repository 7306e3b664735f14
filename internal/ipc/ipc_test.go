package ipc

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeControls struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeControls) add(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeControls) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeControls) Record()            { f.add("record") }
func (f *fakeControls) Submit(text string) { f.add("say " + text) }
func (f *fakeControls) Clear()             { f.add("clear") }
func (f *fakeControls) Close()             { f.add("quit") }

func startServer(t *testing.T, h Handler) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "c.sock")
	srv, err := Listen(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, h) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return path
}

func send(t *testing.T, path string, msg ControlMessage) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Send(ctx, path, msg)
}

func TestRoundTrip(t *testing.T) {
	c := &fakeControls{}
	path := startServer(t, Dispatch(c))

	require.NoError(t, send(t, path, ControlMessage{Cmd: CmdRecord}))
	require.NoError(t, send(t, path, ControlMessage{Cmd: CmdSay, Text: "hola"}))
	require.NoError(t, send(t, path, ControlMessage{Cmd: CmdClear}))
	require.NoError(t, send(t, path, ControlMessage{Cmd: CmdQuit}))

	assert.Equal(t, []string{"record", "say hola", "clear", "quit"}, c.snapshot())
}

func TestErrorsReachClient(t *testing.T) {
	c := &fakeControls{}
	path := startServer(t, Dispatch(c))

	assert.ErrorContains(t, send(t, path, ControlMessage{Cmd: "dance"}), "unknown command")
	assert.ErrorContains(t, send(t, path, ControlMessage{Cmd: CmdSay}), "needs text")
	assert.Empty(t, c.snapshot())
}

func TestSend_NoServer(t *testing.T) {
	assert.Error(t, send(t, filepath.Join(t.TempDir(), "none.sock"), ControlMessage{Cmd: CmdRecord}))
}

func TestListen_ReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.sock")

	first, err := Listen(path)
	require.NoError(t, err)
	require.NoError(t, first.ln.Close())

	second, err := Listen(path)
	require.NoError(t, err)
	assert.NoError(t, second.ln.Close())
}
