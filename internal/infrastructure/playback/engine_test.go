// ABOUTME: Tests for the playback engine
// ABOUTME: Uses a fake stream source and cat as the player process
package playback

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/andypiper/theindiebeat-simple-player/internal/domain"
)

// fakeSource serves a fixed payload, or fails if err is set.
type fakeSource struct {
	payload string
	err     error
}

func (f *fakeSource) Connect(_ context.Context, _ string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.payload)), nil
}

// blockingSource never delivers data until closed.
type blockingSource struct{}

type blockingReader struct {
	closed chan struct{}
}

func (b *blockingReader) Read(_ []byte) (int, error) {
	<-b.closed
	return 0, io.EOF
}

func (b *blockingReader) Close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	return nil
}

func (blockingSource) Connect(_ context.Context, _ string) (io.ReadCloser, error) {
	return &blockingReader{closed: make(chan struct{})}, nil
}

func catEngine(src domain.StreamSource) *Engine {
	return New(Config{Command: "cat", Args: []string{"-"}}, src, nil)
}

func TestPlay_EndOfStream(t *testing.T) {
	e := catEngine(&fakeSource{payload: "audio"})

	if err := e.Play(context.Background(), "http://example.com/stream"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !e.Playing() {
		t.Error("expected Playing after Play")
	}

	select {
	case ev := <-e.Events():
		if ev.Err != nil {
			t.Errorf("expected clean end of stream, got %v", ev.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no playback event after stream ended")
	}

	if e.Playing() {
		t.Error("expected not Playing after end of stream")
	}
}

func TestPlay_ConnectError(t *testing.T) {
	wantErr := errors.New("refused")
	e := catEngine(&fakeSource{err: wantErr})

	err := e.Play(context.Background(), "http://example.com/stream")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if e.Playing() {
		t.Error("expected not Playing after failed connect")
	}
}

func TestPlay_BadCommand(t *testing.T) {
	e := New(Config{Command: "definitely-not-a-player"}, &fakeSource{payload: "x"}, nil)

	if err := e.Play(context.Background(), "http://example.com/stream"); err == nil {
		t.Fatal("expected error for missing player binary")
	}
}

func TestStop_NoEvent(t *testing.T) {
	e := catEngine(blockingSource{})

	if err := e.Play(context.Background(), "http://example.com/stream"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	e.Stop()

	if e.Playing() {
		t.Error("expected not Playing after Stop")
	}

	// A deliberate stop does not surface as a playback event.
	select {
	case ev := <-e.Events():
		t.Errorf("unexpected event after Stop: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStop_Idempotent(t *testing.T) {
	e := catEngine(&fakeSource{payload: "x"})

	e.Stop() // nothing playing

	if err := e.Play(context.Background(), "http://example.com/stream"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	e.Stop()
	e.Stop()
}

func TestPlay_ReplacesSession(t *testing.T) {
	e := catEngine(blockingSource{})

	if err := e.Play(context.Background(), "http://example.com/a"); err != nil {
		t.Fatalf("first Play failed: %v", err)
	}
	if err := e.Play(context.Background(), "http://example.com/b"); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}
	if !e.Playing() {
		t.Error("expected Playing after replacement")
	}
	e.Stop()
}

func TestDefaultArgs(t *testing.T) {
	e := New(Config{Volume: 0.8}, &fakeSource{}, nil)

	args := e.args()
	found := false
	for _, a := range args {
		if a == "--volume=80" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected volume arg in %v", args)
	}
	if args[len(args)-1] != "-" {
		t.Errorf("expected stdin marker as last arg, got %v", args)
	}
}
