// ABOUTME: Playback engine piping channel audio into an external player
// ABOUTME: Reports end-of-stream and errors on an events channel
package playback

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/andypiper/theindiebeat-simple-player/internal/domain"
)

// Defaults for the external player process.
const (
	DefaultCommand = "mpv"
	DefaultVolume  = 0.5
)

type Config struct {
	Command string
	Args    []string
	Volume  float64
}

// Engine streams a channel URL into an external audio player process.
// It implements domain.Player.
type Engine struct {
	cfg    Config
	src    domain.StreamSource
	log    *zap.Logger
	events chan domain.PlaybackEvent

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	playing atomic.Bool
}

func New(cfg Config, src domain.StreamSource, log *zap.Logger) *Engine {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Volume == 0 {
		cfg.Volume = DefaultVolume
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		src:    src,
		log:    log,
		events: make(chan domain.PlaybackEvent, 4),
	}
}

func (e *Engine) args() []string {
	if len(e.cfg.Args) > 0 {
		return e.cfg.Args
	}
	return []string{
		"--no-video",
		"--really-quiet",
		fmt.Sprintf("--volume=%d", int(e.cfg.Volume*100)),
		"-",
	}
}

// Play stops any current playback, connects the stream, and starts the
// player process reading from it. ctx bounds only the connect phase; the
// session itself runs until Stop or the stream ends.
func (e *Engine) Play(ctx context.Context, url string) error {
	e.Stop()

	body, err := e.src.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(sessionCtx, e.cfg.Command, e.args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		body.Close()
		return fmt.Errorf("player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		body.Close()
		return fmt.Errorf("start player: %w", err)
	}

	done := make(chan struct{})

	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.playing.Store(true)
	e.mu.Unlock()

	// Unblock a blocked stream read when the session is cancelled.
	go func() {
		<-sessionCtx.Done()
		body.Close()
	}()

	go e.runSession(sessionCtx, body, stdin, cmd, done)

	return nil
}

func (e *Engine) runSession(ctx context.Context, body io.ReadCloser, stdin io.WriteCloser, cmd *exec.Cmd, done chan struct{}) {
	_, copyErr := io.Copy(stdin, body)
	stdin.Close()
	body.Close()
	waitErr := cmd.Wait()

	e.playing.Store(false)
	close(done)

	if ctx.Err() != nil {
		// Deliberate stop, not an event.
		return
	}

	ev := domain.PlaybackEvent{}
	if copyErr != nil {
		ev.Err = copyErr
	} else if waitErr != nil {
		ev.Err = waitErr
	}
	if ev.Err != nil {
		e.log.Warn("playback error", zap.Error(ev.Err))
	} else {
		e.log.Info("end of stream")
	}

	select {
	case e.events <- ev:
	default:
	}
}

// Stop tears down the current session, waiting for the player process to
// exit. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.playing.Store(false)
}

func (e *Engine) Playing() bool {
	return e.playing.Load()
}

func (e *Engine) Events() <-chan domain.PlaybackEvent {
	return e.events
}
