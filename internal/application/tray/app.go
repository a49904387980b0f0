// ABOUTME: Tray application wrapping the Bubble Tea program
// ABOUTME: Implements the UI-loop dispatcher and wires manager callbacks
package tray

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/andypiper/theindiebeat-simple-player/internal/application/manager"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain/channel"
)

// App wraps the Bubble Tea program. It is the front end's concurrency
// domain: a single-threaded event loop, with Program.Send as the
// thread-safe way in from other goroutines.
type App struct {
	mgr     *manager.Manager
	log     *zap.Logger
	program *tea.Program
}

func New(mgr *manager.Manager, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{mgr: mgr, log: log}
}

// Run starts the UI and blocks until it exits.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		newModel(a.mgr, a.log),
		tea.WithAltScreen(),
	)

	a.mgr.AttachUI(a,
		func(np *channel.NowPlaying) {
			a.program.Send(nowPlayingMsg{np: np})
		},
		func(ev domain.PlaybackEvent) {
			a.program.Send(playbackEndedMsg{err: ev.Err})
		},
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigChan
		a.program.Send(tea.Quit())
	}()

	_, err := a.program.Run()

	signal.Stop(sigChan)
	return err
}

// Post marshals fn onto the UI loop.
func (a *App) Post(fn func()) {
	a.program.Send(postMsg{fn: fn})
}

// Every runs tick at a fixed interval until it returns false or the
// returned stop function is called.
func (a *App) Every(d time.Duration, tick func() bool) func() {
	stop := make(chan struct{})
	var once sync.Once

	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if !tick() {
					return
				}
			}
		}
	}()

	return func() {
		once.Do(func() { close(stop) })
	}
}
