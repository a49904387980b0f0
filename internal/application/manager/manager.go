// ABOUTME: Application manager wiring client, executor, player, and poller
// ABOUTME: Owns component lifecycle and the shutdown ordering
package manager

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andypiper/theindiebeat-simple-player/internal/application/config"
	"github.com/andypiper/theindiebeat-simple-player/internal/application/executor"
	"github.com/andypiper/theindiebeat-simple-player/internal/application/poller"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain/channel"
	"github.com/andypiper/theindiebeat-simple-player/internal/infrastructure/azuracast"
	"github.com/andypiper/theindiebeat-simple-player/internal/infrastructure/playback"
	"github.com/andypiper/theindiebeat-simple-player/internal/infrastructure/retry"
	"github.com/andypiper/theindiebeat-simple-player/internal/infrastructure/stream"
)

// Manager wires the components together and exposes the operations the
// tray menu uses. Every network operation crosses through the executor so
// the menu never blocks on the network directly.
type Manager struct {
	cfg  *config.Config
	log  *zap.Logger
	exec *executor.Executor

	dir    domain.Directory
	player domain.Player
	poll   *poller.Coordinator

	mu      sync.Mutex
	current *channel.Channel

	onNowPlaying  func(*channel.NowPlaying)
	onPlaybackEnd func(domain.PlaybackEvent)

	quit     chan struct{}
	shutdown sync.Once
}

// Option overrides a constructed component, mainly for tests.
type Option func(*Manager)

func WithDirectory(dir domain.Directory) Option {
	return func(m *Manager) { m.dir = dir }
}

func WithPlayer(p domain.Player) Option {
	return func(m *Manager) { m.player = p }
}

func NewFromConfig(cfg *config.Config, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}

	policy := retry.New(
		cfg.Retry.MaxAttempts,
		time.Duration(cfg.Retry.BaseDelayMs)*time.Millisecond,
		log,
	)

	dir := azuracast.New(azuracast.Config{
		BaseURL:        cfg.API.BaseURL,
		UserAgent:      cfg.API.UserAgent,
		RequestTimeout: time.Duration(cfg.API.RequestTimeoutMs) * time.Millisecond,
	}, policy, log)

	src := stream.NewHTTP(stream.Config{
		UserAgent:      cfg.API.UserAgent,
		ConnectTimeout: time.Duration(cfg.Player.ConnectTimeoutMs) * time.Millisecond,
	})

	engine := playback.New(playback.Config{
		Command: cfg.Player.Command,
		Args:    cfg.Player.Args,
		Volume:  cfg.Player.Volume,
	}, src, log)

	m := &Manager{
		cfg:    cfg,
		log:    log,
		exec:   executor.New(time.Duration(cfg.Executor.SubmitTimeoutMs)*time.Millisecond, log),
		dir:    dir,
		player: engine,
		quit:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start brings up the background execution context and begins watching
// playback events.
func (m *Manager) Start() error {
	if err := m.exec.Start(); err != nil {
		return err
	}
	go m.watchPlayback()
	return nil
}

// AttachUI connects the front end's dispatcher and callbacks. Must be
// called before Play so polling has somewhere to deliver updates.
func (m *Manager) AttachUI(disp domain.Dispatcher, onNowPlaying func(*channel.NowPlaying), onPlaybackEnd func(domain.PlaybackEvent)) {
	m.poll = poller.New(m.exec, m.dir,
		disp,
		time.Duration(m.cfg.Polling.PollMs)*time.Millisecond,
		m.log)
	m.onNowPlaying = onNowPlaying
	m.onPlaybackEnd = onPlaybackEnd
}

// Channels fetches the channel list through the executor. A timeout or
// unavailable service yields an empty list.
func (m *Manager) Channels() []channel.Channel {
	res, err := m.exec.Submit(func(ctx context.Context) (any, error) {
		return m.dir.ListChannels(ctx)
	})
	if err != nil {
		m.log.Warn("channel load failed", zap.Error(err))
		return nil
	}
	channels, _ := res.([]channel.Channel)
	return channels
}

// Play starts streaming ch and begins the now-playing poll cycle. Any
// current playback is stopped first.
func (m *Manager) Play(ch channel.Channel) error {
	m.StopPlayback()

	_, err := m.exec.Submit(func(ctx context.Context) (any, error) {
		return nil, m.player.Play(ctx, ch.ListenURL)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = &ch
	m.mu.Unlock()

	m.log.Info("playing channel", zap.String("name", ch.Name))

	if m.poll != nil {
		live := func() bool {
			return m.player.Playing() && m.isCurrent(ch.Shortcode)
		}
		m.poll.Start(ch, live, m.onNowPlaying)
	}
	return nil
}

func (m *Manager) isCurrent(shortcode string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.Shortcode == shortcode
}

// Current reports the currently selected channel, or nil.
func (m *Manager) Current() *channel.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// StopPlayback stops polling and playback. Idempotent.
func (m *Manager) StopPlayback() {
	if m.poll != nil {
		m.poll.Stop()
	}
	m.player.Stop()

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

func (m *Manager) watchPlayback() {
	for {
		select {
		case <-m.quit:
			return
		case ev := <-m.player.Events():
			m.log.Info("playback ended", zap.Error(ev.Err))
			m.StopPlayback()
			if m.onPlaybackEnd != nil {
				m.onPlaybackEnd(ev)
			}
		}
	}
}

// Shutdown stops polling and playback, releases the client session through
// the executor, and stops the executor, in that order. Idempotent.
func (m *Manager) Shutdown() {
	m.shutdown.Do(func() {
		m.StopPlayback()
		close(m.quit)

		if _, err := m.exec.Submit(func(context.Context) (any, error) {
			m.dir.Close()
			return nil, nil
		}); err != nil {
			m.log.Warn("client close failed", zap.Error(err))
		}

		m.exec.Stop()
		m.log.Info("shutdown complete")
	})
}
