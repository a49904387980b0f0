// ABOUTME: Bubble Tea model for the tray menu
// ABOUTME: Channel list, track info, link items, and playback controls
package tray

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/andypiper/theindiebeat-simple-player/internal/application/manager"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain/channel"
)

const (
	tibrURL      = "https://theindiebeat.fm/"
	bandwagonURL = "https://bandwagon.fm/"
)

type menuState int

const (
	stateLoading menuState = iota
	stateError
	stateReady
)

// Messages

type channelsMsg struct {
	channels []channel.Channel
}

type nowPlayingMsg struct {
	np *channel.NowPlaying
}

type playbackStartedMsg struct {
	name string
	err  error
}

type playbackStoppedMsg struct{}

type playbackEndedMsg struct {
	err error
}

type postMsg struct {
	fn func()
}

type menuAction int

const (
	actionNone menuAction = iota
	actionChannel
	actionArtistLink
	actionStopPlayback
	actionTIBR
	actionBandwagon
	actionQuit
)

type menuItem struct {
	label    string
	action   menuAction
	channel  *channel.Channel
	disabled bool
}

type model struct {
	mgr *manager.Manager
	log *zap.Logger

	state    menuState
	channels []channel.Channel
	cursor   int

	now      *channel.NowPlaying
	playing  bool
	current  string
	lastErr  string
	quitting bool
}

func newModel(mgr *manager.Manager, log *zap.Logger) model {
	return model{
		mgr:   mgr,
		log:   log,
		state: stateLoading,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadChannels()
}

func (m model) loadChannels() tea.Cmd {
	return func() tea.Msg {
		return channelsMsg{channels: m.mgr.Channels()}
	}
}

// items rebuilds the menu for the current state. Disabled rows are
// informational and skipped by the cursor.
func (m model) items() []menuItem {
	var items []menuItem

	switch m.state {
	case stateLoading:
		items = append(items, menuItem{label: "Loading channels...", disabled: true})
	case stateError:
		items = append(items, menuItem{label: "Error loading channels", disabled: true})
	case stateReady:
		for i := range m.channels {
			ch := m.channels[i]
			items = append(items, menuItem{
				label:   ch.Name,
				action:  actionChannel,
				channel: &ch,
			})
		}
	}

	track := "No track playing"
	if m.now != nil {
		track = m.now.Display()
	}
	items = append(items, menuItem{label: track, disabled: true})

	if m.now != nil && m.now.ExtLink != "" {
		items = append(items, menuItem{label: "View on Bandwagon", action: actionArtistLink})
	}
	if m.playing {
		items = append(items, menuItem{label: "Stop Playback", action: actionStopPlayback})
	}

	items = append(items,
		menuItem{label: "Go to The Indie Beat", action: actionTIBR},
		menuItem{label: "Go to Bandwagon", action: actionBandwagon},
		menuItem{label: "Quit", action: actionQuit},
	)

	return items
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case channelsMsg:
		if len(msg.channels) == 0 {
			m.state = stateError
		} else {
			m.state = stateReady
			m.channels = msg.channels
		}
		m.cursor = m.clampCursor(m.cursor)
		return m, nil

	case nowPlayingMsg:
		m.now = msg.np
		return m, nil

	case playbackStartedMsg:
		if msg.err != nil {
			m.log.Warn("error playing channel", zap.Error(msg.err))
			m.lastErr = "Error playing channel"
			return m, nil
		}
		m.playing = true
		m.current = msg.name
		m.now = nil
		m.lastErr = ""
		m.cursor = m.clampCursor(m.cursor)
		return m, nil

	case playbackStoppedMsg, playbackEndedMsg:
		m.playing = false
		m.current = ""
		m.now = nil
		m.cursor = m.clampCursor(m.cursor)
		return m, nil

	case postMsg:
		msg.fn()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = m.move(-1)
		return m, nil
	case "down", "j":
		m.cursor = m.move(1)
		return m, nil
	case "enter":
		return m.activate()
	}
	return m, nil
}

// move advances the cursor past disabled rows, stopping at the edges.
func (m model) move(dir int) int {
	items := m.items()
	cursor := m.cursor
	for {
		next := cursor + dir
		if next < 0 || next >= len(items) {
			return m.cursor
		}
		cursor = next
		if !items[cursor].disabled {
			return cursor
		}
	}
}

func (m model) clampCursor(cursor int) int {
	items := m.items()
	if cursor >= len(items) {
		cursor = len(items) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	if items[cursor].disabled {
		// Settle on the nearest selectable row.
		for i, it := range items {
			if !it.disabled {
				return i
			}
		}
	}
	return cursor
}

func (m model) activate() (tea.Model, tea.Cmd) {
	items := m.items()
	if m.cursor >= len(items) {
		return m, nil
	}
	item := items[m.cursor]

	switch item.action {
	case actionChannel:
		ch := *item.channel
		m.log.Info("selected channel", zap.String("name", ch.Name))
		return m, func() tea.Msg {
			return playbackStartedMsg{name: ch.Name, err: m.mgr.Play(ch)}
		}

	case actionStopPlayback:
		return m, func() tea.Msg {
			m.mgr.StopPlayback()
			return playbackStoppedMsg{}
		}

	case actionArtistLink:
		return m, m.openLink(m.now.ExtLink)

	case actionTIBR:
		return m, m.openLink(tibrURL)

	case actionBandwagon:
		return m, m.openLink(bandwagonURL)

	case actionQuit:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m model) openLink(url string) tea.Cmd {
	return func() tea.Msg {
		if url == "" {
			return nil
		}
		if err := browser.OpenURL(url); err != nil {
			m.log.Warn("error opening link", zap.String("url", url), zap.Error(err))
		}
		return nil
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	s := titleStyle.Render("TIBR Simple Player") + "\n\n"

	for i, item := range m.items() {
		cursor := "  "
		if i == m.cursor && !item.disabled {
			cursor = "> "
		}

		label := item.label
		switch {
		case item.disabled && m.state == stateError && item.action == actionNone && i == 0:
			label = errorStyle.Render(label)
		case item.disabled:
			label = infoStyle.Render(label)
		case i == m.cursor:
			label = selectedStyle.Render(label)
		case item.action == actionChannel && item.channel.Name == m.current:
			label = playingStyle.Render(label)
		}

		s += cursor + label + "\n"
	}

	if m.lastErr != "" {
		s += "\n" + errorStyle.Render(m.lastErr) + "\n"
	}

	s += "\n" + helpStyle.Render("up/down: move • enter: select • q: quit") + "\n"
	return s
}
