// ABOUTME: Tests for the polling coordinator
// ABOUTME: Uses fake submitter, directory, and dispatcher to observe ticks
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andypiper/theindiebeat-simple-player/internal/application/executor"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain/channel"
)

// fakeSubmitter runs operations inline on the calling goroutine.
type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSubmitter) Submit(op executor.Operation) (any, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return op(context.Background())
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDirectory struct {
	np  *channel.NowPlaying
	err error

	mu        sync.Mutex
	shortcode string
}

func (f *fakeDirectory) ListChannels(_ context.Context) ([]channel.Channel, error) {
	return nil, nil
}

func (f *fakeDirectory) NowPlaying(_ context.Context, shortcode string) (*channel.NowPlaying, error) {
	f.mu.Lock()
	f.shortcode = shortcode
	f.mu.Unlock()
	return f.np, f.err
}

func (f *fakeDirectory) Close() {}

// fakeDispatcher records scheduled ticks and runs posted functions inline.
type fakeDispatcher struct {
	mu      sync.Mutex
	ticks   []func() bool
	stopped int
}

func (f *fakeDispatcher) Post(fn func()) { fn() }

func (f *fakeDispatcher) Every(_ time.Duration, tick func() bool) func() {
	f.mu.Lock()
	f.ticks = append(f.ticks, tick)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}
}

func (f *fakeDispatcher) scheduled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ticks)
}

func (f *fakeDispatcher) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeDispatcher) lastTick() func() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks[len(f.ticks)-1]
}

func testChannel() channel.Channel {
	return channel.New("Main", "main", "https://example.com/listen")
}

func TestStart_ImmediateTick(t *testing.T) {
	sub := &fakeSubmitter{}
	dir := &fakeDirectory{np: &channel.NowPlaying{Artist: "Ella", Title: "Song"}}
	disp := &fakeDispatcher{}

	c := New(sub, dir, disp, time.Minute, nil)

	var got *channel.NowPlaying
	c.Start(testChannel(), func() bool { return true }, func(np *channel.NowPlaying) { got = np })

	if sub.callCount() != 1 {
		t.Errorf("expected one immediate fetch, got %d", sub.callCount())
	}
	if got == nil || got.Artist != "Ella" {
		t.Errorf("expected update delivered, got %+v", got)
	}
	if dir.shortcode != "main" {
		t.Errorf("expected fetch for 'main', got %q", dir.shortcode)
	}
}

func TestTick_StopsWhenNotLive(t *testing.T) {
	sub := &fakeSubmitter{}
	dir := &fakeDirectory{np: &channel.NowPlaying{Artist: "Ella"}}
	disp := &fakeDispatcher{}

	c := New(sub, dir, disp, time.Minute, nil)

	live := true
	c.Start(testChannel(), func() bool { return live }, func(*channel.NowPlaying) {})

	tick := disp.lastTick()
	if !tick() {
		t.Error("expected tick to continue while live")
	}

	live = false
	if tick() {
		t.Error("expected tick to stop once not live")
	}
	if sub.callCount() != 2 {
		t.Errorf("expected no fetch after liveness drop, got %d calls", sub.callCount())
	}
}

func TestTick_SubmitErrorKeepsPolling(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("queue full")}
	dir := &fakeDirectory{}
	disp := &fakeDispatcher{}

	c := New(sub, dir, disp, time.Minute, nil)

	updates := 0
	c.Start(testChannel(), func() bool { return true }, func(*channel.NowPlaying) { updates++ })

	if !disp.lastTick()() {
		t.Error("expected polling to continue after a failed fetch")
	}
	if updates != 0 {
		t.Errorf("expected no updates on error, got %d", updates)
	}
}

func TestTick_NilResultSkipsUpdate(t *testing.T) {
	sub := &fakeSubmitter{}
	dir := &fakeDirectory{np: nil}
	disp := &fakeDispatcher{}

	c := New(sub, dir, disp, time.Minute, nil)

	updates := 0
	c.Start(testChannel(), func() bool { return true }, func(*channel.NowPlaying) { updates++ })

	if updates != 0 {
		t.Errorf("expected no update for nil snapshot, got %d", updates)
	}
}

func TestStart_ReplacesPreviousCycle(t *testing.T) {
	sub := &fakeSubmitter{}
	dir := &fakeDirectory{np: &channel.NowPlaying{Artist: "Ella"}}
	disp := &fakeDispatcher{}

	c := New(sub, dir, disp, time.Minute, nil)

	c.Start(testChannel(), func() bool { return true }, func(*channel.NowPlaying) {})
	c.Start(channel.New("Chill", "chill", "https://example.com/chill"), func() bool { return true }, func(*channel.NowPlaying) {})

	if disp.scheduled() != 2 {
		t.Errorf("expected two scheduled cycles, got %d", disp.scheduled())
	}
	if disp.stopCount() != 1 {
		t.Errorf("expected first cycle stopped, got %d stops", disp.stopCount())
	}
}

func TestStop_Idempotent(t *testing.T) {
	sub := &fakeSubmitter{}
	dir := &fakeDirectory{}
	disp := &fakeDispatcher{}

	c := New(sub, dir, disp, time.Minute, nil)

	c.Stop() // no cycle yet

	c.Start(testChannel(), func() bool { return true }, func(*channel.NowPlaying) {})
	c.Stop()
	c.Stop()

	if disp.stopCount() != 1 {
		t.Errorf("expected one stop call, got %d", disp.stopCount())
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	c := New(&fakeSubmitter{}, &fakeDirectory{}, &fakeDispatcher{}, 0, nil)
	if c.interval != DefaultInterval {
		t.Errorf("expected default interval %v, got %v", DefaultInterval, c.interval)
	}
}
