// ABOUTME: Domain interfaces for dependency inversion
// ABOUTME: Boundaries to the remote service, playback engine, and UI loop
package domain

import (
	"context"
	"io"
	"time"

	"github.com/andypiper/theindiebeat-simple-player/internal/domain/channel"
)

// Directory provides the two remote read operations of the radio service.
// Exhausted retries surface as an empty slice / nil snapshot, never as an
// error, so callers always have a renderable state.
type Directory interface {
	ListChannels(ctx context.Context) ([]channel.Channel, error)
	NowPlaying(ctx context.Context, shortcode string) (*channel.NowPlaying, error)
	Close()
}

// StreamSource opens an audio stream for playback.
type StreamSource interface {
	Connect(ctx context.Context, url string) (io.ReadCloser, error)
}

// PlaybackEvent reports that playback ended on its own. Err is nil for a
// clean end of stream.
type PlaybackEvent struct {
	Err error
}

// Player controls audio playback. Playing is the liveness input for the
// metadata poller.
type Player interface {
	Play(ctx context.Context, url string) error
	Stop()
	Playing() bool
	Events() <-chan PlaybackEvent
}

// Dispatcher is the front end's scheduling surface: Post marshals a
// callback onto the UI loop; Every runs tick at a fixed interval until it
// returns false or the returned stop function is called.
type Dispatcher interface {
	Post(fn func())
	Every(d time.Duration, tick func() bool) (stop func())
}
