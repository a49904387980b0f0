// ABOUTME: Channel and now-playing domain types for The Indie Beat
// ABOUTME: Tolerant construction with documented defaults for missing fields
package channel

// Defaults substituted for fields the remote service omits.
const (
	DefaultName   = "Unknown Channel"
	DefaultArtist = "Unknown Artist"
	DefaultTitle  = "Unknown Track"
)

// Channel is one streamable station of the radio service.
type Channel struct {
	Name      string
	Shortcode string
	ListenURL string
}

// New builds a Channel, substituting defaults for missing fields rather
// than rejecting the record.
func New(name, shortcode, listenURL string) Channel {
	if name == "" {
		name = DefaultName
	}
	return Channel{
		Name:      name,
		Shortcode: shortcode,
		ListenURL: listenURL,
	}
}

// NowPlaying is a snapshot of the track a channel is currently airing.
type NowPlaying struct {
	Artist  string
	Title   string
	ExtLink string
}

// Display formats the snapshot for the menu, falling back to the
// documented defaults when the service sent empty fields.
func (n NowPlaying) Display() string {
	artist := n.Artist
	if artist == "" {
		artist = DefaultArtist
	}
	title := n.Title
	if title == "" {
		title = DefaultTitle
	}
	return artist + " - " + title
}
