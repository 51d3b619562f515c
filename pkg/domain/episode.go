package domain

import (
	"strconv"
	"time"
)

// Fallback values used when the RSS feed has no entry for an episode or an
// entry is missing optional fields.
const (
	DefaultAuthor      = "Le podcast AWS en français"
	DefaultDescription = "Description not available"
)

// Guest is a single itunes:guest block from the feed. Name is always set;
// Title and Link may be empty.
type Guest struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Link  string `json:"link,omitempty"`
}

// Link is a related link rendered at the end of a formatted document.
type Link struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

// EpisodeMetadata describes one podcast episode as parsed from the RSS feed.
// Values are immutable once built; a fresh set is constructed on every feed
// parse.
type EpisodeMetadata struct {
	Episode         int     `json:"episode"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	PublicationDate string  `json:"publicationDate"`
	Author          string  `json:"author"`
	Guests          []Guest `json:"guests,omitempty"`
	Links           []Link  `json:"links,omitempty"`
}

// DefaultMetadata builds the stub returned when an episode has no feed entry.
func DefaultMetadata(episode int) EpisodeMetadata {
	return EpisodeMetadata{
		Episode:         episode,
		Title:           DefaultTitle(episode),
		Description:     DefaultDescription,
		PublicationDate: time.Now().UTC().Format(time.RFC3339),
		Author:          DefaultAuthor,
	}
}

// DefaultTitle is the title used when the feed does not provide one.
func DefaultTitle(episode int) string {
	return "Episode " + strconv.Itoa(episode)
}
