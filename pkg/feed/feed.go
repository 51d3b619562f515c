// Package feed fetches the podcast RSS feed and parses it into per-episode
// metadata keyed by episode number.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"podcast-kb/pkg/domain"
)

// Client fetches and parses one RSS feed.
type Client struct {
	httpClient    *http.Client
	url           string
	defaultAuthor string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithDefaultAuthor overrides the author fallback.
func WithDefaultAuthor(author string) Option {
	return func(cl *Client) { cl.defaultAuthor = author }
}

// NewClient creates a feed client for the given URL.
func NewClient(feedURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		url:           feedURL,
		defaultAuthor: domain.DefaultAuthor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the feed and parses it. Network and non-2xx failures are
// returned as errors so the caller can retry; a feed that downloads but does
// not parse yields an empty map and no error.
func (c *Client) Fetch(ctx context.Context) (map[int]domain.EpisodeMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	return c.Parse(string(body)), nil
}

// Parse converts feed XML into a map keyed by episode number. Items without
// a parseable episode number are skipped; a malformed feed yields an empty
// map. Parse never fails past this layer.
func (c *Client) Parse(xmlText string) map[int]domain.EpisodeMetadata {
	episodes := make(map[int]domain.EpisodeMetadata)

	parsed, err := gofeed.NewParser().ParseString(xmlText)
	if err != nil || parsed == nil {
		return episodes
	}

	for _, item := range parsed.Items {
		meta, ok := c.episodeFromItem(item)
		if !ok {
			continue
		}
		episodes[meta.Episode] = meta
	}
	return episodes
}

// episodeFromItem extracts one episode's metadata. Every field except the
// episode number falls back to a default when absent.
func (c *Client) episodeFromItem(item *gofeed.Item) (domain.EpisodeMetadata, bool) {
	if item == nil || item.ITunesExt == nil {
		return domain.EpisodeMetadata{}, false
	}

	number, err := strconv.Atoi(strings.TrimSpace(item.ITunesExt.Episode))
	if err != nil || number <= 0 {
		return domain.EpisodeMetadata{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = domain.DefaultTitle(number)
	}

	description := flattenHTML(item.Description)
	if description == "" {
		description = domain.DefaultDescription
	}

	pubDate := time.Now().UTC().Format(time.RFC3339)
	if item.PublishedParsed != nil {
		pubDate = item.PublishedParsed.UTC().Format(time.RFC3339)
	}

	author := strings.TrimSpace(item.ITunesExt.Author)
	if author == "" {
		author = c.defaultAuthor
	}

	meta := domain.EpisodeMetadata{
		Episode:         number,
		Title:           title,
		Description:     description,
		PublicationDate: pubDate,
		Author:          author,
		Guests:          guestsFromItem(item),
	}

	if link := strings.TrimSpace(item.Link); link != "" {
		meta.Links = []domain.Link{{Text: "Episode Page", Link: link}}
	}

	return meta, true
}

// guestsFromItem reads the non-standard itunes:guest blocks. gofeed keeps
// unknown itunes children in the raw extension tree.
func guestsFromItem(item *gofeed.Item) []domain.Guest {
	itunes, ok := item.Extensions["itunes"]
	if !ok {
		return nil
	}

	var guests []domain.Guest
	for _, block := range itunes["guest"] {
		name := childValue(block, "name")
		if name == "" {
			continue
		}
		guests = append(guests, domain.Guest{
			Name:  name,
			Title: childValue(block, "title"),
			Link:  childValue(block, "link"),
		})
	}
	return guests
}

func childValue(e ext.Extension, name string) string {
	children := e.Children[name]
	if len(children) == 0 {
		return ""
	}
	return strings.TrimSpace(children[0].Value)
}

func drainAndClose(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
