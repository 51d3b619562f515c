package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"podcast-kb/pkg/domain"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
	<channel>
		<title>Le podcast AWS en français</title>
		<link>https://example.com</link>
		<item>
			<title><![CDATA[WIT: AWS Tech Alliance]]></title>
			<link>https://example.com/episodes/341</link>
			<description><![CDATA[<p>Une discussion sur   l'alliance tech.</p>]]></description>
			<pubDate>Fri, 12 Jul 2024 05:00:00 GMT</pubDate>
			<itunes:episode>341</itunes:episode>
			<itunes:author>Podcast Team</itunes:author>
			<itunes:guest>
				<itunes:name>Pierre Tschirhart</itunes:name>
				<itunes:title>Program Manager</itunes:title>
				<itunes:link>https://example.com/pierre</itunes:link>
			</itunes:guest>
		</item>
		<item>
			<title>Episode sans numero</title>
			<link>https://example.com/episodes/unknown</link>
		</item>
		<item>
			<itunes:episode>342</itunes:episode>
			<link>https://example.com/episodes/342</link>
		</item>
	</channel>
</rss>`

func TestParse(t *testing.T) {
	client := NewClient("https://example.com/feed.xml")
	episodes := client.Parse(feedXML)

	if len(episodes) != 2 {
		t.Fatalf("Expected 2 episodes (item without episode number skipped), got %d", len(episodes))
	}

	meta, ok := episodes[341]
	if !ok {
		t.Fatal("Expected episode 341 in parsed feed")
	}
	if meta.Title != "WIT: AWS Tech Alliance" {
		t.Errorf("Expected CDATA title, got %q", meta.Title)
	}
	if meta.Description != "Une discussion sur l'alliance tech." {
		t.Errorf("Expected HTML-stripped description, got %q", meta.Description)
	}
	if meta.PublicationDate != "2024-07-12T05:00:00Z" {
		t.Errorf("Expected ISO-8601 publication date, got %q", meta.PublicationDate)
	}
	if meta.Author != "Podcast Team" {
		t.Errorf("Expected itunes author, got %q", meta.Author)
	}
	if len(meta.Guests) != 1 {
		t.Fatalf("Expected 1 guest, got %d", len(meta.Guests))
	}
	guest := meta.Guests[0]
	if guest.Name != "Pierre Tschirhart" || guest.Title != "Program Manager" || guest.Link != "https://example.com/pierre" {
		t.Errorf("Unexpected guest: %+v", guest)
	}
	if len(meta.Links) != 1 || meta.Links[0].Text != "Episode Page" || meta.Links[0].Link != "https://example.com/episodes/341" {
		t.Errorf("Unexpected links: %+v", meta.Links)
	}
}

func TestParse_Defaults(t *testing.T) {
	client := NewClient("https://example.com/feed.xml")
	episodes := client.Parse(feedXML)

	meta, ok := episodes[342]
	if !ok {
		t.Fatal("Expected episode 342 in parsed feed")
	}
	if meta.Title != "Episode 342" {
		t.Errorf("Expected default title, got %q", meta.Title)
	}
	if meta.Description != domain.DefaultDescription {
		t.Errorf("Expected default description, got %q", meta.Description)
	}
	if meta.Author != domain.DefaultAuthor {
		t.Errorf("Expected default author, got %q", meta.Author)
	}
	if meta.PublicationDate == "" {
		t.Error("Expected publication date fallback to be set")
	}
	if len(meta.Guests) != 0 {
		t.Errorf("Expected no guests, got %+v", meta.Guests)
	}
}

func TestParse_MalformedFeed(t *testing.T) {
	client := NewClient("https://example.com/feed.xml")

	for _, input := range []string{"", "not xml at all", "<rss><channel>"} {
		episodes := client.Parse(input)
		if episodes == nil {
			t.Fatal("Expected empty map for malformed feed, got nil")
		}
		if len(episodes) != 0 {
			t.Errorf("Expected empty map for %q, got %d entries", input, len(episodes))
		}
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	episodes, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(episodes))
	}
}

func TestFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatal("Expected error for 500 response, got nil")
	}
}

func TestFlattenHTML(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain   text\nwith  spaces", "plain text with spaces"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"  ", ""},
	}
	for _, c := range cases {
		if got := flattenHTML(c.in); got != c.want {
			t.Errorf("flattenHTML(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
