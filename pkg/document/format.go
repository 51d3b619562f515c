// Package document formats knowledge-base documents from transcripts and
// episode metadata, and writes them under deterministic keys.
package document

import (
	"fmt"
	"strings"

	"podcast-kb/pkg/domain"
)

// Format combines the transcript and metadata into one plain-text document.
// Section order is fixed; Guests and Related Links appear only when their
// collections are non-empty, and the Description line only when a
// description exists. The transcript is embedded verbatim. Format is pure
// and idempotent.
func Format(episode int, transcriptText string, meta domain.EpisodeMetadata) string {
	lines := []string{
		fmt.Sprintf("Episode: %d", episode),
		"Title: " + meta.Title,
		"Publication Date: " + meta.PublicationDate,
		"Author: " + meta.Author,
	}

	if len(meta.Guests) > 0 {
		lines = append(lines, "Guests: "+renderGuests(meta.Guests))
	}
	if meta.Description != "" {
		lines = append(lines, "Description: "+meta.Description)
	}

	lines = append(lines, "", "Transcription:", transcriptText)

	if len(meta.Links) > 0 {
		lines = append(lines, "", "Related Links:")
		for _, l := range meta.Links {
			lines = append(lines, "- "+l.Text+": "+l.Link)
		}
	}

	return strings.Join(lines, "\n")
}

// renderGuests joins guests with ", "; per guest, title and link segments
// are appended with " - " only when non-empty.
func renderGuests(guests []domain.Guest) string {
	parts := make([]string, 0, len(guests))
	for _, g := range guests {
		segment := g.Name
		if g.Title != "" {
			segment += " - " + g.Title
		}
		if g.Link != "" {
			segment += " - " + g.Link
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, ", ")
}
