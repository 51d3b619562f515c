package domain

import (
	"fmt"
	"strings"
)

// FailedEpisode records why a single episode could not be processed.
type FailedEpisode struct {
	Episode int    `json:"episode"`
	Error   string `json:"error"`
}

// ProcessingStats aggregates the outcome of a batch migration run. It is
// mutated incrementally while the run progresses and discarded after the
// summary is printed.
type ProcessingStats struct {
	Total          int             `json:"total"`
	Successful     int             `json:"successful"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	FailedEpisodes []FailedEpisode `json:"failedEpisodes,omitempty"`
}

// RecordSuccess counts one successfully processed episode.
func (s *ProcessingStats) RecordSuccess() {
	s.Successful++
}

// RecordFailure counts one failed episode and keeps its error text for the
// summary.
func (s *ProcessingStats) RecordFailure(episode int, err error) {
	s.Failed++
	s.FailedEpisodes = append(s.FailedEpisodes, FailedEpisode{
		Episode: episode,
		Error:   err.Error(),
	})
}

// RecordSkip counts one episode that was skipped before processing.
func (s *ProcessingStats) RecordSkip() {
	s.Skipped++
}

// Summary renders a human-readable report for the batch CLI.
func (s *ProcessingStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d episodes: %d succeeded, %d failed, %d skipped",
		s.Total, s.Successful, s.Failed, s.Skipped)
	if len(s.FailedEpisodes) > 0 {
		b.WriteString("\nFailed episodes:")
		for _, f := range s.FailedEpisodes {
			fmt.Fprintf(&b, "\n  episode %d: %s", f.Episode, f.Error)
		}
	}
	return b.String()
}
