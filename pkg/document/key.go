package document

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyPrefix is where formatted documents live in the bucket.
const KeyPrefix = "kb-documents/"

const keySuffix = ".txt"

// Key returns the storage key for an episode's document:
// kb-documents/{episode}.txt, no padding, no extra path segments.
func Key(episode int) string {
	return KeyPrefix + strconv.Itoa(episode) + keySuffix
}

// EpisodeFromKey parses the episode number back out of a document key.
func EpisodeFromKey(key string) (int, error) {
	name, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return 0, fmt.Errorf("key %q does not start with %s", key, KeyPrefix)
	}
	name, ok = strings.CutSuffix(name, keySuffix)
	if !ok {
		return 0, fmt.Errorf("key %q does not end with %s", key, keySuffix)
	}
	episode, err := strconv.Atoi(name)
	if err != nil {
		return 0, fmt.Errorf("key %q has a non-numeric episode segment: %w", key, err)
	}
	return episode, nil
}
