// internal/game/words.go
package game

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// fallbackWords keeps the game playable when no word file is available.
var fallbackWords = []string{
	"pizza", "bicycle", "sunflower", "volcano", "submarine",
	"lighthouse", "telescope", "waterfall", "campfire", "glacier",
	"carnival", "labyrinth", "meteor", "harbor", "orchard",
	"avalanche", "compass", "lantern", "monsoon", "quicksand",
}

// LoadWords reads a word list (one word per line, blank lines skipped)
// from path. Any failure falls back to the built-in list so a missing or
// unreadable file never blocks game creation.
func LoadWords(path string, logger *logrus.Logger) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).Warnf("failed to load word list %q, using built-in fallback", path)
		return fallbackWords
	}

	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		if w := strings.TrimSpace(line); w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		logger.Warnf("word list %q is empty, using built-in fallback", path)
		return fallbackWords
	}
	logger.Infof("loaded %d words from %q", len(words), path)
	return words
}
