// package match implements title normalization and fuzzy track matching.
//
// YouTube video titles are loosely formatted ("Artist - Song (Official Video) [HD]"),
// so candidates are resolved in two steps: Normalize strips decorative noise and
// guesses an artist/title split, then Score ranks Spotify search results against
// the normalized item.
package match

import (
	"regexp"
	"strings"
)

// NormalizedTitle is the artist/title guess derived from a raw video title.
// Artist is empty when no separator was detected. The untouched original is
// kept for diagnostics and cache keying.
type NormalizedTitle struct {
	Title    string
	Artist   string
	Original string
}

// noiseTokens are decorative markers removed from titles, matched
// case-insensitively in both (...) and [...] delimited forms.
var noiseTokens = []string{
	"official video",
	"official audio",
	"lyrics",
	"official music video",
	"official 4k video",
	"official lyric video",
	"audio",
	"hd",
	"4k",
	"visualizer",
	"visualiser",
	"lyric video",
	"music video",
	"video",
	"explicit",
	"clean",
	"radio edit",
	"remix",
	"remaster",
	"remastered",
	"live",
	"acoustic",
	"cover",
	"slowed",
	"reverb",
	"8d audio",
	"nightcore",
	"sped up",
	`slowed \+ reverb`,
}

// creditTokens consume the rest of the bracket after the marker (featured
// artists, producers).
var creditTokens = []string{
	`prod\. by`,
	`ft\.`,
	`feat\.`,
	`featuring`,
}

// separators tried in order when splitting artist from title. En-dash and
// em-dash are distinct from the plain hyphen.
var separators = []string{" - ", " – ", ": ", " | ", " — "}

var (
	noiseRe      []*regexp.Regexp
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func init() {
	for _, tok := range noiseTokens {
		noiseRe = append(noiseRe,
			regexp.MustCompile(`(?i)\(`+tok+`\)`),
			regexp.MustCompile(`(?i)\[`+tok+`\]`),
		)
	}
	for _, tok := range creditTokens {
		noiseRe = append(noiseRe,
			regexp.MustCompile(`(?i)\(`+tok+`.*?\)`),
			regexp.MustCompile(`(?i)\[`+tok+`.*?\]`),
		)
	}
}

// Normalize strips noise tokens from a raw video title and attempts to split it
// into an artist/title pair.
//
// Pure and deterministic; normalizing an already-clean title is a fixed point.
func Normalize(title string) NormalizedTitle {
	cleaned := title
	for _, re := range noiseRe {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))

	for _, sep := range separators {
		if !strings.Contains(cleaned, sep) {
			continue
		}
		parts := strings.Split(cleaned, sep)
		return NormalizedTitle{
			Artist:   strings.TrimSpace(parts[0]),
			Title:    strings.TrimSpace(strings.Join(parts[1:], sep)),
			Original: title,
		}
	}

	return NormalizedTitle{Title: cleaned, Artist: "", Original: title}
}

// Query builds the Spotify search query for a normalized title.
func (n NormalizedTitle) Query() string {
	if n.Artist != "" {
		return n.Title + " " + n.Artist
	}
	return n.Title
}
