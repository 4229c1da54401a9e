package match

import "strings"

// Composite score thresholds. A score at or above ThresholdConfident is a
// confident match; the pipeline still accepts anything at or above
// ThresholdAcceptable, annotated as low confidence.
const (
	ThresholdConfident  = 70.0
	ThresholdAcceptable = 35.0
)

// Candidate is a Spotify search result considered for a match.
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	DurationMS int      `json:"duration_ms"`
	URI        string   `json:"uri"`
}

// Result is the outcome of scoring candidates against a source item.
// Track is nil when no candidate reached the acceptable threshold.
type Result struct {
	Track      *Candidate
	Confidence float64 // 0–100
	Reason     string
}

// Accepted reports whether the pipeline should take this match.
func (r Result) Accepted() bool {
	return r.Track != nil && r.Confidence >= ThresholdAcceptable
}

// Score ranks candidates against a normalized source item and picks the best one.
//
// Each candidate earns up to 50 points for title similarity, 30 for artist
// similarity (skipped when the source artist is unknown), and 20 for duration
// proximity. Ties go to the earlier candidate in search order.
func Score(title, artist string, durationSec int, candidates []Candidate) Result {
	if len(candidates) == 0 {
		return Result{Reason: "No Spotify results found"}
	}

	bestScore := -1.0
	var best *Candidate

	for i := range candidates {
		c := &candidates[i]
		score := Similarity(strings.ToLower(title), strings.ToLower(c.Name)) * 50

		if artist != "" {
			artistSim := 0.0
			for _, a := range c.Artists {
				if sim := Similarity(strings.ToLower(artist), strings.ToLower(a)); sim > artistSim {
					artistSim = sim
				}
			}
			score += artistSim * 30
		}

		score += durationScore(durationSec, float64(c.DurationMS)/1000)

		if score > bestScore {
			bestScore = score
			best = c
		}
	}

	switch {
	case bestScore >= ThresholdConfident:
		return Result{Track: best, Confidence: bestScore}
	case bestScore >= ThresholdAcceptable:
		return Result{Track: best, Confidence: bestScore, Reason: "Low confidence match"}
	default:
		return Result{Confidence: bestScore, Reason: "No confident match found"}
	}
}

// durationScore awards points for how close the candidate duration is to the
// source duration. The candidate duration stays fractional so bucket
// boundaries fall on exact second differences, not truncated ones.
func durationScore(source int, candidate float64) float64 {
	diff := float64(source) - candidate
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff <= 2:
		return 20
	case diff <= 5:
		return 15
	case diff <= 10:
		return 10
	case diff <= 30:
		return 5
	default:
		return 0
	}
}

// Similarity computes normalized string similarity in [0,1] as
// 1 - levenshtein(a, b) / len(longer).
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1.0
	}

	return float64(longer-levenshtein(ra, rb)) / float64(longer)
}

// levenshtein computes the edit distance between two rune slices using a
// two-row dynamic programming table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j-1]+cost, curr[j-1]+1, prev[j]+1)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
