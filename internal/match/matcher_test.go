package match

import (
	"math"
	"testing"
)

func TestScorePerfectMatch(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Name: "Song", Artists: []string{"Artist"}, DurationMS: 201_000, URI: "spotify:track:1"},
	}

	result := Score("Song", "Artist", 200, candidates)

	if result.Track == nil {
		t.Fatal("expected a match")
	}
	if math.Abs(result.Confidence-100) > 1e-9 {
		t.Errorf("expected score 100, got %v", result.Confidence)
	}
	if result.Confidence < ThresholdConfident {
		t.Error("perfect match should be a confident accept")
	}
	if result.Reason != "" {
		t.Errorf("confident match should have no reason, got %q", result.Reason)
	}
}

func TestScoreDissimilarCandidate(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Name: "zzzzzzzzzz", Artists: []string{"qqqqqqqq"}, DurationMS: 500_000},
	}

	result := Score("abcdefghij", "wxyz", 100, candidates)

	if result.Confidence != 0 {
		t.Errorf("expected score 0, got %v", result.Confidence)
	}
	if result.Track != nil {
		t.Error("dissimilar candidate should be rejected")
	}
	if result.Reason == "" {
		t.Error("rejection should carry a reason")
	}
}

func TestScoreNoCandidates(t *testing.T) {
	result := Score("Song", "Artist", 200, nil)

	if result.Track != nil {
		t.Error("expected no track")
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", result.Confidence)
	}
	if result.Reason != "No Spotify results found" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

// Identical title with no artist and a >30s duration gap scores exactly 50,
// landing in the low-confidence acceptance band.
func TestScoreLowConfidenceBand(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Name: "Song", DurationMS: 400_000},
	}

	result := Score("Song", "", 100, candidates)

	if result.Track == nil {
		t.Fatal("expected acceptance at score 50")
	}
	if math.Abs(result.Confidence-50) > 1e-9 {
		t.Errorf("expected score 50, got %v", result.Confidence)
	}
	if result.Reason != "Low confidence match" {
		t.Errorf("expected low confidence annotation, got %q", result.Reason)
	}
	if !result.Accepted() {
		t.Error("score 50 should be accepted")
	}
}

// The acceptance boundary sits at exactly 35: a candidate scoring 35 is taken,
// one scoring just below is rejected.
func TestScoreThresholdBoundary(t *testing.T) {
	// sim("abcde", "abcxx") = (5-2)/5 = 0.6 → 30 title points; duration diff 20s → 5.
	cands := []Candidate{{ID: "1", Name: "abcxx", DurationMS: 120_000}}
	result := Score("abcde", "", 140, cands)

	if math.Abs(result.Confidence-35) > 1e-9 {
		t.Fatalf("expected score exactly 35, got %v", result.Confidence)
	}
	if result.Track == nil || !result.Accepted() {
		t.Error("score of exactly 35 must be accepted")
	}

	// Same title component but duration diff >30s → 30 points total: rejected.
	cands = []Candidate{{ID: "1", Name: "abcxx", DurationMS: 400_000}}
	result = Score("abcde", "", 140, cands)

	if result.Confidence >= ThresholdAcceptable {
		t.Fatalf("expected score below 35, got %v", result.Confidence)
	}
	if result.Track != nil {
		t.Error("score below 35 must be rejected")
	}
	if result.Reason == "" {
		t.Error("rejection must populate a reason")
	}
}

func TestScoreTieBreaksFirstCandidate(t *testing.T) {
	candidates := []Candidate{
		{ID: "first", Name: "Song", Artists: []string{"Artist"}, DurationMS: 200_000},
		{ID: "second", Name: "Song", Artists: []string{"Artist"}, DurationMS: 200_000},
	}

	result := Score("Song", "Artist", 200, candidates)

	if result.Track == nil || result.Track.ID != "first" {
		t.Errorf("tie should go to the first candidate, got %+v", result.Track)
	}
}

func TestScoreEmptyArtistSkipsArtistComponent(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Name: "Song", Artists: []string{"Whoever"}, DurationMS: 200_000},
	}

	result := Score("Song", "", 200, candidates)

	// 50 title + 20 duration, no artist points.
	if math.Abs(result.Confidence-70) > 1e-9 {
		t.Errorf("expected score 70, got %v", result.Confidence)
	}
	if result.Reason != "" {
		t.Error("score 70 is a confident accept")
	}
}

func TestScorePicksBestAcrossArtists(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Name: "Song", Artists: []string{"Nobody", "Artist"}, DurationMS: 200_000},
	}

	result := Score("Song", "Artist", 200, candidates)

	if math.Abs(result.Confidence-100) > 1e-9 {
		t.Errorf("expected max over candidate artists, got %v", result.Confidence)
	}
}

func TestDurationScoreBuckets(t *testing.T) {
	tests := []struct {
		source    int
		candidate float64
		want      float64
	}{
		{200, 200, 20},
		{200, 202, 20},
		{200, 205, 15},
		{200, 210, 10},
		{200, 230, 5},
		{200, 231, 0},
		{200, 170, 5},
		// Fractional differences land in the bucket of the real gap, not a
		// whole-second truncation of it.
		{200, 201.5, 20},
		{200, 202.999, 15},
		{200, 205.5, 10},
		{200, 230.001, 0},
	}

	for _, tt := range tests {
		if got := durationScore(tt.source, tt.candidate); got != tt.want {
			t.Errorf("durationScore(%d, %v) = %v, want %v", tt.source, tt.candidate, got, tt.want)
		}
	}
}

// A candidate 2.999s off must score the ≤5s bucket even though its whole-second
// difference is 2.
func TestScoreFractionalDuration(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Name: "Song", Artists: []string{"Artist"}, DurationMS: 202_999},
	}

	result := Score("Song", "Artist", 200, candidates)

	// 50 title + 30 artist + 15 duration.
	if math.Abs(result.Confidence-95) > 1e-9 {
		t.Errorf("expected score 95, got %v", result.Confidence)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"same", "same", 1.0},
		{"abc", "", 0.0},
		{"kitten", "sitting", (7.0 - 3.0) / 7.0},
	}

	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
