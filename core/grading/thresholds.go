package grading

import (
	"fmt"
	"math"
	"sort"
)

// Scores are on a 0-20 scale.
const (
	MinScore = 0
	MaxScore = 20
)

// Bands split the seminar for the entrance test.
const (
	BandPrimaire   = "Primaire"
	BandSecondaire = "Secondaire"
)

// Groups (the participant's `niveau`), two per band.
const (
	GroupPrimaireA   = "PrimaireA"
	GroupPrimaireB   = "PrimaireB"
	GroupSecondaireA = "SecondaireA"
	GroupSecondaireB = "SecondaireB"
)

var (
	Groups = []string{GroupPrimaireA, GroupPrimaireB, GroupSecondaireA, GroupSecondaireB}

	bandGroups = map[string][2]string{
		BandPrimaire:   {GroupPrimaireA, GroupPrimaireB},
		BandSecondaire: {GroupSecondaireA, GroupSecondaireB},
	}

	// secondaireMin is the lowest entrance score placed in the Secondaire band.
	secondaireMin = 10.0

	// mentions, highest threshold first
	mentions = []struct {
		min   float64
		label string
	}{
		{16, "Très bien"},
		{14, "Bien"},
		{12, "Assez bien"},
		{10, "Passable"},
		{0, "Insuffisant"},
	}
)

// ValidScore reports whether s is within [0, 20].
func ValidScore(s float64) bool {
	return s >= MinScore && s <= MaxScore
}

// MentionFor returns the qualitative label of an average. Every artifact and listing uses it.
func MentionFor(avg float64) string {
	for _, m := range mentions {
		if avg >= m.min {
			return m.label
		}
	}
	return mentions[len(mentions)-1].label
}

// BandFor returns the entrance-test band of a score.
func BandFor(score float64) string {
	if score >= secondaireMin {
		return BandSecondaire
	}
	return BandPrimaire
}

// IsGroup reports whether g is one of Groups.
func IsGroup(g string) bool {
	for _, grp := range Groups {
		if grp == g {
			return true
		}
	}
	return false
}

// BandOfGroup returns the band a group belongs to, or "".
func BandOfGroup(g string) string {
	for band, grps := range bandGroups {
		if grps[0] == g || grps[1] == g {
			return band
		}
	}
	return ""
}

// Balancer keeps the two groups of each band balanced as entrance scores come in.
// It is not safe for concurrent use.
type Balancer struct {
	counts map[string]int
}

// NewBalancer starts from the given running counts per group. Unknown groups are ignored.
func NewBalancer(counts map[string]int) *Balancer {
	b := &Balancer{counts: make(map[string]int, len(Groups))}
	for _, g := range Groups {
		b.counts[g] = counts[g]
	}
	return b
}

// CountGroups counts niveau values, e.g. from the current participant collection.
func CountGroups(niveaux []string) map[string]int {
	counts := make(map[string]int, len(Groups))
	for _, n := range niveaux {
		if IsGroup(n) {
			counts[n]++
		}
	}
	return counts
}

// Assign places a new score: the band comes from BandFor, then the group of that band
// with the lower count gets it (A on ties). The chosen count is incremented.
func (b *Balancer) Assign(score float64) (string, error) {
	if !ValidScore(score) {
		return "", fmt.Errorf("score %.2f out of range [%d, %d]", score, MinScore, MaxScore)
	}
	grps := bandGroups[BandFor(score)]
	g := grps[0]
	if b.counts[grps[1]] < b.counts[grps[0]] {
		g = grps[1]
	}
	b.counts[g]++
	return g, nil
}

// Release undoes a placement, e.g. when a participant's score changes band.
func (b *Balancer) Release(group string) {
	if b.counts[group] > 0 {
		b.counts[group]--
	}
}

// Counts returns a copy of the running counts.
func (b *Balancer) Counts() map[string]int {
	out := make(map[string]int, len(b.counts))
	for g, n := range b.counts {
		out[g] = n
	}
	return out
}

// Rank orders averages descending and returns the 1-based rank of each key.
// Averages are compared rounded to 2 decimals; equal ones share a rank ("1, 2, 2, 4").
func Rank(averages map[string]float64) map[string]int {
	rounded := make(map[string]float64, len(averages))
	keys := make([]string, 0, len(averages))
	for k, avg := range averages {
		rounded[k] = Round2(avg)
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if rounded[keys[i]] != rounded[keys[j]] {
			return rounded[keys[i]] > rounded[keys[j]]
		}
		return keys[i] < keys[j]
	})

	ranks := make(map[string]int, len(keys))
	for i, k := range keys {
		if i > 0 && rounded[k] == rounded[keys[i-1]] {
			ranks[k] = ranks[keys[i-1]]
			continue
		}
		ranks[k] = i + 1
	}
	return ranks
}

// Round2 rounds avg to 2 decimals, the precision bulletins are shown with.
func Round2(avg float64) float64 {
	return math.Round(avg*100) / 100
}

// Average is the arithmetic mean of scores, 0 when empty.
func Average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
