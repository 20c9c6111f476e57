package harness

import (
	"errors"
	"sort"
	"strings"
)

// Scored pairs a candidate with its feedback.
type Scored struct {
	Candidate Candidate
	Feedback  Feedback
}

// Selector picks the best candidate from a scored pool.
type Selector interface {
	Select(pool []Scored) (Candidate, error)
}

// ConsensusSelector selects by score plus a consensus bonus: candidates
// whose normalized output (first 200 chars, trimmed, lowercased) matches
// at least one other candidate get the bonus. Ties break on lower
// latency.
type ConsensusSelector struct {
	Bonus float64
}

func NewConsensusSelector() *ConsensusSelector {
	return &ConsensusSelector{Bonus: 0.15}
}

func (s *ConsensusSelector) Select(pool []Scored) (Candidate, error) {
	if len(pool) == 0 {
		return Candidate{}, errors.New("no candidates")
	}

	groups := make(map[string][]string)
	for _, entry := range pool {
		key := normalizeOutput(entry.Candidate.Output)
		groups[key] = append(groups[key], entry.Candidate.ID)
	}
	consensus := make(map[string]bool)
	for _, ids := range groups {
		if len(ids) >= 2 {
			for _, id := range ids {
				consensus[id] = true
			}
		}
	}

	ranked := append([]Scored(nil), pool...)
	effective := func(e Scored) float64 {
		score := e.Feedback.Score
		if consensus[e.Candidate.ID] {
			score += s.Bonus
		}
		return score
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := effective(ranked[i]), effective(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].Candidate.LatencyMS < ranked[j].Candidate.LatencyMS
	})
	return ranked[0].Candidate, nil
}

func normalizeOutput(output string) string {
	key := strings.ToLower(strings.TrimSpace(output))
	if len(key) > 200 {
		key = key[:200]
	}
	return key
}
