package guard

import "strings"

// Suspicious fragments each add a fixed amount to the heuristic score.
// They deliberately overlap with the regex patterns: the heuristic exists
// to catch paraphrases the exact patterns miss.
var suspiciousFragments = []string{
	"ignore previous",
	"ignore all previous",
	"disregard",
	"system prompt",
	"developer mode",
	"jailbreak",
	"no restrictions",
	"reveal your",
	"you must obey",
}

// Imperative verbs counted toward instruction density.
var imperativeVerbs = map[string]struct{}{
	"ignore": {}, "disregard": {}, "forget": {}, "override": {},
	"reveal": {}, "print": {}, "repeat": {}, "obey": {},
	"bypass": {}, "pretend": {},
}

const (
	fragmentWeight     = 30.0
	densityWeight      = 80.0
	heuristicThreshold = 50.0
)

// NewHeuristicClassifierGuard scores text on suspicious fragments and
// imperative verb density. It runs without a model and serves as the
// classifier backend when no model-backed scanner is configured.
func NewHeuristicClassifierGuard() *ClassifierGuard {
	return &ClassifierGuard{
		BackendName: "HeuristicGuard",
		Classifier:  ClassifierFunc(heuristicScore),
	}
}

func heuristicScore(text string) (bool, float64, error) {
	lower := strings.ToLower(text)

	score := 0.0
	for _, fragment := range suspiciousFragments {
		if strings.Contains(lower, fragment) {
			score += fragmentWeight
		}
	}

	words := strings.Fields(lower)
	if len(words) > 0 {
		imperatives := 0
		for _, w := range words {
			if _, ok := imperativeVerbs[strings.Trim(w, `.,!?:;"'`)]; ok {
				imperatives++
			}
		}
		score += float64(imperatives) / float64(len(words)) * densityWeight
	}

	if score > 100 {
		score = 100
	}
	return score < heuristicThreshold, score, nil
}
