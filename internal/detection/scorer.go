// Package detection implements the threat-scoring heuristic: a pure,
// deterministic scan that maps a text snippet to a score in [0, 1].
package detection

import (
	"log"
	"strings"
	"sync"
)

// Engine scores text against a rule set. Scoring is read-only and safe for
// concurrent use; Reload swaps the rule set atomically for hot-reload.
type Engine struct {
	mu    sync.RWMutex
	rules *compiledRules
}

// NewEngine compiles the rule set into a ready scorer.
func NewEngine(rs RuleSet) (*Engine, error) {
	cr, err := compile(rs)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: cr}, nil
}

// Reload replaces the active rule set. In-flight Score calls finish against
// the snapshot they started with.
func (e *Engine) Reload(rs RuleSet) error {
	cr, err := compile(rs)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.rules = cr
	e.mu.Unlock()

	log.Printf("🔄 [DETECTION] Rule set reloaded: %d patterns, %d aggressive words, %d harassment words",
		len(cr.patterns), len(cr.aggressive), len(cr.harassment))
	return nil
}

// Score returns the threat score for text, clamped to [0, 1].
//
// Regex patterns are substring searches over the whole original text; the
// token lists match whitespace-separated tokens by exact (case-insensitive)
// equality. The two must not be conflated: "killer" never matches the "kill"
// token, but can still match a pattern.
func (e *Engine) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	score := 0.0

	for _, p := range rules.patterns {
		if p.re.MatchString(text) {
			score += p.weight
		}
	}

	tokens := strings.Fields(strings.ToLower(text))
	for _, tok := range tokens {
		if _, ok := rules.aggressive[tok]; ok {
			score += rules.aggressiveWeight
		}
		if _, ok := rules.harassment[tok]; ok {
			score += rules.harassmentWeight
		}
	}

	return Clamp(score)
}

// Clamp bounds a score to the closed interval [0, 1].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
