package detection

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern is an immutable regular expression with a fixed weight contribution.
// Patterns are matched as substring searches over the whole captured text.
type Pattern struct {
	Name   string  `yaml:"name"`
	Expr   string  `yaml:"expr"`
	Weight float64 `yaml:"weight"`
}

// RuleSet is the full scoring configuration: regex patterns plus two
// exact-match token lists with their per-occurrence weights.
type RuleSet struct {
	Patterns         []Pattern `yaml:"patterns"`
	AggressiveWords  []string  `yaml:"aggressive_words"`
	AggressiveWeight float64   `yaml:"aggressive_weight"`
	HarassmentWords  []string  `yaml:"harassment_words"`
	HarassmentWeight float64   `yaml:"harassment_weight"`
}

// DefaultRuleSet returns the built-in heuristic: four regex patterns at 0.3
// each, aggressive tokens at 0.2 per occurrence, harassment tokens at 0.15.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Patterns: []Pattern{
			{
				Name:   "violence",
				Expr:   `(?i)\b(i\s+will|i'?m\s+going\s+to|gonna)\s+(kill|hurt|harm|beat|attack|destroy)\b`,
				Weight: 0.3,
			},
			{
				Name:   "degrading_insult",
				Expr:   `(?i)\byou('re|\s+are)\s+(so\s+|such\s+an?\s+)?(worthless|stupid|ugly|pathetic|disgusting|loser)\b`,
				Weight: 0.3,
			},
			{
				Name:   "surveillance",
				Expr:   `(?i)\b(watching|following|tracking|stalking)\s+you\b`,
				Weight: 0.3,
			},
			{
				Name:   "coercion",
				Expr:   `(?i)(\bor\s+else\b|\byou\s+(had\s+)?better\b|\bif\s+you\s+don'?t\b|\bdo\s+what\s+i\s+say\b)`,
				Weight: 0.3,
			},
		},
		AggressiveWords:  []string{"kill", "hurt", "harm", "beat", "attack", "destroy"},
		AggressiveWeight: 0.2,
		HarassmentWords:  []string{"worthless", "stupid", "ugly", "hate", "loser"},
		HarassmentWeight: 0.15,
	}
}

// LoadRuleSet reads a YAML rule file. Fields omitted in the file fall back to
// the defaults so a partial override (e.g. extra harassment words) is valid.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	rs := DefaultRuleSet()
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	if rs.AggressiveWeight <= 0 {
		rs.AggressiveWeight = 0.2
	}
	if rs.HarassmentWeight <= 0 {
		rs.HarassmentWeight = 0.15
	}

	return rs, nil
}

// compiledRules is the immutable form the scorer reads from.
type compiledRules struct {
	patterns         []compiledPattern
	aggressive       map[string]struct{}
	aggressiveWeight float64
	harassment       map[string]struct{}
	harassmentWeight float64
}

type compiledPattern struct {
	name   string
	re     *regexp.Regexp
	weight float64
}

func compile(rs RuleSet) (*compiledRules, error) {
	cr := &compiledRules{
		patterns:         make([]compiledPattern, 0, len(rs.Patterns)),
		aggressive:       make(map[string]struct{}, len(rs.AggressiveWords)),
		aggressiveWeight: rs.AggressiveWeight,
		harassment:       make(map[string]struct{}, len(rs.HarassmentWords)),
		harassmentWeight: rs.HarassmentWeight,
	}

	for _, p := range rs.Patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p.Name, err)
		}
		weight := p.Weight
		if weight <= 0 {
			weight = 0.3
		}
		cr.patterns = append(cr.patterns, compiledPattern{name: p.Name, re: re, weight: weight})
	}

	// Token matching is case-insensitive: the scorer lowercases tokens first.
	for _, w := range rs.AggressiveWords {
		cr.aggressive[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range rs.HarassmentWords {
		cr.harassment[strings.ToLower(w)] = struct{}{}
	}

	return cr, nil
}
