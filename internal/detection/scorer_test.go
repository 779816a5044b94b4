package detection

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

const epsilon = 1e-9

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultRuleSet())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestScoreDefaults(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "empty text",
			text: "",
			want: 0,
		},
		{
			name: "whitespace only",
			text: "   \t\n  ",
			want: 0,
		},
		{
			name: "benign text",
			text: "see you at the coffee shop tomorrow",
			want: 0,
		},
		{
			name: "violence pattern plus aggressive token",
			text: "I will kill you",
			want: 0.5, // pattern 0.3 + "kill" 0.2
		},
		{
			name: "insult pattern plus harassment token",
			text: "you are worthless",
			want: 0.45, // pattern 0.3 + "worthless" 0.15
		},
		{
			name: "surveillance pattern without tokens",
			text: "I am watching you every day",
			want: 0.3,
		},
		{
			name: "coercion pattern without tokens",
			text: "do it or else",
			want: 0.3,
		},
		{
			name: "stacked pattern and tokens",
			text: "I will kill you, you worthless loser",
			want: 0.8, // violence 0.3 + kill 0.2 + worthless 0.15 + loser 0.15
		},
		{
			name: "repeated aggressive tokens",
			text: "hurt hurt hurt",
			want: 0.6, // 3 x 0.2
		},
		{
			name: "uppercase token still matches",
			text: "KILL",
			want: 0.2,
		},
		{
			name: "token match is exact, not substring",
			text: "killing it at the gym, total killer set",
			want: 0,
		},
		{
			name: "punctuation glued to token does not match",
			text: "kill.",
			want: 0,
		},
		{
			name: "score clamps at one",
			text: "kill hurt harm beat attack destroy",
			want: 1.0, // 6 x 0.2 = 1.2, clamped
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Score(tt.text)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Score(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.7, 0.7},
		{1, 1},
		{1.3, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReloadSwapsRules(t *testing.T) {
	engine := newTestEngine(t)

	if got := engine.Score("creep"); got != 0 {
		t.Fatalf("expected 0 before reload, got %v", got)
	}

	rs := DefaultRuleSet()
	rs.HarassmentWords = append(rs.HarassmentWords, "creep")
	if err := engine.Reload(rs); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if got := engine.Score("creep"); math.Abs(got-0.15) > epsilon {
		t.Errorf("expected 0.15 after reload, got %v", got)
	}
}

func TestReloadRejectsBadPatternAndKeepsOldRules(t *testing.T) {
	engine := newTestEngine(t)

	bad := DefaultRuleSet()
	bad.Patterns = []Pattern{{Name: "broken", Expr: `(?i)\b(unclosed`, Weight: 0.3}}
	if err := engine.Reload(bad); err == nil {
		t.Fatal("expected error for invalid pattern expression")
	}

	// Old rules must still be active.
	if got := engine.Score("I will kill you"); math.Abs(got-0.5) > epsilon {
		t.Errorf("expected old rules to survive failed reload, got score %v", got)
	}
}

func TestLoadRuleSetPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	yaml := `harassment_words:
  - creep
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rs, err := LoadRuleSet(path)
	if err != nil {
		t.Fatalf("LoadRuleSet failed: %v", err)
	}

	// The provided list replaces the default, omitted fields keep defaults.
	if len(rs.HarassmentWords) != 1 || rs.HarassmentWords[0] != "creep" {
		t.Errorf("expected harassment words [creep], got %v", rs.HarassmentWords)
	}
	if len(rs.Patterns) != 4 {
		t.Errorf("expected default 4 patterns, got %d", len(rs.Patterns))
	}
	if rs.AggressiveWeight != 0.2 {
		t.Errorf("expected default aggressive weight 0.2, got %v", rs.AggressiveWeight)
	}
}

func TestLoadRuleSetMissingFile(t *testing.T) {
	if _, err := LoadRuleSet("/nonexistent/rules.yaml"); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}
