package similarity

import "testing"

func TestRatio(t *testing.T) {
	var r Ratio
	if got := r.Score("ENBREL", "ENBREL"); got != 100 {
		t.Errorf("identical = %v", got)
	}
	if got := r.Score("ENBREL", "ENBRL"); got < 80 || got >= 100 {
		t.Errorf("one deletion = %v, want [80,100)", got)
	}
	if got := r.Score("ENBREL", "OZEMPIC"); got > 40 {
		t.Errorf("unrelated = %v, want <= 40", got)
	}
}

func TestTokenSort_IgnoresOrder(t *testing.T) {
	var s TokenSort
	if got := s.Score("PEN COSENTYX", "COSENTYX PEN"); got != 100 {
		t.Errorf("reordered = %v, want 100", got)
	}
}

func TestTokenSet_Subset(t *testing.T) {
	var s TokenSet
	if got := s.Score("COSENTYX", "COSENTYX 150 MG/ML SENSOREADY PEN"); got != 100 {
		t.Errorf("subset = %v, want 100", got)
	}
	if got := s.Score("STELARA", "SKYRIZI"); got >= 80 {
		t.Errorf("different drugs = %v, want < 80", got)
	}
	if got := s.Score("", "SKYRIZI"); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "token_set", "TOKEN_SORT", "ratio"} {
		if _, ok := ByName(name); !ok {
			t.Errorf("ByName(%q) not found", name)
		}
	}
	if _, ok := ByName("soundex"); ok {
		t.Error("unexpected scorer for soundex")
	}
}

func TestScorerFunc(t *testing.T) {
	var s Scorer = ScorerFunc(func(a, b string) float64 { return 42 })
	if s.Score("x", "y") != 42 {
		t.Error("ScorerFunc did not delegate")
	}
}
