package retrieval

import "testing"

func TestContainmentDistance(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    float64
	}{
		{"verbatim containment", "table", "rustic dining table", 0},
		{"exact equality", "sofa", "sofa", 0},
		{"single substitution", "tabel", "dining table set", 0.2},
		{"empty text", "table", "", 1},
		{"no resemblance", "zzzzz", "qqqq", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := containmentDistance(tt.pattern, tt.text)
			if got != tt.want {
				t.Errorf("containmentDistance(%q, %q) = %f, want %f", tt.pattern, tt.text, got, tt.want)
			}
		})
	}
}

func TestContainmentDistance_Bounds(t *testing.T) {
	patterns := []string{"a", "chair", "dining table", "0123456789"}
	texts := []string{"", "x", "the quick brown fox", "chairs and tables"}

	for _, p := range patterns {
		for _, tx := range texts {
			got := containmentDistance(p, tx)
			if got < 0 || got > 1 {
				t.Errorf("containmentDistance(%q, %q) = %f out of [0,1]", p, tx, got)
			}
		}
	}
}

func TestFieldDistance_BestTokenWins(t *testing.T) {
	// The full query barely fits the short field, but the token "table"
	// aligns exactly.
	query := "find me a dining table"
	tokens := queryTokens(query)

	got := fieldDistance(query, tokens, "oak table")
	if got != 0 {
		t.Errorf("fieldDistance = %f, want 0", got)
	}
}

func TestQueryTokens_DropsShortFragments(t *testing.T) {
	got := queryTokens("a is on the table")
	want := []string{"is", "on", "the", "table"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", got, want)
		}
	}
}
