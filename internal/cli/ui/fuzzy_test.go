package ui

import (
	"reflect"
	"testing"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"Cached", "", 6},
		{"kitten", "sitting", 3},
		{"Component", "Component", 0},
		{"Cached", "Cashed", 1},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q): got %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Component", "Cached", "Service", "Route"}

	got := FindSimilar("Cahced", candidates)
	if !reflect.DeepEqual(got, []string{"Cached"}) {
		t.Errorf("FindSimilar(Cahced): got %v", got)
	}

	got = FindSimilar("cached", candidates)
	if len(got) == 0 || got[0] != "Cached" {
		t.Errorf("matching is case-insensitive: got %v", got)
	}

	if got := FindSimilar("CompletelyDifferent", candidates); len(got) != 0 {
		t.Errorf("FindSimilar should return nothing for distant names, got %v", got)
	}
}
