package textutil_test

import (
	"reflect"
	"testing"

	"heatmap/internal/textutil"
)

func TestSanitizeIMDbID(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"tt1234567", "tt1234567", true},
		{"  tt7654321  ", "tt7654321", true},
		{`"tt0903747"`, "tt0903747", true},
		{"'tt0944947'", "tt0944947", true},
		{"tt12345", "", false},
		{"tt1234567890", "", false},
		{"tt1234567/", "", false},
		{"../tt1234567", "", false},
		{"tt12a4567", "", false},
		{"", "", false},
		{"nm1234567", "", false},
	}
	for _, tc := range cases {
		got, ok := textutil.SanitizeIMDbID(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("SanitizeIMDbID(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseFloat(t *testing.T) {
	if v := textutil.ParseFloat("8.3"); v == nil || *v != 8.3 {
		t.Fatalf("expected 8.3, got %v", v)
	}
	for _, raw := range []string{"", "N/A", "n/a", "abc"} {
		if v := textutil.ParseFloat(raw); v != nil {
			t.Fatalf("expected nil for %q, got %v", raw, *v)
		}
	}
}

func TestParseCount(t *testing.T) {
	if v := textutil.ParseCount("1,234,567"); v == nil || *v != 1234567 {
		t.Fatalf("expected 1234567, got %v", v)
	}
	for _, raw := range []string{"", "N/A", "1.2K", "-5"} {
		if v := textutil.ParseCount(raw); v != nil {
			t.Fatalf("expected nil for %q, got %v", raw, *v)
		}
	}
}

func TestSplitGenres(t *testing.T) {
	got := textutil.SplitGenres("crime, DRAMA,thriller, Drama")
	want := []string{"Crime", "Drama", "Thriller"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitGenres = %v, want %v", got, want)
	}
	if got := textutil.SplitGenres("N/A"); got != nil {
		t.Fatalf("expected nil for N/A, got %v", got)
	}
}

func TestFoldKey(t *testing.T) {
	if textutil.FoldKey("  Breaking Bad ") != textutil.FoldKey("breaking bad") {
		t.Fatal("expected folded keys to match")
	}
}

func TestFoldKeyTransliterates(t *testing.T) {
	if got := textutil.FoldKey("Pokémon   Horizons"); got != "pokemon horizons" {
		t.Fatalf("FoldKey = %q", got)
	}
}

func TestIsEpisodeID(t *testing.T) {
	if !textutil.IsEpisodeID("tt0959621") {
		t.Fatal("expected real episode id to match")
	}
	for _, value := range []string{"tt0903747-S1E2", "", "nm0000123"} {
		if textutil.IsEpisodeID(value) {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}
