package textutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercases", "Attack From Mars", "attack from mars"},
		{"strips apostrophes", "JP's Metallica", "jps metallica"},
		{"curly apostrophe", "Bram Stoker’s Dracula", "bram stokers dracula"},
		{"punctuation becomes space", "Twilight Zone - Premium (Bally 1993)", "twilight zone premium bally 1993"},
		{"collapses whitespace", "  Addams \t Family  ", "addams family"},
		{"folds accents", "Pokémon", "pokemon"},
		{"underscores", "Medieval_Madness", "medieval madness"},
		{"hyphen", "Spider-Man", "spider man"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"JP's Metallica Pro (Stern 2013)",
		"Elvira and the Party Monsters",
		"Pokémon — Édition Spéciale!!",
		"  ___  ",
		"Spider-Man (Vault Edition) [VPW]",
		"İstanbul Ünlü",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestWordSorted(t *testing.T) {
	a := WordSorted(Normalize("Elvira and the Party Monsters"))
	b := WordSorted(Normalize("Party Monsters Elvira"))
	if a != b {
		t.Fatalf("word order drift not collapsed: %q vs %q", a, b)
	}
	if a != "elvira monsters party" {
		t.Fatalf("WordSorted = %q, want %q", a, "elvira monsters party")
	}
}

func TestWordSortedDropsOnlyStopWords(t *testing.T) {
	if got := WordSorted("The Lord of the Rings"); got != "lord rings" {
		t.Fatalf("WordSorted = %q", got)
	}
	if got := WordSorted("The A An"); got != "" {
		t.Fatalf("expected all stop-words removed, got %q", got)
	}
}

func TestFoldKey(t *testing.T) {
	if got := FoldKey("  Metallica   (JP) "); got != "metallica (jp)" {
		t.Fatalf("FoldKey = %q", got)
	}
}

func TestIsStopWord(t *testing.T) {
	if !IsStopWord("The") {
		t.Fatal("expected The to be a stop-word")
	}
	if IsStopWord("metallica") {
		t.Fatal("metallica is not a stop-word")
	}
}
