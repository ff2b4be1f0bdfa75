package filter

import "testing"

func TestTitleExcluded(t *testing.T) {
	terms := []string{"case", "bag", "battery only"}

	tests := []struct {
		name     string
		title    string
		excluded bool
		term     string
	}{
		{"matching term", "GoPro Hero 11 with case", true, "case"},
		{"case insensitive", "GoPro Hero 11 CASE only", true, "case"},
		{"first match wins", "bag and case for drone", true, "case"},
		{"substring match", "DJI Mini casette holder", true, "case"},
		{"clean title", "GoPro Hero 11 Black", false, ""},
		{"empty title", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excluded, term := TitleExcluded(tt.title, terms)
			if excluded != tt.excluded {
				t.Errorf("TitleExcluded(%q) = %t, want %t", tt.title, excluded, tt.excluded)
			}
			if term != tt.term {
				t.Errorf("TitleExcluded(%q) term = %q, want %q", tt.title, term, tt.term)
			}
		})
	}
}

func TestTitleExcludedSkipsEmptyTerms(t *testing.T) {
	excluded, term := TitleExcluded("anything at all", []string{"", "drone"})
	if !excluded || term != "drone" {
		t.Errorf("got (%t, %q), want (true, %q)", excluded, term, "drone")
	}
}

func TestRequiredPresent(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		required []string
		want     bool
	}{
		{"all present", "GoPro Hero 11 Black", []string{"hero", "11"}, true},
		{"subset is not enough", "GoPro Hero Black", []string{"hero", "11"}, false},
		{"case insensitive", "GOPRO HERO 11", []string{"hero", "11"}, true},
		{"no required terms", "anything", nil, true},
		{"empty terms skipped", "GoPro Hero 11", []string{"", "hero"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredPresent(tt.title, tt.required); got != tt.want {
				t.Errorf("RequiredPresent(%q, %v) = %t, want %t", tt.title, tt.required, got, tt.want)
			}
		})
	}
}

func TestDescriptionExcluded(t *testing.T) {
	terms := []string{"broken", "won't turn on"}

	tests := []struct {
		name        string
		description string
		excluded    bool
	}{
		{"defect term", "screen is broken", true},
		{"multiword defect term", "it won't turn on anymore", true},
		{"clean description", "works perfectly, barely used", false},
		{"empty passes", "", false},
		{"placeholder passes", "No description available", false},
		{"dash placeholder passes", "-", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excluded, _ := DescriptionExcluded(tt.description, terms)
			if excluded != tt.excluded {
				t.Errorf("DescriptionExcluded(%q) = %t, want %t", tt.description, excluded, tt.excluded)
			}
		})
	}
}

func TestPlaceholderDescription(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"No Description", true},
		{"no description available", true},
		{"N/A", true},
		{"-", true},
		{"mint condition", false},
	}
	for _, tt := range tests {
		if got := PlaceholderDescription(tt.text); got != tt.want {
			t.Errorf("PlaceholderDescription(%q) = %t, want %t", tt.text, got, tt.want)
		}
	}
}
