package catalog

import (
	"sort"
	"testing"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if len(c.Products) == 0 {
		t.Fatal("embedded catalog has no products")
	}
	if len(c.Filters.TitleExcluded) == 0 {
		t.Error("embedded catalog has no title exclusion terms")
	}
	if len(c.Filters.DescriptionExcluded) == 0 {
		t.Error("embedded catalog has no description exclusion terms")
	}
	if len(c.Filters.PositiveIndicators) == 0 {
		t.Error("embedded catalog has no positive indicators")
	}

	for key, p := range c.Products {
		if p.Key != key {
			t.Errorf("product %q has mismatched Key %q", key, p.Key)
		}
		if len(p.MustContain) == 0 {
			t.Errorf("product %q has no must_contain terms", key)
		}
		if p.Band.TargetList <= p.Band.MaxBuy {
			t.Errorf("product %q has target_list %.2f <= max_buy %.2f, no margin possible",
				key, p.Band.TargetList, p.Band.MaxBuy)
		}
	}
}

func TestKeysSorted(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	keys := c.Keys()
	if len(keys) != len(c.Products) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(c.Products))
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("Keys() not sorted: %v", keys)
	}
}

func TestSearchText(t *testing.T) {
	p := ProductSpec{Key: "dji-mini-2", SearchTerms: []string{"dji mini 2", "mini 2"}}
	if got := p.SearchText(); got != "dji mini 2" {
		t.Errorf("SearchText() = %q, want %q", got, "dji mini 2")
	}
	p.SearchTerms = nil
	if got := p.SearchText(); got != "dji-mini-2" {
		t.Errorf("SearchText() fallback = %q, want product key", got)
	}
}

func TestLoadEmptyPathUsesEmbedded(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if len(c.Products) == 0 {
		t.Error("Load(\"\") returned empty catalog")
	}
}

func TestDecodeValidation(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"no products", `[filters]` + "\n"},
		{
			"missing must_contain",
			"[products.x]\nsearch_terms = [\"x\"]\nmax_buy = 100.0\nmin_buy = 50.0\ntarget_list = 200.0\n",
		},
		{
			"missing target_list",
			"[products.x]\nmust_contain = [\"x\"]\nmax_buy = 100.0\nmin_buy = 50.0\n",
		},
		{
			"inverted price band",
			"[products.x]\nmust_contain = [\"x\"]\nmax_buy = 50.0\nmin_buy = 100.0\ntarget_list = 200.0\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decode([]byte(tt.toml)); err == nil {
				t.Error("decode() succeeded, want validation error")
			}
		})
	}
}
