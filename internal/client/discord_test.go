package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestEmbedColor(t *testing.T) {
	tests := []struct {
		margin float64
		want   int
	}{
		{0.6, colorHighMargin},
		{0.5, colorHighMargin},
		{0.4, colorMidMargin},
		{0.3, colorMidMargin},
		{0.1, colorLowMargin},
		{-0.2, colorLowMargin},
	}
	for _, tt := range tests {
		if got := embedColor(tt.margin); got != tt.want {
			t.Errorf("embedColor(%.2f) = %#x, want %#x", tt.margin, got, tt.want)
		}
	}
}

func TestDiscordNotifyDeal(t *testing.T) {
	var got discordSendRequest
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding webhook body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c.WebhookURL = srv.URL

	rep := 42
	err := c.DiscordNotifyDeal(context.Background(), DealNotification{
		ProductKey: "dji mini 2",
		Variant:    "fly more combo",
		Title:      "DJI Mini 2 Fly More Combo",
		URL:        "https://marketplace.example/items/101",
		PhotoURL:   "https://img.example/101.jpg",
		Seller:     "seller1",
		Reputation: &rep,
		Price:      189,
		Currency:   "EUR",
		Profit:     211,
		Margin:     0.53,
		Quality:    70,
	})
	if err != nil {
		t.Fatalf("DiscordNotifyDeal() error: %v", err)
	}

	if len(got.Embeds) != 1 {
		t.Fatalf("got %d embeds, want 1", len(got.Embeds))
	}
	embed := got.Embeds[0]
	if embed.Title != "DJI Mini 2 Fly More Combo" {
		t.Errorf("embed title = %q", embed.Title)
	}
	if embed.Color != colorHighMargin {
		t.Errorf("embed color = %#x, want high-margin green", embed.Color)
	}
	if embed.Footer == nil || embed.Footer.Text != "dji mini 2" {
		t.Errorf("embed footer = %+v, want the product key", embed.Footer)
	}
	if embed.Thumbnail == nil || embed.Thumbnail.URL != "https://img.example/101.jpg" {
		t.Errorf("embed thumbnail = %+v, want the listing photo", embed.Thumbnail)
	}

	fields := map[string]string{}
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
	}
	if fields["Price"] != "189.00 EUR" {
		t.Errorf("Price field = %q, want %q", fields["Price"], "189.00 EUR")
	}
	if fields["Profit"] != "211.00" {
		t.Errorf("Profit field = %q, want %q", fields["Profit"], "211.00")
	}
	if fields["Margin"] != "53%" {
		t.Errorf("Margin field = %q, want %q", fields["Margin"], "53%")
	}
	if fields["Quality"] != "70/100" {
		t.Errorf("Quality field = %q, want %q", fields["Quality"], "70/100")
	}
	if fields["Seller"] != "seller1 (42 feedback)" {
		t.Errorf("Seller field = %q, want %q", fields["Seller"], "seller1 (42 feedback)")
	}
	if fields["Variant"] != "fly more combo" {
		t.Errorf("Variant field = %q, want %q", fields["Variant"], "fly more combo")
	}
}

func TestDiscordNotifyDealWebhookError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	c.WebhookURL = srv.URL

	err := c.DiscordNotifyDeal(context.Background(), DealNotification{Title: "x", URL: "y"})
	if err == nil {
		t.Error("DiscordNotifyDeal() succeeded, want error on non-2xx webhook response")
	}
}
