package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"dealfinder/internal/misc"
)

// DealNotification is the structured message posted to the notification
// webhook for a qualifying deal.
type DealNotification struct {
	ProductKey string
	Variant    string
	Title      string
	URL        string
	PhotoURL   string
	Seller     string
	Reputation *int
	Price      float64
	Currency   string
	Profit     float64
	Margin     float64
	Quality    int
}

type discordSendRequest struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title     string              `json:"title"`
	URL       string              `json:"url,omitempty"`
	Color     int                 `json:"color"`
	Fields    []discordEmbedField `json:"fields,omitempty"`
	Thumbnail *discordThumbnail   `json:"thumbnail,omitempty"`
	Footer    *discordFooter      `json:"footer,omitempty"`
	Timestamp string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordThumbnail struct {
	URL string `json:"url"`
}

type discordFooter struct {
	Text string `json:"text"`
}

const (
	colorHighMargin = 0x2ECC71
	colorMidMargin  = 0xF1C40F
	colorLowMargin  = 0xE67E22
)

func embedColor(margin float64) int {
	switch {
	case margin >= 0.5:
		return colorHighMargin
	case margin >= 0.3:
		return colorMidMargin
	default:
		return colorLowMargin
	}
}

// DiscordNotifyDeal posts one deal to the configured webhook. Failures are
// for the caller to log; notifications are never retried and a failed post
// does not roll anything back.
func (c Client) DiscordNotifyDeal(ctx context.Context, n DealNotification) error {
	seller := n.Seller
	if seller == "" {
		seller = "unknown"
	}
	reputation := "unknown"
	if n.Reputation != nil {
		reputation = fmt.Sprintf("%d", *n.Reputation)
	}

	embed := discordEmbed{
		Title: misc.StringLimit(n.Title, 250),
		URL:   n.URL,
		Color: embedColor(n.Margin),
		Fields: []discordEmbedField{
			{Name: "Price", Value: fmt.Sprintf("%.2f %s", n.Price, n.Currency), Inline: true},
			{Name: "Profit", Value: fmt.Sprintf("%.2f", n.Profit), Inline: true},
			{Name: "Margin", Value: fmt.Sprintf("%.0f%%", n.Margin*100), Inline: true},
			{Name: "Quality", Value: fmt.Sprintf("%d/100", n.Quality), Inline: true},
			{Name: "Seller", Value: fmt.Sprintf("%s (%s feedback)", seller, reputation), Inline: true},
			{Name: "Variant", Value: n.Variant, Inline: true},
		},
		Footer:    &discordFooter{Text: n.ProductKey},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if n.PhotoURL != "" {
		embed.Thumbnail = &discordThumbnail{URL: n.PhotoURL}
	}

	reqBody, err := json.Marshal(discordSendRequest{
		Username: "dealfinder",
		Embeds:   []discordEmbed{embed},
	})
	if err != nil {
		return errors.Wrapf(err, "DiscordNotifyDeal: error marshalling webhook request for listing: %s", n.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrapf(err, "DiscordNotifyDeal: error creating request from body: %s", reqBody)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "DiscordNotifyDeal: error doing webhook request for listing: %s", n.URL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("DiscordNotifyDeal: Error closing response body, err: %v", err)
		}
	}()

	respBody, _ := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 100*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("DiscordNotifyDeal: webhook returned status: %s, body:\n%s",
			resp.Status, misc.BytesLimit(respBody, 500))
	}
	return nil
}
