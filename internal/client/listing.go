package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-redis/redis/v9"
	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"dealfinder/internal/misc"
	"dealfinder/internal/model"
)

var ErrListingPageNotFound = errors.New("listing page not found")

// Ordered selector attempts; the first non-trivial match wins. The page
// markup shifts between frontend releases, so older selectors are kept as
// fallbacks.
var descriptionSelectors = []string{
	"[data-testid=\"item-description\"]",
	".details-list__item-value[itemprop=\"description\"]",
	"div.item-description",
	".description__text",
}

var reputationSelectors = []string{
	"[data-testid=\"seller-feedback-count\"]",
	".feedback-count",
	".seller-reviews-count",
}

var digitsRegex = regexp.MustCompile(`\d+`)

// ListingDetail fetches a listing page and extracts the description text and
// the seller's feedback count. Extraction is best-effort: a page without a
// recognizable description yields an empty one, and an unreadable feedback
// count yields a nil reputation. Parsed details are cached in Redis so a
// listing seen from overlapping searches is only scraped once.
func (c Client) ListingDetail(ctx context.Context, listingURL string, useCache bool) (model.ListingDetail, error) {
	var d model.ListingDetail
	cacheKey := "LD-" + listingURL
	if useCache && c.Redis != nil {
		cached, err := c.Redis.Get(ctx, cacheKey).Result()
		if err == nil {
			if err = json.Unmarshal([]byte(cached), &d); err == nil {
				c.Logger.Debugf("ListingDetail: Cache hit, key: %s", cacheKey)
				return d, nil
			}
			c.Logger.Errorf("ListingDetail: Error unmarshalling cache, key: %s, err: %v", cacheKey, err)
		} else if err != redis.Nil {
			c.Logger.Errorf("ListingDetail: Error getting Redis cache with key: %s, err: %v", cacheKey, err)
		}
	}

	req, err := c.newRequest(http.MethodGet, listingURL, nil)
	if err != nil {
		return d, errors.Wrapf(err, "error creating request from listing URL: %s", listingURL)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.Client.Do(req)
	if err != nil {
		return d, errors.Wrapf(err, "error fetching listing page, URL: %s", listingURL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("ListingDetail: Error closing response body, URL: %s, err: %v", listingURL, err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return d, errors.Wrapf(ErrListingPageNotFound, "status: %s, URL: %s", resp.Status, listingURL)
	}
	if resp.StatusCode != http.StatusOK {
		return d, errors.Errorf("error fetching listing page, status: %s, URL: %s", resp.Status, listingURL)
	}

	doc, err := goquery.NewDocumentFromReader(http.MaxBytesReader(nil, resp.Body, 2*1024*1024))
	if err != nil {
		return d, errors.Wrapf(err, "error parsing listing page, URL: %s", listingURL)
	}

	d.Description = extractDescription(doc)
	d.SellerReputation = extractReputation(doc)

	if c.Redis != nil {
		if dJSON, err := json.Marshal(d); err != nil {
			c.Logger.Errorf("ListingDetail: Error marshalling detail to cache, key: %s, err: %v", cacheKey, err)
		} else if err = c.Redis.Set(ctx, cacheKey, dJSON, 1*time.Hour).Err(); err != nil {
			c.Logger.Errorf("ListingDetail: Error caching detail, key: %s, err: %v", cacheKey, err)
		}
	}

	return d, nil
}

func extractDescription(doc *goquery.Document) string {
	for _, selector := range descriptionSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		raw, err := sel.Html()
		if err != nil {
			continue
		}
		if text := cleanDescriptionHTML(raw); text != "" {
			return text
		}
	}
	// Last resort: the og:description meta tag, which is usually a truncated
	// copy of the seller's text.
	if content, ok := doc.Find("meta[property=\"og:description\"]").Attr("content"); ok {
		return strings.TrimSpace(html.UnescapeString(content))
	}
	return ""
}

func extractReputation(doc *goquery.Document) *int {
	for _, selector := range reputationSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		digits := digitsRegex.FindString(strings.ReplaceAll(text, ",", ""))
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

// cleanDescriptionHTML flattens a description HTML fragment to plain text,
// keeping line breaks.
func cleanDescriptionHTML(s string) string {
	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}
	buf := &bytes.Buffer{}
	buf.Grow(len(s))
	if err = html.Render(buf, node); err != nil {
		return ""
	}
	body := buf.Bytes()
	body = bytes.ReplaceAll(body, []byte("<br/>"), []byte("\n"))
	body = bytes.ReplaceAll(body, []byte("<br>"), []byte("\n"))
	body = misc.HTMLTagRegex.ReplaceAllLiteral(body, []byte(" "))
	body = misc.ExtraSpaceRegex.ReplaceAllLiteral(body, []byte(" "))
	body = bytes.TrimSpace(body)
	return html.UnescapeString(string(body))
}
