package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"dealfinder/internal/misc"
	"dealfinder/internal/model"
)

// ErrSearchBlocked signals an anti-automation response (401/403); the caller
// should abort pagination for the current query. ErrSearchRateLimited (429)
// is transient and worth a bounded retry.
var (
	ErrSearchBlocked     = errors.New("marketplace search blocked")
	ErrSearchRateLimited = errors.New("marketplace search rate limited")
)

// SearchParams describes one page of a price-bounded marketplace search.
type SearchParams struct {
	Query     string
	PriceFrom float64
	PriceTo   float64
	Page      int
	PerPage   int
	Order     string
}

type searchItemsResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID    json.Number  `json:"id"`
	Title string       `json:"title"`
	Price searchPrice  `json:"price"`
	URL   string       `json:"url"`
	Photo *searchPhoto `json:"photo"`
	User  *searchUser  `json:"user"`
}

// searchPrice accepts both the bare-string form ("120.0") and the
// object form ({"amount":"120.0","currency_code":"GBP"}) the API serves
// depending on endpoint version.
type searchPrice struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

func (p *searchPrice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Amount = s
		return nil
	}
	type plain searchPrice
	return json.Unmarshal(data, (*plain)(p))
}

// searchPhoto accepts both a bare URL string and the full photo object.
type searchPhoto struct {
	URL string `json:"url"`
}

func (p *searchPhoto) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.URL = s
		return nil
	}
	type plain searchPhoto
	return json.Unmarshal(data, (*plain)(p))
}

type searchUser struct {
	Login string `json:"login"`
}

// SearchListings runs one page of a catalog search and adapts the variable
// payload into normalized Listings. An empty result slice signals
// end-of-results to the caller.
func (c Client) SearchListings(ctx context.Context, p SearchParams) ([]model.Listing, error) {
	apiURL, err := url.Parse(c.BaseURL + "/api/v2/catalog/items")
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing search URL from base: %s", c.BaseURL)
	}
	q := apiURL.Query()
	q.Set("search_text", p.Query)
	q.Set("price_from", strconv.FormatFloat(p.PriceFrom, 'f', 2, 64))
	q.Set("price_to", strconv.FormatFloat(p.PriceTo, 'f', 2, 64))
	q.Set("page", strconv.Itoa(misc.Max(p.Page, 1)))
	q.Set("per_page", strconv.Itoa(p.PerPage))
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	apiURL.RawQuery = q.Encode()

	req, err := c.newRequest(http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating request from search URL: %s", apiURL)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error doing search request, URL: %s", apiURL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("SearchListings: Error closing response body, URL: %s, err: %v", apiURL, err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 1024*1024))
	if err != nil {
		return nil, errors.Wrapf(err, "error reading search response body, status: %s, URL: %s", resp.Status, apiURL)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, errors.Wrapf(ErrSearchRateLimited, "status: %s, URL: %s", resp.Status, apiURL)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errors.Wrapf(ErrSearchBlocked, "status: %s, URL: %s", resp.Status, apiURL)
	default:
		return nil, errors.Errorf("error searching marketplace, status: %s, body:\n%s,\nURL: %s",
			resp.Status, misc.BytesLimit(body, 500), apiURL)
	}

	searchResp := searchItemsResponse{}
	if err = json.Unmarshal(body, &searchResp); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling search response body, body:\n%s,\nURL: %s",
			misc.BytesLimit(body, 500), apiURL)
	}

	listings := make([]model.Listing, 0, len(searchResp.Items))
	for _, it := range searchResp.Items {
		l, ok := it.toListing()
		if !ok {
			c.Logger.Debugf("SearchListings: Skipping malformed search item: %+v", it)
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (it searchItem) toListing() (model.Listing, bool) {
	id := it.ID.String()
	if id == "" || id == "0" {
		return model.Listing{}, false
	}
	price, err := strconv.ParseFloat(it.Price.Amount, 64)
	if err != nil {
		return model.Listing{}, false
	}
	l := model.Listing{
		ID:       id,
		Title:    it.Title,
		Price:    price,
		Currency: it.Price.CurrencyCode,
		URL:      it.URL,
	}
	if it.Photo != nil {
		l.PhotoURL = it.Photo.URL
	}
	if it.User != nil {
		l.Uploader = it.User.Login
	}
	return l, true
}

// RefreshSession discards the current session cookies and warms a new session
// by hitting the marketplace landing page. Used after a blocked response
// before the next query is attempted.
func (c Client) RefreshSession(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return errors.Wrap(err, "error creating cookie jar")
	}
	c.Client.Jar = jar

	req, err := c.newRequest(http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return errors.Wrapf(err, "error creating session request from base URL: %s", c.BaseURL)
	}
	req = req.WithContext(ctx)

	resp, err := c.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "error warming marketplace session, URL: %s", c.BaseURL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 500*1024))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed warming marketplace session, status: %s", resp.Status)
	}
	c.Logger.Infof("RefreshSession: Warmed new marketplace session, cookies: %d", len(jar.Cookies(req.URL)))
	return nil
}
