package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Debugf(format string, v ...any) { l.t.Logf("DEBUG: "+format, v...) }
func (l testLogger) Infof(format string, v ...any)  { l.t.Logf("INFO: "+format, v...) }
func (l testLogger) Errorf(format string, v ...any) { l.t.Logf("ERROR: "+format, v...) }

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return Client{
		Client:    srv.Client(),
		BaseURL:   srv.URL,
		UserAgent: "test-agent",
		Logger:    testLogger{t},
	}, srv
}

const searchResponseBody = `{
	"items": [
		{
			"id": 101,
			"title": "DJI Mini 2 Fly More Combo",
			"price": {"amount": "189.00", "currency_code": "EUR"},
			"url": "https://marketplace.example/items/101",
			"photo": {"url": "https://img.example/101.jpg"},
			"user": {"login": "seller1"}
		},
		{
			"id": "102",
			"title": "DJI Mini 2",
			"price": "120.50",
			"url": "https://marketplace.example/items/102",
			"photo": "https://img.example/102.jpg"
		},
		{
			"id": 103,
			"title": "broken payload",
			"price": {"amount": "not-a-number"}
		}
	]
}`

func TestSearchListings(t *testing.T) {
	var gotQuery map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/catalog/items" {
			t.Errorf("request path = %q, want /api/v2/catalog/items", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"search_text": q.Get("search_text"),
			"price_from":  q.Get("price_from"),
			"price_to":    q.Get("price_to"),
			"page":        q.Get("page"),
			"per_page":    q.Get("per_page"),
			"order":       q.Get("order"),
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponseBody))
	})

	listings, err := c.SearchListings(context.Background(), SearchParams{
		Query:     "dji mini 2",
		PriceFrom: 96,
		PriceTo:   190,
		Page:      2,
		PerPage:   24,
		Order:     "newest_first",
	})
	if err != nil {
		t.Fatalf("SearchListings() error: %v", err)
	}

	want := map[string]string{
		"search_text": "dji mini 2",
		"price_from":  "96.00",
		"price_to":    "190.00",
		"page":        "2",
		"per_page":    "24",
		"order":       "newest_first",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query param %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2 (malformed item skipped)", len(listings))
	}

	first := listings[0]
	if first.ID != "101" || first.Price != 189 || first.Currency != "EUR" {
		t.Errorf("first listing = %+v, want ID 101, price 189 EUR", first)
	}
	if first.PhotoURL != "https://img.example/101.jpg" || first.Uploader != "seller1" {
		t.Errorf("first listing photo/uploader = %q/%q", first.PhotoURL, first.Uploader)
	}

	second := listings[1]
	if second.ID != "102" || second.Price != 120.50 {
		t.Errorf("second listing = %+v, want ID 102 with string-form price 120.50", second)
	}
	if second.PhotoURL != "https://img.example/102.jpg" {
		t.Errorf("second listing photo = %q, want string-form photo URL", second.PhotoURL)
	}
	if second.Uploader != "" {
		t.Errorf("second listing uploader = %q, want empty", second.Uploader)
	}
}

func TestSearchListingsStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrSearchRateLimited},
		{"unauthorized", http.StatusUnauthorized, ErrSearchBlocked},
		{"forbidden", http.StatusForbidden, ErrSearchBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.SearchListings(context.Background(), SearchParams{Query: "x", Page: 1, PerPage: 24})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SearchListings() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchListingsServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.SearchListings(context.Background(), SearchParams{Query: "x", Page: 1, PerPage: 24})
	if err == nil {
		t.Fatal("SearchListings() succeeded, want error on 500")
	}
	if errors.Is(err, ErrSearchBlocked) || errors.Is(err, ErrSearchRateLimited) {
		t.Errorf("SearchListings() error = %v, want a plain error, not a sentinel", err)
	}
}

func TestSearchListingsEmptyResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	})
	listings, err := c.SearchListings(context.Background(), SearchParams{Query: "x", Page: 1, PerPage: 24})
	if err != nil {
		t.Fatalf("SearchListings() error: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings, want 0", len(listings))
	}
}

func TestRefreshSession(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "fresh"})
	})
	if err := c.RefreshSession(context.Background()); err != nil {
		t.Fatalf("RefreshSession() error: %v", err)
	}
	if c.Client.Jar == nil {
		t.Error("RefreshSession() left a nil cookie jar")
	}
}

func TestRefreshSessionNon200(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if err := c.RefreshSession(context.Background()); err == nil {
		t.Error("RefreshSession() succeeded, want error on 503")
	}
}
