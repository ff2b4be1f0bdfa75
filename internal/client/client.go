package client

import (
	"io"
	"net/http"

	"github.com/go-redis/redis/v9"
)

// Client bundles every outbound collaborator: the marketplace search API and
// listing pages (sharing one http.Client with a session cookie jar), the
// Redis cache for scraped listing details, and the notification webhook.
type Client struct {
	*http.Client
	Redis      *redis.Client
	BaseURL    string
	UserAgent  string
	WebhookURL string
	Logger     logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

func (c Client) newRequest(method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	c.setDefaultRequestHeader(r)
	return r, nil
}

func (c Client) setDefaultRequestHeader(r *http.Request) {
	ua := c.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}
	r.Header.Set("User-Agent", ua)
	r.Header.Set("Accept-Language", "en")
}
