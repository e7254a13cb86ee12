package clients

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rocolatey/rocolatey/internal/models"
)

// UserAgent is sent with every feed request
const UserAgent = "rocolatey/0.9 (https://github.com/rocolatey/rocolatey)"

// DefaultTimeout is the per-request timeout for feed queries
const DefaultTimeout = 60 * time.Second

// HTTPOptions holds process-wide settings for feed clients
type HTTPOptions struct {
	RequireSSLValidation bool
	Timeout              time.Duration
	UserAgent            string
}

// NewHTTPClient creates an HTTP client configured for a single feed
func NewHTTPClient(feed *models.Feed, opts HTTPOptions) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !opts.RequireSSLValidation, //nolint:gosec // chocolatey feeds commonly use self-signed certificates
	}
	transport.Proxy = nil

	if feed.Proxy != nil && feed.Proxy.URL != "" && !feed.BypassProxy {
		u, err := proxyURL(feed.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy for feed %s: %w", feed.Name, err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	headers := http.Header{}
	ua := opts.UserAgent
	if ua == "" {
		ua = UserAgent
	}
	headers.Set("User-Agent", ua)
	if feed.Credential != nil {
		headers.Set("Authorization", basicAuth(feed.Credential))
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{base: transport, headers: headers},
	}, nil
}

func proxyURL(p *models.ProxySettings) (*url.URL, error) {
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		// chocolatey.config often stores proxies as host:port
		u, err = url.Parse("http://" + p.URL)
		if err != nil {
			return nil, err
		}
	}
	if p.Credential != nil {
		u.User = url.UserPassword(p.Credential.User, p.Credential.Pass)
	}
	return u, nil
}

func basicAuth(c *models.Credential) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.User+":"+c.Pass))
}

// headerTransport sets default headers on every outgoing request
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if req.Header.Get(k) == "" {
			req.Header[k] = v
		}
	}
	return t.base.RoundTrip(req)
}
