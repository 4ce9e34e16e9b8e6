package pkg

import (
	"net/http"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// NewHTTPClient returns the client used to fetch files from the Bot API.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
