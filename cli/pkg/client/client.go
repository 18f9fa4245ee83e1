package client

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/chirp/cli/pkg/config"
	"github.com/zfogg/chirp/cli/pkg/logger"
)

// UserAgent identifies the CLI to the API
const UserAgent = "Chirp-CLI/0.1.0"

var httpClient *resty.Client

// Init builds a fresh HTTP client from the current configuration
func Init() {
	httpClient = newClient()
}

func newClient() *resty.Client {
	c := resty.New()
	c.SetBaseURL(config.GetString("api.base_url"))
	c.SetTimeout(time.Duration(config.GetInt("api.timeout")) * time.Second)
	c.SetHeader("User-Agent", UserAgent)
	c.SetHeader("Accept", "application/json")

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "duration", resp.Time())
		return nil
	})
	return c
}

// GetClient returns the HTTP client
func GetClient() *resty.Client {
	if httpClient == nil {
		Init()
	}
	return httpClient
}

// SetAuthToken sends token as a Bearer header on every request
func SetAuthToken(token string) {
	GetClient().SetAuthToken(token)
}

// ClearAuthToken drops the Authorization header
func ClearAuthToken() {
	Init()
}
