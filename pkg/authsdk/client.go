package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the wren authorization server. It wraps the
// token endpoint grants and the health probes.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new authorization server client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}
