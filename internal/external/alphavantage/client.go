package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/findash/backend/pkg/httputil"
	"github.com/wonny/findash/backend/pkg/logger"
)

// Payload keys Alpha Vantage uses to report problems with HTTP 200
var providerErrorKeys = []string{"Error Message", "Note", "Information"}

// ProviderError is a problem reported by Alpha Vantage itself, such as an
// unknown symbol or an exhausted request quota
type ProviderError struct {
	Function string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error (%s): %s", e.Function, e.Message)
}

// Client handles communication with the Alpha Vantage API
// ⭐ SSOT: Alpha Vantage API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new Alpha Vantage client
func NewClient(httpClient *httputil.Client, apiKey, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("alphavantage"),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// query calls /query with the given function and parameters and returns
// the decoded top-level object, after checking it for provider errors
func (c *Client) query(ctx context.Context, function string, params url.Values) (map[string]json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)
	params.Set("apikey", c.apiKey)

	fullURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s response failed: %w", function, err)
	}

	if perr := providerError(function, payload); perr != nil {
		c.logger.WithFields(map[string]interface{}{
			"function": function,
			"message":  perr.Message,
		}).Warn("Alpha Vantage API warning/error")
		return nil, perr
	}

	return payload, nil
}

func providerError(function string, payload map[string]json.RawMessage) *ProviderError {
	for _, key := range providerErrorKeys {
		raw, ok := payload[key]
		if !ok {
			continue
		}

		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil || msg == "" {
			msg = string(raw)
		}
		return &ProviderError{Function: function, Message: msg}
	}
	return nil
}
