// Package quotes is the HTTP client for the market-data API. Absence of a
// quote is an expected outcome, not an error: non-2xx responses, transport
// failures and malformed payloads all degrade to a nil result so the UI can
// show "no data" instead of failing.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
)

// minSearchLength mirrors the UI behavior: shorter inputs return no
// suggestions without hitting the network.
const minSearchLength = 4

type apiQuote struct {
	Symbol                     string  `json:"symbol"`
	LongName                   string  `json:"longName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	LogoURL                    string  `json:"logourl"`
}

type apiResponse struct {
	Results []apiQuote `json:"results"`
}

// Client queries the quote API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	log     logging.Logger
}

func NewClient(baseURL, token string, log logging.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
		log:     log,
	}
}

// GetQuote returns the current market snapshot for ticker, or nil when the
// API has no data for it.
func (c *Client) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	return c.fetch(ctx, ticker)
}

// Search resolves a free-text query to ticker suggestions. Queries shorter
// than four characters return no suggestions.
func (c *Client) Search(ctx context.Context, query string) ([]models.Suggestion, error) {
	if len(query) < minSearchLength {
		return []models.Suggestion{}, nil
	}
	quote, err := c.fetch(ctx, query)
	if err != nil || quote == nil {
		return nil, err
	}
	return []models.Suggestion{{ID: quote.Ticker, Name: quote.LongName}}, nil
}

func (c *Client) fetch(ctx context.Context, ticker string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/quote/%s?token=%s", c.baseURL, url.PathEscape(ticker), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.log.Warn(ctx, "quote request build failed", "ticker", ticker, "error", err)
		return nil, nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "quote request failed", "ticker", ticker, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn(ctx, "quote request rejected", "ticker", ticker, "status", resp.StatusCode)
		return nil, nil
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn(ctx, "quote payload malformed", "ticker", ticker, "error", err)
		return nil, nil
	}
	if len(body.Results) == 0 {
		return nil, nil
	}

	q := body.Results[0]
	return &models.Quote{
		Ticker:        q.Symbol,
		LongName:      q.LongName,
		LastPrice:     q.RegularMarketPrice,
		ChangePercent: q.RegularMarketChangePercent,
		LogoURL:       q.LogoURL,
	}, nil
}
