package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ratesPath   = "/v1/currency/rates"
	convertPath = "/v1/currency/convert"
)

var ErrBadResponse = errors.New("bad exchange response")

type Rates struct {
	Fiat  string                     `json:"fiat"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type Conversion struct {
	Fiat           string          `json:"fiat"`
	Amount         decimal.Decimal `json:"amount"`
	Cryptocurrency string          `json:"cryptocurrency"`
	Converted      decimal.Decimal `json:"converted"`
	Rate           decimal.Decimal `json:"rate"`
}

type responseError struct {
	Error   bool   `json:"error"`
	ErrorID string `json:"error_id"`
	Msg     string `json:"msg"`
}

// Client calls the currency endpoints of the checkout backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

func (c *Client) Rates(ctx context.Context, fiat string) (*Rates, error) {
	var rates Rates
	if err := c.post(ctx, ratesPath, map[string]any{"fiat": strings.ToLower(fiat)}, &rates); err != nil {
		return nil, err
	}
	return &rates, nil
}

// Convert turns a fiat amount into the given cryptocurrency.
func (c *Client) Convert(ctx context.Context, fiat, crypto string, amount decimal.Decimal) (*Conversion, error) {
	req := map[string]any{
		"fiat":           strings.ToLower(fiat),
		"cryptocurrency": strings.ToLower(crypto),
		"amount":         amount,
	}

	var conv Conversion
	if err := c.post(ctx, convertPath, req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	u := *c.baseURL
	u.Path += path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e responseError
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Msg != "" {
			return fmt.Errorf("%w: %d: %s", ErrBadResponse, resp.StatusCode, e.Msg)
		}
		return fmt.Errorf("%w: invalid status code: %d", ErrBadResponse, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return nil
}
