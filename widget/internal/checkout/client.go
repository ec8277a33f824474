package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	statusPath         = "status"
	updateCustomerPath = "UpdateCustomer"
	pushPath           = "status/ws/"
)

// Client talks to the checkout page endpoints. PageURL is the invoice page,
// e.g. https://pay.example.com/i/<invoice id>.
type Client struct {
	pageURL    *url.URL
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(pageURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("page url must be http or https, got %q", u.Scheme)
	}
	u.RawQuery = ""
	u.Fragment = ""

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{pageURL: u, httpClient: httpClient, now: time.Now}, nil
}

// child returns {page}/{name}.
func (c *Client) child(name string) *url.URL {
	u := *c.pageURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + name
	return &u
}

// FetchStatus reads the current snapshot. The `_` parameter and no-cache
// header keep intermediaries from serving a stale status.
func (c *Client) FetchStatus(ctx context.Context, invoiceID, paymentMethodID string) (*Snapshot, error) {
	u := c.child(statusPath)
	q := url.Values{}
	q.Set("invoiceId", invoiceID)
	q.Set("paymentMethodId", paymentMethodID)
	q.Set("_", strconv.FormatInt(c.now().UnixNano(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint: invalid status code: %d", resp.StatusCode)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return &snapshot, nil
}

// Page describes the invoice page. It is read once when the widget starts.
type Page struct {
	InvoiceID         string   `json:"invoiceId"`
	Status            Status   `json:"status"`
	Price             string   `json:"price"`
	Currency          string   `json:"currency"`
	PaymentMethodID   string   `json:"paymentMethodId"`
	PaymentMethods    []string `json:"paymentMethods"`
	ExpirationSeconds int64    `json:"expirationSeconds"`
	EmailRequired     bool     `json:"emailRequired"`
}

func (c *Client) FetchPage(ctx context.Context) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page endpoint: invalid status code: %d", resp.StatusCode)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &page, nil
}

type updateCustomerRequest struct {
	Email string `json:"Email"`
}

// UpdateCustomer stores the purchaser e-mail. Only success or failure is
// reported, the response body is not read.
func (c *Client) UpdateCustomer(ctx context.Context, invoiceID, email string) error {
	u := c.child(updateCustomerPath)
	q := url.Values{}
	q.Set("invoiceId", invoiceID)
	u.RawQuery = q.Encode()

	payload, err := json.Marshal(updateCustomerRequest{Email: email})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("update customer: invalid status code: %d", resp.StatusCode)
	}
	return nil
}

// PushURL derives the push channel address: ws(s) scheme, same host, the
// trailing path segment replaced by status/ws/.
func (c *Client) PushURL(invoiceID string) string {
	return PushURL(c.pageURL, invoiceID)
}

func PushURL(page *url.URL, invoiceID string) string {
	u := *page
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[:i+1]
	} else {
		path = "/"
	}
	u.Path = path + pushPath
	u.RawPath = ""

	q := url.Values{}
	q.Set("invoiceId", invoiceID)
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return u.String()
}
