package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type NotifierFunc func(ctx context.Context, change StatusChange) error

func (f NotifierFunc) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	return f(ctx, change)
}

// HTTPNotifier posts status changes to the embedding host. The target is an
// explicit URL: there is no wildcard destination.
type HTTPNotifier struct {
	target     string
	httpClient *http.Client
}

// NewHTTPNotifier returns nil for an empty target, which disables
// notification.
func NewHTTPNotifier(target string, httpClient *http.Client) (*HTTPNotifier, error) {
	if target == "" {
		return nil, nil
	}

	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, fmt.Errorf("parse notify url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("notify url must be http or https, got %q", u.Scheme)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPNotifier{target: u.String(), httpClient: httpClient}, nil
}

// NotifyStatusChange is a no-op on a nil notifier.
func (n *HTTPNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	if n == nil {
		return nil
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("invalid status code: %d", resp.StatusCode)
	}
	return nil
}

// multiNotifier fans a change out to several notifiers and keeps the first
// error.
type multiNotifier []Notifier

func MultiNotifier(notifiers ...Notifier) Notifier {
	var m multiNotifier
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m multiNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	var first error
	for _, n := range m {
		if err := n.NotifyStatusChange(ctx, change); err != nil && first == nil {
			first = err
		}
	}
	return first
}
