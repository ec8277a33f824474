package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

func TestControllerDrivesDisplayStates(t *testing.T) {
	srv := newStatusServer(t, "inv-1", StatusNew)
	client, err := NewClient(srv.pageURL(), srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	view := &recordingView{}
	notifier := &recordingNotifier{}
	presenter := NewPresenter(view, notifier, nil)
	poller := NewPoller(client, nil, WithInterval(10*time.Millisecond))

	c := NewController(ControllerConfig{InvoiceID: "inv-1", PaymentMethodID: "btc"}, presenter, poller, client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	display := func(want DisplayState) func() bool {
		return func() bool { return c.State().Display == want && c.State().LastKnownStatus != "" }
	}

	waitFor(t, "new", display(DisplayNew))
	srv.setStatus(StatusPaid)
	waitFor(t, "paid", display(DisplayPaid))
	srv.setStatus(StatusExpired)
	waitFor(t, "expired", display(DisplayExpired))

	cancel()
	<-done

	if got := notifier.count(); got != 2 {
		t.Fatalf("notifications = %d, want 2", got)
	}
	if notifier.changes[0].Status != StatusPaid || notifier.changes[1].Status != StatusExpired {
		t.Fatalf("unexpected notifications: %+v", notifier.changes)
	}
	if polling, push := poller.Active(); polling || push {
		t.Fatal("poller still active after Run returned")
	}
}

type fakeCustomers struct {
	mu     sync.Mutex
	err    error
	emails []string
}

func (f *fakeCustomers) UpdateCustomer(_ context.Context, _ string, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, email)
	return f.err
}

func TestControllerSubmitEmail(t *testing.T) {
	customers := &fakeCustomers{err: errors.New("boom")}
	presenter := NewPresenter(nil, nil, nil, WithEmailForm())
	c := NewController(ControllerConfig{InvoiceID: "inv-1"}, presenter, NewPoller(&blockingFetcher{}, nil), customers, nil)

	if err := c.SubmitEmail(context.Background(), "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("err = %v, want ErrInvalidEmail", err)
	}
	if len(customers.emails) != 0 {
		t.Fatal("invalid e-mail was sent")
	}

	email := gofakeit.Email()
	if err := c.SubmitEmail(context.Background(), email); err == nil {
		t.Fatal("expected error")
	}
	if st := c.State(); !st.EmailFormVisible || st.EmailSubmitting {
		t.Fatalf("form state after failure: %+v", st)
	}

	customers.err = nil
	if err := c.SubmitEmail(context.Background(), email); err != nil {
		t.Fatal(err)
	}
	if st := c.State(); st.EmailFormVisible || st.EmailSubmitting {
		t.Fatalf("form state after success: %+v", st)
	}
}

func TestClientUpdateCustomer(t *testing.T) {
	var got struct {
		contentType string
		invoiceID   string
		body        updateCustomerRequest
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/i/inv-1/UpdateCustomer" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		got.contentType = r.Header.Get("Content-Type")
		got.invoiceID = r.URL.Query().Get("invoiceId")
		json.NewDecoder(r.Body).Decode(&got.body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/i/inv-1", srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	email := gofakeit.Email()
	if err := client.UpdateCustomer(context.Background(), "inv-1", email); err != nil {
		t.Fatal(err)
	}

	if got.contentType != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", got.contentType)
	}
	if got.invoiceID != "inv-1" || got.body.Email != email {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestClientFetchStatusBustsCache(t *testing.T) {
	var busters []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		busters = append(busters, r.URL.Query().Get("_"))
		if r.Header.Get("Cache-Control") != "no-cache" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"status":"new","invoiceId":"inv-1","paymentMethodId":"btc"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/i/inv-1", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	tick := time.Unix(100, 0)
	client.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}

	for range 2 {
		if _, err := client.FetchStatus(context.Background(), "inv-1", "btc"); err != nil {
			t.Fatal(err)
		}
	}

	if len(busters) != 2 || busters[0] == "" || busters[0] == busters[1] {
		t.Fatalf("cache busters = %v", busters)
	}
}

func TestPushURL(t *testing.T) {
	tests := []struct {
		page string
		want string
	}{
		{"https://pay.example.com/i/abc", "wss://pay.example.com/i/status/ws/?invoiceId=abc"},
		{"http://localhost:8080/i/abc", "ws://localhost:8080/i/status/ws/?invoiceId=abc"},
		{"https://pay.example.com/shop/checkout/i/abc/", "wss://pay.example.com/shop/checkout/i/status/ws/?invoiceId=abc"},
		{"https://pay.example.com/abc?x=1#frag", "wss://pay.example.com/status/ws/?invoiceId=abc"},
	}

	for _, tt := range tests {
		client, err := NewClient(tt.page, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := client.PushURL("abc"); got != tt.want {
			t.Fatalf("%s: got %s, want %s", tt.page, got, tt.want)
		}
	}
}

func TestNewClientRejectsNonHTTP(t *testing.T) {
	for _, page := range []string{"ftp://example.com/i/abc", "://bad"} {
		if _, err := NewClient(page, nil); err == nil {
			t.Fatalf("%s: expected error", page)
		}
	}
}

func TestClientFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/i/inv-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"invoiceId":"inv-1","status":"new","price":"12.5","currency":"USD","paymentMethodId":"btc","paymentMethods":["btc","ltc"],"emailRequired":true}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/i/inv-1?lang=en", srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	page, err := client.FetchPage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if page.InvoiceID != "inv-1" || !page.EmailRequired || len(page.PaymentMethods) != 2 || page.Price != "12.5" {
		t.Fatalf("unexpected page: %+v", page)
	}

	missing, err := NewClient(srv.URL+"/i/other", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := missing.FetchPage(context.Background()); err == nil {
		t.Fatal("expected error for unknown page")
	}
}
