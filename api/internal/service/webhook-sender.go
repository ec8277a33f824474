package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"checkout/api/internal/domain"
	"checkout/api/internal/infra/cache"
	"checkout/api/internal/logger"
	"checkout/pkg/rr"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/proxy"
)

var ErrWebhookAlreadySent = errors.New("webhook already sent")

type WebhookSenderService struct {
	rr         rr.RoundRobin
	list       *atomic.Pointer[[]string]
	l          logger.Logger
	cache      *cache.Cache
	validate   *validator.Validate
	timeout    time.Duration
	retryDelay time.Duration
}

func NewWebhookSenderService(proxyList []string, l logger.Logger) *WebhookSenderService {
	var list atomic.Pointer[[]string]

	s := &WebhookSenderService{
		rr:         rr.New(&list),
		list:       &list,
		l:          l,
		cache:      cache.InitStorage(),
		validate:   validator.New(),
		timeout:    5 * time.Second,
		retryDelay: 5 * time.Second,
	}
	s.UpdateList(proxyList)
	return s
}

type MyRoundTripper struct {
	r http.RoundTripper
}

func (mrt MyRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	r.Header.Set("User-Agent", "checkout-webhook")
	r.Header.Set("Content-Type", "application/json")
	return mrt.r.RoundTrip(r)
}

func (s *WebhookSenderService) post(client *http.Client, url string, payload []byte) error {
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("invalid status code: %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSenderService) sendWithoutProxy(url string, payload []byte) error {
	client := &http.Client{
		Transport: MyRoundTripper{r: http.DefaultTransport},
		Timeout:   s.timeout,
	}
	return s.post(client, url, payload)
}

func (s *WebhookSenderService) sendWithProxy(url string, stringProxy string, payload []byte) error {
	socks, err := s.parseProxy(stringProxy)
	if err != nil {
		return fmt.Errorf("can't parse proxy: %w", err)
	}

	auth := proxy.Auth{
		User:     socks.User,
		Password: socks.Pass,
	}

	dialer, err := proxy.SOCKS5("tcp", net.JoinHostPort(socks.Ip, socks.Port), &auth, proxy.Direct)
	if err != nil {
		return err
	}

	dialContext := func(ctx context.Context, network, address string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, address)
		}
		return dialer.Dial(network, address)
	}

	transport := &http.Transport{
		DialContext:       dialContext,
		DisableKeepAlives: true,
	}

	client := &http.Client{
		Transport: MyRoundTripper{r: transport},
		Timeout:   s.timeout,
	}
	return s.post(client, url, payload)
}

// Send posts info to url once per invoice status. Every configured proxy is
// tried in turn, without proxies the request goes direct.
func (s *WebhookSenderService) Send(url string, info domain.ResponseInvoiceInfo) error {
	key := info.Id + "_" + info.Status
	if s.cache.Load(key) != nil {
		return ErrWebhookAlreadySent
	}

	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}

	maxAttempts := max(s.rr.Count(), 1)

	for attempts := 1; attempts <= maxAttempts; attempts++ {
		stringProxy, ok := s.rr.Next()
		if !ok {
			err = s.sendWithoutProxy(url, payload)
			stringProxy = logger.NA
		} else {
			err = s.sendWithProxy(url, stringProxy, payload)
		}

		if err == nil {
			s.cache.SetNoExp(key, true)
			s.l.TemplWebhookInfo("webhook sent", url, attempts, stringProxy)
			return nil
		}

		s.l.TemplWebhookErr("send webhook error: "+err.Error(), url, attempts, stringProxy, payload)
		if attempts < maxAttempts {
			time.Sleep(s.retryDelay)
		}
	}

	return fmt.Errorf("max attempts exceeded: %w", err)
}

type parsedProxy struct {
	User string `validate:"required,gte=2"`
	Pass string `validate:"required,gte=2"`
	Ip   string `validate:"required,gte=2"`
	Port string `validate:"required,numeric"`
}

// login:password@ip:port
func (s *WebhookSenderService) parseProxy(str string) (parsedProxy, error) {
	credentials, address, ok := strings.Cut(str, "@")
	if !ok {
		return parsedProxy{}, fmt.Errorf("invalid proxy format: given: %s", str)
	}

	user, pass, ok := strings.Cut(credentials, ":")
	if !ok {
		return parsedProxy{}, fmt.Errorf("invalid proxy format: given: %s", str)
	}

	ip, port, err := net.SplitHostPort(address)
	if err != nil {
		return parsedProxy{}, fmt.Errorf("invalid proxy format: given: %s", str)
	}

	pp := parsedProxy{User: user, Pass: pass, Ip: ip, Port: port}

	validate := s.validate
	if validate == nil {
		validate = validator.New()
	}
	if err := validate.Struct(pp); err != nil {
		return parsedProxy{}, err
	}

	return pp, nil
}

// UpdateList replaces the proxy list, invalid entries are skipped.
func (s *WebhookSenderService) UpdateList(proxies []string) {
	validProxies := make([]string, 0, len(proxies))

	for _, p := range proxies {
		if _, err := s.parseProxy(p); err != nil {
			s.l.Debug("invalid proxy", "proxy", p, "error", err.Error())
			continue
		}
		validProxies = append(validProxies, p)
	}

	s.list.Store(&validProxies)
}

func (s *WebhookSenderService) GetList() []string {
	listPtr := s.list.Load()
	if listPtr == nil {
		return []string{}
	}

	return *listPtr
}
