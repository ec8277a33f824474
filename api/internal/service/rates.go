package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"checkout/api/internal/config"
	"checkout/api/internal/domain"
	"checkout/api/internal/infra/cache"
	"checkout/api/internal/logger"

	"github.com/shopspring/decimal"
)

// coinmarketcap quotes/latest response
type cmcResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]cmcData `json:"data"`
}

type cmcData struct {
	Quote map[string]cmcQuote `json:"quote"`
}

type cmcQuote struct {
	Price float64 `json:"price"`
}

var (
	ErrRateLimit    = errors.New("rate limit")
	ErrInvalidRates = errors.New("invalid rates") // when some currency rate is equal to 0 (error on the side of the currency rate api)
)

// fiat price of one unit of every supported cryptocurrency, keyed by lower
// case symbol
type FiatRates struct {
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

type RatesService struct {
	cache   *cache.Cache
	client  *http.Client
	url     string
	apiKey  string
	symbols []string
	fiats   []string
	ttl     time.Duration
	l       logger.Logger
}

func NewRatesService(cache *cache.Cache, client *http.Client, l logger.Logger, config *config.Config) *RatesService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	upper := func(list []string) []string {
		out := make([]string, 0, len(list))
		for _, x := range list {
			out = append(out, strings.ToUpper(x))
		}
		return out
	}

	return &RatesService{
		cache:   cache,
		client:  client,
		url:     config.Rates.Url,
		apiKey:  config.Rates.ApiKey,
		symbols: upper(config.Rates.Symbols),
		fiats:   upper(config.Rates.Fiats),
		ttl:     config.Rates.TTL,
		l:       l,
	}
}

func (s *RatesService) Fiats() []string {
	return s.fiats
}

// Get returns cached rates or asks coinmarketcap.
func (s *RatesService) Get(ctx context.Context, fiat string) (*FiatRates, error) {
	fiat = strings.ToUpper(fiat)
	if !slices.Contains(s.fiats, fiat) {
		return nil, domain.ErrInvalidFiat
	}

	rates, ok := s.cache.Load(fiat).(*FiatRates)
	if rates != nil && ok {
		return rates, nil
	}

	rates, err := s.sendRequest(ctx, fiat)
	if err != nil {
		s.l.TemplRatesErr("get rates error", fiat, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRatesUnavailable, err)
	}

	s.cache.Set(fiat, rates, s.ttl)
	return rates, nil
}

// Convert prices amount of fiat in crypto. A price already set in crypto
// converts at rate 1.
func (s *RatesService) Convert(ctx context.Context, fiat, crypto string, amount decimal.Decimal) (*Conversion, error) {
	fiat, crypto = strings.ToUpper(fiat), strings.ToLower(crypto)
	if !slices.Contains(s.symbols, strings.ToUpper(crypto)) {
		return nil, domain.ErrInvalidCrypto
	}

	conv := &Conversion{Fiat: strings.ToLower(fiat), Amount: amount, Cryptocurrency: crypto}

	if strings.EqualFold(fiat, crypto) {
		conv.Rate = decimal.NewFromInt(1)
		conv.Converted = amount
		return conv, nil
	}

	rates, err := s.Get(ctx, fiat)
	if err != nil {
		return nil, err
	}

	rate, ok := rates.Rates[crypto]
	if !ok || rate.IsZero() {
		return nil, domain.ErrRatesUnavailable
	}

	conv.Rate = rate
	conv.Converted = CalculateFinAmount(amount, rate)
	return conv, nil
}

func CalculateFinAmount(amount, rate decimal.Decimal, ceil ...int32) decimal.Decimal {
	var _ceil int32 = 8 // default ceil

	if len(ceil) > 0 {
		_ceil = ceil[0]
	}

	return amount.Div(rate).RoundCeil(_ceil)
}

// fiat - USD/RUB/EUR
func (s *RatesService) sendRequest(ctx context.Context, fiat string) (*FiatRates, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("convert", fiat)
	q.Set("symbol", strings.Join(s.symbols, ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "You've exceeded your API Key's HTTP request rate limit") {
		return nil, ErrRateLimit
	}

	var response cmcResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invalid status code: %d: %s", resp.StatusCode, response.Status.ErrorMessage)
	}

	rates := &FiatRates{Fiat: strings.ToLower(fiat), Rates: make(map[string]decimal.Decimal, len(s.symbols))}
	for _, symbol := range s.symbols {
		price := decimal.NewFromFloat(response.Data[symbol].Quote[fiat].Price)
		if price.Equal(decimal.Zero) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRates, symbol)
		}
		rates.Rates[strings.ToLower(symbol)] = price
	}

	return rates, nil
}
