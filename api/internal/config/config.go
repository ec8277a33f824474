package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/gorm"
)

type Config struct {
	DB *gorm.DB `toml:"-" ignored:"true"`

	ProxyPath string   `toml:"proxy_path" split_words:"true"` // used in webhook-sender
	ProxyList []string `toml:"-" ignored:"true"`              // reads proxies from ProxyPath and fills it with

	Prod_env bool `envconfig:"PROD_ENV"`

	PrivateKey string `toml:"private_key" split_words:"true"` // "Access" header of private routes

	Checkout struct {
		InvoiceLifetime time.Duration `toml:"invoice_lifetime" split_words:"true"`
		FindEndInterval time.Duration `toml:"find_end_interval" split_words:"true"`
		PublicURL       string        `toml:"public_url" split_words:"true"` // e.g. https://pay.example.com
	} `toml:"checkout"`

	Rates struct {
		ApiKey  string        `toml:"api_key" split_words:"true"`
		Url     string        `toml:"url"`
		Symbols []string      `toml:"symbols"`
		Fiats   []string      `toml:"fiats"`
		TTL     time.Duration `toml:"ttl"`
	} `toml:"rates"`

	Log struct {
		StreamPath string `toml:"stream_path" split_words:"true"` // json log stream, empty disables it
	} `toml:"log"`

	Postgres struct {
		Host     string
		User     string
		Password string
		Db_name  string `envconfig:"DB_NAME"`
		Port     uint16
		Ssl_mode string `envconfig:"SSL_MODE"`
	}
	Nats struct {
		Servers     string   `ignored:"true"`
		TomlServers []string `toml:"servers" envconfig:"SERVERS"`
	}
	Api struct {
		Ipv4  string
		Proto string
	} `toml:"checkout_web"`
}

const (
	DefaultInvoiceLifetime = 15 * time.Minute
	DefaultFindEndInterval = 10 * time.Second
	DefaultRatesTTL        = 5 * time.Minute
	DefaultRatesUrl        = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/quotes/latest"
)

func ReadConfig() *Config {
	config, err := Load(os.Getenv("CONFIG"), os.Getenv("SECRETS"))
	if err != nil {
		panic(err)
	}
	return config
}

// Load reads the toml file at path, applies CHECKOUT_* environment overrides
// and fills nats credentials from the secrets directory.
func Load(path, secrets string) (*Config, error) {
	byte_config, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var config Config
	if _, err := toml.Decode(string(byte_config), &config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := envconfig.Process("checkout", &config); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	config.setDefaults()

	if secrets != "" {
		user, err := os.ReadFile(secrets + "/nats-user.txt")
		if err != nil {
			return nil, err
		}

		pass, err := os.ReadFile(secrets + "/nats-password.txt")
		if err != nil {
			return nil, err
		}

		config.Nats.Servers = FormatServers(config.Nats.TomlServers, strings.TrimSpace(string(user)), strings.TrimSpace(string(pass)))
	} else {
		config.Nats.Servers = FormatServers(config.Nats.TomlServers, "", "")
	}

	// webhook proxies
	if config.ProxyPath != "" {
		config.ProxyList, err = GetProxyList(config.ProxyPath)
		if err != nil {
			return nil, err
		}
	}

	if config.PrivateKey == "" {
		return nil, errors.New("private_key is empty")
	}

	return &config, nil
}

func (c *Config) setDefaults() {
	if c.Checkout.InvoiceLifetime <= 0 {
		c.Checkout.InvoiceLifetime = DefaultInvoiceLifetime
	}
	if c.Checkout.FindEndInterval <= 0 {
		c.Checkout.FindEndInterval = DefaultFindEndInterval
	}
	if c.Rates.TTL <= 0 {
		c.Rates.TTL = DefaultRatesTTL
	}
	if c.Rates.Url == "" {
		c.Rates.Url = DefaultRatesUrl
	}
	if len(c.Rates.Symbols) == 0 {
		c.Rates.Symbols = []string{"BTC", "LTC", "ETH", "SOL", "TON"}
	}
	if len(c.Rates.Fiats) == 0 {
		c.Rates.Fiats = []string{"USD", "EUR"}
	}
}

// comma separated nats urls, credentials are added when user is set
func FormatServers(servers []string, user, pass string) string {
	var formatedServers []string
	for _, x := range servers {
		if user != "" {
			formatedServers = append(formatedServers, fmt.Sprintf("nats://%s:%s@%s", user, pass, x))
			continue
		}
		formatedServers = append(formatedServers, "nats://"+x)
	}
	return strings.Join(formatedServers, ",")
}

func GetProxyList(path string) ([]string, error) {
	proxyList, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}

	var proxyListArray []string
	for _, line := range strings.Split(string(proxyList), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			proxyListArray = append(proxyListArray, line)
		}
	}
	return proxyListArray, nil
}
