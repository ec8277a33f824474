package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfig = `
private_key = "secret"
proxy_path = "%s"

[checkout]
invoice_lifetime = "20m"
public_url = "https://pay.example.com"

[rates]
api_key = "cmc"
symbols = ["BTC", "LTC"]

[postgres]
host = "localhost"
port = 5432

[nats]
servers = ["localhost:4222", "localhost:4223"]

[checkout_web]
ipv4 = "127.0.0.1:8080"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	proxies := filepath.Join(dir, "proxies.txt")
	if err := os.WriteFile(proxies, []byte("user:pass@127.0.0.1:1080\n\n127.0.0.1:1081\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "config.toml")
	content := []byte(fmt.Sprintf(testConfig, proxies))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Checkout.InvoiceLifetime != 20*time.Minute || cfg.Checkout.FindEndInterval != DefaultFindEndInterval {
		t.Fatalf("checkout: %+v", cfg.Checkout)
	}
	if cfg.Rates.TTL != DefaultRatesTTL || len(cfg.Rates.Symbols) != 2 || cfg.Rates.Url != DefaultRatesUrl {
		t.Fatalf("rates: %+v", cfg.Rates)
	}
	if cfg.Nats.Servers != "nats://localhost:4222,nats://localhost:4223" {
		t.Fatalf("servers: %s", cfg.Nats.Servers)
	}
	if len(cfg.ProxyList) != 2 {
		t.Fatalf("proxies: %v", cfg.ProxyList)
	}
	if cfg.Api.Ipv4 != "127.0.0.1:8080" {
		t.Fatalf("api: %+v", cfg.Api)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t)
	t.Setenv("CHECKOUT_PRIVATE_KEY", "from-env")
	t.Setenv("CHECKOUT_PROD_ENV", "true")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PrivateKey != "from-env" || !cfg.Prod_env {
		t.Fatalf("env not applied: %q %v", cfg.PrivateKey, cfg.Prod_env)
	}
}

func TestLoadSecrets(t *testing.T) {
	path := writeConfig(t)
	secrets := t.TempDir()
	os.WriteFile(filepath.Join(secrets, "nats-user.txt"), []byte("u\n"), 0o600)
	os.WriteFile(filepath.Join(secrets, "nats-password.txt"), []byte("p"), 0o600)

	cfg, err := Load(path, secrets)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Nats.Servers != "nats://u:p@localhost:4222,nats://u:p@localhost:4223" {
		t.Fatalf("servers: %s", cfg.Nats.Servers)
	}
}
