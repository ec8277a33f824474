package config

import (
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	t.Setenv("WIDGET_PAGE_URL", "https://pay.example.com/i/abc/")
	t.Setenv("WIDGET_INVOICE_ID", "abc")
	t.Setenv("WIDGET_FIATS", "USD,EUR,GBP")

	cfg, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PollInterval != 2*time.Second || !cfg.Push {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if len(cfg.Fiats) != 3 || cfg.Fiats[2] != "GBP" {
		t.Fatalf("fiats = %v", cfg.Fiats)
	}
}

func TestReadRequiresPageURL(t *testing.T) {
	t.Setenv("WIDGET_PAGE_URL", "")
	if _, err := Read(); err == nil {
		t.Fatal("expected error without page url")
	}
}

func TestReadRejectsZeroInterval(t *testing.T) {
	t.Setenv("WIDGET_PAGE_URL", "https://pay.example.com/i/abc/")
	t.Setenv("WIDGET_POLL_INTERVAL", "0s")
	if _, err := Read(); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
