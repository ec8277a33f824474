package service

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func TestFindOrNew(t *testing.T) {
	s := NewQrCodesService()
	content := "bitcoin:" + gofakeit.BitcoinAddress() + "?amount=0.001"

	qr, err := s.FindOrNew(content)
	if err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(bytes.NewReader(qr))
	if err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Fatal("empty image")
	}

	cached, err := s.FindOrNew(content)
	if err != nil {
		t.Fatal(err)
	}
	if &cached[0] != &qr[0] {
		t.Fatal("second call did not use the cache")
	}
}
