package nats

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func TestParseStatusChanged(t *testing.T) {
	id := gofakeit.UUID()

	tests := []struct {
		data    []byte
		isValid bool
	}{
		{[]byte(`{"invoiceId":"` + id + `","status":"paid"}`), true},
		{[]byte(`{"invoiceId":"` + id + `"}`), false},
		{[]byte(`{"status":"paid"}`), false},
		{[]byte(""), false},
		{[]byte(gofakeit.LetterN(100)), false},
	}

	for _, i := range tests {
		event, err := ParseStatusChanged(i.data)
		if i.isValid != (err == nil) {
			t.Fatalf("%s: err = %v", string(i.data), err)
		}
		if i.isValid && (event.InvoiceID != id || event.Status != "paid") {
			t.Fatalf("event = %+v", event)
		}
	}
}
