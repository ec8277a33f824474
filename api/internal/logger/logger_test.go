package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func TestAnyToStr(t *testing.T) {

	tests := []struct {
		T    any
		TStr string
	}{
		{10, "10"},
		{-10, "-10"},
		{true, "true"},
		{false, "false"},
		{"test", "test"},
		{"", ""},
		{nil, "<nil>"},
		{struct{}{}, "{}"},

		{struct {
			Z string
			F int
		}{"test", 10}, "{test 10}"},

		{[]int{1, 2, 3}, "[1 2 3]"},
	}

	for _, x := range tests {
		res := AnyToStr(x.T)
		if x.TStr != res {
			t.Log(x.T)
			t.Fatalf("failed: %s != %s", x.TStr, res)
		}

	}

}

func readStream(t *testing.T, buf *bytes.Buffer) []LogMessage {
	t.Helper()

	var msgs []LogMessage
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m LogMessage
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid stream line %q: %v", sc.Text(), err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func TestStream(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	invoiceId := gofakeit.UUID()
	l.Info("status changed", LS_INVOICES, false, "invoice_id", invoiceId)
	l.TemplNatsError("publish failed", "nats://localhost:4222", errors.New("timeout"))
	l.Debug("debug records stay out of the stream", "k", "v")

	msgs := readStream(t, &buf)
	if len(msgs) != 2 {
		t.Fatalf("got %d records", len(msgs))
	}

	if msgs[0].LogLevel != "INFO" || msgs[0].LogStream != "invoices" || msgs[0].Args["invoice_id"] != invoiceId {
		t.Fatalf("info record: %+v", msgs[0])
	}
	if !strings.HasSuffix(msgs[0].Source.File, "logger_test.go") {
		t.Fatalf("caller = %s", msgs[0].Source.File)
	}

	if msgs[1].LogLevel != "ERROR" || msgs[1].LogStream != "nats" || msgs[1].Args["error"] != "timeout" {
		t.Fatalf("error record: %+v", msgs[1])
	}
	if !strings.HasSuffix(msgs[1].Source.File, "logger_test.go") {
		t.Fatalf("template caller = %s", msgs[1].Source.File)
	}
}

func TestFormatLogRejectsBadArgs(t *testing.T) {
	if _, err := formatLog(LL_INFO, "m", LS_INVOICES, 0, "f", 1, "key"); err == nil {
		t.Fatal("odd args accepted")
	}
	if _, err := formatLog(LL_INFO, "m", LS_INVOICES, 0, "f", 1, 10, "v"); err == nil {
		t.Fatal("non-string key accepted")
	}
}

func TestGenErrorId(t *testing.T) {
	if a, b := GenErrorId(), GenErrorId(); a == b || len(a) != 36 {
		t.Fatalf("ids: %s %s", a, b)
	}
}
