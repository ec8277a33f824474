package natsdomain

import "testing"

func TestSubjects(t *testing.T) {
	if got := SubjJsStatus.For("abc"); got != "invoices.js.status.abc" {
		t.Fatalf("got %s", got)
	}
	if got := SubjJsStatus.For("a.b"); got != "invoices.js.status.a_b" {
		t.Fatalf("got %s", got)
	}
	if got := SubjJsStatus.All(); got != "invoices.js.status.*" {
		t.Fatalf("got %s", got)
	}
	if NewMsgId("abc", MsgActionStatus, "paid") != "abc_status_paid" {
		t.Fatal("wrong msg id")
	}
}
