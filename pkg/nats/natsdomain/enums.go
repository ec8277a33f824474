package natsdomain

import "strings"

type ActionType string

const (
	// api -> push hub, status changed
	MsgActionStatus ActionType = "status"
)

// .js. - jetstream
var Streams = [...]string{"invoices"}

var SubjectsJetStream = [...]string{"invoices.js.status"}

type StreamType uint8
type SubjJsType uint8

const (
	StreamInvoices StreamType = iota
)

// nats jetstream subjects
const (
	// invoices.js.status.<invoice id>
	SubjJsStatus SubjJsType = iota
)

func (s StreamType) String() string {
	return Streams[s]
}

func (s SubjJsType) String() string {
	return SubjectsJetStream[s]
}

// subject for one invoice, dots in the id are not allowed by nats tokens
func (s SubjJsType) For(id string) string {
	return s.String() + "." + strings.ReplaceAll(id, ".", "_")
}

// wildcard over every invoice
func (s SubjJsType) All() string {
	return s.String() + ".*"
}
