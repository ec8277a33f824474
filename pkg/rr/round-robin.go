package rr

import (
	"sync/atomic"
)

// RoundRobin hands out items of a list that may be swapped at any time.
type RoundRobin interface {
	Next() (string, bool)
	Count() int
}

type rr struct {
	data  *atomic.Pointer[[]string]
	index atomic.Uint32
}

func New(data *atomic.Pointer[[]string]) *rr {
	return &rr{data: data}
}

func (rr *rr) list() []string {
	if p := rr.data.Load(); p != nil {
		return *p
	}
	return nil
}

// Next returns false when the list is empty.
func (rr *rr) Next() (string, bool) {
	items := rr.list()
	if len(items) == 0 {
		return "", false
	}

	n := rr.index.Add(1)
	return items[(int(n)-1)%len(items)], true
}

func (rr *rr) Count() int {
	return len(rr.list())
}
