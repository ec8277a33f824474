package cache

import "sync"

type Cache struct {
	Storage sync.Map
}

// cache
var (
	InvoicesCache          = InitStorage()
	QrCodesCache           = InitStorage()
	InvoiceRateLimitsCache = InitStorage()
)
