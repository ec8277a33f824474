package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Crypto uint8

const (
	CRYPTO_NONE Crypto = iota // only for init
	CRYPTO_BTC
	CRYPTO_LTC
	CRYPTO_ETH
	CRYPTO_SOL
	CRYPTO_TON
)

var Cryptos = [...]string{"none", "btc", "ltc", "eth", "sol", "ton"}

func (c Crypto) ToString() string {
	return Cryptos[c]
}

func (c Crypto) IsNone() bool {
	return c == 0
}

func StrToCrypto(s string) Crypto {
	s = strings.ToLower(s)
	for i, currencyName := range Cryptos {
		if s == currencyName {
			return Crypto(i)
		}
	}
	return CRYPTO_NONE
}

// one way to pay an invoice, e.g. "btc" or "btc-lightning"
type PaymentMethods struct {
	Model
	ID          uint            `gorm:"primaryKey"`
	InvoiceID   string          `gorm:"index;not null"`
	MethodID    string          `gorm:"type:varchar(32);not null"`
	Crypto      string          `gorm:"type:varchar(8)"`
	Amount      decimal.Decimal `gorm:"type:numeric"` // amount in Crypto
	Address     string          `gorm:"type:text"`    // on-chain address or bolt11 invoice
	PaymentURL  string          `gorm:"type:text"`    // qr payload, bitcoin:<addr>?amount=<x> / lightning:<bolt11>
	IsLightning bool
	PeerInfo    string `gorm:"type:text"` // node uri, lightning only
}

// CryptoForMethod maps "btc-lightning" to btc.
func CryptoForMethod(methodId string) Crypto {
	symbol, _, _ := strings.Cut(methodId, "-")
	return StrToCrypto(symbol)
}

// payment uri scheme of the chain
func (c Crypto) URIScheme() string {
	switch c {
	case CRYPTO_BTC:
		return "bitcoin"
	case CRYPTO_LTC:
		return "litecoin"
	case CRYPTO_ETH:
		return "ethereum"
	case CRYPTO_SOL:
		return "solana"
	case CRYPTO_TON:
		return "ton"
	}
	return c.ToString()
}
