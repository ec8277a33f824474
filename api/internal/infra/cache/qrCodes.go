package cache

import "time"

const QrCodeExpiration = time.Hour

func SaveQrCode(payload string, png []byte) {
	QrCodesCache.Set(payload, png, QrCodeExpiration)
}

// returns qr code from cache
//
// if not found, returns nil
func FindQrCode(payload string) []byte {
	qrCode, ok := QrCodesCache.Load(payload).([]byte)
	if !ok {
		return nil
	}
	return qrCode
}
