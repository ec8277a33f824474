package service

import (
	"bytes"

	"checkout/api/internal/infra/cache"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

type QrCodesService struct {
}

func NewQrCodesService() *QrCodesService {
	return &QrCodesService{}
}

func (s *QrCodesService) New(content string) ([]byte, error) {
	qr, err := generateQrCode(content)
	if err != nil {
		return nil, err
	}

	cache.SaveQrCode(content, qr)

	return qr, nil
}

func (s *QrCodesService) FindOrNew(content string) ([]byte, error) {
	if qr := cache.FindQrCode(content); qr != nil {
		return qr, nil
	}
	return s.New(content)
}

type smallerCircle struct {
	smallerPercent float64
}

func (sc *smallerCircle) DrawFinder(ctx *standard.DrawContext) {
	backup := sc.smallerPercent
	sc.smallerPercent = 1.0
	sc.Draw(ctx)
	sc.smallerPercent = backup
}

func newShape(radiusPercent float64) standard.IShape {
	return &smallerCircle{smallerPercent: radiusPercent}
}

func (sc *smallerCircle) Draw(ctx *standard.DrawContext) {
	w, h := ctx.Edge()
	x, y := ctx.UpperLeft()
	color := ctx.Color()

	// choose a proper radius values
	radius := w / 2
	r2 := h / 2
	if r2 <= radius {
		radius = r2
	}

	radius = int(float64(radius) * sc.smallerPercent)

	cx, cy := x+float64(w)/2.0, y+float64(h)/2.0 // get center point
	ctx.DrawCircle(cx, cy, float64(radius))
	ctx.SetColor(color)
	ctx.Fill()
}

type bufferAdaptor struct {
	*bytes.Buffer
}

func (b bufferAdaptor) Close() error {
	return nil
}

// returns png image
func generateQrCode(content string) ([]byte, error) {
	qrc, err := qrcode.New(content)
	if err != nil {
		return nil, err
	}

	b := bufferAdaptor{Buffer: bytes.NewBuffer(nil)}
	w := standard.NewWithWriter(b,
		standard.WithCustomShape(newShape(0.7)),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	)

	if err = qrc.Save(w); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
