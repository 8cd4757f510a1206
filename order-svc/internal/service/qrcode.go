package service

import (
	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(payload string) ([]byte, error)
}

// DefaultQRGenerator renders the provider's QR payload as a PNG.
type DefaultQRGenerator struct {
	Size int
}

func (g DefaultQRGenerator) Generate(payload string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
