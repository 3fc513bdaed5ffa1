package qrcode

import (
	"errors"

	goqrcode "github.com/skip2/go-qrcode"
)

// Encoder renders PNG QR codes with medium error correction.
type Encoder struct {
	Level goqrcode.RecoveryLevel
}

func NewEncoder() *Encoder {
	return &Encoder{Level: goqrcode.Medium}
}

func (e *Encoder) EncodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("empty qr content")
	}
	return goqrcode.Encode(content, e.Level, size)
}
