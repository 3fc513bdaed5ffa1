package qrcode

// Encoder renders content as a square PNG QR code of the given pixel size.
type Encoder interface {
	EncodePNG(content string, size int) ([]byte, error)
}
