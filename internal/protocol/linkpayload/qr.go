package linkpayload

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"devlink/internal/domain"
)

// DefaultQRSize is the PNG edge length in pixels used when none is configured.
const DefaultQRSize = 256

// QREncoder renders link payloads as QR codes of their deep link.
type QREncoder struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewQREncoder returns an encoder producing square PNGs of the given edge
// length. level is one of L, M, Q or H; anything else means M.
func NewQREncoder(size int, level string) *QREncoder {
	if size <= 0 {
		size = DefaultQRSize
	}
	return &QREncoder{size: size, level: RecoveryLevel(level)}
}

// RecoveryLevel maps an error correction letter onto a qrcode level.
func RecoveryLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// PNG renders the payload's deep link as a PNG image.
func (e *QREncoder) PNG(p domain.LinkPayload) ([]byte, error) {
	code, err := e.encode(p)
	if err != nil {
		return nil, err
	}
	png, err := code.PNG(e.size)
	if err != nil {
		return nil, errors.Wrap(err, "render qr png")
	}
	return png, nil
}

// Terminal renders the payload's deep link with half-block characters for
// display in a terminal.
func (e *QREncoder) Terminal(p domain.LinkPayload) (string, error) {
	code, err := e.encode(p)
	if err != nil {
		return "", err
	}
	return code.ToSmallString(false), nil
}

func (e *QREncoder) encode(p domain.LinkPayload) (*qrcode.QRCode, error) {
	uri, err := URI(p)
	if err != nil {
		return nil, err
	}
	code, err := qrcode.New(uri, e.level)
	if err != nil {
		return nil, errors.Wrap(err, "create qr code")
	}
	return code, nil
}
