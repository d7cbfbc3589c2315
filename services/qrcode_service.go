// Package services holds gate-side helpers that need no backend call: local QR
// rendering, batch validation and download naming.
// File: services/qrcode_service.go
package services

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length, in pixels, of locally rendered ticket QR codes.
const DefaultQRSize = 256

// QRCodeEncoder matches qrcode.Encode so tests can substitute it.
type QRCodeEncoder func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

// GenerateTicketQR renders payload as a PNG. The dashboard uses it for "dev" QR codes
// that do not round-trip through the backend's QR endpoint.
func GenerateTicketQR(payload string, size int, encode QRCodeEncoder) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("invalid dimensions: size must be positive")
	}
	if payload == "" {
		return nil, errors.New("empty QR payload")
	}
	if encode == nil {
		encode = qrcode.Encode
	}

	png, err := encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return png, nil
}
